package repository

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQty(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"nan falls back to one", math.NaN(), 1},
		{"positive infinity falls back to one", math.Inf(1), 1},
		{"negative infinity falls back to one", math.Inf(-1), 1},
		// The floor at zero is a policy decision: a quantity that rounds
		// away to nothing still adds one unit instead of failing.
		{"zero floors to one", 0, 1},
		{"negative floors to one", -5, 1},
		{"rounds away below resolution", 0.0004, 1},
		{"keeps milli resolution", 0.346, 0.346},
		{"rounds half up at milli resolution", 1.2345, 1.235},
		{"integer passes through", 3, 3},
		{"trims excess precision", 2.000001, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, NormalizeQty(tc.in), 1e-9)
		})
	}
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(600), Cents(6.00))
	assert.Equal(t, int64(1999), Cents(19.99))
	assert.Equal(t, int64(30), Cents(0.1+0.2))
	assert.Equal(t, int64(0), Cents(0))
	assert.Equal(t, int64(-550), Cents(-5.50))
}
