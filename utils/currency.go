package utils

import (
	"fmt"
	"strings"
)

// FormatCurrencyBRL formats a value as Brazilian Real, thousands separated
// by "." and cents by ",". Example: 1234.5 -> "R$ 1.234,50".
func FormatCurrencyBRL(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	formatted := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(formatted, ".")
	integerPart := parts[0]
	decimalPart := parts[1]

	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	result := "R$ " + strings.Join(groups, ".") + "," + decimalPart
	if negative {
		result = "-" + result
	}
	return result
}
