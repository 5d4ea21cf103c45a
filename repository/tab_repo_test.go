package repository

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otaviofreire/comanda-app/models"
)

func TestCreateTabDefaults(t *testing.T) {
	repo := NewTabRepo(setupTestDB(t))

	tab, err := repo.CreateTab("  ", "")
	require.NoError(t, err)

	assert.NotEmpty(t, tab.ID)
	assert.Equal(t, models.DefaultNickname, tab.Nickname)
	assert.Equal(t, models.TabStatusOpen, tab.Status)
	assert.Equal(t, models.DefaultAttendant, tab.CurrentAttendant)
	assert.Equal(t, 0.0, tab.Total)
	require.Len(t, tab.Turns, 1)
	assert.Equal(t, models.DefaultAttendant, tab.Turns[0].Name)
	assert.Nil(t, tab.Turns[0].EndedAt)
}

func TestCreateTabTrimsInput(t *testing.T) {
	repo := NewTabRepo(setupTestDB(t))

	tab, err := repo.CreateTab("  Mesa 5  ", "  Otavio ")
	require.NoError(t, err)
	assert.Equal(t, "Mesa 5", tab.Nickname)
	assert.Equal(t, "Otavio", tab.CurrentAttendant)
}

// Scenario from the stall's daily flow: two adds of the same product amend
// one line, removal empties it, and an emptied tab can still be cancelled.
func TestAddRepeatRemoveCancelFlow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTabRepo(db)

	tab, err := repo.CreateTab("Mesa 5", "Otavio")
	require.NoError(t, err)

	assert.True(t, repo.AddItem(tab.ID, "p1", "Espetinho", 9.00, 2))
	cur, err := repo.GetTab(tab.ID)
	require.NoError(t, err)
	assert.InDelta(t, 18.00, cur.Total, 1e-9)

	// Repeat add: the price argument is ignored, the first snapshot wins.
	assert.True(t, repo.AddItem(tab.ID, "p1", "Espetinho", 99.99, 1))
	cur, err = repo.GetTab(tab.ID)
	require.NoError(t, err)
	require.Len(t, cur.Items, 1)
	assert.InDelta(t, 3, cur.Items[0].Qty, 1e-9)
	assert.InDelta(t, 9.00, cur.Items[0].PriceSnapshot, 1e-9)
	assert.InDelta(t, 27.00, cur.Items[0].LineTotal, 1e-9)
	assert.InDelta(t, 27.00, cur.Total, 1e-9)

	assert.True(t, repo.RemoveItem(tab.ID, "p1"))
	cur, err = repo.GetTab(tab.ID)
	require.NoError(t, err)
	assert.Empty(t, cur.Items)
	assert.InDelta(t, 0.00, cur.Total, 1e-9)

	// "Empty" means zero items right now, so the emptied tab can go.
	assert.True(t, repo.CancelEmptyTab(tab.ID))
	cur, err = repo.GetTab(tab.ID)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestAddItemGuards(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTabRepo(db)

	assert.False(t, repo.AddItem("missing", "p1", "Espetinho", 9.00, 1))

	tab, err := repo.CreateTab("", "Otavio")
	require.NoError(t, err)
	require.True(t, repo.AddItem(tab.ID, "p1", "Espetinho", 9.00, 1))
	ok, err := repo.CloseTab(tab.ID, models.PaymentSplit{Pix: 9.00})
	require.NoError(t, err)
	require.True(t, ok)

	assert.False(t, repo.AddItem(tab.ID, "p2", "Caipirinha", 12.00, 1))
}

// A quantity that is non-finite or rounds to zero falls back to 1: tapping
// "add" always adds something. The fallback is a deliberate policy choice,
// pinned here because it is easy to regress when touching NormalizeQty.
func TestAddItemQtyFallback(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTabRepo(db)

	tab, err := repo.CreateTab("", "Otavio")
	require.NoError(t, err)

	assert.True(t, repo.AddItem(tab.ID, "p1", "Espetinho", 9.00, math.NaN()))
	cur, err := repo.GetTab(tab.ID)
	require.NoError(t, err)
	require.Len(t, cur.Items, 1)
	assert.InDelta(t, 1, cur.Items[0].Qty, 1e-9)
	assert.InDelta(t, 9.00, cur.Total, 1e-9)

	assert.True(t, repo.AddItem(tab.ID, "p2", "Farofa", 4.00, 0.0004))
	items, err := repo.ListItems(tab.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		if item.ProductID == "p2" {
			assert.InDelta(t, 1, item.Qty, 1e-9)
		}
	}
}

func TestAddItemFractionalQty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTabRepo(db)

	tab, err := repo.CreateTab("", "Otavio")
	require.NoError(t, err)

	// Weight items sell at 0.001 kg resolution.
	assert.True(t, repo.AddItem(tab.ID, "p1", "Carne de sol", 80.00, 0.3456))
	cur, err := repo.GetTab(tab.ID)
	require.NoError(t, err)
	require.Len(t, cur.Items, 1)
	assert.InDelta(t, 0.346, cur.Items[0].Qty, 1e-9)
	assert.InDelta(t, 0.346*80.00, cur.Total, 1e-9)
}

func TestUpdateItemQty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTabRepo(db)

	tab, err := repo.CreateTab("", "Otavio")
	require.NoError(t, err)
	require.True(t, repo.AddItem(tab.ID, "p1", "Espetinho", 9.00, 2))

	assert.True(t, repo.UpdateItemQty(tab.ID, "p1", 5))
	cur, err := repo.GetTab(tab.ID)
	require.NoError(t, err)
	assert.InDelta(t, 45.00, cur.Total, 1e-9)
	assert.InDelta(t, 5, cur.Items[0].Qty, 1e-9)

	// Setting zero floors to one instead of failing.
	assert.True(t, repo.UpdateItemQty(tab.ID, "p1", 0))
	cur, err = repo.GetTab(tab.ID)
	require.NoError(t, err)
	assert.InDelta(t, 9.00, cur.Total, 1e-9)

	assert.False(t, repo.UpdateItemQty(tab.ID, "missing", 2))
	assert.False(t, repo.UpdateItemQty("missing", "p1", 2))
}

func TestRemoveItemGuards(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTabRepo(db)

	tab, err := repo.CreateTab("", "Otavio")
	require.NoError(t, err)

	assert.False(t, repo.RemoveItem(tab.ID, "p1"))
	assert.False(t, repo.RemoveItem("missing", "p1"))
}

func TestChangeAttendant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTabRepo(db)

	tab, err := repo.CreateTab("", "Otavio")
	require.NoError(t, err)

	assert.False(t, repo.ChangeAttendant(tab.ID, "   "))
	assert.True(t, repo.ChangeAttendant(tab.ID, "Yohanna"))

	cur, err := repo.GetTab(tab.ID)
	require.NoError(t, err)
	assert.Equal(t, "Yohanna", cur.CurrentAttendant)
	require.Len(t, cur.Turns, 2)
	assert.Equal(t, "Otavio", cur.Turns[0].Name)
	assert.NotNil(t, cur.Turns[0].EndedAt)
	assert.Equal(t, "Yohanna", cur.Turns[1].Name)
	assert.Nil(t, cur.Turns[1].EndedAt)

	// Handing the tab to the attendant who already holds it is not an error.
	assert.True(t, repo.ChangeAttendant(tab.ID, "Yohanna"))
	cur, err = repo.GetTab(tab.ID)
	require.NoError(t, err)
	require.Len(t, cur.Turns, 3)
	assert.Nil(t, cur.Turns[2].EndedAt)
}

func TestCancelEmptyTabGuards(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTabRepo(db)

	assert.False(t, repo.CancelEmptyTab("missing"))

	tab, err := repo.CreateTab("", "Otavio")
	require.NoError(t, err)
	require.True(t, repo.AddItem(tab.ID, "p1", "Espetinho", 9.00, 1))

	assert.False(t, repo.CancelEmptyTab(tab.ID))
	cur, err := repo.GetTab(tab.ID)
	require.NoError(t, err)
	require.NotNil(t, cur)

	// Closed tabs cannot be cancelled either.
	other, err := repo.CreateTab("", "Otavio")
	require.NoError(t, err)
	require.True(t, repo.AddItem(other.ID, "p1", "Espetinho", 9.00, 1))
	ok, err := repo.CloseTab(other.ID, models.PaymentSplit{Cash: 9.00})
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, repo.CancelEmptyTab(other.ID))
}

// A cancelled tab is gone: every mutator runs its guard against the locked
// row and must refuse, leaving no orphan item or turn rows behind the
// deleted id.
func TestMutatorsAfterCancel(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTabRepo(db)

	tab, err := repo.CreateTab("", "Otavio")
	require.NoError(t, err)
	require.True(t, repo.CancelEmptyTab(tab.ID))

	assert.False(t, repo.AddItem(tab.ID, "p1", "Espetinho", 9.00, 1))
	assert.False(t, repo.UpdateItemQty(tab.ID, "p1", 2))
	assert.False(t, repo.RemoveItem(tab.ID, "p1"))
	assert.False(t, repo.ChangeAttendant(tab.ID, "Ariel"))
	ok, err := repo.CloseTab(tab.ID, models.PaymentSplit{Cash: 9.00})
	require.NoError(t, err)
	assert.False(t, ok)

	var items int64
	require.NoError(t, db.Model(&models.TabItem{}).Where("tab_id = ?", tab.ID).Count(&items).Error)
	assert.Zero(t, items)
	var turns int64
	require.NoError(t, db.Model(&models.AttendantTurn{}).Where("tab_id = ?", tab.ID).Count(&turns).Error)
	assert.Zero(t, turns)
}

func TestCloseTabSplit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTabRepo(db)

	tab, err := repo.CreateTab("", "Otavio ")
	require.NoError(t, err)
	require.True(t, repo.AddItem(tab.ID, "p2", "Caldinho", 6.00, 1))

	// A split that does not add up is rejected with the amounts.
	ok, err := repo.CloseTab(tab.ID, models.PaymentSplit{Pix: 5.00, Cash: 0.50})
	assert.False(t, ok)
	var mismatch *ErrPaymentMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, int64(600), mismatch.Expected)
	assert.Equal(t, int64(550), mismatch.Informed)

	cur, err := repo.GetTab(tab.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TabStatusOpen, cur.Status)

	// Exact split closes and persists the breakdown.
	ok, err = repo.CloseTab(tab.ID, models.PaymentSplit{Pix: 6.00})
	require.NoError(t, err)
	require.True(t, ok)

	cur, err = repo.GetTab(tab.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TabStatusClosed, cur.Status)
	assert.InDelta(t, 6.00, cur.PaymentPix, 1e-9)
	assert.InDelta(t, 0.00, cur.PaymentCard, 1e-9)
	assert.InDelta(t, 0.00, cur.PaymentCash, 1e-9)
	require.NotNil(t, cur.ClosedAt)
	require.NotNil(t, cur.ClosedDate)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, *cur.ClosedDate)
	require.NotNil(t, cur.ClosedBy)
	assert.Equal(t, "Otavio", *cur.ClosedBy)

	// Closing is terminal.
	ok, err = repo.CloseTab(tab.ID, models.PaymentSplit{Pix: 6.00})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCloseTabGuards(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTabRepo(db)

	ok, err := repo.CloseTab("missing", models.PaymentSplit{Pix: 1.00})
	require.NoError(t, err)
	assert.False(t, ok)

	// Empty tab: split of zero matches total of zero, but a tab with
	// nothing on it cannot be closed, only cancelled.
	tab, err := repo.CreateTab("", "Otavio")
	require.NoError(t, err)
	ok, err = repo.CloseTab(tab.ID, models.PaymentSplit{})
	require.NoError(t, err)
	assert.False(t, ok)
	cur, err := repo.GetTab(tab.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TabStatusOpen, cur.Status)
}

func TestClosedTabImmutability(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTabRepo(db)

	tab, err := repo.CreateTab("", "Otavio")
	require.NoError(t, err)
	require.True(t, repo.AddItem(tab.ID, "p2", "Caldinho", 6.00, 1))
	ok, err := repo.CloseTab(tab.ID, models.PaymentSplit{Pix: 6.00})
	require.NoError(t, err)
	require.True(t, ok)

	before, err := repo.GetTab(tab.ID)
	require.NoError(t, err)

	assert.False(t, repo.AddItem(tab.ID, "p3", "Farofa", 4.00, 1))
	assert.False(t, repo.UpdateItemQty(tab.ID, "p2", 5))
	assert.False(t, repo.RemoveItem(tab.ID, "p2"))
	assert.False(t, repo.ChangeAttendant(tab.ID, "Yohanna"))

	after, err := repo.GetTab(tab.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Total, after.Total)
	assert.Equal(t, before.CurrentAttendant, after.CurrentAttendant)
	assert.Len(t, after.Items, len(before.Items))
	assert.Len(t, after.Turns, len(before.Turns))
}

// The central invariant: whatever sequence of item operations runs, the tab
// total always equals the sum of the current lines' totals.
func TestTotalMatchesItemsUnderRandomOps(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTabRepo(db)

	tab, err := repo.CreateTab("", "Otavio")
	require.NoError(t, err)

	products := []struct {
		id    string
		price float64
	}{
		{"p1", 9.00}, {"p2", 6.00}, {"p3", 4.50}, {"p4", 80.00},
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		p := products[rng.Intn(len(products))]
		switch rng.Intn(3) {
		case 0:
			repo.AddItem(tab.ID, p.id, p.id, p.price, rng.Float64()*3)
		case 1:
			repo.UpdateItemQty(tab.ID, p.id, rng.Float64()*5)
		case 2:
			repo.RemoveItem(tab.ID, p.id)
		}

		cur, err := repo.GetTab(tab.ID)
		require.NoError(t, err)
		var sum float64
		for _, item := range cur.Items {
			assert.InDelta(t, item.PriceSnapshot*item.Qty, item.LineTotal, 1e-6)
			sum += item.LineTotal
		}
		assert.InDelta(t, sum, cur.Total, 1e-6, "after op %d", i)
	}
}
