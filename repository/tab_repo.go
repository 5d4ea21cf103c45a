package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/otaviofreire/comanda-app/models"
	"github.com/otaviofreire/comanda-app/utils"
)

// ErrPaymentMismatch reports a close attempt whose pix/card/cash split does
// not add up to the tab's total. Amounts are in cents.
type ErrPaymentMismatch struct {
	Expected int64
	Informed int64
}

func (e *ErrPaymentMismatch) Error() string {
	return fmt.Sprintf("os valores nao fecham: esperado %s, informado %s",
		utils.FormatCurrencyBRL(float64(e.Expected)/100),
		utils.FormatCurrencyBRL(float64(e.Informed)/100))
}

// TabRepo owns every state change to tabs and their items. All multi-field
// mutations run inside one database transaction holding a row lock on the
// tab, and the tab total is only ever adjusted by the delta of the item
// change committed with it, so the invariant total == sum(items.line_total)
// holds at every commit point and no mutator can interleave with a
// concurrent close or cancel of the same tab.
//
// Mutators return false instead of an error for expected preconditions (tab
// missing, tab closed, item missing, bad quantity). Transport and database
// failures are logged and also collapse to false; callers decide the
// user-facing message.
type TabRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTabRepo(db *gorm.DB) *TabRepo {
	return &TabRepo{db: db, now: time.Now}
}

// CreateTab opens a new empty tab. Single insert, no transaction needed:
// there is no concurrent invariant to protect on a document nobody has seen.
func (r *TabRepo) CreateTab(nickname, attendant string) (*models.Tab, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		nickname = models.DefaultNickname
	}
	attendant = strings.TrimSpace(attendant)
	if attendant == "" {
		attendant = models.DefaultAttendant
	}

	now := r.now()
	tab := models.Tab{
		ID:               uuid.NewString(),
		Nickname:         nickname,
		Status:           models.TabStatusOpen,
		CurrentAttendant: attendant,
		Turns:            []models.AttendantTurn{{Name: attendant, StartedAt: now}},
		OpenedAt:         now,
		Total:            0,
	}
	if err := r.db.Create(&tab).Error; err != nil {
		utils.ErrorLogger.Printf("create tab: %v", err)
		return nil, err
	}
	return &tab, nil
}

// ListTabs returns every tab, newest first.
func (r *TabRepo) ListTabs() ([]models.Tab, error) {
	var tabs []models.Tab
	if err := r.db.Preload("Turns").Order("opened_at desc").Find(&tabs).Error; err != nil {
		return nil, err
	}
	return tabs, nil
}

// GetTab loads one tab with its items and attendant history, or nil if it
// does not exist.
func (r *TabRepo) GetTab(tabID string) (*models.Tab, error) {
	var tab models.Tab
	err := r.db.Preload("Items").Preload("Turns").First(&tab, "id = ?", tabID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tab, nil
}

// ListItems returns a tab's current line items, oldest first.
func (r *TabRepo) ListItems(tabID string) ([]models.TabItem, error) {
	var items []models.TabItem
	if err := r.db.Where("tab_id = ?", tabID).Order("added_at asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// lockTab reads a tab row FOR UPDATE, or nil if it does not exist. The status
// guard and the writes that follow it must commit against the same row
// version, so every mutator reads through this lock; SQLite drops the clause
// and serializes writers on its own, MySQL holds the row lock until commit.
func lockTab(tx *gorm.DB, tabID string) (*models.Tab, error) {
	var tab models.Tab
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&tab, "id = ?", tabID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tab, nil
}

// AddItem adds qty of a product to an open tab. The line is keyed by product
// id: a repeat add sums the quantities and recomputes the line from the
// price snapshot stored at first add; the price argument is ignored on
// repeat adds so the snapshot never drifts with catalog changes.
func (r *TabRepo) AddItem(tabID, productID, name string, price, qty float64) bool {
	qty = NormalizeQty(qty)
	if qty <= 0 {
		return false
	}

	changed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		tab, err := lockTab(tx, tabID)
		if err != nil {
			return err
		}
		if tab == nil || tab.IsClosed() {
			return nil
		}

		var item models.TabItem
		err = tx.First(&item, "tab_id = ? AND product_id = ?", tabID, productID).Error
		switch {
		case err == nil:
			oldLine := item.LineTotal
			newQty := NormalizeQty(item.Qty + qty)
			newLine := newQty * item.PriceSnapshot
			if err := tx.Model(&models.TabItem{}).
				Where("tab_id = ? AND product_id = ?", tabID, productID).
				Updates(map[string]interface{}{"qty": newQty, "line_total": newLine}).Error; err != nil {
				return err
			}
			if err := bumpTotal(tx, tabID, newLine-oldLine); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = models.TabItem{
				TabID:         tabID,
				ProductID:     productID,
				NameSnapshot:  name,
				PriceSnapshot: price,
				Qty:           qty,
				LineTotal:     qty * price,
				AddedAt:       r.now(),
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			if err := bumpTotal(tx, tabID, item.LineTotal); err != nil {
				return err
			}
		default:
			return err
		}

		changed = true
		return nil
	})
	if err != nil {
		utils.ErrorLogger.Printf("add item %s to tab %s: %v", productID, tabID, err)
		return false
	}
	return changed
}

// UpdateItemQty sets a line's quantity outright. Same normalization policy
// as AddItem: 0.001 resolution, floor of 1 when the result would be zero or
// negative.
func (r *TabRepo) UpdateItemQty(tabID, productID string, qty float64) bool {
	newQty := NormalizeQty(qty)
	if newQty <= 0 {
		return false
	}

	changed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		tab, err := lockTab(tx, tabID)
		if err != nil {
			return err
		}
		if tab == nil || tab.IsClosed() {
			return nil
		}

		var item models.TabItem
		if err := tx.First(&item, "tab_id = ? AND product_id = ?", tabID, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		newLine := newQty * item.PriceSnapshot
		if err := tx.Model(&models.TabItem{}).
			Where("tab_id = ? AND product_id = ?", tabID, productID).
			Updates(map[string]interface{}{"qty": newQty, "line_total": newLine}).Error; err != nil {
			return err
		}
		if err := bumpTotal(tx, tabID, newLine-item.LineTotal); err != nil {
			return err
		}

		changed = true
		return nil
	})
	if err != nil {
		utils.ErrorLogger.Printf("update qty of item %s on tab %s: %v", productID, tabID, err)
		return false
	}
	return changed
}

// RemoveItem deletes a line and decrements the tab total by the line's
// last-known lineTotal.
func (r *TabRepo) RemoveItem(tabID, productID string) bool {
	changed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		tab, err := lockTab(tx, tabID)
		if err != nil {
			return err
		}
		if tab == nil || tab.IsClosed() {
			return nil
		}

		var item models.TabItem
		if err := tx.First(&item, "tab_id = ? AND product_id = ?", tabID, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Where("tab_id = ? AND product_id = ?", tabID, productID).
			Delete(&models.TabItem{}).Error; err != nil {
			return err
		}
		if err := bumpTotal(tx, tabID, -item.LineTotal); err != nil {
			return err
		}

		changed = true
		return nil
	})
	if err != nil {
		utils.ErrorLogger.Printf("remove item %s from tab %s: %v", productID, tabID, err)
		return false
	}
	return changed
}

// ChangeAttendant hands the tab to another attendant: the open history turn
// gets its end timestamp and a new open turn is appended. Handing a tab to
// the attendant already holding it is not an error and still returns true.
func (r *TabRepo) ChangeAttendant(tabID, newName string) bool {
	name := strings.TrimSpace(newName)
	if name == "" {
		return false
	}

	changed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		tab, err := lockTab(tx, tabID)
		if err != nil {
			return err
		}
		if tab == nil || tab.IsClosed() {
			return nil
		}

		now := r.now()
		if err := tx.Model(&models.AttendantTurn{}).
			Where("tab_id = ? AND ended_at IS NULL", tabID).
			Update("ended_at", now).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.AttendantTurn{
			TabID:     tabID,
			Name:      name,
			StartedAt: now,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Tab{}).Where("id = ?", tabID).
			Update("current_attendant", name).Error; err != nil {
			return err
		}

		changed = true
		return nil
	})
	if err != nil {
		utils.ErrorLogger.Printf("change attendant of tab %s: %v", tabID, err)
		return false
	}
	return changed
}

// CancelEmptyTab deletes an open tab that currently has zero items. The
// existence probe runs inside the same transaction as the delete, so a tab
// that gains an item mid-check is not lost. "Empty" means zero items right
// now: a tab whose items were all removed again can still be cancelled.
func (r *TabRepo) CancelEmptyTab(tabID string) bool {
	changed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		tab, err := lockTab(tx, tabID)
		if err != nil {
			return err
		}
		if tab == nil || tab.Status != models.TabStatusOpen {
			return nil
		}

		var probe []models.TabItem
		if err := tx.Select("product_id").Where("tab_id = ?", tabID).
			Limit(1).Find(&probe).Error; err != nil {
			return err
		}
		if len(probe) > 0 {
			return nil
		}

		if err := tx.Where("tab_id = ?", tabID).Delete(&models.AttendantTurn{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Tab{}, "id = ?", tabID).Error; err != nil {
			return err
		}

		changed = true
		return nil
	})
	if err != nil {
		utils.ErrorLogger.Printf("cancel tab %s: %v", tabID, err)
		return false
	}
	return changed
}

// CloseTab settles an open tab against a pix/card/cash split and locks it.
// The split must add up to the tab total exactly, compared in cents; a
// mismatch is rejected before the transaction with ErrPaymentMismatch so the
// caller can show the expected and informed amounts. Every other failure
// (missing, already closed, zero total, transport) returns plain false.
// Closing is terminal: all mutators refuse the tab afterwards.
func (r *TabRepo) CloseTab(tabID string, split models.PaymentSplit) (bool, error) {
	var tab models.Tab
	if err := r.db.First(&tab, "id = ?", tabID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.ErrorLogger.Printf("close tab %s: %v", tabID, err)
		}
		return false, nil
	}
	if tab.IsClosed() {
		return false, nil
	}

	informed := Cents(split.Sum())
	if expected := Cents(tab.Total); expected != informed {
		return false, &ErrPaymentMismatch{Expected: expected, Informed: informed}
	}

	changed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		cur, err := lockTab(tx, tabID)
		if err != nil {
			return err
		}
		if cur == nil || cur.IsClosed() || cur.Total <= 0 {
			return nil
		}
		// The total may have moved between the pre-check and this
		// transaction; the split must match what is being locked in.
		if Cents(cur.Total) != informed {
			return nil
		}

		now := r.now()
		closedDate := now.Format("2006-01-02")
		var closedBy *string
		if name := strings.TrimSpace(cur.CurrentAttendant); name != "" {
			closedBy = &name
		}

		if err := tx.Model(&models.Tab{}).
			Where("id = ? AND status = ?", tabID, models.TabStatusOpen).
			Updates(map[string]interface{}{
				"status":       models.TabStatusClosed,
				"payment_pix":  split.Pix,
				"payment_card": split.Card,
				"payment_cash": split.Cash,
				"closed_at":    now,
				"closed_date":  closedDate,
				"closed_by":    closedBy,
			}).Error; err != nil {
			return err
		}

		changed = true
		return nil
	})
	if err != nil {
		utils.ErrorLogger.Printf("close tab %s: %v", tabID, err)
		return false, nil
	}
	return changed, nil
}

// bumpTotal adjusts the tab total by delta without reading it first, the SQL
// counterpart of the document store's atomic increment modifier.
func bumpTotal(tx *gorm.DB, tabID string, delta float64) error {
	return tx.Model(&models.Tab{}).Where("id = ?", tabID).
		UpdateColumn("total", gorm.Expr("total + ?", delta)).Error
}
