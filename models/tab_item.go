package models

import "time"

// TabItem is one product line inside a tab. The key is (TabID, ProductID),
// so adding the same product again amends the existing line instead of
// creating a duplicate. Name and price are snapshots taken at first add and
// never follow later catalog changes.
type TabItem struct {
	TabID         string    `gorm:"type:varchar(36);primaryKey" json:"tab_id"`
	ProductID     string    `gorm:"type:varchar(36);primaryKey" json:"product_id"`
	NameSnapshot  string    `gorm:"type:varchar(255);not null" json:"name"`
	PriceSnapshot float64   `gorm:"type:decimal(10,3);not null" json:"price"`
	Qty           float64   `gorm:"type:decimal(10,3);not null" json:"qty"`
	LineTotal     float64   `gorm:"type:decimal(10,2);not null" json:"line_total"`
	AddedAt       time.Time `gorm:"not null" json:"added_at"`
}
