package models

import (
	"strings"
	"time"
)

const (
	UnitTypeUnit    = "unidade"
	UnitTypePortion = "porcao"
	UnitTypeWeight  = "kg"
)

// Product is a sellable catalog item. Removal is a soft delete (Active set
// to false) so closed tabs keep referencing valid product ids.
type Product struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Price     float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	UnitType  string    `gorm:"type:varchar(20);not null;default:'unidade'" json:"unit_type"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// NormalizeUnitType maps free-form unit input onto one of the known unit
// types, defaulting to "unidade".
func NormalizeUnitType(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch {
	case len(raw) >= 2 && raw[:2] == "kg":
		return UnitTypeWeight
	case len(raw) >= 3 && raw[:3] == "por":
		return UnitTypePortion
	default:
		return UnitTypeUnit
	}
}
