package models

import "time"

// Attendant is a staff member who can log in with a PIN. Attendants never
// type their own name; the login screen picks from the active list.
type Attendant struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	PinHash   string    `gorm:"type:varchar(255);not null" json:"-"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
