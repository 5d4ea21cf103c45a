package models

import "time"

// AttendantTurn is one entry of a tab's attendant history. The turn with
// EndedAt == nil is the one currently serving the tab; an open tab has
// exactly one such turn.
type AttendantTurn struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	TabID     string     `gorm:"type:varchar(36);index;not null" json:"tab_id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	StartedAt time.Time  `gorm:"not null" json:"from"`
	EndedAt   *time.Time `json:"to"`
}
