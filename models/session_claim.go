package models

import "time"

// SessionClaim binds an attendant identity to one physical device so two
// devices cannot act as the same attendant at once. A claim whose UpdatedAt
// is older than the idle threshold is stale and may be taken over.
type SessionClaim struct {
	UserID    string    `gorm:"type:varchar(36);primaryKey" json:"user_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	DeviceID  string    `gorm:"type:varchar(64);not null" json:"device_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
