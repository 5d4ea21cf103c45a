package models

import "time"

const (
	TabStatusOpen   = "open"
	TabStatusClosed = "closed"
)

// Defaults applied when the attendant leaves the fields blank.
const (
	DefaultNickname  = "Sem apelido"
	DefaultAttendant = "Atendente"
)

// Tab is one customer's comanda: an open running order that accumulates
// items until it is closed against a payment split or cancelled while empty.
type Tab struct {
	ID               string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Nickname         string          `gorm:"type:varchar(255);not null" json:"nickname"`
	Status           string          `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	CurrentAttendant string          `gorm:"type:varchar(255);not null" json:"current_attendant"`
	Turns            []AttendantTurn `gorm:"foreignKey:TabID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"attendant_history,omitempty"`
	OpenedAt         time.Time       `gorm:"not null" json:"opened_at"`
	Total            float64         `gorm:"type:decimal(10,2);not null;default:0.00" json:"total"`
	ClosedAt         *time.Time      `json:"closed_at,omitempty"`
	ClosedDate       *string         `gorm:"type:varchar(10)" json:"closed_date,omitempty"`
	ClosedBy         *string         `gorm:"type:varchar(255)" json:"closed_by,omitempty"`
	PaymentPix       float64         `gorm:"type:decimal(10,2);not null;default:0.00" json:"payment_pix"`
	PaymentCard      float64         `gorm:"type:decimal(10,2);not null;default:0.00" json:"payment_card"`
	PaymentCash      float64         `gorm:"type:decimal(10,2);not null;default:0.00" json:"payment_cash"`
	Items            []TabItem       `gorm:"foreignKey:TabID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items,omitempty"`
}

func (t *Tab) IsClosed() bool {
	return t.Status == TabStatusClosed
}

// PaymentSplit is how a closed tab was settled. A single payment method is
// just a split with one non-zero amount.
type PaymentSplit struct {
	Pix  float64 `json:"pix"`
	Card float64 `json:"card"`
	Cash float64 `json:"cash"`
}

func (p PaymentSplit) Sum() float64 {
	return p.Pix + p.Card + p.Cash
}
