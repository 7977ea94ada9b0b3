package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrReceiptImmutable is returned when something tries to rewrite the ledger.
var ErrReceiptImmutable = errors.New("receipts are append-only")

// Receipt records one completed production. RecipeName is a snapshot of the
// recipe name at production time, not a reference.
type Receipt struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RecipeName   string    `gorm:"not null;index" json:"recipe_name"`
	Quantity     int       `gorm:"not null" json:"quantity"`
	CustomerName *string   `json:"customer_name"`
	Total        float64   `gorm:"not null" json:"total"`
	ReceiptText  string    `gorm:"type:text" json:"receipt_text"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (r *Receipt) BeforeUpdate(*gorm.DB) error {
	return ErrReceiptImmutable
}

func (r *Receipt) BeforeDelete(*gorm.DB) error {
	return ErrReceiptImmutable
}
