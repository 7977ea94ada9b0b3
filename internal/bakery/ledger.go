package bakery

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bakehouse/models"
)

// Ledger reads the append-only receipt history. Receipts are only ever
// written by Production.
type Ledger struct {
	env *env
}

// List returns the most recent receipts first. A non-positive limit returns all.
func (l *Ledger) List(ctx context.Context, limit int) ([]models.Receipt, error) {
	query := l.env.conn(ctx).Order("created_at desc, id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var receipts []models.Receipt
	if err := query.Find(&receipts).Error; err != nil {
		return nil, storage("list receipts", err)
	}
	return receipts, nil
}

// Get loads a single receipt with its stored text.
func (l *Ledger) Get(ctx context.Context, id uint) (models.Receipt, error) {
	var receipt models.Receipt
	if err := l.env.conn(ctx).First(&receipt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Receipt{}, ErrNotFound
		}
		return models.Receipt{}, storage("load receipt", err)
	}
	return receipt, nil
}
