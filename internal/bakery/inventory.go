package bakery

import (
	"context"
	"errors"
	"math"
	"strings"

	"gorm.io/gorm"

	applog "bakehouse/internal/log"
	"bakehouse/models"
)

// Inventory manages ingredient stock.
type Inventory struct {
	env *env
}

// NewIngredient describes an ingredient to add to the store.
type NewIngredient struct {
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	AlertLevel  float64 `json:"alert_level"`
	CostPerUnit float64 `json:"cost_per_unit"`
}

// StockLevel is an ingredient together with its derived low-stock flag.
type StockLevel struct {
	models.Ingredient
	LowStock bool `json:"low_stock"`
}

// Add creates an ingredient. Names are unique regardless of case.
func (inv *Inventory) Add(ctx context.Context, in NewIngredient) (models.Ingredient, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Ingredient{}, ErrInvalidName
	}
	if invalidNonNegative(in.Quantity) || invalidNonNegative(in.CostPerUnit) || math.IsNaN(in.AlertLevel) {
		return models.Ingredient{}, ErrInvalidAmount
	}

	ingredient := models.Ingredient{
		Name:        name,
		Quantity:    in.Quantity,
		Unit:        strings.TrimSpace(in.Unit),
		AlertLevel:  in.AlertLevel,
		CostPerUnit: in.CostPerUnit,
	}

	err := inv.env.conn(ctx).Transaction(func(tx *gorm.DB) error {
		_, taken, err := matchName(tx, &models.Ingredient{}, name)
		if err != nil {
			return storage("check ingredient name", err)
		}
		if taken {
			return ErrDuplicateName
		}
		if err := tx.Create(&ingredient).Error; err != nil {
			return storage("create ingredient", err)
		}
		return nil
	})
	if err != nil {
		return models.Ingredient{}, err
	}

	applog.Info(ctx, "ingredient added", "id", ingredient.ID, "name", ingredient.Name, "quantity", ingredient.Quantity)
	return ingredient, nil
}

// Restock adds amount to the stored quantity in a single UPDATE.
func (inv *Inventory) Restock(ctx context.Context, id uint, amount float64) (models.Ingredient, error) {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return models.Ingredient{}, ErrInvalidAmount
	}

	var ingredient models.Ingredient
	err := inv.env.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Ingredient{}).
			Where("id = ?", id).
			Update("quantity", gorm.Expr("quantity + ?", amount))
		if res.Error != nil {
			return storage("restock ingredient", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.First(&ingredient, id).Error; err != nil {
			return storage("reload ingredient", err)
		}
		return nil
	})
	if err != nil {
		return models.Ingredient{}, err
	}

	applog.Info(ctx, "ingredient restocked", "id", id, "added", amount, "quantity", ingredient.Quantity)
	inv.env.invalidate(ctx, "restock")
	return ingredient, nil
}

// UpdateCost changes the cost per unit used by report estimates.
func (inv *Inventory) UpdateCost(ctx context.Context, id uint, cost float64) (models.Ingredient, error) {
	if invalidNonNegative(cost) {
		return models.Ingredient{}, ErrInvalidAmount
	}

	res := inv.env.conn(ctx).Model(&models.Ingredient{}).Where("id = ?", id).Update("cost_per_unit", cost)
	if res.Error != nil {
		return models.Ingredient{}, storage("update ingredient cost", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Ingredient{}, ErrNotFound
	}

	inv.env.invalidate(ctx, "cost change")
	return inv.Get(ctx, id)
}

// Get loads one ingredient.
func (inv *Inventory) Get(ctx context.Context, id uint) (models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := inv.env.conn(ctx).First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Ingredient{}, ErrNotFound
		}
		return models.Ingredient{}, storage("load ingredient", err)
	}
	return ingredient, nil
}

// FindByName looks an ingredient up case-insensitively.
func (inv *Inventory) FindByName(ctx context.Context, name string) (models.Ingredient, error) {
	id, ok, err := matchName(inv.env.conn(ctx), &models.Ingredient{}, strings.TrimSpace(name))
	if err != nil {
		return models.Ingredient{}, storage("find ingredient", err)
	}
	if !ok {
		return models.Ingredient{}, ErrNotFound
	}
	return inv.Get(ctx, id)
}

// ListAll returns every ingredient ordered by name.
func (inv *Inventory) ListAll(ctx context.Context) ([]StockLevel, error) {
	return inv.list(ctx, inv.env.conn(ctx))
}

// ListLowStock returns ingredients at or below their alert level.
func (inv *Inventory) ListLowStock(ctx context.Context) ([]StockLevel, error) {
	return inv.list(ctx, inv.env.conn(ctx).Where("quantity <= alert_level"))
}

func (inv *Inventory) list(ctx context.Context, query *gorm.DB) ([]StockLevel, error) {
	var ingredients []models.Ingredient
	if err := query.Order("name asc").Find(&ingredients).Error; err != nil {
		applog.Error(ctx, "failed to list ingredients", "error", err)
		return nil, storage("list ingredients", err)
	}

	levels := make([]StockLevel, 0, len(ingredients))
	for _, ingredient := range ingredients {
		levels = append(levels, StockLevel{Ingredient: ingredient, LowStock: ingredient.LowStock()})
	}
	return levels, nil
}

func invalidNonNegative(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0) || v < 0
}
