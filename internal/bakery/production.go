package bakery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	applog "bakehouse/internal/log"
	"bakehouse/models"
)

// stockEpsilon absorbs float noise when comparing stock to requirements.
const stockEpsilon = 1e-9

// Production turns ingredient stock into sold goods.
type Production struct {
	env *env
}

// ProduceRequest asks for BatchCount units of a recipe.
type ProduceRequest struct {
	RecipeID     uint   `json:"recipe_id"`
	BatchCount   int    `json:"batch_count"`
	CustomerName string `json:"customer_name"`
}

// UsageLine is the stock consumed from one ingredient by a production.
type UsageLine struct {
	IngredientID uint    `json:"ingredient_id"`
	Ingredient   string  `json:"ingredient"`
	Unit         string  `json:"unit"`
	Used         float64 `json:"used"`
	Remaining    float64 `json:"remaining"`
	LowStock     bool    `json:"low_stock"`
}

// ProducedReceipt is the stored receipt plus the figures behind it.
type ProducedReceipt struct {
	models.Receipt
	UnitPrice float64     `json:"unit_price"`
	Usage     []UsageLine `json:"usage"`
}

type demand struct {
	ingredientID uint
	required     float64
}

// Produce checks every requirement against current stock, then deducts all of
// them and appends one receipt in the same transaction. Any failure leaves
// stock and the ledger untouched.
func (p *Production) Produce(ctx context.Context, req ProduceRequest) (ProducedReceipt, error) {
	if req.BatchCount <= 0 {
		return ProducedReceipt{}, ErrInvalidAmount
	}

	var result ProducedReceipt
	err := p.env.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		err := tx.Preload("Ingredients", func(q *gorm.DB) *gorm.DB {
			return q.Order("recipe_ingredients.id asc")
		}).First(&recipe, req.RecipeID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecipeNotFound
			}
			return storage("load recipe", err)
		}
		if len(recipe.Ingredients) == 0 {
			return ErrEmptyRecipe
		}

		demands := aggregateDemand(recipe.Ingredients, req.BatchCount)
		ids := make([]uint, 0, len(demands))
		for _, d := range demands {
			ids = append(ids, d.ingredientID)
		}

		stockQuery := tx
		if tx.Dialector.Name() == "postgres" {
			stockQuery = stockQuery.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var stock []models.Ingredient
		if err := stockQuery.Where("id IN ?", ids).Order("id").Find(&stock).Error; err != nil {
			return storage("load stock", err)
		}
		byID := make(map[uint]models.Ingredient, len(stock))
		for _, ingredient := range stock {
			byID[ingredient.ID] = ingredient
		}

		for _, d := range demands {
			ingredient, ok := byID[d.ingredientID]
			if !ok {
				return fmt.Errorf("ingredient %d: %w", d.ingredientID, ErrNotFound)
			}
			if d.required-ingredient.Quantity > stockEpsilon {
				return &InsufficientStockError{
					Ingredient: ingredient.Name,
					Unit:       ingredient.Unit,
					Available:  ingredient.Quantity,
					Required:   d.required,
				}
			}
		}

		usage := make([]UsageLine, 0, len(demands))
		for _, d := range demands {
			ingredient := byID[d.ingredientID]
			remaining := ingredient.Quantity - d.required
			if remaining < 0 {
				remaining = 0
			}
			if err := tx.Model(&models.Ingredient{}).
				Where("id = ?", ingredient.ID).
				Update("quantity", remaining).Error; err != nil {
				return storage("deduct stock", err)
			}
			ingredient.Quantity = remaining
			usage = append(usage, UsageLine{
				IngredientID: ingredient.ID,
				Ingredient:   ingredient.Name,
				Unit:         ingredient.Unit,
				Used:         d.required,
				Remaining:    remaining,
				LowStock:     ingredient.LowStock(),
			})
		}

		total := money(recipe.SellingPrice).Mul(decimal.NewFromInt(int64(req.BatchCount)))
		receipt := models.Receipt{
			RecipeName: recipe.Name,
			Quantity:   req.BatchCount,
			Total:      cents(total),
			CreatedAt:  p.env.now().UTC(),
		}
		if customer := strings.TrimSpace(req.CustomerName); customer != "" {
			receipt.CustomerName = &customer
		}
		receipt.ReceiptText = RenderReceiptText(ReceiptView{
			RecipeName:   receipt.RecipeName,
			Quantity:     receipt.Quantity,
			CustomerName: receipt.CustomerName,
			UnitPrice:    recipe.SellingPrice,
			Total:        receipt.Total,
			CreatedAt:    receipt.CreatedAt.In(p.env.location),
			Usage:        usage,
		})

		if err := tx.Create(&receipt).Error; err != nil {
			return storage("record receipt", err)
		}

		result = ProducedReceipt{Receipt: receipt, UnitPrice: recipe.SellingPrice, Usage: usage}
		return nil
	})
	if err != nil {
		var shortage *InsufficientStockError
		switch {
		case errors.As(err, &shortage):
			applog.Info(ctx, "production rejected", "recipeID", req.RecipeID, "batch", req.BatchCount,
				"ingredient", shortage.Ingredient, "available", shortage.Available, "required", shortage.Required)
		case errors.Is(err, ErrStorage):
			applog.Error(ctx, "production rolled back", "recipeID", req.RecipeID, "error", err)
		}
		return ProducedReceipt{}, err
	}

	applog.Info(ctx, "production recorded", "receiptID", result.ID, "recipe", result.RecipeName,
		"batch", result.Quantity, "total", result.Total)
	for _, line := range result.Usage {
		if line.LowStock {
			applog.Warn(ctx, "ingredient low on stock", "ingredient", line.Ingredient, "remaining", line.Remaining)
		}
	}
	p.env.invalidate(ctx, "production")
	return result, nil
}

// aggregateDemand sums requirements per ingredient, keeping first-seen order,
// so an ingredient listed twice is validated against its combined need.
func aggregateDemand(rows []models.RecipeIngredient, batch int) []demand {
	index := make(map[uint]int, len(rows))
	out := make([]demand, 0, len(rows))
	for _, row := range rows {
		need := row.Quantity * float64(batch)
		if pos, ok := index[row.IngredientID]; ok {
			out[pos].required += need
			continue
		}
		index[row.IngredientID] = len(out)
		out = append(out, demand{ingredientID: row.IngredientID, required: need})
	}
	return out
}
