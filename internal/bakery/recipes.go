package bakery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"

	applog "bakehouse/internal/log"
	"bakehouse/models"
)

// Recipes manages recipe definitions and their ingredient requirements.
type Recipes struct {
	env *env
}

// Requirement is the amount of one ingredient consumed per produced unit.
type Requirement struct {
	IngredientID uint    `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
}

// NewRecipe describes a recipe to create.
type NewRecipe struct {
	Name         string        `json:"name"`
	SellingPrice float64       `json:"selling_price"`
	Requirements []Requirement `json:"ingredients"`
}

// Create stores the recipe and its requirement rows in one transaction.
func (r *Recipes) Create(ctx context.Context, in NewRecipe) (models.Recipe, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Recipe{}, ErrInvalidName
	}
	if invalidNonNegative(in.SellingPrice) {
		return models.Recipe{}, ErrInvalidAmount
	}
	if len(in.Requirements) == 0 {
		return models.Recipe{}, ErrEmptyRecipe
	}
	for _, req := range in.Requirements {
		if !(req.Quantity > 0) || math.IsInf(req.Quantity, 0) {
			return models.Recipe{}, ErrInvalidAmount
		}
	}

	recipe := models.Recipe{Name: name, SellingPrice: in.SellingPrice}
	err := r.env.conn(ctx).Transaction(func(tx *gorm.DB) error {
		_, taken, err := matchName(tx, &models.Recipe{}, name)
		if err != nil {
			return storage("check recipe name", err)
		}
		if taken {
			return ErrDuplicateName
		}

		for _, req := range in.Requirements {
			var exists int64
			if err := tx.Model(&models.Ingredient{}).Where("id = ?", req.IngredientID).Count(&exists).Error; err != nil {
				return storage("check ingredient", err)
			}
			if exists == 0 {
				return fmt.Errorf("ingredient %d: %w", req.IngredientID, ErrNotFound)
			}
		}

		if err := tx.Omit("Ingredients").Create(&recipe).Error; err != nil {
			return storage("create recipe", err)
		}

		rows := make([]models.RecipeIngredient, 0, len(in.Requirements))
		for _, req := range in.Requirements {
			rows = append(rows, models.RecipeIngredient{
				RecipeID:     recipe.ID,
				IngredientID: req.IngredientID,
				Quantity:     req.Quantity,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return storage("create recipe ingredients", err)
		}
		return nil
	})
	if err != nil {
		return models.Recipe{}, err
	}

	applog.Info(ctx, "recipe created", "id", recipe.ID, "name", recipe.Name, "requirements", len(in.Requirements))
	r.env.invalidate(ctx, "recipe created")
	return r.Get(ctx, recipe.ID)
}

// Get loads a recipe with its requirements in insertion order.
func (r *Recipes) Get(ctx context.Context, id uint) (models.Recipe, error) {
	var recipe models.Recipe
	if err := withRequirements(r.env.conn(ctx)).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Recipe{}, ErrRecipeNotFound
		}
		return models.Recipe{}, storage("load recipe", err)
	}
	return recipe, nil
}

// FindByName loads a recipe by its exact stored name.
func (r *Recipes) FindByName(ctx context.Context, name string) (models.Recipe, error) {
	return findRecipeByName(r.env.conn(ctx), name)
}

// ListAll returns recipes ordered by name.
func (r *Recipes) ListAll(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := withRequirements(r.env.conn(ctx)).Order("name asc").Find(&recipes).Error; err != nil {
		applog.Error(ctx, "failed to list recipes", "error", err)
		return nil, storage("list recipes", err)
	}
	return recipes, nil
}

func findRecipeByName(db *gorm.DB, name string) (models.Recipe, error) {
	var recipe models.Recipe
	if err := withRequirements(db).Where("name = ?", name).First(&recipe).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Recipe{}, ErrRecipeNotFound
		}
		return models.Recipe{}, storage("find recipe", err)
	}
	return recipe, nil
}

func withRequirements(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Ingredients", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("recipe_ingredients.id asc")
		}).
		Preload("Ingredients.Ingredient")
}
