package bakery

import (
	"context"
	"errors"
	"testing"

	"bakehouse/models"
)

func TestCreateRecipePersistsRequirementsInOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := newTestBakery(t, Options{})

	flour := b.mustAddIngredient(t, NewIngredient{Name: "Flour", Quantity: 1000, Unit: "g"})
	sugar := b.mustAddIngredient(t, NewIngredient{Name: "Sugar", Quantity: 1000, Unit: "g"})

	created := b.mustCreateRecipe(t, NewRecipe{
		Name:         " Victoria Sponge ",
		SellingPrice: 18.5,
		Requirements: []Requirement{
			{IngredientID: sugar.ID, Quantity: 200},
			{IngredientID: flour.ID, Quantity: 225},
		},
	})
	if created.Name != "Victoria Sponge" {
		t.Fatalf("name = %q, want trimmed", created.Name)
	}

	got, err := b.Recipes.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Ingredients) != 2 {
		t.Fatalf("requirements = %d, want 2", len(got.Ingredients))
	}
	if got.Ingredients[0].IngredientID != sugar.ID || got.Ingredients[1].IngredientID != flour.ID {
		t.Fatalf("requirements out of order: %+v", got.Ingredients)
	}
	if got.Ingredients[0].Ingredient == nil || got.Ingredients[0].Ingredient.Name != "Sugar" {
		t.Fatalf("expected preloaded ingredient, got %+v", got.Ingredients[0])
	}
}

func TestCreateRecipeRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := newTestBakery(t, Options{})

	flour := b.mustAddIngredient(t, NewIngredient{Name: "Flour", Quantity: 1000, Unit: "g"})
	b.mustCreateRecipe(t, NewRecipe{Name: "Bagel", SellingPrice: 1.2, Requirements: []Requirement{{IngredientID: flour.ID, Quantity: 90}}})

	valid := []Requirement{{IngredientID: flour.ID, Quantity: 100}}
	tests := []struct {
		name string
		in   NewRecipe
		want error
	}{
		{"duplicate name", NewRecipe{Name: "bagel", Requirements: valid}, ErrDuplicateName},
		{"blank name", NewRecipe{Name: " ", Requirements: valid}, ErrInvalidName},
		{"no requirements", NewRecipe{Name: "Air Cake"}, ErrEmptyRecipe},
		{"zero quantity", NewRecipe{Name: "Thin Cake", Requirements: []Requirement{{IngredientID: flour.ID}}}, ErrInvalidAmount},
		{"negative price", NewRecipe{Name: "Free Cake", SellingPrice: -1, Requirements: valid}, ErrInvalidAmount},
		{"unknown ingredient", NewRecipe{Name: "Mystery Cake", Requirements: []Requirement{{IngredientID: 777, Quantity: 1}}}, ErrNotFound},
	}
	for _, tt := range tests {
		if _, err := b.Recipes.Create(ctx, tt.in); !errors.Is(err, tt.want) {
			t.Fatalf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}

	var count int64
	if err := b.db.Model(&models.Recipe{}).Count(&count).Error; err != nil {
		t.Fatalf("count recipes: %v", err)
	}
	if count != 1 {
		t.Fatalf("recipes = %d, want 1 (failed creates must not persist)", count)
	}
	var links int64
	if err := b.db.Model(&models.RecipeIngredient{}).Count(&links).Error; err != nil {
		t.Fatalf("count recipe ingredients: %v", err)
	}
	if links != 1 {
		t.Fatalf("recipe ingredients = %d, want 1", links)
	}
}

func TestRecipeLookups(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := newTestBakery(t, Options{})

	flour := b.mustAddIngredient(t, NewIngredient{Name: "Flour", Quantity: 1000, Unit: "g"})
	for _, name := range []string{"Croissant", "Baguette", "Danish"} {
		b.mustCreateRecipe(t, NewRecipe{Name: name, SellingPrice: 2, Requirements: []Requirement{{IngredientID: flour.ID, Quantity: 50}}})
	}

	all, err := b.Recipes.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 3 || all[0].Name != "Baguette" || all[2].Name != "Danish" {
		t.Fatalf("ListAll order unexpected: %+v", all)
	}

	if _, err := b.Recipes.Get(ctx, 12345); !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("Get(missing) error = %v", err)
	}
	found, err := b.Recipes.FindByName(ctx, "Danish")
	if err != nil || len(found.Ingredients) != 1 {
		t.Fatalf("FindByName = %+v, %v", found, err)
	}
}
