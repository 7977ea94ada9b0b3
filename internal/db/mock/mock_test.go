package mock

import (
	"context"
	"testing"

	"bakehouse/internal/auth"
	"bakehouse/internal/bakery"
	"bakehouse/models"
)

func TestNewSeedsExpectedRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := New(ctx)
	if err != nil {
		t.Fatalf("mock database initialization failed: %v", err)
	}

	b := bakery.New(db, bakery.Options{})
	ingredients, err := b.Inventory.ListAll(ctx)
	if err != nil {
		t.Fatalf("list ingredients: %v", err)
	}
	if len(ingredients) != 5 {
		t.Fatalf("expected 5 seeded ingredients, got %d", len(ingredients))
	}

	low, err := b.Inventory.ListLowStock(ctx)
	if err != nil {
		t.Fatalf("list low stock: %v", err)
	}
	if len(low) != 1 || low[0].Name != "Milk" {
		t.Fatalf("expected Milk to start low, got %+v", low)
	}

	cake, err := b.Recipes.FindByName(ctx, "Sponge Cake")
	if err != nil {
		t.Fatalf("find sponge cake: %v", err)
	}
	if len(cake.Ingredients) != 4 {
		t.Fatalf("expected 4 sponge cake requirements, got %d", len(cake.Ingredients))
	}

	user, err := auth.NewStore(db).Authenticate(ctx, AdminUsername, AdminPassword)
	if err != nil {
		t.Fatalf("authenticate seeded admin: %v", err)
	}
	if user.Role != models.RoleAdmin {
		t.Fatalf("admin role = %q", user.Role)
	}
}

func TestNewReturnsIndependentDatabases(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	first, err := New(ctx)
	if err != nil {
		t.Fatalf("first mock: %v", err)
	}
	second, err := New(ctx)
	if err != nil {
		t.Fatalf("second mock: %v", err)
	}

	b := bakery.New(first, bakery.Options{})
	if _, err := b.Inventory.Add(ctx, bakery.NewIngredient{Name: "Salt", Quantity: 1}); err != nil {
		t.Fatalf("add salt: %v", err)
	}
	if _, err := bakery.New(second, bakery.Options{}).Inventory.FindByName(ctx, "Salt"); err == nil {
		t.Fatal("expected second mock database to be unaffected")
	}
}
