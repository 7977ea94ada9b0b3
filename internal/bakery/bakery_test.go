package bakery

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appdb "bakehouse/internal/db"
	"bakehouse/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type testBakery struct {
	*Bakery
	db    *gorm.DB
	clock *fakeClock
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := appdb.AutoMigrate(db); err != nil {
		t.Fatalf("migrate schema: %v", err)
	}
	return db
}

func newTestBakery(t *testing.T, opts Options) *testBakery {
	t.Helper()
	db := newTestDB(t)
	clock := &fakeClock{now: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	if opts.Now == nil {
		opts.Now = clock.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &testBakery{Bakery: New(db, opts), db: db, clock: clock}
}

func (b *testBakery) mustAddIngredient(t *testing.T, in NewIngredient) models.Ingredient {
	t.Helper()
	ingredient, err := b.Inventory.Add(context.Background(), in)
	if err != nil {
		t.Fatalf("add ingredient %q: %v", in.Name, err)
	}
	return ingredient
}

func (b *testBakery) mustCreateRecipe(t *testing.T, in NewRecipe) models.Recipe {
	t.Helper()
	recipe, err := b.Recipes.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create recipe %q: %v", in.Name, err)
	}
	return recipe
}

func (b *testBakery) quantityOf(t *testing.T, id uint) float64 {
	t.Helper()
	ingredient, err := b.Inventory.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get ingredient %d: %v", id, err)
	}
	return ingredient.Quantity
}

func (b *testBakery) receiptCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := b.db.Model(&models.Receipt{}).Count(&count).Error; err != nil {
		t.Fatalf("count receipts: %v", err)
	}
	return count
}
