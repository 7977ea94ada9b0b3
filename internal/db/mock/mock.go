package mock

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bakehouse/internal/auth"
	"bakehouse/internal/bakery"
	appdb "bakehouse/internal/db"
	applog "bakehouse/internal/log"
	"bakehouse/models"
)

var instances atomic.Int64

// Seeded credentials.
const (
	AdminUsername = "admin"
	AdminPassword = "admin"
	StaffUsername = "baker"
	StaffPassword = "baker"
)

// New returns an in-memory sqlite database seeded with a small bakery.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := fmt.Sprintf("file:bakehouse-mock-%d?mode=memory&cache=shared", instances.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := appdb.AutoMigrate(db); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

type seedRecipe struct {
	name  string
	price float64
	needs map[string]float64
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	users := auth.NewStore(db)
	if _, err := users.CreateUser(ctx, AdminUsername, AdminPassword, models.RoleAdmin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if _, err := users.CreateUser(ctx, StaffUsername, StaffPassword, models.RoleStaff); err != nil {
		return fmt.Errorf("seed staff: %w", err)
	}

	b := bakery.New(db, bakery.Options{})
	ids := make(map[string]uint)
	for _, in := range []bakery.NewIngredient{
		{Name: "Flour", Quantity: 5000, Unit: "g", AlertLevel: 1000, CostPerUnit: 0.002},
		{Name: "Sugar", Quantity: 3000, Unit: "g", AlertLevel: 500, CostPerUnit: 0.003},
		{Name: "Eggs", Quantity: 60, Unit: "pcs", AlertLevel: 12, CostPerUnit: 0.25},
		{Name: "Butter", Quantity: 2000, Unit: "g", AlertLevel: 400, CostPerUnit: 0.01},
		{Name: "Milk", Quantity: 400, Unit: "ml", AlertLevel: 500, CostPerUnit: 0.001},
	} {
		ingredient, err := b.Inventory.Add(ctx, in)
		if err != nil {
			return fmt.Errorf("seed ingredient %s: %w", in.Name, err)
		}
		ids[ingredient.Name] = ingredient.ID
	}

	for _, r := range []seedRecipe{
		{name: "Sponge Cake", price: 20, needs: map[string]float64{"Flour": 500, "Sugar": 200, "Eggs": 4, "Butter": 200}},
		{name: "Croissant", price: 2.2, needs: map[string]float64{"Flour": 60, "Butter": 40, "Milk": 20}},
		{name: "Sugar Cookie", price: 0.8, needs: map[string]float64{"Flour": 30, "Sugar": 15, "Butter": 10}},
	} {
		in := bakery.NewRecipe{Name: r.name, SellingPrice: r.price}
		for _, name := range []string{"Flour", "Sugar", "Eggs", "Butter", "Milk"} {
			if qty, ok := r.needs[name]; ok {
				in.Requirements = append(in.Requirements, bakery.Requirement{IngredientID: ids[name], Quantity: qty})
			}
		}
		if _, err := b.Recipes.Create(ctx, in); err != nil {
			return fmt.Errorf("seed recipe %s: %w", r.name, err)
		}
	}
	return nil
}
