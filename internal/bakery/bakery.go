// Package bakery holds the till's business rules: ingredient stock, recipes,
// the production transaction that turns stock into receipts, the receipt
// ledger and profit reporting.
package bakery

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Options tune the services built by New.
type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// Location decides what "today" means for reports. Defaults to time.Local.
	Location *time.Location
	Cache    ReportCache
	CacheTTL time.Duration
}

// Bakery bundles the services that share one database handle.
type Bakery struct {
	Inventory  *Inventory
	Recipes    *Recipes
	Production *Production
	Ledger     *Ledger
	Reports    *Reports

	env *env
}

type env struct {
	db       *gorm.DB
	now      func() time.Time
	location *time.Location
	cache    ReportCache
	cacheTTL time.Duration

	cacheState cacheState
}

// New wires the bakery services over db.
func New(db *gorm.DB, opts Options) *Bakery {
	e := &env{
		db:       db,
		now:      opts.Now,
		location: opts.Location,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.location == nil {
		e.location = time.Local
	}
	if e.cache == nil {
		e.cache = NoopReportCache{}
	}
	if e.cacheTTL <= 0 {
		e.cacheTTL = time.Minute
	}

	return &Bakery{
		Inventory:  &Inventory{env: e},
		Recipes:    &Recipes{env: e},
		Production: &Production{env: e},
		Ledger:     &Ledger{env: e},
		Reports:    &Reports{env: e},
		env:        e,
	}
}

// InvalidateReports drops cached reports after the database changed
// underneath the services, such as a restore.
func (b *Bakery) InvalidateReports(ctx context.Context) {
	b.env.invalidate(ctx, "external change")
}

func (e *env) conn(ctx context.Context) *gorm.DB {
	return e.db.WithContext(ctx)
}
