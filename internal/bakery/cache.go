package bakery

import (
	"context"
	"sync"
	"time"

	applog "bakehouse/internal/log"
)

// ReportCache stores computed reports between ledger or cost changes.
type ReportCache interface {
	Get(ctx context.Context, key string) (*Report, bool, error)
	Set(ctx context.Context, key string, value *Report, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// NoopReportCache never stores anything.
type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string) (*Report, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ *Report, _ time.Duration) error {
	return nil
}

func (NoopReportCache) Invalidate(_ context.Context) error {
	return nil
}

// cacheState orders report writes against invalidations. A report computed
// before an invalidation must not be stored after it.
type cacheState struct {
	mu         sync.RWMutex
	generation uint64
}

func (e *env) cacheGeneration() uint64 {
	e.cacheState.mu.RLock()
	defer e.cacheState.mu.RUnlock()
	return e.cacheState.generation
}

// storeReport caches report unless an invalidation ran since generation was read.
func (e *env) storeReport(ctx context.Context, key string, report *Report, generation uint64) {
	e.cacheState.mu.RLock()
	defer e.cacheState.mu.RUnlock()
	if e.cacheState.generation != generation {
		applog.Debug(ctx, "report cache write skipped after invalidation", "key", key)
		return
	}
	if err := e.cache.Set(ctx, key, report, e.cacheTTL); err != nil {
		applog.Warn(ctx, "report cache write failed", "key", key, "error", err)
	}
}

// invalidate drops cached reports after a committed change. Cache trouble is
// logged and never fails the mutation that triggered it.
func (e *env) invalidate(ctx context.Context, reason string) {
	e.cacheState.mu.Lock()
	defer e.cacheState.mu.Unlock()
	e.cacheState.generation++
	if err := e.cache.Invalidate(ctx); err != nil {
		applog.Warn(ctx, "report cache invalidation failed", "reason", reason, "error", err)
	}
}
