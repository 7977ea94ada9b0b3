package cache

import (
	"context"
	"testing"
	"time"
)

func TestSetNilReportIsNoop(t *testing.T) {
	t.Parallel()
	c := NewRedisReportCache("127.0.0.1:1", "", 0)
	t.Cleanup(func() { c.Close() })

	if err := c.Set(context.Background(), "report:all", nil, time.Minute); err != nil {
		t.Fatalf("Set(nil) error = %v", err)
	}
}

func TestUnreachableServerReturnsErrors(t *testing.T) {
	t.Parallel()
	c := NewRedisReportCache("127.0.0.1:1", "", 0)
	t.Cleanup(func() { c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.Ping(ctx); err == nil {
		t.Fatal("expected ping to fail against closed port")
	}
	report, ok, err := c.Get(ctx, "report:all")
	if err == nil || ok || report != nil {
		t.Fatalf("Get = %v, %v, %v; want error and miss", report, ok, err)
	}
	if err := c.Invalidate(ctx); err == nil {
		t.Fatal("expected invalidate to fail against closed port")
	}
}
