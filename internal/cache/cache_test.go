package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_GetSetExpire(t *testing.T) {
	ctx := context.Background()
	c := New[string, int](0)
	defer c.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "gas:137", 42, 10*time.Second)

	if v, ok := c.Get(ctx, "gas:137"); !ok || v != 42 {
		t.Fatalf("expected hit 42, got %d %v", v, ok)
	}

	now = now.Add(11 * time.Second)
	if _, ok := c.Get(ctx, "gas:137"); ok {
		t.Error("expected entry to be expired")
	}

	c.purge()
	if n := len(c.items); n != 0 {
		t.Errorf("expected purge to drop expired entry, len=%d", n)
	}
}

func TestCache_SetOverwritesTTL(t *testing.T) {
	ctx := context.Background()
	c := New[string, string](time.Minute)
	defer c.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", "old", time.Second)
	c.Set(ctx, "k", "new", time.Minute)
	now = now.Add(2 * time.Second)

	if v, ok := c.Get(ctx, "k"); !ok || v != "new" {
		t.Errorf("expected hit new, got %q %v", v, ok)
	}
}
