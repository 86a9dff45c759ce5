package ristretto_test

import (
	"context"
	"testing"
	"time"

	"github.com/maure-club/strategieclub/internal/adapter/ristretto"
)

func TestCacheSetGetDelete(t *testing.T) {
	c, err := ristretto.New(1 << 20)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "job.abc123", []byte(`{"status":"done"}`), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	c.Wait()

	val, ok, err := c.Get(ctx, "job.abc123")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if string(val) != `{"status":"done"}` {
		t.Fatalf("unexpected value: %s", val)
	}

	if err := c.Delete(ctx, "job.abc123"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	c.Wait()
	if _, ok, _ := c.Get(ctx, "job.abc123"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestCacheMiss(t *testing.T) {
	c, err := ristretto.New(1 << 20)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if _, ok, _ := c.Get(context.Background(), "nope"); ok {
		t.Fatal("expected miss")
	}
}
