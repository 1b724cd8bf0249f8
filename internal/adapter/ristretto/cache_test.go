package ristretto_test

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/ssecast/internal/adapter/ristretto"
	"github.com/Strob0t/ssecast/internal/port/cache/cachetest"
)

func TestCacheContract(t *testing.T) {
	c, err := ristretto.New(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	cachetest.Run(t, c)
}

func TestCacheTTLExpires(t *testing.T) {
	c, err := ristretto.New(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "short", []byte("v"), 50*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := c.Get(ctx, "short"); !found {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(100 * time.Millisecond)
	if _, found, _ := c.Get(ctx, "short"); found {
		t.Fatal("expected miss after expiry")
	}
}

func TestNewRejectsZeroCost(t *testing.T) {
	if _, err := ristretto.New(0); err == nil {
		t.Fatal("expected error for zero max cost")
	}
}
