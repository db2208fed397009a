package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemorySetGet(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got) != "v" {
		t.Fatalf("value = %q", got)
	}

	// mutating the returned slice must not affect the stored copy
	got[0] = 'x'
	again, _, _ := c.Get(ctx, "k")
	if string(again) != "v" {
		t.Fatalf("stored value corrupted: %q", again)
	}
}

func TestMemoryMiss(t *testing.T) {
	c := NewMemory()
	_, ok, err := c.Get(context.Background(), "absent")
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	c := NewMemory()
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 10*time.Second); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("entry should be live")
	}

	now = now.Add(11 * time.Second)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("entry should have expired")
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d after expiry", c.Len())
	}
}

func TestMemoryDefaultTTL(t *testing.T) {
	c := NewMemory()
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	now = now.Add(DefaultTTL - time.Second)
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("entry should survive until the default TTL")
	}
	now = now.Add(2 * time.Second)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("entry should expire after the default TTL")
	}
}

func TestMemoryDeleteAndClose(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"), time.Minute)
	_ = c.Set(ctx, "b", []byte("2"), time.Minute)

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatal("deleted key still present")
	}
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Fatalf("deleting absent key: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d after Close", c.Len())
	}
}
