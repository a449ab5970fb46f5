// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package cache

import (
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(ttl time.Duration, opts ...Option) (*Cache, *fakeClock) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts = append(opts, WithClock(clk.Now))
	return New("test", ttl, opts...), clk
}

func TestCacheGetSet(t *testing.T) {
	t.Parallel()

	c, clk := newTestCache(time.Minute)
	c.Set("acme", "snapshot")

	if v, ok := c.Get("acme"); !ok || v != "snapshot" {
		t.Fatalf("Get() = %v, %v", v, ok)
	}
	clk.Advance(2 * time.Minute)
	if _, ok := c.Get("acme"); ok {
		t.Fatal("expired entry returned")
	}

	s := c.GetStats()
	if s.Hits != 1 || s.Misses != 1 || s.Evictions != 1 {
		t.Errorf("stats = %+v", s)
	}
	if c.HitRate() != 50 {
		t.Errorf("HitRate() = %v, want 50", c.HitRate())
	}
}

func TestCacheSetWithTTLAndEntry(t *testing.T) {
	t.Parallel()

	c, clk := newTestCache(time.Minute)
	c.SetWithTTL("long", 1, time.Hour)
	clk.Advance(30 * time.Minute)

	e, ok := c.GetEntry("long")
	if !ok {
		t.Fatal("entry missing")
	}
	if want := clk.Now().Add(30 * time.Minute); !e.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", e.ExpiresAt, want)
	}
}

func TestCacheMaxEntriesEvictsSoonest(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(time.Minute, WithMaxEntries(2))
	c.SetWithTTL("short", 1, time.Second)
	c.SetWithTTL("long", 2, time.Hour)
	c.SetWithTTL("new", 3, time.Minute)

	if _, ok := c.Get("short"); ok {
		t.Error("entry closest to expiry should have been evicted")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	// Overwriting an existing key never evicts.
	c.Set("long", 4)
	if c.Len() != 2 {
		t.Errorf("Len() after overwrite = %d, want 2", c.Len())
	}
}

func TestCacheSweepDeleteClear(t *testing.T) {
	t.Parallel()

	c, clk := newTestCache(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.SetWithTTL("c", 3, time.Hour)

	clk.Advance(5 * time.Minute)
	if n := c.Sweep(); n != 2 {
		t.Errorf("Sweep() = %d, want 2", n)
	}
	c.Delete("c")
	c.Delete("missing")
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}

	c.Set("d", 4)
	c.Clear()
	if got := c.GetStats().TotalKeys; got != 0 {
		t.Errorf("TotalKeys = %d, want 0", got)
	}
}

func TestCacheCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	c := New("closer", time.Minute, WithSweepInterval(time.Millisecond))
	c.Close()
	c.Close()
	c.Set("still", "usable")
	if _, ok := c.Get("still"); !ok {
		t.Error("cache unusable after Close")
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := New("concurrent", time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := GenerateKey("k", j%10)
				c.Set(key, id)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
	if c.Len() != 10 {
		t.Errorf("Len() = %d, want 10", c.Len())
	}
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	a := GenerateKey("brand", map[string]string{"org": "acme"})
	b := GenerateKey("brand", map[string]string{"org": "acme"})
	c := GenerateKey("brand", map[string]string{"org": "globex"})
	if a != b {
		t.Error("same params should give the same key")
	}
	if a == c {
		t.Error("different params should give different keys")
	}
	if !strings.HasPrefix(a, "brand:") {
		t.Errorf("key %q missing prefix", a)
	}
}
