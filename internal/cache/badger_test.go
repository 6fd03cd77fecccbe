package cache

import (
	"testing"
	"time"
)

func newBadger(t *testing.T, opts ...Option) *Badger {
	t.Helper()
	b, err := NewBadger(BadgerConfig{InMemory: true, TTL: time.Hour}, opts...)
	if err != nil {
		t.Fatalf("NewBadger error: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBadger_PutGet(t *testing.T) {
	b := newBadger(t)
	key := RefinementKey("ATTACKATDAWN")

	if _, ok := b.Get(key); ok {
		t.Error("Expected cache miss before put")
	}
	if err := b.Put(Entry{Key: key, RefinedText: "ATTACK AT DAWN", Accepted: true}); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	got, ok := b.Get(key)
	if !ok {
		t.Fatal("Expected cache hit after put")
	}
	if got.RefinedText != "ATTACK AT DAWN" || !got.Accepted {
		t.Errorf("Got = %+v", got)
	}
}

func TestBadger_OverwriteIsLastWriteWins(t *testing.T) {
	b := newBadger(t)
	b.Put(Entry{Key: "k", RefinedText: "first"})
	b.Put(Entry{Key: "k", RefinedText: "second"})
	got, ok := b.Get("k")
	if !ok || got.RefinedText != "second" {
		t.Errorf("Get = %+v, %v", got, ok)
	}
}

func TestBadger_ExpiryUsesClock(t *testing.T) {
	clock := newClock()
	b := newBadger(t, WithClock(clock.Now))
	b.Put(Entry{Key: "k", RefinedText: "v"})

	clock.Advance(2 * time.Hour)
	if _, ok := b.Get("k"); ok {
		t.Error("Expected miss after TTL")
	}

	stats, err := b.Stats()
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.Entries != 1 || stats.Expired != 1 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestBadger_Clear(t *testing.T) {
	b := newBadger(t)
	for _, k := range []string{"a", "b", "c"} {
		if err := b.Put(Entry{Key: k, RefinedText: k}); err != nil {
			t.Fatalf("Put error: %v", err)
		}
	}
	if err := b.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	stats, err := b.Stats()
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("Entries = %d, want 0", stats.Entries)
	}
	if stats.Backend != "badger" {
		t.Errorf("Backend = %q", stats.Backend)
	}
}

func TestBadger_OnDisk(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBadger(BadgerConfig{Path: dir, TTL: DefaultTTL})
	if err != nil {
		t.Fatalf("NewBadger error: %v", err)
	}
	b.Put(Entry{Key: "persist", RefinedText: "yes", Accepted: true})
	if err := b.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	b, err = NewBadger(BadgerConfig{Path: dir, TTL: DefaultTTL})
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer b.Close()
	if got, ok := b.Get("persist"); !ok || got.RefinedText != "yes" {
		t.Errorf("Get after reopen = %+v, %v", got, ok)
	}
}

func TestNewBadger_RequiresPath(t *testing.T) {
	if _, err := NewBadger(BadgerConfig{}); err == nil {
		t.Error("Expected error without path")
	}
}
