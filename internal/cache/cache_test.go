package cache

import (
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}
	// "b" is now least recently used.
	c.Set("c", "3")
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a to be deleted")
	}

	st := c.Stats()
	if st.Hits != 1 || st.Misses != 2 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("x", 1)
	c.Set("y", 2)
	now = now.Add(2 * time.Minute)
	c.Set("z", 3)

	if removed := c.CleanExpired(); removed != 2 {
		t.Fatalf("CleanExpired = %d, want 2", removed)
	}
	if _, ok := c.Get("z"); !ok {
		t.Fatal("fresh entry should survive cleanup")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("z"); ok {
		t.Fatal("expired entry should not be returned")
	}
}

func TestManager(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](10, time.Second)
	c.now = func() time.Time { return now }
	c.Set("a", 1)
	now = now.Add(time.Hour)

	m := NewManager(nil)
	m.Register("test", c)
	if got := m.CleanAll(); got != 1 {
		t.Fatalf("CleanAll = %d, want 1", got)
	}

	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop()
}
