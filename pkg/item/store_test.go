package item

import (
	"testing"
	"time"
)

func TestStoreSetGetRemove(t *testing.T) {
	s := NewStore(nil)

	it := &Item{ID: "m1", Kind: KindMessage, Text: "hi"}
	s.Set(it)

	if got := s.Get("m1"); got != it {
		t.Fatalf("Get returned %v, want the stored item", got)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}

	s.Remove("m1")
	if s.Get("m1") != nil {
		t.Error("item should be gone after Remove")
	}

	// Removing an absent id is a no-op.
	s.Remove("m1")
}

func TestStoreClearAll(t *testing.T) {
	s := NewStore(nil)
	s.Set(&Item{ID: "a", Kind: KindRect})
	s.Set(&Item{ID: "b", Kind: KindRect})

	s.ClearAll()
	if s.Len() != 0 {
		t.Errorf("Len after ClearAll = %d, want 0", s.Len())
	}
}

func TestPurgeExpired(t *testing.T) {
	s := NewStore(nil)
	now := time.Now()

	s.Set(&Item{ID: "ttl", Kind: KindMessage, Text: "x", Expiry: now.Add(4 * time.Second)})
	s.Set(&Item{ID: "forever", Kind: KindMessage, Text: "y"})

	if purged := s.PurgeExpired(now); purged != 0 {
		t.Errorf("purge before expiry removed %d items", purged)
	}

	if purged := s.PurgeExpired(now.Add(5 * time.Second)); purged != 1 {
		t.Errorf("purge after expiry removed %d items, want 1", purged)
	}
	if s.Get("ttl") != nil {
		t.Error("expired item should be removed")
	}
	if s.Get("forever") == nil {
		t.Error("item without expiry must never be purged")
	}

	// Purge is idempotent.
	if purged := s.PurgeExpired(now.Add(10 * time.Second)); purged != 0 {
		t.Errorf("second purge removed %d items, want 0", purged)
	}
}

func TestPurgeBoundaryIsInclusive(t *testing.T) {
	s := NewStore(nil)
	now := time.Now()
	s.Set(&Item{ID: "edge", Kind: KindRect, W: 1, H: 1, Expiry: now})

	if purged := s.PurgeExpired(now); purged != 1 {
		t.Errorf("item expiring exactly now should purge, removed %d", purged)
	}
}

func TestStoreObserver(t *testing.T) {
	var ops []Op
	s := NewStore(func(op Op, id string) {
		ops = append(ops, op)
	})

	s.Set(&Item{ID: "a", Kind: KindRect, W: 1, H: 1, Expiry: time.Now().Add(-time.Second)})
	s.PurgeExpired(time.Now())
	s.Set(&Item{ID: "b", Kind: KindRect})
	s.Remove("b")
	s.ClearAll()

	want := []Op{OpSet, OpExpire, OpSet, OpRemove, OpClear}
	if len(ops) != len(want) {
		t.Fatalf("observer saw %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("op[%d] = %s, want %s", i, ops[i], want[i])
		}
	}
}

func TestRefreshExpiry(t *testing.T) {
	s := NewStore(nil)
	s.Set(&Item{ID: "a", Kind: KindMessage, Text: "x"})

	later := time.Now().Add(time.Minute)
	if !s.RefreshExpiry("a", later) {
		t.Fatal("RefreshExpiry should succeed for a present item")
	}
	if got := s.Get("a").Expiry; !got.Equal(later) {
		t.Errorf("Expiry = %v, want %v", got, later)
	}

	if s.RefreshExpiry("missing", later) {
		t.Error("RefreshExpiry should report false for absent items")
	}
}
