package item

import (
	"context"
	"sync"
	"time"

	"github.com/matthetz/scrim/pkg/observability"
)

// Op identifies a store mutation for observers.
type Op string

const (
	OpSet    Op = "set"
	OpRemove Op = "remove"
	OpExpire Op = "expire"
	OpClear  Op = "clear"
)

// Observer is invoked after each store mutation. It runs under the store
// lock, so implementations must be fast and must not call back into the
// store. A nil observer is valid.
type Observer func(op Op, id string)

// Store is a keyed registry of drawable items with TTL expiry.
// All methods are safe for concurrent use; mutations are last-write-wins
// per id.
type Store struct {
	mu       sync.RWMutex
	items    map[string]*Item
	observer Observer
}

// NewStore creates an empty item store. The observer may be nil.
func NewStore(observer Observer) *Store {
	return &Store{
		items:    make(map[string]*Item),
		observer: observer,
	}
}

// Set creates or replaces the item under its id.
func (s *Store) Set(it *Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[it.ID] = it
	s.notify(OpSet, it.ID)
}

// Get returns the item for id, or nil if absent.
func (s *Store) Get(id string) *Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[id]
}

// Remove deletes the item for id. Removing an absent id is a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return
	}
	delete(s.items, id)
	s.notify(OpRemove, id)
}

// ClearAll removes every item.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*Item)
	s.notify(OpClear, "")
}

// RefreshExpiry updates only the expiry of an existing item, leaving its
// content untouched. Returns false if the item is absent.
func (s *Store) RefreshExpiry(id string, expiry time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return false
	}
	it.Expiry = expiry
	return true
}

// PurgeExpired removes every item whose expiry is at or before now and
// returns how many were removed. Items without an expiry are never purged.
// Purging is idempotent: a second call with the same now removes nothing.
func (s *Store) PurgeExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, it := range s.items {
		if it.Expires() && !it.Expiry.After(now) {
			delete(s.items, id)
			s.notify(OpExpire, id)
			observability.Store().OnItemExpired(context.Background(), id)
			purged++
		}
	}
	return purged
}

// Items returns a snapshot slice of the current items. Order is unspecified.
func (s *Store) Items() []*Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	return out
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) notify(op Op, id string) {
	if s.observer != nil {
		s.observer(op, id)
	}
}
