package placement

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matthetz/scrim/pkg/observability"
)

// Cache is the debounced placement snapshot store.
//
// Two independent locks keep the hot path off disk: stateMu protects the
// in-memory document (UpdateGroup, Reset), flushMu serializes backend
// writes. A flush in progress therefore never observes a torn document, and
// UpdateGroup never blocks on I/O. Only FlushPending performs synchronous
// writes.
type Cache struct {
	backend Backend
	logger  *log.Logger

	stateMu  sync.Mutex
	doc      *Document
	dirty    bool
	debounce time.Duration
	timer    *time.Timer

	flushMu sync.Mutex

	now      func() time.Time
	newNonce func() string
}

// New creates a cache flushing through backend, coalescing writes over the
// given debounce interval. logger may be nil.
func New(backend Backend, debounce time.Duration, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{
		backend:  backend,
		logger:   logger,
		doc:      NewDocument(),
		debounce: debounce,
		now:      time.Now,
		newNonce: uuid.NewString,
	}
}

// Load replaces the in-memory state with the persisted document, if one
// exists. Meant to be called once at startup, before updates flow.
func (c *Cache) Load(ctx context.Context) error {
	c.flushMu.Lock()
	doc, err := c.backend.Load(ctx)
	c.flushMu.Unlock()
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}

	c.stateMu.Lock()
	c.doc = doc
	c.dirty = false
	c.stateMu.Unlock()
	return nil
}

// UpdateGroup records the latest computed bounds for one group. When both
// the base and transformed snapshots deep-equal the stored values, the call
// returns without marking the cache dirty, so repeated identical repaints
// cost no writes.
func (c *Cache) UpdateGroup(producer, suffix string, base Bounds, transformed *Bounds) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	e := c.doc.entry(producer, suffix)
	if e != nil && e.Base == base && equalBounds(e.Transformed, transformed) {
		return
	}
	if e == nil {
		e = &Entry{EditNonce: c.newNonce()}
		c.doc.setEntry(producer, suffix, e)
	}

	e.Base = base
	if transformed != nil {
		e.Transformed = cloneBounds(transformed)
	}
	if base.Positive() {
		e.LastVisibleTransformed = cloneBounds(&base)
	}
	e.absorbMax(base, transformed)
	e.LastUpdated = c.now()

	c.markDirtyLocked()
}

// absorbMax replaces MaxTransformed only when the new snapshot covers the
// stored max on both dimensions. The snapshot considered is the transformed
// bounds when present, otherwise the base. Downstream consumers depend on
// this exact per-dimension rule; do not relax it to an area comparison.
func (e *Entry) absorbMax(base Bounds, transformed *Bounds) {
	snap := base
	if transformed != nil {
		snap = *transformed
	}
	if e.MaxTransformed == nil || snap.covers(*e.MaxTransformed) {
		e.MaxTransformed = cloneBounds(&snap)
	}
}

// SetControllerState lets the external controller stamp an entry with its
// own nonce and timestamp. Unknown groups are ignored.
func (c *Cache) SetControllerState(producer, suffix, nonce string, ts int64) bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	e := c.doc.entry(producer, suffix)
	if e == nil {
		return false
	}
	e.EditNonce = nonce
	e.ControllerTimestamp = ts
	e.LastUpdated = c.now()
	c.markDirtyLocked()
	return true
}

// Entry returns a copy of the stored entry for (producer, suffix).
func (c *Cache) Entry(producer, suffix string) (Entry, bool) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	e := c.doc.entry(producer, suffix)
	if e == nil {
		return Entry{}, false
	}
	return *e.clone(), true
}

// Snapshot returns a deep copy of the full document.
func (c *Cache) Snapshot() *Document {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.doc.Clone()
}

// Reset clears all in-memory and persisted state immediately, bypassing any
// pending debounce.
func (c *Cache) Reset(ctx context.Context) error {
	c.stateMu.Lock()
	c.stopTimerLocked()
	c.doc = NewDocument()
	c.dirty = false
	c.stateMu.Unlock()

	c.flushMu.Lock()
	defer c.flushMu.Unlock()
	return c.backend.Reset(ctx)
}

// ConfigureDebounce changes the coalescing interval at runtime. A pending
// flush is rescheduled at the new interval rather than dropped.
func (c *Cache) ConfigureDebounce(d time.Duration) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.debounce = d
	if c.timer != nil {
		c.stopTimerLocked()
		c.armTimerLocked()
	}
}

// FlushPending forces an immediate synchronous write of any dirty state.
func (c *Cache) FlushPending(ctx context.Context) error {
	c.stateMu.Lock()
	c.stopTimerLocked()
	c.stateMu.Unlock()
	return c.flush(ctx)
}

// Close cancels any pending timer and flushes outstanding state.
func (c *Cache) Close() error {
	err := c.FlushPending(context.Background())
	c.flushMu.Lock()
	defer c.flushMu.Unlock()
	if cerr := c.backend.Close(); err == nil {
		err = cerr
	}
	return err
}

// markDirtyLocked flags the document dirty and arms the debounce timer if
// one is not already pending. Callers hold stateMu.
func (c *Cache) markDirtyLocked() {
	c.dirty = true
	observability.Snapshot().OnDirty(context.Background())
	if c.timer == nil {
		c.armTimerLocked()
	}
}

// armTimerLocked schedules a deferred flush. Callers hold stateMu.
func (c *Cache) armTimerLocked() {
	c.timer = time.AfterFunc(c.debounce, func() {
		c.stateMu.Lock()
		c.timer = nil
		c.stateMu.Unlock()
		if err := c.flush(context.Background()); err != nil {
			c.logger.Warn("snapshot flush failed, rescheduling", "err", err)
		}
	})
}

// stopTimerLocked cancels a pending timer without leaking it. Callers hold
// stateMu. Replacing a timer always goes through here first.
func (c *Cache) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// flush writes the current document if dirty. On failure the dirty flag is
// restored and a flush is rescheduled at the configured interval; the error
// is reported to the caller but must never be treated as fatal.
func (c *Cache) flush(ctx context.Context) error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.stateMu.Lock()
	if !c.dirty {
		c.stateMu.Unlock()
		return nil
	}
	snapshot := c.doc.Clone()
	c.dirty = false
	c.stateMu.Unlock()

	start := time.Now()
	if err := c.backend.Store(ctx, snapshot); err != nil {
		c.stateMu.Lock()
		c.dirty = true
		if c.timer == nil {
			c.armTimerLocked()
		}
		c.stateMu.Unlock()
		observability.Snapshot().OnFlushError(ctx, err)
		return err
	}
	observability.Snapshot().OnFlush(ctx, snapshot.Len(), time.Since(start))
	return nil
}
