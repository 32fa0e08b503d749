// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about item-store mutations, repaint computations, and
// placement-snapshot flushes.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    observability.SetRepaintHooks(&myRepaintHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Repaint().OnRepaintStart(ctx, itemCount)
//	// ... compute transforms ...
//	observability.Repaint().OnRepaintComplete(ctx, groupCount, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from item-store mutations.
type StoreHooks interface {
	// OnItemSet records an item being created or replaced.
	OnItemSet(ctx context.Context, kind string, producer string)

	// OnItemExpired records an item removed by TTL purge.
	OnItemExpired(ctx context.Context, id string)

	// OnPayloadDropped records a malformed payload rejected at ingestion.
	OnPayloadDropped(ctx context.Context, reason string)

	// OnDedupeHit records an ingestion skipped because content was unchanged.
	OnDedupeHit(ctx context.Context, id string)
}

// =============================================================================
// Repaint Hooks
// =============================================================================

// RepaintHooks receives events from group transform computation.
type RepaintHooks interface {
	// OnRepaintStart records the beginning of a repaint pass.
	OnRepaintStart(ctx context.Context, itemCount int)

	// OnRepaintComplete records a finished repaint pass.
	OnRepaintComplete(ctx context.Context, groupCount int, duration time.Duration)

	// OnGroupSkipped records a group dropped for degenerate bounds.
	OnGroupSkipped(ctx context.Context, producer, suffix string)
}

// =============================================================================
// Snapshot Hooks
// =============================================================================

// SnapshotHooks receives events from placement-snapshot persistence.
type SnapshotHooks interface {
	// OnDirty records a snapshot mutation that will require a flush.
	OnDirty(ctx context.Context)

	// OnFlush records a completed flush.
	OnFlush(ctx context.Context, groupCount int, duration time.Duration)

	// OnFlushError records a failed flush that will be retried.
	OnFlushError(ctx context.Context, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnItemSet(context.Context, string, string)    {}
func (NoopStoreHooks) OnItemExpired(context.Context, string)        {}
func (NoopStoreHooks) OnPayloadDropped(context.Context, string)     {}
func (NoopStoreHooks) OnDedupeHit(context.Context, string)          {}

// NoopRepaintHooks is a no-op implementation of RepaintHooks.
type NoopRepaintHooks struct{}

func (NoopRepaintHooks) OnRepaintStart(context.Context, int)                   {}
func (NoopRepaintHooks) OnRepaintComplete(context.Context, int, time.Duration) {}
func (NoopRepaintHooks) OnGroupSkipped(context.Context, string, string)        {}

// NoopSnapshotHooks is a no-op implementation of SnapshotHooks.
type NoopSnapshotHooks struct{}

func (NoopSnapshotHooks) OnDirty(context.Context)                     {}
func (NoopSnapshotHooks) OnFlush(context.Context, int, time.Duration) {}
func (NoopSnapshotHooks) OnFlushError(context.Context, error)         {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	storeHooks    StoreHooks    = NoopStoreHooks{}
	repaintHooks  RepaintHooks  = NoopRepaintHooks{}
	snapshotHooks SnapshotHooks = NoopSnapshotHooks{}
	hooksMu       sync.RWMutex
)

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store operations.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetRepaintHooks registers custom repaint hooks.
// This should be called once at application startup before any repaint operations.
func SetRepaintHooks(h RepaintHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		repaintHooks = h
	}
}

// SetSnapshotHooks registers custom snapshot hooks.
// This should be called once at application startup before any cache operations.
func SetSnapshotHooks(h SnapshotHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		snapshotHooks = h
	}
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Repaint returns the registered repaint hooks.
func Repaint() RepaintHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return repaintHooks
}

// Snapshot returns the registered snapshot hooks.
func Snapshot() SnapshotHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return snapshotHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	storeHooks = NoopStoreHooks{}
	repaintHooks = NoopRepaintHooks{}
	snapshotHooks = NoopSnapshotHooks{}
}
