// Package engine wires the item store, the group transform engine, and the
// placement cache into a single runnable unit. The CLI and the HTTP surface
// both talk to an Engine rather than to the parts directly.
package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matthetz/scrim/pkg/errors"
	"github.com/matthetz/scrim/pkg/group"
	"github.com/matthetz/scrim/pkg/item"
	"github.com/matthetz/scrim/pkg/overrides"
	"github.com/matthetz/scrim/pkg/placement"
	"github.com/matthetz/scrim/pkg/viewport"
)

// purgeInterval is how often expired items are swept from the store.
const purgeInterval = 250 * time.Millisecond

// Engine is the top-level placement engine.
type Engine struct {
	logger   *log.Logger
	store    *item.Store
	ingestor *item.Ingestor
	table    *overrides.Table
	groups   *group.Engine
	cache    *placement.Cache

	mu     sync.Mutex
	active bool // an external controller is mid-edit
}

// New assembles an engine around an override table and a placement cache.
// logger may be nil.
func New(table *overrides.Table, cache *placement.Cache, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	store := item.NewStore(nil)
	return &Engine{
		logger:   logger,
		store:    store,
		ingestor: item.NewIngestor(store, table, logger),
		table:    table,
		groups:   group.NewEngine(table, logger),
		cache:    cache,
	}
}

// Store exposes the underlying item store.
func (e *Engine) Store() *item.Store { return e.store }

// Table exposes the override configuration table.
func (e *Engine) Table() *overrides.Table { return e.table }

// Cache exposes the placement snapshot cache.
func (e *Engine) Cache() *placement.Cache { return e.cache }

// Ingest applies one payload record.
func (e *Engine) Ingest(ctx context.Context, p item.Payload) item.Result {
	return e.ingestor.Ingest(ctx, p)
}

// Repaint computes every group transform and item placement for a viewport
// of the given pixel size, and folds the resulting bounds into the placement
// cache.
func (e *Engine) Repaint(ctx context.Context, viewW, viewH float64) group.Result {
	cfg := e.table.Config()
	vp := viewport.Compute(viewport.Mode(cfg.Mode), cfg.CanvasWidth, cfg.CanvasHeight, viewW, viewH)

	res := e.groups.Compute(ctx, e.store.Items(), vp, viewW, viewH, group.Options{
		CanvasW:      cfg.CanvasWidth,
		CanvasH:      cfg.CanvasHeight,
		NudgeEnabled: cfg.NudgeEnabled,
		Gutter:       cfg.NudgeGutter,
	})

	for key, tr := range res.Groups {
		base := placement.BoundsFromRect(tr.Bounds)

		// Screen-space corrections only exist in fill mode, and only
		// configured groups carry a transform worth persisting. Fallback
		// singleton groups record their base bounds alone.
		var transformed *placement.Bounds
		if vp.Mode == viewport.ModeFill && tr.Configured {
			b := placement.BoundsFromRect(tr.ScreenBounds)
			transformed = &b
		}
		e.cache.UpdateGroup(key.Producer, key.Suffix, base, transformed)
	}
	return res
}

// Viewport returns the canvas-to-viewport transform for the configured mode
// and canvas, without running a repaint.
func (e *Engine) Viewport(viewW, viewH float64) viewport.Transform {
	cfg := e.table.Config()
	return viewport.Compute(viewport.Mode(cfg.Mode), cfg.CanvasWidth, cfg.CanvasHeight, viewW, viewH)
}

// SetActiveEditing switches the placement cache between the idle and the
// active-edit debounce intervals. Setting the same state twice is a no-op.
func (e *Engine) SetActiveEditing(active bool) {
	e.mu.Lock()
	if e.active == active {
		e.mu.Unlock()
		return
	}
	e.active = active
	e.mu.Unlock()

	e.cache.ConfigureDebounce(e.debounceFor(active))
	e.logger.Debug("edit state changed", "active", active)
}

// ReloadOverrides swaps in a new configuration file. The generation bump in
// the table invalidates all ingest dedupe state, and the cache debounce is
// re-derived in case the intervals changed.
func (e *Engine) ReloadOverrides(path string) error {
	if err := e.table.Load(path); err != nil {
		return err
	}
	e.mu.Lock()
	active := e.active
	e.mu.Unlock()
	e.cache.ConfigureDebounce(e.debounceFor(active))
	return nil
}

// Run sweeps expired items until ctx is cancelled, then flushes any pending
// snapshot state.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := e.cache.FlushPending(context.Background()); err != nil {
				e.logger.Warn("final snapshot flush failed", "err", err)
			}
			return ctx.Err()
		case now := <-ticker.C:
			if n := e.store.PurgeExpired(now); n > 0 {
				e.logger.Debug("purged expired items", "count", n)
			}
		}
	}
}

// Close flushes and releases the placement cache.
func (e *Engine) Close() error {
	return e.cache.Close()
}

func (e *Engine) debounceFor(active bool) time.Duration {
	cfg := e.table.Config()
	secs := cfg.DebounceSeconds
	if active {
		secs = cfg.ActiveDebounceSeconds
	}
	return time.Duration(secs * float64(time.Second))
}

// OpenBackend constructs the snapshot backend named by the configuration.
func OpenBackend(ctx context.Context, cfg overrides.Config) (placement.Backend, error) {
	switch cfg.SnapshotBackend {
	case "", "file":
		path := cfg.SnapshotPath
		if path == "" {
			path = defaultSnapshotPath()
		}
		return placement.NewFileBackend(path)
	case "redis":
		return placement.NewRedisBackend(ctx, cfg.SnapshotURL)
	case "mongo":
		return placement.NewMongoBackend(ctx, cfg.SnapshotURL)
	case "none":
		return placement.NewNullBackend(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"unknown snapshot backend %q", cfg.SnapshotBackend)
	}
}

func defaultSnapshotPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "scrim", "placements.json")
}
