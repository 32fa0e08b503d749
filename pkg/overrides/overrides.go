// Package overrides loads and serves the external override configuration:
// the producer → id-prefix → group-suffix mapping, per-group placement
// configuration (anchor, justification, offsets, background styling), and
// the engine-wide settings (canonical canvas size, scaling mode, nudge).
//
// The engine consumes this configuration but does not own it; reloading the
// file bumps a generation counter that downstream dedupe state watches so
// stale positions are guaranteed to repaint.
package overrides

import (
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/BurntSushi/toml"

	"github.com/matthetz/scrim/pkg/errors"
)

// Anchor names a reference point on a group's bounding box.
type Anchor string

const (
	AnchorNW     Anchor = "nw"
	AnchorN      Anchor = "n"
	AnchorNE     Anchor = "ne"
	AnchorW      Anchor = "w"
	AnchorCenter Anchor = "center"
	AnchorE      Anchor = "e"
	AnchorSW     Anchor = "sw"
	AnchorS      Anchor = "s"
	AnchorSE     Anchor = "se"
)

// validAnchors is the set of recognized anchor tokens.
var validAnchors = map[Anchor]bool{
	AnchorNW: true, AnchorN: true, AnchorNE: true,
	AnchorW: true, AnchorCenter: true, AnchorE: true,
	AnchorSW: true, AnchorS: true, AnchorSE: true,
}

// Justification selects how a group's draw commands align horizontally.
type Justification string

const (
	JustifyLeft   Justification = "left"
	JustifyCenter Justification = "center"
	JustifyRight  Justification = "right"
)

// GroupConfig is the per-group placement configuration. The zero value is
// the documented default for unconfigured groups: anchor nw, justification
// left, zero offsets, no background.
type GroupConfig struct {
	Anchor     Anchor        `toml:"anchor"`
	Justify    Justification `toml:"justify"`
	OffsetX    float64       `toml:"offset_x"`
	OffsetY    float64       `toml:"offset_y"`
	Background string        `toml:"background"`
}

// withDefaults fills unset fields with the documented defaults.
func (g GroupConfig) withDefaults() GroupConfig {
	if g.Anchor == "" {
		g.Anchor = AnchorNW
	}
	if g.Justify == "" {
		g.Justify = JustifyLeft
	}
	return g
}

// producerConfig maps id prefixes to group suffixes for one producer.
type producerConfig struct {
	// prefixes are checked longest-first so "score_total_" beats "score_".
	Prefixes map[string]string      `toml:"prefixes"`
	Groups   map[string]GroupConfig `toml:"groups"`
}

// Config is the full override configuration file.
type Config struct {
	CanvasWidth  float64 `toml:"canvas_width"`
	CanvasHeight float64 `toml:"canvas_height"`
	Mode         string  `toml:"mode"` // "fit" or "fill"

	NudgeEnabled bool    `toml:"nudge_enabled"`
	NudgeGutter  float64 `toml:"nudge_gutter"`

	// DebounceSeconds and ActiveDebounceSeconds tune placement-snapshot
	// coalescing for idle and active-edit periods.
	DebounceSeconds       float64 `toml:"debounce_seconds"`
	ActiveDebounceSeconds float64 `toml:"active_debounce_seconds"`

	// Snapshot storage backend: "file" (default), "redis", "mongo", "none".
	SnapshotBackend string `toml:"snapshot_backend"`
	SnapshotPath    string `toml:"snapshot_path"`
	SnapshotURL     string `toml:"snapshot_url"`

	Producers map[string]producerConfig `toml:"producers"`
}

// Defaults returns the configuration used when no file is supplied.
func Defaults() Config {
	return Config{
		CanvasWidth:           1280,
		CanvasHeight:          960,
		Mode:                  "fill",
		NudgeEnabled:          true,
		NudgeGutter:           12,
		DebounceSeconds:       5,
		ActiveDebounceSeconds: 0.1,
		SnapshotBackend:       "file",
	}
}

// Resolution is a cached group lookup result.
type Resolution struct {
	Suffix     string
	Config     GroupConfig
	Configured bool // false for fallback singleton groups
}

// Table is the typed lookup table the engine resolves group keys against.
// Lookups are lock-free reads of an immutable snapshot; Load swaps the
// snapshot and bumps the generation.
type Table struct {
	mu  sync.RWMutex
	cfg Config
	gen atomic.Uint64

	// sortedPrefixes caches each producer's prefixes longest-first.
	sortedPrefixes map[string][]string
}

// NewTable creates a table holding the default configuration.
func NewTable() *Table {
	t := &Table{}
	t.install(Defaults())
	return t
}

// Load reads and applies the TOML configuration at path, bumping the
// generation so dedupe state downstream is invalidated.
func (t *Table) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read override config %s", path)
	}
	return t.LoadBytes(data)
}

// LoadBytes applies TOML configuration from memory. Used by Load and tests.
func (t *Table) LoadBytes(data []byte) error {
	cfg := Defaults()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse override config")
	}
	for producer, pc := range cfg.Producers {
		for name, gc := range pc.Groups {
			if gc.Anchor != "" && !validAnchors[gc.Anchor] {
				return errors.New(errors.ErrCodeInvalidAnchor,
					"producer %s group %s: unknown anchor %q", producer, name, gc.Anchor)
			}
		}
	}
	t.install(cfg)
	return nil
}

func (t *Table) install(cfg Config) {
	sorted := make(map[string][]string, len(cfg.Producers))
	for producer, pc := range cfg.Producers {
		prefixes := make([]string, 0, len(pc.Prefixes))
		for p := range pc.Prefixes {
			prefixes = append(prefixes, p)
		}
		sort.Slice(prefixes, func(i, j int) bool {
			if len(prefixes[i]) != len(prefixes[j]) {
				return len(prefixes[i]) > len(prefixes[j])
			}
			return prefixes[i] < prefixes[j]
		})
		sorted[producer] = prefixes
	}

	t.mu.Lock()
	t.cfg = cfg
	t.sortedPrefixes = sorted
	t.mu.Unlock()
	t.gen.Add(1)
}

// Generation returns the current configuration generation. It increases on
// every successful Load.
func (t *Table) Generation() uint64 {
	return t.gen.Load()
}

// Config returns a copy of the current engine-wide settings.
func (t *Table) Config() Config {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cfg
}

// Resolve maps a producer and item id to a group suffix and configuration.
// Unmapped items fall back to a singleton group "item:<id>" with the default
// configuration, so they are positioned by unmodified fill-mode geometry.
func (t *Table) Resolve(producer, id string) Resolution {
	t.mu.RLock()
	defer t.mu.RUnlock()

	pc, ok := t.cfg.Producers[producer]
	if ok {
		for _, prefix := range t.sortedPrefixes[producer] {
			if strings.HasPrefix(id, prefix) {
				suffix := pc.Prefixes[prefix]
				cfg, configured := pc.Groups[suffix]
				return Resolution{
					Suffix:     suffix,
					Config:     cfg.withDefaults(),
					Configured: configured,
				}
			}
		}
	}
	return Resolution{
		Suffix: "item:" + id,
		Config: GroupConfig{}.withDefaults(),
	}
}

// GroupConfigFor returns the configuration for a known (producer, suffix)
// pair, falling back to defaults when unconfigured.
func (t *Table) GroupConfigFor(producer, suffix string) GroupConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if pc, ok := t.cfg.Producers[producer]; ok {
		if gc, ok := pc.Groups[suffix]; ok {
			return gc.withDefaults()
		}
	}
	return GroupConfig{}.withDefaults()
}
