package item

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matthetz/scrim/pkg/geom"
	"github.com/matthetz/scrim/pkg/observability"
)

// Payload is the inbound item record consumed from the external transport.
// Field presence is kind-dependent; unknown fields are preserved in Extra so
// unrecognized shape kinds round-trip verbatim.
type Payload struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Producer string  `json:"producer,omitempty"`
	TTL      float64 `json:"ttl,omitempty"` // seconds; <= 0 means no expiry

	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"font_size,omitempty"`

	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`
	W float64 `json:"w,omitempty"`
	H float64 `json:"h,omitempty"`

	Points [][]float64 `json:"points,omitempty"`
	Marker string      `json:"marker,omitempty"`

	Transform *Override `json:"transform,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// Payload type strings with clear semantics; any other non-empty type is
// treated as an unrecognized shape kind.
const (
	TypeMessage  = "message"
	TypeRect     = "rect"
	TypeVector   = "vector"
	TypeClear    = "clear"
	TypeClearAll = "clear_all"
)

// Status describes the outcome of a single ingestion.
type Status string

const (
	// StatusStored means the item was created or replaced.
	StatusStored Status = "stored"

	// StatusUnchanged means dedupe skipped the mutation; only the expiry
	// was refreshed.
	StatusUnchanged Status = "unchanged"

	// StatusRemoved means the payload caused an item (or all items) to be
	// removed.
	StatusRemoved Status = "removed"

	// StatusDropped means the payload was malformed and discarded.
	StatusDropped Status = "dropped"
)

// Result reports what a call to Ingest did.
type Result struct {
	Status Status
	Reason string // populated for StatusDropped
}

// GenerationSource supplies the current override-configuration generation.
// A generation bump invalidates all dedupe state so every item repaints from
// fresh positions after a configuration reload.
type GenerationSource interface {
	Generation() uint64
}

// staticGeneration is the zero-value source used when none is supplied.
type staticGeneration struct{}

func (staticGeneration) Generation() uint64 { return 0 }

// dedupeRecord is the per-id structural snapshot used for content dedupe.
type dedupeRecord struct {
	snapshot   string
	generation uint64
}

// Ingestor normalizes payload records into canonical items and writes them
// into a Store. It owns the per-id dedupe state for its lifetime.
// Safe for concurrent use.
type Ingestor struct {
	store  *Store
	gen    GenerationSource
	logger *log.Logger
	now    func() time.Time

	mu       sync.Mutex
	lastSeen map[string]dedupeRecord
}

// NewIngestor creates an ingestor writing into store. gen may be nil when no
// override configuration is in play; logger may be nil.
func NewIngestor(store *Store, gen GenerationSource, logger *log.Logger) *Ingestor {
	if gen == nil {
		gen = staticGeneration{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Ingestor{
		store:    store,
		gen:      gen,
		logger:   logger,
		now:      time.Now,
		lastSeen: make(map[string]dedupeRecord),
	}
}

// SetClock overrides the time source. Intended for tests.
func (in *Ingestor) SetClock(now func() time.Time) {
	in.now = now
}

// Ingest applies one payload record. Malformed payloads are logged and
// dropped; Ingest never returns an error.
func (in *Ingestor) Ingest(ctx context.Context, p Payload) Result {
	if p.Type == TypeClearAll {
		in.store.ClearAll()
		in.resetDedupe()
		return Result{Status: StatusRemoved}
	}

	if p.ID == "" {
		return in.drop(ctx, "payload missing id")
	}

	switch p.Type {
	case TypeClear:
		in.forget(p.ID)
		in.store.Remove(p.ID)
		return Result{Status: StatusRemoved}
	case TypeMessage:
		if p.Text == "" {
			// An empty message removes the item rather than storing a blank.
			in.forget(p.ID)
			in.store.Remove(p.ID)
			return Result{Status: StatusRemoved}
		}
		return in.upsert(ctx, p, in.normalizeMessage(p))
	case TypeRect:
		return in.upsert(ctx, p, in.normalizeRect(p))
	case TypeVector:
		it, reason := in.normalizeVector(p)
		if it == nil {
			return in.drop(ctx, reason)
		}
		return in.upsert(ctx, p, it)
	case "":
		return in.drop(ctx, "payload missing type")
	default:
		// Forward compatibility: store unrecognized shapes verbatim. They
		// never contribute to group bounds.
		return in.upsert(ctx, p, in.normalizeShape(p))
	}
}

func (in *Ingestor) normalizeMessage(p Payload) *Item {
	return &Item{
		ID:       p.ID,
		Kind:     KindMessage,
		Producer: p.Producer,
		Text:     p.Text,
		FontSize: p.FontSize,
		X:        p.X,
		Y:        p.Y,
		Override: p.Transform,
	}
}

func (in *Ingestor) normalizeRect(p Payload) *Item {
	// Missing numeric fields unmarshal as zero, which is the documented
	// default for rects.
	return &Item{
		ID:       p.ID,
		Kind:     KindRect,
		Producer: p.Producer,
		X:        p.X,
		Y:        p.Y,
		W:        p.W,
		H:        p.H,
		Override: p.Transform,
	}
}

func (in *Ingestor) normalizeVector(p Payload) (*Item, string) {
	points := make([]geom.Point, 0, len(p.Points))
	for _, raw := range p.Points {
		if len(raw) < 2 {
			return nil, "vector point needs two coordinates"
		}
		points = append(points, geom.Pt(raw[0], raw[1]))
	}
	switch {
	case len(points) >= 2:
	case len(points) == 1 && (p.Marker != "" || p.Text != ""):
		// A single point is only drawable as a marker or labeled point.
	default:
		return nil, "vector needs at least 2 points, or 1 point with a marker or text"
	}
	return &Item{
		ID:       p.ID,
		Kind:     KindVector,
		Producer: p.Producer,
		Text:     p.Text,
		Points:   points,
		Marker:   p.Marker,
		Override: p.Transform,
	}, ""
}

func (in *Ingestor) normalizeShape(p Payload) *Item {
	return &Item{
		ID:       p.ID,
		Kind:     KindShape,
		Producer: p.Producer,
		Shape:    p.Type,
		Raw:      p.Extra,
		Override: p.Transform,
	}
}

// upsert stores the normalized item unless its structural snapshot matches
// the previous one for the same id under the same override generation, in
// which case only the expiry is refreshed.
func (in *Ingestor) upsert(ctx context.Context, p Payload, it *Item) Result {
	expiry := time.Time{}
	if p.TTL > 0 {
		expiry = in.now().Add(time.Duration(p.TTL * float64(time.Second)))
	}
	it.Expiry = expiry

	snap := structuralSnapshot(it)
	gen := in.gen.Generation()

	in.mu.Lock()
	prev, seen := in.lastSeen[it.ID]
	in.lastSeen[it.ID] = dedupeRecord{snapshot: snap, generation: gen}
	in.mu.Unlock()

	if seen && prev.snapshot == snap && prev.generation == gen {
		// Unchanged content: skip the store mutation but keep the item
		// alive. A missing item (cleared since last seen) falls through to
		// a full store.
		if in.store.RefreshExpiry(it.ID, expiry) {
			observability.Store().OnDedupeHit(ctx, it.ID)
			return Result{Status: StatusUnchanged}
		}
	}

	in.store.Set(it)
	observability.Store().OnItemSet(ctx, string(it.Kind), it.Producer)
	return Result{Status: StatusStored}
}

func (in *Ingestor) drop(ctx context.Context, reason string) Result {
	in.logger.Debug("dropping payload", "reason", reason)
	observability.Store().OnPayloadDropped(ctx, reason)
	return Result{Status: StatusDropped, Reason: reason}
}

func (in *Ingestor) forget(id string) {
	in.mu.Lock()
	delete(in.lastSeen, id)
	in.mu.Unlock()
}

func (in *Ingestor) resetDedupe() {
	in.mu.Lock()
	in.lastSeen = make(map[string]dedupeRecord)
	in.mu.Unlock()
}

// structuralSnapshot serializes the content fields relevant to the item's
// kind. Expiry is deliberately excluded: re-ingesting identical content only
// refreshes the TTL.
func structuralSnapshot(it *Item) string {
	type snapshot struct {
		Kind     Kind         `json:"kind"`
		Producer string       `json:"producer"`
		Text     string       `json:"text,omitempty"`
		FontSize float64      `json:"font_size,omitempty"`
		X        float64      `json:"x"`
		Y        float64      `json:"y"`
		W        float64      `json:"w,omitempty"`
		H        float64      `json:"h,omitempty"`
		Points   []geom.Point `json:"points,omitempty"`
		Marker   string       `json:"marker,omitempty"`
		Shape    string         `json:"shape,omitempty"`
		Raw      map[string]any `json:"raw,omitempty"`
		Override *Override      `json:"override,omitempty"`
	}
	b, err := json.Marshal(snapshot{
		Kind:     it.Kind,
		Producer: it.Producer,
		Text:     it.Text,
		FontSize: it.FontSize,
		X:        it.X,
		Y:        it.Y,
		W:        it.W,
		H:        it.H,
		Points:   it.Points,
		Marker:   it.Marker,
		Shape:    it.Shape,
		Raw:      it.Raw,
		Override: it.Override,
	})
	if err != nil {
		// Marshal of plain value types cannot fail; treat as never-matching.
		return ""
	}
	return string(b)
}
