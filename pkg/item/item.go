// Package item implements the drawable-item registry of the placement engine.
//
// Items arrive as loosely structured payload records from untrusted
// producers. The Ingestor normalizes them into canonical Items, applies
// content dedupe, and writes them into the Store, a keyed registry with TTL
// expiry. Malformed payloads are logged and dropped; nothing in this package
// returns an error across the ingestion boundary.
package item

import (
	"strings"
	"time"

	"github.com/matthetz/scrim/pkg/geom"
)

// Kind classifies a drawable item.
type Kind string

const (
	// KindMessage is a text label.
	KindMessage Kind = "message"

	// KindRect is an axis-aligned rectangle.
	KindRect Kind = "rect"

	// KindVector is a polyline, optionally with a marker at a single point.
	KindVector Kind = "vector"

	// KindShape is any shape type this engine does not recognize. Such items
	// are stored verbatim for forward compatibility but contribute nothing
	// to group bounds.
	KindShape Kind = "shape"
)

// DefaultFontSize is the logical font size used when a message payload does
// not carry one. One canonical unit equals one viewport pixel at true scale.
const DefaultFontSize = 16.0

// Glyph metrics for logical text measurement. Rendering happens externally;
// these ratios only have to produce stable, plausible group bounds.
const (
	glyphAdvanceRatio = 0.6
	lineHeightRatio   = 1.2
)

// Override is the optional per-item transform-override block carried by a
// payload. It is preserved on the item and consumed by the group engine.
type Override struct {
	PivotX  float64 `json:"pivot_x"`
	PivotY  float64 `json:"pivot_y"`
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// Item is a canonical drawable item held by the Store.
type Item struct {
	ID       string
	Kind     Kind
	Producer string

	// Message fields.
	Text     string
	FontSize float64

	// Rect fields.
	X, Y, W, H float64

	// Vector fields.
	Points []geom.Point
	Marker string

	// Shape carries the raw type string for unrecognized kinds; Raw holds
	// the untouched payload fields.
	Shape string
	Raw   map[string]any

	// Override is the optional transform-override block.
	Override *Override

	// Expiry is the instant the item disappears. The zero time means the
	// item persists until explicitly replaced or cleared.
	Expiry time.Time
}

// Expires reports whether the item has a TTL at all.
func (it *Item) Expires() bool {
	return !it.Expiry.IsZero()
}

// Bounds returns the item's logical bounding box in canonical units. The
// second return is false for kinds excluded from group-bounds accumulation
// (unrecognized shapes) and for geometry that would be degenerate.
func (it *Item) Bounds() (geom.Rect, bool) {
	switch it.Kind {
	case KindMessage:
		w, h := MeasureText(it.Text, it.FontSize)
		r := geom.R(it.X, it.Y, w, h)
		return r, !r.IsDegenerate()
	case KindRect:
		r := geom.R(it.X, it.Y, it.W, it.H)
		return r, !r.IsDegenerate()
	case KindVector:
		r := geom.EmptyRect()
		for _, p := range it.Points {
			if !p.IsFinite() {
				continue
			}
			r = r.ExtendPoint(p)
		}
		if !r.IsFinite() {
			return geom.Rect{}, false
		}
		// A single marker point is a valid vector; give it a nominal extent
		// so it participates in group bounds.
		if r.Width() == 0 && r.Height() == 0 {
			const markerExtent = 4
			r.MinX -= markerExtent
			r.MinY -= markerExtent
			r.MaxX += markerExtent
			r.MaxY += markerExtent
		}
		return r, true
	default:
		return geom.Rect{}, false
	}
}

// MeasureText estimates the logical extent of a text label at the given font
// size. Lines are split on newlines; the widest line sets the width. A zero
// or negative font size falls back to DefaultFontSize.
func MeasureText(text string, fontSize float64) (w, h float64) {
	if text == "" {
		return 0, 0
	}
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	lines := strings.Split(text, "\n")
	longest := 0
	for _, line := range lines {
		if n := len([]rune(line)); n > longest {
			longest = n
		}
	}
	w = float64(longest) * fontSize * glyphAdvanceRatio
	h = float64(len(lines)) * fontSize * lineHeightRatio
	return w, h
}
