// Package group computes per-group placement transforms for the overlay
// compositor.
//
// Items sharing a (producer, suffix) key form a group and are repositioned
// together. In fit mode every group keeps the plain canvas transform. In
// fill mode each group is corrected back to true logical scale around its
// anchor, translated proportionally into the visible fill band, justified,
// and finally nudged back inside the viewport if it overflows.
package group

import (
	"github.com/matthetz/scrim/pkg/geom"
	"github.com/matthetz/scrim/pkg/overrides"
)

// Key identifies a group: a producer plus a configured suffix, or the
// per-item singleton suffix for unmapped items.
type Key struct {
	Producer string
	Suffix   string
}

// Transform is one group's computed placement for a repaint.
type Transform struct {
	// Offset is the explicit screen-space translation applied to every draw
	// command in the group, combining band placement, configured offsets,
	// justification, and the overflow nudge.
	Offset geom.Point

	// Band is the group's bounding box normalized to [0,1] fractions of the
	// canonical canvas.
	Band geom.Rect

	// Anchor is the group's resolved anchor point, normalized to [0,1].
	Anchor geom.Point

	// Bounds is the group's bounding box in absolute canonical units.
	Bounds geom.Rect

	// ScreenBounds is the group's final bounding box in viewport pixels,
	// after every correction including the nudge.
	ScreenBounds geom.Rect

	// AnchorToken and Justify echo the configuration that produced this
	// transform.
	AnchorToken overrides.Anchor
	Justify     overrides.Justification

	// Background carries the configured background styling. Advisory only;
	// it does not affect geometry.
	Background string

	// Configured is false for fallback singleton groups.
	Configured bool
}

// ItemPlacement is one item's resolved screen bounds for a repaint.
type ItemPlacement struct {
	ID     string
	Group  Key
	Screen geom.Rect
}

// Result is the output of one repaint computation.
type Result struct {
	Groups map[Key]Transform
	Items  []ItemPlacement
}

// anchorPoint returns the anchor's position on box for a token. Unknown
// tokens behave as nw, matching the documented default for unconfigured
// groups.
func anchorPoint(box geom.Rect, token overrides.Anchor) geom.Point {
	c := box.Center()
	switch token {
	case overrides.AnchorN:
		return geom.Pt(c.X, box.MinY)
	case overrides.AnchorNE:
		return geom.Pt(box.MaxX, box.MinY)
	case overrides.AnchorW:
		return geom.Pt(box.MinX, c.Y)
	case overrides.AnchorCenter:
		return c
	case overrides.AnchorE:
		return geom.Pt(box.MaxX, c.Y)
	case overrides.AnchorSW:
		return geom.Pt(box.MinX, box.MaxY)
	case overrides.AnchorS:
		return geom.Pt(c.X, box.MaxY)
	case overrides.AnchorSE:
		return geom.Pt(box.MaxX, box.MaxY)
	default:
		return geom.Pt(box.MinX, box.MinY)
	}
}
