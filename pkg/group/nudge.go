package group

import (
	"math"

	"github.com/matthetz/scrim/pkg/geom"
)

// nudge returns the (dx, dy) translation that pulls box back inside
// [0,width] x [0,height], with a bounded gutter inset on the side the box
// was hugging. Each axis is resolved independently.
func nudge(box geom.Rect, width, height, gutter float64) geom.Point {
	return geom.Pt(
		nudge1D(box.MinX, box.MaxX, width, gutter),
		nudge1D(box.MinY, box.MaxY, height, gutter),
	)
}

// nudge1D resolves one axis. Low overflow is closed first, then the high
// side is re-checked (and vice versa); a box larger than the axis is left
// as near-centered as possible instead of oscillating between edges.
func nudge1D(min, max, size, gutter float64) float64 {
	extent := max - min
	if extent > size {
		return (size-extent)/2 - min
	}

	var d float64
	switch {
	case min < 0:
		d = -min
		if max+d > size {
			d = size - max
		}
	case max > size:
		d = size - max
		if min+d < 0 {
			d = -min
		}
	default:
		return 0
	}

	// Gutter inset on the now-interior side, bounded so the opposite side
	// stays inside the viewport.
	if d > 0 {
		room := size - (max + d)
		d += math.Min(gutter, math.Max(room, 0))
	} else if d < 0 {
		room := min + d
		d -= math.Min(gutter, math.Max(room, 0))
	}
	return d
}
