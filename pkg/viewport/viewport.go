// Package viewport maps the canonical design canvas onto a physical viewport.
//
// Two scaling policies are supported:
//   - Fit: preserve aspect ratio and letterbox; content is never cropped.
//   - Fill: cover the full viewport; content overflowing an axis is cropped.
//
// Compute is a pure function: the same inputs always produce the same
// Transform and no state is shared between calls.
package viewport

import (
	"math"

	"github.com/matthetz/scrim/pkg/geom"
)

// Mode selects the scaling policy.
type Mode string

const (
	// ModeFit letterboxes the canvas inside the viewport.
	ModeFit Mode = "fit"

	// ModeFill overscales the canvas to cover the viewport, cropping overflow.
	ModeFill Mode = "fill"
)

// Transform is the result of mapping the design canvas onto a viewport.
type Transform struct {
	// Scale is the uniform canvas-to-viewport scale factor.
	Scale float64

	// Offset positions the scaled canvas origin within the viewport.
	Offset geom.Point

	// ScaledW and ScaledH are the dimensions of the scaled canvas.
	ScaledW float64
	ScaledH float64

	// Mode records which policy produced this transform.
	Mode Mode

	// OverflowX and OverflowY report, in fill mode only, whether the scaled
	// canvas exceeds the viewport on that axis and must be cropped.
	OverflowX bool
	OverflowY bool
}

// Compute maps a canonical design canvas of size (designW, designH) onto a
// physical viewport of size (viewW, viewH) under the given mode.
//
// Non-finite or non-positive dimensions are substituted with 1.0 so the
// function stays total; the resulting scale is clamped to be non-negative.
func Compute(mode Mode, designW, designH, viewW, viewH float64) Transform {
	designW = sanitize(designW)
	designH = sanitize(designH)
	viewW = sanitize(viewW)
	viewH = sanitize(viewH)

	sx := viewW / designW
	sy := viewH / designH

	var scale float64
	if mode == ModeFill {
		scale = math.Max(sx, sy)
	} else {
		mode = ModeFit
		scale = math.Min(sx, sy)
	}
	if scale < 0 {
		scale = 0
	}

	scaledW := designW * scale
	scaledH := designH * scale

	t := Transform{
		Scale:   scale,
		Offset:  geom.Pt((viewW-scaledW)/2, (viewH-scaledH)/2),
		ScaledW: scaledW,
		ScaledH: scaledH,
		Mode:    mode,
	}
	if mode == ModeFill {
		// Strict comparison: an axis that matches the viewport exactly fits.
		t.OverflowX = scaledW > viewW
		t.OverflowY = scaledH > viewH
	}
	return t
}

// Apply maps a point from canvas units into viewport pixels.
func (t Transform) Apply(p geom.Point) geom.Point {
	return p.Mul(t.Scale).Add(t.Offset)
}

// ApplyRect maps a rect from canvas units into viewport pixels.
func (t Transform) ApplyRect(r geom.Rect) geom.Rect {
	return r.Scale(t.Scale).Translate(t.Offset.X, t.Offset.Y)
}

// VisibleBand returns the portion of the canonical canvas actually shown
// after fill-mode cropping, as fractions of the canonical size in [0,1].
// In fit mode (or on axes that do not overflow) the band covers [0,1].
func (t Transform) VisibleBand() geom.Rect {
	band := geom.Rect{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}
	if t.Mode != ModeFill {
		return band
	}
	if t.OverflowX && t.ScaledW > 0 {
		hidden := -t.Offset.X / t.ScaledW
		band.MinX = hidden
		band.MaxX = 1 - hidden
	}
	if t.OverflowY && t.ScaledH > 0 {
		hidden := -t.Offset.Y / t.ScaledH
		band.MinY = hidden
		band.MaxY = 1 - hidden
	}
	return band
}

func sanitize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 1.0
	}
	return f
}
