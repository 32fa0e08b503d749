package group

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matthetz/scrim/pkg/geom"
	"github.com/matthetz/scrim/pkg/item"
	"github.com/matthetz/scrim/pkg/observability"
	"github.com/matthetz/scrim/pkg/overrides"
	"github.com/matthetz/scrim/pkg/viewport"
)

// Resolver maps a producer and item id to a group suffix and configuration.
// *overrides.Table satisfies this interface.
type Resolver interface {
	Resolve(producer, id string) overrides.Resolution
}

// Options are the engine-wide settings for one repaint.
type Options struct {
	// CanvasW and CanvasH are the canonical design canvas dimensions used
	// for normalization.
	CanvasW, CanvasH float64

	// NudgeEnabled turns the overflow nudge on.
	NudgeEnabled bool

	// Gutter is the inset applied by the nudge on the pulled-in side.
	Gutter float64
}

// Engine computes group placement transforms. Compute is stateless per
// call: it operates on one consistent item snapshot and never mutates
// shared state, so concurrent repaints are safe.
type Engine struct {
	resolver Resolver
	logger   *log.Logger
}

// NewEngine creates an engine resolving group keys against resolver.
// logger may be nil.
func NewEngine(resolver Resolver, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{resolver: resolver, logger: logger}
}

// accum collects one group's members and union bounds during a repaint.
type accum struct {
	res     overrides.Resolution
	bounds  geom.Rect
	members []memberRect
}

type memberRect struct {
	id   string
	rect geom.Rect
}

// Compute derives one Transform per group from an item snapshot and a
// resolved viewport transform. viewW and viewH are the physical viewport
// dimensions in pixels.
func (e *Engine) Compute(ctx context.Context, items []*item.Item, vp viewport.Transform, viewW, viewH float64, opts Options) Result {
	observability.Repaint().OnRepaintStart(ctx, len(items))
	start := time.Now()

	groups := e.assign(items)

	out := Result{
		Groups: make(map[Key]Transform, len(groups)),
		Items:  make([]ItemPlacement, 0, len(items)),
	}

	for key, acc := range groups {
		if acc.bounds.IsDegenerate() {
			// Degenerate or inside-out union bounds abort this group's
			// contribution without affecting the others.
			observability.Repaint().OnGroupSkipped(ctx, key.Producer, key.Suffix)
			continue
		}
		if vp.Mode == viewport.ModeFill {
			e.fillTransform(key, acc, vp, viewW, viewH, opts, &out)
		} else {
			e.fitTransform(key, acc, vp, opts, &out)
		}
	}

	observability.Repaint().OnRepaintComplete(ctx, len(out.Groups), time.Since(start))
	return out
}

// assign resolves each item's group key and accumulates member bounds.
// Resolutions are cached per producer+id for the duration of the call.
func (e *Engine) assign(items []*item.Item) map[Key]*accum {
	groups := make(map[Key]*accum)
	resCache := make(map[string]overrides.Resolution, len(items))

	for _, it := range items {
		cacheKey := it.Producer + "\x00" + it.ID
		res, ok := resCache[cacheKey]
		if !ok {
			res = e.resolver.Resolve(it.Producer, it.ID)
			resCache[cacheKey] = res
		}

		key := Key{Producer: it.Producer, Suffix: res.Suffix}
		acc := groups[key]
		if acc == nil {
			acc = &accum{res: res, bounds: geom.EmptyRect()}
			groups[key] = acc
		}

		rect, drawable := itemRect(it)
		if !drawable {
			// Unrecognized shapes and degenerate members stay out of the
			// union bounds entirely.
			continue
		}
		acc.bounds = acc.bounds.Union(rect)
		acc.members = append(acc.members, memberRect{id: it.ID, rect: rect})
	}
	return groups
}

// fitTransform emits the identity transform: plain canvas scale and offset,
// no regrouping.
func (e *Engine) fitTransform(key Key, acc *accum, vp viewport.Transform, opts Options, out *Result) {
	box := acc.bounds
	anchor := anchorPoint(box, acc.res.Config.Anchor)

	out.Groups[key] = Transform{
		Offset:       geom.Pt(0, 0),
		Band:         normalizeRect(box, opts),
		Anchor:       normalizePoint(anchor, opts),
		Bounds:       box,
		ScreenBounds: vp.ApplyRect(box),
		AnchorToken:  acc.res.Config.Anchor,
		Justify:      acc.res.Config.Justify,
		Background:   acc.res.Config.Background,
		Configured:   acc.res.Configured,
	}
	for _, m := range acc.members {
		out.Items = append(out.Items, ItemPlacement{
			ID:     m.id,
			Group:  key,
			Screen: vp.ApplyRect(m.rect),
		})
	}
}

// fillTransform runs the full correction pipeline: inverse-scale around the
// group anchor, proportional translation into the visible band, configured
// offsets, justification, and the overflow nudge.
func (e *Engine) fillTransform(key Key, acc *accum, vp viewport.Transform, viewW, viewH float64, opts Options, out *Result) {
	cfg := acc.res.Config
	box := acc.bounds
	anchor := anchorPoint(box, cfg.Anchor)

	// Inverse-scale correction keeps the anchor fixed and restores true
	// logical size: after the canvas transform, every member point sits at
	// vp.Apply(anchor) + (p - anchor). The whole group therefore moves by a
	// single translation relative to its canonical coordinates.
	total := vp.Apply(anchor).Sub(anchor)

	// Proportional translation on overflowing axes: the normalized anchor
	// is mapped linearly across the visible band, which compresses the full
	// canonical range onto the viewport so edge-anchored groups are not
	// cropped away. Non-overflowing axes keep the letterboxed canvas
	// position (the clamp to the base anchor).
	band := vp.VisibleBand()
	if vp.OverflowX && opts.CanvasW > 0 {
		target := anchor.X / opts.CanvasW * band.Width() * vp.ScaledW
		total.X += target - vp.Apply(anchor).X
	}
	if vp.OverflowY && opts.CanvasH > 0 {
		target := anchor.Y / opts.CanvasH * band.Height() * vp.ScaledH
		total.Y += target - vp.Apply(anchor).Y
	}

	total.X += cfg.OffsetX
	total.Y += cfg.OffsetY

	// Justification shifts the whole group as a rigid block, computed from
	// the un-nudged box width so multi-element groups stay aligned.
	switch cfg.Justify {
	case overrides.JustifyCenter:
		total.X -= box.Width() / 2
	case overrides.JustifyRight:
		total.X -= box.Width()
	}

	screen := box.Translate(total.X, total.Y)
	if opts.NudgeEnabled {
		n := nudge(screen, viewW, viewH, opts.Gutter)
		total = total.Add(n)
		screen = screen.Translate(n.X, n.Y)
	}

	out.Groups[key] = Transform{
		Offset:       total,
		Band:         normalizeRect(box, opts),
		Anchor:       normalizePoint(anchor, opts),
		Bounds:       box,
		ScreenBounds: screen,
		AnchorToken:  cfg.Anchor,
		Justify:      cfg.Justify,
		Background:   cfg.Background,
		Configured:   acc.res.Configured,
	}
	for _, m := range acc.members {
		out.Items = append(out.Items, ItemPlacement{
			ID:     m.id,
			Group:  key,
			Screen: m.rect.Translate(total.X, total.Y),
		})
	}
}

// itemRect returns an item's logical rect with its transform-override block
// applied. The second return is false for kinds excluded from accumulation
// or geometry that ends up degenerate.
func itemRect(it *item.Item) (geom.Rect, bool) {
	r, ok := it.Bounds()
	if !ok {
		return r, false
	}
	if ov := it.Override; ov != nil {
		s := ov.Scale
		if s <= 0 {
			s = 1
		}
		pivot := geom.Pt(ov.PivotX, ov.PivotY)
		r = scaleAbout(r, pivot, s).Translate(ov.OffsetX, ov.OffsetY)
	}
	if r.IsDegenerate() {
		return r, false
	}
	return r, true
}

// scaleAbout scales r by s around pivot.
func scaleAbout(r geom.Rect, pivot geom.Point, s float64) geom.Rect {
	return geom.Rect{
		MinX: pivot.X + (r.MinX-pivot.X)*s,
		MinY: pivot.Y + (r.MinY-pivot.Y)*s,
		MaxX: pivot.X + (r.MaxX-pivot.X)*s,
		MaxY: pivot.Y + (r.MaxY-pivot.Y)*s,
	}
}

func normalizeRect(r geom.Rect, opts Options) geom.Rect {
	if opts.CanvasW <= 0 || opts.CanvasH <= 0 {
		return geom.Rect{}
	}
	return geom.Rect{
		MinX: r.MinX / opts.CanvasW,
		MinY: r.MinY / opts.CanvasH,
		MaxX: r.MaxX / opts.CanvasW,
		MaxY: r.MaxY / opts.CanvasH,
	}
}

func normalizePoint(p geom.Point, opts Options) geom.Point {
	if opts.CanvasW <= 0 || opts.CanvasH <= 0 {
		return geom.Point{}
	}
	return geom.Pt(p.X/opts.CanvasW, p.Y/opts.CanvasH)
}
