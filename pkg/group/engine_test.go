package group

import (
	"context"
	"math"
	"testing"

	"github.com/matthetz/scrim/pkg/geom"
	"github.com/matthetz/scrim/pkg/item"
	"github.com/matthetz/scrim/pkg/overrides"
	"github.com/matthetz/scrim/pkg/viewport"
)

const configTOML = `
[producers.scoreboard.prefixes]
"score_" = "score"
"label_" = "labels"

[producers.scoreboard.groups.score]
anchor = "nw"

[producers.scoreboard.groups.labels]
anchor = "nw"
justify = "right"
`

func testEngine(t *testing.T) *Engine {
	t.Helper()
	tbl := overrides.NewTable()
	if err := tbl.LoadBytes([]byte(configTOML)); err != nil {
		t.Fatal(err)
	}
	return NewEngine(tbl, nil)
}

func testOpts() Options {
	return Options{CanvasW: 1280, CanvasH: 960, NudgeEnabled: false, Gutter: 0}
}

// fillVP is the canonical fixture: 1280x960 canvas filled into 1920x1080.
// Scale 1.5, the vertical axis overflows by 360 pixels.
func fillVP() viewport.Transform {
	return viewport.Compute(viewport.ModeFill, 1280, 960, 1920, 1080)
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestFitModeIsIdentity(t *testing.T) {
	e := testEngine(t)
	vp := viewport.Compute(viewport.ModeFit, 1280, 960, 1920, 1080)

	items := []*item.Item{
		{ID: "score_home", Producer: "scoreboard", Kind: item.KindRect, X: 100, Y: 100, W: 200, H: 50},
	}
	res := e.Compute(context.Background(), items, vp, 1920, 1080, testOpts())

	key := Key{Producer: "scoreboard", Suffix: "score"}
	tr, ok := res.Groups[key]
	if !ok {
		t.Fatalf("groups = %v", res.Groups)
	}
	if tr.Offset != geom.Pt(0, 0) {
		t.Errorf("fit mode Offset = %v, want zero", tr.Offset)
	}
	want := vp.ApplyRect(geom.R(100, 100, 200, 50))
	if tr.ScreenBounds != want {
		t.Errorf("ScreenBounds = %+v, want %+v", tr.ScreenBounds, want)
	}
	if len(res.Items) != 1 || res.Items[0].Screen != want {
		t.Errorf("item placement = %+v", res.Items)
	}
}

func TestFillInverseScaleKeepsLogicalSize(t *testing.T) {
	e := testEngine(t)
	vp := fillVP()

	items := []*item.Item{
		{ID: "score_home", Producer: "scoreboard", Kind: item.KindRect, X: 100, Y: 100, W: 200, H: 50},
	}
	res := e.Compute(context.Background(), items, vp, 1920, 1080, testOpts())

	tr := res.Groups[Key{Producer: "scoreboard", Suffix: "score"}]
	if !approx(tr.ScreenBounds.Width(), 200) || !approx(tr.ScreenBounds.Height(), 50) {
		t.Errorf("screen size = %vx%v, want true logical 200x50",
			tr.ScreenBounds.Width(), tr.ScreenBounds.Height())
	}
}

func TestFillProportionalTranslation(t *testing.T) {
	e := testEngine(t)
	vp := fillVP()

	items := []*item.Item{
		{ID: "score_home", Producer: "scoreboard", Kind: item.KindRect, X: 100, Y: 100, W: 200, H: 50},
	}
	res := e.Compute(context.Background(), items, vp, 1920, 1080, testOpts())
	tr := res.Groups[Key{Producer: "scoreboard", Suffix: "score"}]

	// The x axis fills exactly: anchor keeps the plain canvas position.
	if !approx(tr.ScreenBounds.MinX, 150) {
		t.Errorf("MinX = %v, want 150 (100 * 1.5)", tr.ScreenBounds.MinX)
	}
	// The y axis overflows: the anchor fraction 100/960 is mapped across
	// the full viewport height instead of being cropped.
	wantY := 100.0 / 960.0 * 1080.0
	if !approx(tr.ScreenBounds.MinY, wantY) {
		t.Errorf("MinY = %v, want %v", tr.ScreenBounds.MinY, wantY)
	}
}

func TestFillEdgeAnchoredGroupStaysVisible(t *testing.T) {
	e := testEngine(t)
	vp := fillVP()

	// Without proportional translation this item would sit at scaled
	// y = -180, cropped above the viewport.
	items := []*item.Item{
		{ID: "score_top", Producer: "scoreboard", Kind: item.KindRect, X: 0, Y: 0, W: 100, H: 40},
	}
	res := e.Compute(context.Background(), items, vp, 1920, 1080, testOpts())
	tr := res.Groups[Key{Producer: "scoreboard", Suffix: "score"}]

	if tr.ScreenBounds.MinY < 0 {
		t.Errorf("MinY = %v, top-anchored group must not be cropped", tr.ScreenBounds.MinY)
	}
}

func TestFillBottomAnchorLandsFlushWithViewportBottom(t *testing.T) {
	tbl := overrides.NewTable()
	cfg := `
[producers.scoreboard.prefixes]
"score_" = "score"

[producers.scoreboard.groups.score]
anchor = "s"
`
	if err := tbl.LoadBytes([]byte(cfg)); err != nil {
		t.Fatal(err)
	}
	e := NewEngine(tbl, nil)
	vp := fillVP()

	// Anchored to the canonical bottom edge: the visible-band mapping must
	// land the group flush with the viewport bottom, not 180 pixels below
	// it at the cropped canvas position.
	items := []*item.Item{
		{ID: "score_footer", Producer: "scoreboard", Kind: item.KindRect, X: 540, Y: 910, W: 200, H: 50},
	}
	res := e.Compute(context.Background(), items, vp, 1920, 1080, testOpts())
	tr := res.Groups[Key{Producer: "scoreboard", Suffix: "score"}]

	if !approx(tr.ScreenBounds.MaxY, 1080) {
		t.Errorf("MaxY = %v, want flush with viewport bottom 1080", tr.ScreenBounds.MaxY)
	}
	if tr.ScreenBounds.MinY < 0 {
		t.Errorf("MinY = %v, group cropped above the viewport", tr.ScreenBounds.MinY)
	}
}

func TestJustificationShiftsRigidBlock(t *testing.T) {
	e := testEngine(t)
	vp := fillVP()

	// Two members, right-justified: both must shift by the same delta.
	items := []*item.Item{
		{ID: "label_a", Producer: "scoreboard", Kind: item.KindRect, X: 600, Y: 400, W: 300, H: 20},
		{ID: "label_b", Producer: "scoreboard", Kind: item.KindRect, X: 600, Y: 430, W: 100, H: 20},
	}

	left := e.Compute(context.Background(), []*item.Item{
		{ID: "score_a", Producer: "scoreboard", Kind: item.KindRect, X: 600, Y: 400, W: 300, H: 20},
		{ID: "score_b", Producer: "scoreboard", Kind: item.KindRect, X: 600, Y: 430, W: 100, H: 20},
	}, vp, 1920, 1080, testOpts())
	right := e.Compute(context.Background(), items, vp, 1920, 1080, testOpts())

	lt := left.Groups[Key{Producer: "scoreboard", Suffix: "score"}]
	rt := right.Groups[Key{Producer: "scoreboard", Suffix: "labels"}]

	// Group width is 300; right justification moves the block left by it.
	if !approx(lt.ScreenBounds.MinX-rt.ScreenBounds.MinX, 300) {
		t.Errorf("justify delta = %v, want 300", lt.ScreenBounds.MinX-rt.ScreenBounds.MinX)
	}
	// Rigid block: relative offsets between members are preserved.
	if len(right.Items) != 2 {
		t.Fatalf("items = %+v", right.Items)
	}
	d0 := right.Items[0].Screen.MinX - right.Items[1].Screen.MinX
	if !approx(math.Abs(d0), 0) {
		t.Errorf("member x offsets diverged by %v", d0)
	}
}

func TestNudgePullsOverflowingGroupInside(t *testing.T) {
	e := testEngine(t)
	vp := fillVP()
	opts := testOpts()
	opts.NudgeEnabled = true
	opts.Gutter = 12

	// Anchored at the far right edge of the canvas.
	items := []*item.Item{
		{ID: "score_edge", Producer: "scoreboard", Kind: item.KindRect, X: 1250, Y: 500, W: 400, H: 30},
	}
	res := e.Compute(context.Background(), items, vp, 1920, 1080, opts)
	tr := res.Groups[Key{Producer: "scoreboard", Suffix: "score"}]

	if tr.ScreenBounds.MaxX > 1920 || tr.ScreenBounds.MinX < 0 {
		t.Errorf("nudged box %+v escapes the viewport", tr.ScreenBounds)
	}
}

func TestSingletonFallbackGroup(t *testing.T) {
	e := testEngine(t)
	vp := fillVP()

	items := []*item.Item{
		{ID: "widget", Producer: "other", Kind: item.KindRect, X: 10, Y: 10, W: 50, H: 50},
	}
	res := e.Compute(context.Background(), items, vp, 1920, 1080, testOpts())

	key := Key{Producer: "other", Suffix: "item:widget"}
	tr, ok := res.Groups[key]
	if !ok {
		t.Fatalf("groups = %v", res.Groups)
	}
	if tr.Configured {
		t.Error("fallback group must not report configured")
	}
	if tr.AnchorToken != overrides.AnchorNW || tr.Justify != overrides.JustifyLeft {
		t.Errorf("fallback defaults = %s/%s", tr.AnchorToken, tr.Justify)
	}
}

func TestDegenerateMembersExcluded(t *testing.T) {
	e := testEngine(t)
	vp := fillVP()

	items := []*item.Item{
		{ID: "score_ok", Producer: "scoreboard", Kind: item.KindRect, X: 100, Y: 100, W: 200, H: 50},
		{ID: "score_flat", Producer: "scoreboard", Kind: item.KindRect, X: 0, Y: 0, W: 0, H: 50},
		{ID: "score_nan", Producer: "scoreboard", Kind: item.KindRect, X: math.NaN(), Y: 0, W: 10, H: 10},
	}
	res := e.Compute(context.Background(), items, vp, 1920, 1080, testOpts())

	tr := res.Groups[Key{Producer: "scoreboard", Suffix: "score"}]
	if !approx(tr.Bounds.Width(), 200) || !approx(tr.Bounds.Height(), 50) {
		t.Errorf("bounds %+v include degenerate members", tr.Bounds)
	}
	if len(res.Items) != 1 {
		t.Errorf("placements = %+v, want only the valid member", res.Items)
	}
}

func TestUnknownShapesExcludedFromBounds(t *testing.T) {
	e := testEngine(t)
	vp := fillVP()

	items := []*item.Item{
		{ID: "score_ok", Producer: "scoreboard", Kind: item.KindRect, X: 100, Y: 100, W: 200, H: 50},
		{ID: "score_hex", Producer: "scoreboard", Kind: item.KindShape, Shape: "hexagon"},
	}
	res := e.Compute(context.Background(), items, vp, 1920, 1080, testOpts())

	tr := res.Groups[Key{Producer: "scoreboard", Suffix: "score"}]
	if !approx(tr.Bounds.Width(), 200) {
		t.Errorf("bounds %+v should come from the rect only", tr.Bounds)
	}
}

func TestAllDegenerateGroupSkipped(t *testing.T) {
	e := testEngine(t)
	vp := fillVP()

	items := []*item.Item{
		{ID: "score_flat", Producer: "scoreboard", Kind: item.KindRect, W: 0, H: 0},
		{ID: "other_ok", Producer: "other", Kind: item.KindRect, X: 5, Y: 5, W: 10, H: 10},
	}
	res := e.Compute(context.Background(), items, vp, 1920, 1080, testOpts())

	if _, ok := res.Groups[Key{Producer: "scoreboard", Suffix: "score"}]; ok {
		t.Error("fully degenerate group should be skipped")
	}
	if _, ok := res.Groups[Key{Producer: "other", Suffix: "item:other_ok"}]; !ok {
		t.Error("other groups must be unaffected")
	}
}

func TestItemOverrideBlock(t *testing.T) {
	e := testEngine(t)
	vp := viewport.Compute(viewport.ModeFit, 1280, 960, 1280, 960) // identity

	items := []*item.Item{
		{
			ID: "score_x", Producer: "scoreboard", Kind: item.KindRect,
			X: 100, Y: 100, W: 100, H: 100,
			Override: &item.Override{PivotX: 100, PivotY: 100, Scale: 2, OffsetX: 10},
		},
	}
	res := e.Compute(context.Background(), items, vp, 1280, 960, testOpts())

	tr := res.Groups[Key{Producer: "scoreboard", Suffix: "score"}]
	// Scaled x2 about the pivot (100,100), then shifted 10 right.
	want := geom.R(110, 100, 200, 200)
	if tr.Bounds != want {
		t.Errorf("override bounds = %+v, want %+v", tr.Bounds, want)
	}
}

func TestAnchorTokens(t *testing.T) {
	box := geom.R(10, 20, 100, 60) // min (10,20) max (110,80) center (60,50)
	tests := []struct {
		token overrides.Anchor
		want  geom.Point
	}{
		{overrides.AnchorNW, geom.Pt(10, 20)},
		{overrides.AnchorN, geom.Pt(60, 20)},
		{overrides.AnchorNE, geom.Pt(110, 20)},
		{overrides.AnchorW, geom.Pt(10, 50)},
		{overrides.AnchorCenter, geom.Pt(60, 50)},
		{overrides.AnchorE, geom.Pt(110, 50)},
		{overrides.AnchorSW, geom.Pt(10, 80)},
		{overrides.AnchorS, geom.Pt(60, 80)},
		{overrides.AnchorSE, geom.Pt(110, 80)},
		{overrides.Anchor("bogus"), geom.Pt(10, 20)},
	}
	for _, tt := range tests {
		if got := anchorPoint(box, tt.token); got != tt.want {
			t.Errorf("anchorPoint(%s) = %v, want %v", tt.token, got, tt.want)
		}
	}
}
