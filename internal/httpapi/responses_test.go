package httpapi

import (
	"testing"

	"github.com/matthetz/scrim/pkg/geom"
	"github.com/matthetz/scrim/pkg/group"
	"github.com/matthetz/scrim/pkg/viewport"
)

func TestRectDTOFromRect(t *testing.T) {
	got := rectDTO(geom.R(150, 112.5, 200, 50))
	want := RectDTO{X: 150, Y: 112.5, W: 200, H: 50}
	if got != want {
		t.Errorf("rectDTO = %+v, want %+v", got, want)
	}
}

func TestFromResultOrdersGroupsAndItems(t *testing.T) {
	res := group.Result{
		Groups: map[group.Key]group.Transform{
			{Producer: "telemetry", Suffix: "laps"}:   {Bounds: geom.R(0, 0, 10, 10)},
			{Producer: "scoreboard", Suffix: "score"}: {Bounds: geom.R(100, 100, 200, 50)},
			{Producer: "scoreboard", Suffix: "labels"}: {
				Bounds:       geom.R(1000, 40, 180, 20),
				ScreenBounds: geom.R(1500, 45, 180, 20),
				Configured:   true,
			},
		},
		Items: []group.ItemPlacement{
			{ID: "score_b", Group: group.Key{Producer: "scoreboard", Suffix: "score"}, Screen: geom.R(1, 2, 3, 4)},
			{ID: "score_a", Group: group.Key{Producer: "scoreboard", Suffix: "score"}, Screen: geom.R(5, 6, 7, 8)},
		},
	}
	vp := viewport.Compute(viewport.ModeFill, 1280, 960, 1920, 1080)

	out := FromResult(res, vp)

	wantOrder := []string{"scoreboard/labels", "scoreboard/score", "telemetry/laps"}
	for i, g := range out.Groups {
		if got := g.Producer + "/" + g.Group; got != wantOrder[i] {
			t.Errorf("group[%d] = %s, want %s", i, got, wantOrder[i])
		}
	}
	if out.Items[0].ID != "score_a" || out.Items[1].ID != "score_b" {
		t.Errorf("items not sorted by id: %+v", out.Items)
	}

	labels := out.Groups[0]
	if labels.ScreenBounds != (RectDTO{X: 1500, Y: 45, W: 180, H: 20}) {
		t.Errorf("labels screen bounds = %+v", labels.ScreenBounds)
	}
	if out.Viewport.Scale != 1.5 || !out.Viewport.OverflowY {
		t.Errorf("viewport = %+v", out.Viewport)
	}
}
