package httpapi

import (
	"sort"

	"github.com/matthetz/scrim/pkg/geom"
	"github.com/matthetz/scrim/pkg/group"
	"github.com/matthetz/scrim/pkg/viewport"
)

// IngestResponse reports what one POST /v1/items call did.
type IngestResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// EditingRequest carries the external controller's edit state.
type EditingRequest struct {
	Active bool `json:"active"`
}

// RectDTO is a rectangle in x/y/w/h form.
type RectDTO struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func rectDTO(r geom.Rect) RectDTO {
	return RectDTO{X: r.MinX, Y: r.MinY, W: r.Width(), H: r.Height()}
}

// PointDTO is a 2D point.
type PointDTO struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ViewportDTO describes the resolved canvas-to-viewport transform.
type ViewportDTO struct {
	Mode      string   `json:"mode"`
	Scale     float64  `json:"scale"`
	Offset    PointDTO `json:"offset"`
	OverflowX bool     `json:"overflow_x"`
	OverflowY bool     `json:"overflow_y"`
}

// GroupDTO is one group's computed transform.
type GroupDTO struct {
	Producer     string   `json:"producer"`
	Group        string   `json:"group"`
	Bounds       RectDTO  `json:"bounds"`
	ScreenBounds RectDTO  `json:"screen_bounds"`
	Offset       PointDTO `json:"offset"`
	Band         RectDTO  `json:"band"`
	Anchor       string   `json:"anchor"`
	Justify      string   `json:"justify"`
	Background   string   `json:"background,omitempty"`
	Configured   bool     `json:"configured"`
}

// ItemDTO is one item's resolved screen bounds.
type ItemDTO struct {
	ID       string  `json:"id"`
	Producer string  `json:"producer"`
	Group    string  `json:"group"`
	Screen   RectDTO `json:"screen"`
}

// PlacementsResponse is the full output of one repaint.
type PlacementsResponse struct {
	Viewport ViewportDTO `json:"viewport"`
	Groups   []GroupDTO  `json:"groups"`
	Items    []ItemDTO   `json:"items"`
}

// FromResult flattens a repaint result into the response DTO. Groups are
// sorted for stable output.
func FromResult(res group.Result, vp viewport.Transform) PlacementsResponse {
	out := PlacementsResponse{
		Viewport: ViewportDTO{
			Mode:      string(vp.Mode),
			Scale:     vp.Scale,
			Offset:    PointDTO{X: vp.Offset.X, Y: vp.Offset.Y},
			OverflowX: vp.OverflowX,
			OverflowY: vp.OverflowY,
		},
		Groups: make([]GroupDTO, 0, len(res.Groups)),
		Items:  make([]ItemDTO, 0, len(res.Items)),
	}

	for key, tr := range res.Groups {
		out.Groups = append(out.Groups, GroupDTO{
			Producer:     key.Producer,
			Group:        key.Suffix,
			Bounds:       rectDTO(tr.Bounds),
			ScreenBounds: rectDTO(tr.ScreenBounds),
			Offset:       PointDTO{X: tr.Offset.X, Y: tr.Offset.Y},
			Band:         rectDTO(tr.Band),
			Anchor:       string(tr.AnchorToken),
			Justify:      string(tr.Justify),
			Background:   tr.Background,
			Configured:   tr.Configured,
		})
	}
	sort.Slice(out.Groups, func(i, j int) bool {
		if out.Groups[i].Producer != out.Groups[j].Producer {
			return out.Groups[i].Producer < out.Groups[j].Producer
		}
		return out.Groups[i].Group < out.Groups[j].Group
	})

	for _, p := range res.Items {
		out.Items = append(out.Items, ItemDTO{
			ID:       p.ID,
			Producer: p.Group.Producer,
			Group:    p.Group.Suffix,
			Screen:   rectDTO(p.Screen),
		})
	}
	sort.Slice(out.Items, func(i, j int) bool { return out.Items[i].ID < out.Items[j].ID })

	return out
}
