// Package placement persists a best-effort snapshot of computed group
// placements so external tools can query or retarget a group without
// re-deriving geometry live.
//
// The cache keeps one Entry per (producer, suffix), coalesces rapid updates
// through a debounced single-slot timer, and writes a single versioned
// document through a pluggable Backend. The atomic-file backend is the
// default; redis and mongo backends exist for deployments where the editor
// runs out of process. A failed write is never fatal: the dirty flag stays
// set and the flush is rescheduled.
package placement

import (
	"time"

	"github.com/matthetz/scrim/pkg/geom"
)

// Version is the snapshot document format version.
const Version = 1

// Bounds is a serializable rectangle in position/size form.
type Bounds struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
	W float64 `json:"w" bson:"w"`
	H float64 `json:"h" bson:"h"`
}

// BoundsFromRect converts a geom.Rect into persistence form.
func BoundsFromRect(r geom.Rect) Bounds {
	return Bounds{X: r.MinX, Y: r.MinY, W: r.Width(), H: r.Height()}
}

// Rect converts back to a geom.Rect.
func (b Bounds) Rect() geom.Rect {
	return geom.R(b.X, b.Y, b.W, b.H)
}

// Positive reports whether both dimensions are strictly positive.
func (b Bounds) Positive() bool {
	return b.W > 0 && b.H > 0
}

// covers reports whether both of b's dimensions are at least as large as
// o's. This is the literal max-replacement rule: both dimensions must be
// greater or equal, not just the area.
func (b Bounds) covers(o Bounds) bool {
	return b.W >= o.W && b.H >= o.H
}

// Entry is the persisted placement state for one group.
type Entry struct {
	// Base is always the current untransformed bounds.
	Base Bounds `json:"base" bson:"base"`

	// Transformed is present only in fill mode with active grouping.
	Transformed *Bounds `json:"transformed,omitempty" bson:"transformed,omitempty"`

	// LastVisibleTransformed mirrors the latest non-degenerate snapshot.
	LastVisibleTransformed *Bounds `json:"last_visible_transformed,omitempty" bson:"last_visible_transformed,omitempty"`

	// MaxTransformed is the largest-area snapshot ever observed. It never
	// shrinks except through an explicit cache reset.
	MaxTransformed *Bounds `json:"max_transformed,omitempty" bson:"max_transformed,omitempty"`

	// EditNonce is minted when the entry is first created and preserved
	// afterwards; external editors rewrite it to claim an entry.
	EditNonce string `json:"edit_nonce" bson:"edit_nonce"`

	// ControllerTimestamp is set by the external controller, not by the
	// engine. Round-trips untouched.
	ControllerTimestamp int64 `json:"controller_ts,omitempty" bson:"controller_ts,omitempty"`

	// LastUpdated is the wall-clock instant of the last content change.
	LastUpdated time.Time `json:"last_updated" bson:"last_updated"`
}

// clone returns a deep copy of the entry.
func (e *Entry) clone() *Entry {
	c := *e
	c.Transformed = cloneBounds(e.Transformed)
	c.LastVisibleTransformed = cloneBounds(e.LastVisibleTransformed)
	c.MaxTransformed = cloneBounds(e.MaxTransformed)
	return &c
}

// Document is the versioned snapshot mapping producer → suffix → entry.
type Document struct {
	Version int                          `json:"version" bson:"version"`
	Groups  map[string]map[string]*Entry `json:"groups" bson:"groups"`
}

// NewDocument creates an empty current-version document.
func NewDocument() *Document {
	return &Document{Version: Version, Groups: make(map[string]map[string]*Entry)}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{Version: d.Version, Groups: make(map[string]map[string]*Entry, len(d.Groups))}
	for producer, groups := range d.Groups {
		cp := make(map[string]*Entry, len(groups))
		for suffix, e := range groups {
			cp[suffix] = e.clone()
		}
		out.Groups[producer] = cp
	}
	return out
}

// entry returns the entry for (producer, suffix), or nil.
func (d *Document) entry(producer, suffix string) *Entry {
	return d.Groups[producer][suffix]
}

// setEntry stores e under (producer, suffix).
func (d *Document) setEntry(producer, suffix string, e *Entry) {
	groups, ok := d.Groups[producer]
	if !ok {
		groups = make(map[string]*Entry)
		d.Groups[producer] = groups
	}
	groups[suffix] = e
}

// Len returns the total number of entries.
func (d *Document) Len() int {
	n := 0
	for _, groups := range d.Groups {
		n += len(groups)
	}
	return n
}

func cloneBounds(b *Bounds) *Bounds {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

func equalBounds(a, b *Bounds) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
