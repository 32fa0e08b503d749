package geom

import (
	"math"
	"testing"
)

func TestPointArithmetic(t *testing.T) {
	p := Pt(3, 4)
	q := Pt(1, -2)

	if got := p.Add(q); got != Pt(4, 2) {
		t.Errorf("Add: got %v", got)
	}
	if got := p.Sub(q); got != Pt(2, 6) {
		t.Errorf("Sub: got %v", got)
	}
	if got := p.Mul(2); got != Pt(6, 8) {
		t.Errorf("Mul: got %v", got)
	}
	if got := p.Div(2); got != Pt(1.5, 2) {
		t.Errorf("Div: got %v", got)
	}
}

func TestEmptyRectUnionIdentity(t *testing.T) {
	r := R(10, 20, 30, 40)
	if got := EmptyRect().Union(r); got != r {
		t.Errorf("EmptyRect union: got %v, want %v", got, r)
	}
	if got := r.Union(EmptyRect()); got != r {
		t.Errorf("union EmptyRect: got %v, want %v", got, r)
	}
}

func TestRectUnion(t *testing.T) {
	a := R(0, 0, 10, 10)
	b := R(5, 5, 10, 10)
	got := a.Union(b)
	want := Rect{MinX: 0, MinY: 0, MaxX: 15, MaxY: 15}
	if got != want {
		t.Errorf("Union: got %v, want %v", got, want)
	}
}

func TestExtendPoint(t *testing.T) {
	r := EmptyRect().ExtendPoint(Pt(2, 3)).ExtendPoint(Pt(-1, 7))
	want := Rect{MinX: -1, MinY: 3, MaxX: 2, MaxY: 7}
	if r != want {
		t.Errorf("ExtendPoint: got %v, want %v", r, want)
	}
}

func TestIsDegenerate(t *testing.T) {
	tests := []struct {
		name string
		r    Rect
		want bool
	}{
		{"normal", R(0, 0, 10, 10), false},
		{"zero width", R(5, 5, 0, 10), true},
		{"negative height", Rect{MinX: 0, MinY: 10, MaxX: 5, MaxY: 0}, true},
		{"empty", EmptyRect(), true},
		{"nan", Rect{MinX: math.NaN(), MaxX: 10, MaxY: 10}, true},
		{"inf", Rect{MaxX: math.Inf(1), MaxY: 10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.IsDegenerate(); got != tt.want {
				t.Errorf("IsDegenerate(%v) = %v, want %v", tt.r, got, tt.want)
			}
		})
	}
}

func TestTranslateScale(t *testing.T) {
	r := R(1, 2, 3, 4)
	if got := r.Translate(10, 20); got != R(11, 22, 3, 4) {
		t.Errorf("Translate: got %v", got)
	}
	if got := r.Scale(2); got != (Rect{MinX: 2, MinY: 4, MaxX: 8, MaxY: 12}) {
		t.Errorf("Scale: got %v", got)
	}
	if got := r.Center(); got != Pt(2.5, 4) {
		t.Errorf("Center: got %v", got)
	}
}
