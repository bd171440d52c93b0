package scroll

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestClampPinsWhenContentFits(t *testing.T) {
	b := Bounds{ContentWidth: 300, ContentHeight: 200, ViewportWidth: 400, ViewportHeight: 200}
	got := Clamp(State{OffsetX: 50, OffsetY: -10}, b)
	if got != (State{}) {
		t.Fatalf("expected pinned state, got %#v", got)
	}
	if b.CanPanX() || b.CanPanY() {
		t.Fatal("expected no panning when content fits")
	}
}

func TestUpdateClampsOvershoot(t *testing.T) {
	b := Bounds{ContentWidth: 1000, ContentHeight: 600, ViewportWidth: 400, ViewportHeight: 300}
	cases := []struct {
		name  string
		start State
		delta Delta
		want  State
	}{
		{name: "inside", start: State{}, delta: Delta{DX: 100, DY: 50}, want: State{OffsetX: 100, OffsetY: 50}},
		{name: "past far edge", start: State{OffsetX: 500}, delta: Delta{DX: 900, DY: 900}, want: State{OffsetX: 600, OffsetY: 300}},
		{name: "past near edge", start: State{OffsetX: 20, OffsetY: 20}, delta: Delta{DX: -900, DY: -21}, want: State{}},
		{name: "nan delta ignored", start: State{OffsetX: 20}, delta: Delta{DX: math.NaN(), DY: math.Inf(1)}, want: State{OffsetX: 20}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Update(tc.start, b, tc.delta); got != tc.want {
				t.Fatalf("Update() = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestUpdateStaysInBoundsForRandomDeltas(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	b := Bounds{ContentWidth: 2400, ContentHeight: 900, ViewportWidth: 640, ViewportHeight: 480}
	s := State{}
	for i := 0; i < 2000; i++ {
		s = Update(s, b, Delta{DX: rng.Float64()*3000 - 1500, DY: rng.Float64()*2000 - 1000})
		if s.OffsetX < 0 || s.OffsetX > b.MaxOffsetX() || s.OffsetY < 0 || s.OffsetY > b.MaxOffsetY() {
			t.Fatalf("step %d out of bounds: %#v", i, s)
		}
	}
}

func TestPanSetBoundsReclampsInPlace(t *testing.T) {
	p := NewPan(Bounds{ContentWidth: 1000, ViewportWidth: 400, ContentHeight: 500, ViewportHeight: 500})
	p.ScrollTo(300, 0)

	if got := p.SetBounds(Bounds{ContentWidth: 1000, ViewportWidth: 500, ContentHeight: 500, ViewportHeight: 500}); got.OffsetX != 300 {
		t.Fatalf("expected still-valid offset kept, got %#v", got)
	}
	if got := p.SetBounds(Bounds{ContentWidth: 1000, ViewportWidth: 800, ContentHeight: 500, ViewportHeight: 500}); got.OffsetX != 200 {
		t.Fatalf("expected offset re-clamped to 200, got %#v", got)
	}
	if got := p.SetBounds(Bounds{ContentWidth: 1000, ViewportWidth: 1200, ContentHeight: 500, ViewportHeight: 500}); got.OffsetX != 0 {
		t.Fatalf("expected offset pinned to 0, got %#v", got)
	}
}

func TestPanDragMovesOppositePointer(t *testing.T) {
	p := NewPan(Bounds{ContentWidth: 1000, ViewportWidth: 400, ContentHeight: 800, ViewportHeight: 400})
	p.ScrollTo(200, 100)

	if got := p.DragTo(10, 10); got != (State{OffsetX: 200, OffsetY: 100}) {
		t.Fatalf("expected drag without begin to be ignored, got %#v", got)
	}
	p.BeginDrag(100, 100)
	if got := p.DragTo(150, 80); got != (State{OffsetX: 150, OffsetY: 120}) {
		t.Fatalf("unexpected drag state %#v", got)
	}
	if got := p.DragTo(1000, 80); got.OffsetX != 0 {
		t.Fatalf("expected drag clamped at left edge, got %#v", got)
	}
	p.EndDrag()
	if p.Dragging() {
		t.Fatal("expected drag to end")
	}
}
