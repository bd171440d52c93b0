// Package scroll owns the viewport pan offset and keeps it inside content bounds.
package scroll

import "math"

// State is the current pan offset in logical pixels.
type State struct {
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// Bounds describes natural content extents against the visible viewport.
type Bounds struct {
	ContentWidth   float64 `json:"content_width"`
	ContentHeight  float64 `json:"content_height"`
	ViewportWidth  float64 `json:"viewport_width"`
	ViewportHeight float64 `json:"viewport_height"`
}

// Delta is a relative pan request.
type Delta struct {
	DX float64
	DY float64
}

// MaxOffsetX returns the largest valid horizontal offset.
func (b Bounds) MaxOffsetX() float64 {
	return maxOffset(b.ContentWidth, b.ViewportWidth)
}

// MaxOffsetY returns the largest valid vertical offset.
func (b Bounds) MaxOffsetY() float64 {
	return maxOffset(b.ContentHeight, b.ViewportHeight)
}

// CanPanX reports whether content overflows the viewport horizontally.
func (b Bounds) CanPanX() bool {
	return b.MaxOffsetX() > 0
}

// CanPanY reports whether content overflows the viewport vertically.
func (b Bounds) CanPanY() bool {
	return b.MaxOffsetY() > 0
}

// Clamp pins s into [0, content-viewport] on both axes.
func Clamp(s State, b Bounds) State {
	return State{
		OffsetX: clampAxis(s.OffsetX, b.MaxOffsetX()),
		OffsetY: clampAxis(s.OffsetY, b.MaxOffsetY()),
	}
}

// Update applies d to s and clamps the result. It never mutates s.
func Update(s State, b Bounds, d Delta) State {
	return Clamp(State{
		OffsetX: s.OffsetX + finite(d.DX),
		OffsetY: s.OffsetY + finite(d.DY),
	}, b)
}

func maxOffset(content, viewport float64) float64 {
	if math.IsNaN(content) || math.IsNaN(viewport) {
		return 0
	}
	return math.Max(0, content-viewport)
}

func clampAxis(v, upper float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > upper {
		return upper
	}
	return v
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
