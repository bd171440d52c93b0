package scroll

// Pan is the single writer of a viewport's State. Pointer drags and explicit
// scroll events go through it so every offset it hands out is already clamped.
type Pan struct {
	state    State
	bounds   Bounds
	dragging bool
	lastX    float64
	lastY    float64
}

// NewPan returns a pan owner with a zero offset inside b.
func NewPan(b Bounds) *Pan {
	return &Pan{bounds: b}
}

// State returns the current offset.
func (p *Pan) State() State {
	return p.state
}

// Bounds returns the extents the offset is clamped to.
func (p *Pan) Bounds() Bounds {
	return p.bounds
}

// SetBounds replaces content/viewport extents and re-clamps the current offset
// in place. An offset that is still valid is kept untouched.
func (p *Pan) SetBounds(b Bounds) State {
	p.bounds = b
	p.state = Clamp(p.state, b)
	return p.state
}

// ScrollBy applies a wheel or key delta.
func (p *Pan) ScrollBy(dx, dy float64) State {
	p.state = Update(p.state, p.bounds, Delta{DX: dx, DY: dy})
	return p.state
}

// ScrollTo jumps to an absolute offset.
func (p *Pan) ScrollTo(x, y float64) State {
	p.state = Clamp(State{OffsetX: x, OffsetY: y}, p.bounds)
	return p.state
}

// BeginDrag records the pointer position a drag starts from.
func (p *Pan) BeginDrag(x, y float64) {
	p.dragging = true
	p.lastX = x
	p.lastY = y
}

// DragTo pans by the pointer movement since the last drag position. Moving the
// pointer right reveals content further left, so the offset moves opposite.
func (p *Pan) DragTo(x, y float64) State {
	if !p.dragging {
		return p.state
	}
	dx := p.lastX - x
	dy := p.lastY - y
	p.lastX = x
	p.lastY = y
	return p.ScrollBy(dx, dy)
}

// EndDrag finishes a drag gesture.
func (p *Pan) EndDrag() {
	p.dragging = false
}

// Dragging reports whether a drag gesture is in progress.
func (p *Pan) Dragging() bool {
	return p.dragging
}
