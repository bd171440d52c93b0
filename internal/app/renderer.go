// Package app hosts the render orchestrator that owns one timeline session.
package app

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/hylla/planner/internal/domain"
	"github.com/hylla/planner/internal/draw"
	"github.com/hylla/planner/internal/layout"
	"github.com/hylla/planner/internal/scroll"
)

// Option customizes a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for relayout and render events.
func WithLogger(logger Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDiagnostics attaches an inspection sink.
func WithDiagnostics(sink DiagnosticsSink) Option {
	return func(r *Renderer) {
		r.sink = sink
	}
}

// WithIDGenerator sets the session id source.
func WithIDGenerator(idGen IDGenerator) Option {
	return func(r *Renderer) {
		if idGen != nil {
			r.idGen = idGen
		}
	}
}

// WithDevicePixelScale sets the initial physical-to-logical pixel ratio.
func WithDevicePixelScale(scale float64) Option {
	return func(r *Renderer) {
		if validScale(scale) {
			r.scale = scale
		}
	}
}

// Renderer owns the inputs of one session and repaints the surface from them.
// Setters only record state; Render performs at most one full repaint for any
// number of preceding setter calls. A Renderer is not safe for concurrent use.
type Renderer struct {
	surface draw.Surface
	cfg     layout.Config
	utils   *draw.Utils
	logger  Logger
	sink    DiagnosticsSink
	idGen   IDGenerator

	sessionID string
	tasks     []domain.Task
	team      domain.Team
	images    map[string]image.Image
	width     float64
	height    float64
	scale     float64
	hovered   string
	pan       *scroll.Pan

	base     *layout.Metadata
	measured *layout.Metadata

	needsBuild   bool
	needsMeasure bool
	dirty        bool
	renders      int
}

// NewRenderer constructs a session painting onto surface.
func NewRenderer(surface draw.Surface, cfg layout.Config, theme draw.Theme, opts ...Option) (*Renderer, error) {
	if surface == nil {
		return nil, ErrNoSurface
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Renderer{
		surface:    surface,
		cfg:        cfg,
		utils:      draw.New(cfg, theme),
		logger:     log.New(io.Discard),
		idGen:      func() string { return "" },
		scale:      1,
		pan:        scroll.NewPan(scroll.Bounds{}),
		needsBuild: true,
		dirty:      true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.sessionID = r.idGen()
	return r, nil
}

// SetConfig swaps the pixel constants, rebuilding the painters and layout.
func (r *Renderer) SetConfig(cfg layout.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.cfg = cfg
	r.utils = draw.New(cfg, r.utils.Theme())
	r.invalidateLayout()
	return nil
}

// SetTheme swaps the palette and rebuilds the drawing utilities.
func (r *Renderer) SetTheme(theme draw.Theme) {
	r.utils = draw.New(r.cfg, theme)
	r.dirty = true
}

// SetData replaces the task list, owner directory and owner images.
func (r *Renderer) SetData(tasks []domain.Task, team domain.Team, images map[string]image.Image) {
	r.tasks = slices.Clone(tasks)
	r.team = team
	r.images = images
	r.invalidateLayout()
}

// SetImages replaces only the owner images; geometry is unaffected.
func (r *Renderer) SetImages(images map[string]image.Image) {
	r.images = images
	r.dirty = true
}

// Resize sets the logical viewport size.
func (r *Renderer) Resize(width, height float64) error {
	if width < 0 || height < 0 || math.IsNaN(width) || math.IsNaN(height) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return fmt.Errorf("%w: %gx%g", layout.ErrInvalidViewport, width, height)
	}
	if width == r.width && height == r.height {
		return nil
	}
	r.width = width
	r.height = height
	r.needsMeasure = true
	r.dirty = true
	return nil
}

// SetDevicePixelScale changes the backing-store resolution factor.
func (r *Renderer) SetDevicePixelScale(scale float64) error {
	if !validScale(scale) {
		return fmt.Errorf("%w: %g", ErrInvalidScale, scale)
	}
	if scale != r.scale {
		r.scale = scale
		r.dirty = true
	}
	return nil
}

// SetHoveredTask marks one task for emphasis; "" clears it.
func (r *Renderer) SetHoveredTask(name string) {
	if name != r.hovered {
		r.hovered = name
		r.dirty = true
	}
}

// HoverAt resolves (x, y) and hovers the task under it, clearing the hover
// when nothing is there.
func (r *Renderer) HoverAt(x, y float64) (layout.Hit, bool) {
	hit, ok := r.FindTaskAtPoint(x, y)
	if ok {
		r.SetHoveredTask(hit.Task.Name)
	} else {
		r.SetHoveredTask("")
	}
	return hit, ok
}

// ScrollBy pans by a delta and returns the clamped offset.
func (r *Renderer) ScrollBy(dx, dy float64) scroll.State {
	return r.panWith(func(p *scroll.Pan) scroll.State { return p.ScrollBy(dx, dy) })
}

// ScrollTo pans to an absolute offset and returns the clamped result.
func (r *Renderer) ScrollTo(x, y float64) scroll.State {
	return r.panWith(func(p *scroll.Pan) scroll.State { return p.ScrollTo(x, y) })
}

// BeginDrag starts a pointer drag at (x, y).
func (r *Renderer) BeginDrag(x, y float64) {
	r.pan.BeginDrag(x, y)
}

// DragTo moves the content with the pointer.
func (r *Renderer) DragTo(x, y float64) scroll.State {
	return r.panWith(func(p *scroll.Pan) scroll.State { return p.DragTo(x, y) })
}

// EndDrag finishes a pointer drag.
func (r *Renderer) EndDrag() {
	r.pan.EndDrag()
}

// Dragging reports whether a pointer drag is active.
func (r *Renderer) Dragging() bool {
	return r.pan.Dragging()
}

// Render repaints the whole surface when any input changed since the last
// call. Task-level paint errors are joined and returned after every layer
// was attempted, so one bad task never blanks the canvas.
func (r *Renderer) Render() error {
	if err := r.refresh(); err != nil {
		r.logger.Error("layout failed", "err", err)
		return err
	}
	if !r.dirty {
		return nil
	}

	m := r.measured
	width, height := m.Viewport.Width, m.Viewport.Height
	r.surface.Resize(int(math.Floor(width*r.scale)), int(math.Floor(height*r.scale)))
	r.surface.SetLogicalSize(width, height)
	r.surface.Scale(r.scale)
	r.surface.Clear(0, 0, width, height)

	errs := r.paint(m, width, height)
	r.renders++
	r.dirty = false

	if len(errs) > 0 {
		err := errors.Join(errs...)
		r.logger.Error("render incomplete", "session", r.sessionID, "err", err)
		r.publish()
		return fmt.Errorf("render timeline: %w", err)
	}
	r.logger.Debug("rendered", "session", r.sessionID, "count", r.renders, "width", width, "height", height)
	r.publish()
	return nil
}

// Metadata returns the current measured layout.
func (r *Renderer) Metadata() (*layout.Metadata, error) {
	if err := r.refresh(); err != nil {
		return nil, err
	}
	return r.measured, nil
}

// FindTaskAtPoint resolves a logical viewport point against the current layout.
func (r *Renderer) FindTaskAtPoint(x, y float64) (layout.Hit, bool) {
	m, err := r.Metadata()
	if err != nil {
		return layout.Hit{}, false
	}
	return layout.FindTaskAtPoint(x, y, m)
}

// TaskRect returns the screen rectangle of a task at the current width.
func (r *Renderer) TaskRect(name string) (layout.Rect, bool) {
	m, err := r.Metadata()
	if err != nil {
		return layout.Rect{}, false
	}
	return r.utils.GetTaskRect(name, m, m.Viewport.Width)
}

// ScrollState returns the current pan offset.
func (r *Renderer) ScrollState() scroll.State {
	return r.pan.State()
}

// Hovered returns the emphasized task name, or "".
func (r *Renderer) Hovered() string {
	return r.hovered
}

// SessionID returns the id attached to published snapshots.
func (r *Renderer) SessionID() string {
	return r.sessionID
}

// RenderCount returns how many full repaints have run.
func (r *Renderer) RenderCount() int {
	return r.renders
}

// DevicePixelScale returns the backing-store resolution factor.
func (r *Renderer) DevicePixelScale() float64 {
	return r.scale
}

// Config returns the active layout constants.
func (r *Renderer) Config() layout.Config {
	return r.cfg
}

// Snapshot returns the inspection payload for the current state.
func (r *Renderer) Snapshot() Snapshot {
	snap := Snapshot{
		Version:          SnapshotVersion,
		SessionID:        r.sessionID,
		RenderCount:      r.renders,
		Mode:             r.cfg.Mode,
		DevicePixelScale: r.scale,
		Hovered:          r.hovered,
		Scroll:           r.pan.State(),
		Metadata:         r.measured,
	}
	if r.measured != nil {
		snap.Viewport = r.measured.Viewport
	}
	return snap
}

// paint runs the layers in their fixed order. The fit variant paints headers
// right after the grid; the scroll variant paints them last so they stay on
// top of panned bars.
func (r *Renderer) paint(m *layout.Metadata, width, height float64) []error {
	var errs []error
	r.utils.DrawUnitGrid(r.surface, m, width, height)
	if !m.Config.HeadersOnTop() {
		r.utils.DrawUnitHeaders(r.surface, m, width)
	}
	for _, idx := range rowOrder(m) {
		if err := r.utils.DrawTaskRow(r.surface, idx, m, r.team, r.images, width, r.hovered); err != nil {
			errs = append(errs, err)
		}
	}
	for pair := m.DependenciesMap.Oldest(); pair != nil; pair = pair.Next() {
		if err := r.utils.DrawDependencyConnections(r.surface, pair.Value, pair.Key, width, m); err != nil {
			errs = append(errs, err)
		}
	}
	if m.Config.HeadersOnTop() {
		r.utils.DrawUnitHeaders(r.surface, m, width)
	}
	return errs
}

// refresh rebuilds and remeasures whatever the setters invalidated.
func (r *Renderer) refresh() error {
	if r.needsBuild || r.base == nil {
		m, err := layout.Build(r.tasks, r.team, r.cfg)
		if err != nil {
			return fmt.Errorf("build layout: %w", err)
		}
		r.base = m
		r.needsBuild = false
		r.needsMeasure = true
		r.logger.Info("relayout", "session", r.sessionID, "tasks", len(m.Tasks), "rows", m.MaxRowIndex, "diagnostics", len(m.Diagnostics))
		for _, d := range m.Diagnostics {
			r.logger.Debug("task data defect", "kind", d.Kind, "task", d.Task, "ref", d.Ref, "index", d.Index)
			if r.sink != nil {
				r.sink.PublishDiagnostic(d)
			}
		}
	}
	if !r.needsMeasure && r.measured != nil {
		return nil
	}
	r.pan.SetBounds(r.base.Bounds(r.width, r.height))
	m, err := r.base.Measure(r.width, r.height, r.pan.State())
	if err != nil {
		return fmt.Errorf("measure layout: %w", err)
	}
	r.measured = m
	r.needsMeasure = false
	return nil
}

func (r *Renderer) panWith(move func(*scroll.Pan) scroll.State) scroll.State {
	if err := r.refresh(); err != nil {
		r.logger.Warn("scroll ignored", "err", err)
		return r.pan.State()
	}
	before := r.pan.State()
	after := move(r.pan)
	if after != before {
		r.needsMeasure = true
		r.dirty = true
	}
	return after
}

func (r *Renderer) invalidateLayout() {
	r.needsBuild = true
	r.needsMeasure = true
	r.dirty = true
}

func (r *Renderer) publish() {
	if r.sink != nil {
		r.sink.PublishSnapshot(r.Snapshot())
	}
}

// rowOrder returns task indices sorted by row, keeping placement order within
// a row.
func rowOrder(m *layout.Metadata) []int {
	order := make([]int, len(m.Tasks))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return m.RowIndex[m.Tasks[a].Name] - m.RowIndex[m.Tasks[b].Name]
	})
	return order
}

func validScale(scale float64) bool {
	return scale > 0 && !math.IsInf(scale, 0) && !math.IsNaN(scale)
}
