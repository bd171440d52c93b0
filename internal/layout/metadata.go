// Package layout derives row slots, calendar units and screen geometry from
// raw task data, and resolves pointer coordinates back to tasks.
package layout

import (
	"fmt"
	"math"
	"time"

	"github.com/hylla/planner/internal/domain"
	"github.com/hylla/planner/internal/scroll"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Viewport is the visible logical size.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Metadata is the derived layout for one (tasks, config) pair. Build fills the
// static part; Measure returns a copy carrying viewport/scroll geometry. Values
// are never patched in place: any input change means a new Metadata.
type Metadata struct {
	Config Config      `json:"-"`
	Team   domain.Team `json:"-"`

	// Tasks holds every placeable task in placement order.
	Tasks           []domain.Task                            `json:"tasks"`
	RowIndex        map[string]int                           `json:"row_index"`
	MaxRowIndex     int                                      `json:"max_row_index"`
	DependenciesMap *orderedmap.OrderedMap[string, []string] `json:"dependencies"`
	RangeStart      time.Time                                `json:"range_start"`
	RangeEnd        time.Time                                `json:"range_end"`
	Units           []CalendarUnit                           `json:"units"`
	Diagnostics     []Diagnostic                             `json:"diagnostics,omitempty"`

	Viewport        Viewport                                    `json:"viewport"`
	Scroll          scroll.State                                `json:"scroll"`
	PixelsPerDay    float64                                     `json:"pixels_per_day"`
	ContentWidth    float64                                     `json:"content_width"`
	ContentHeight   float64                                     `json:"content_height"`
	UnitBoundaries  []float64                                   `json:"unit_boundaries"`
	TaskDOMMetadata *orderedmap.OrderedMap[string, DOMMetadata] `json:"task_dom_metadata"`

	taskIndex map[string]int
}

// Build derives row slots, dependency adjacency and calendar units. It never
// fails on task data; malformed tasks are dropped or repaired and reported in
// Diagnostics. Only an invalid cfg is an error.
func Build(tasks []domain.Task, team domain.Team, cfg Config) (*Metadata, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	valid, diags := sanitizeTasks(tasks)
	ordered, cycleDiags := placementOrder(valid)
	diags = append(diags, cycleDiags...)

	m := &Metadata{
		Config:          cfg,
		Team:            team,
		Tasks:           ordered,
		TaskDOMMetadata: orderedmap.New[string, DOMMetadata](),
		taskIndex:       make(map[string]int, len(ordered)),
	}
	for idx, task := range ordered {
		m.taskIndex[task.Name] = idx
	}
	m.RowIndex, m.MaxRowIndex = assignRows(ordered, cfg.FootprintDays())

	deps, depDiags := invertDependencies(ordered, m.taskIndex)
	m.DependenciesMap = deps
	m.Diagnostics = append(diags, depDiags...)

	m.RangeStart, m.RangeEnd, m.Units = calendarUnits(ordered, cfg)
	return m, nil
}

// Task returns the placed task with the given name.
func (m *Metadata) Task(name string) (domain.Task, bool) {
	if m == nil {
		return domain.Task{}, false
	}
	idx, ok := m.taskIndex[name]
	if !ok {
		return domain.Task{}, false
	}
	return m.Tasks[idx], true
}

// TotalDays is the number of days between RangeStart and RangeEnd.
func (m *Metadata) TotalDays() int {
	if m.RangeStart.IsZero() || m.RangeEnd.IsZero() {
		return 0
	}
	return domain.DaysBetween(m.RangeStart, m.RangeEnd)
}

// NaturalHeight is the full content height: header band plus every row slot.
func (m *Metadata) NaturalHeight() float64 {
	return m.Config.HeaderHeight + float64(m.MaxRowIndex)*m.Config.TaskRowHeight()
}

// NaturalWidth is the full content width for a viewport width.
func (m *Metadata) NaturalWidth(width float64) float64 {
	days := float64(m.TotalDays())
	if m.Config.Mode == ModeFit || days == 0 {
		return width
	}
	return math.Max(width, days*m.pixelsPerDay(width))
}

// Bounds returns scroll extents for a viewport. The fit variant always sizes
// its viewport to the content, so it never pans.
func (m *Metadata) Bounds(width, height float64) scroll.Bounds {
	natural := m.NaturalHeight()
	if m.Config.Mode == ModeFit {
		height = natural
	}
	return scroll.Bounds{
		ContentWidth:   m.NaturalWidth(width),
		ContentHeight:  natural,
		ViewportWidth:  width,
		ViewportHeight: height,
	}
}

// Measure returns a copy of m with screen geometry for the viewport and scroll
// offset. The offset is clamped before use.
func (m *Metadata) Measure(width, height float64, st scroll.State) (*Metadata, error) {
	if !validExtent(width) || !validExtent(height) {
		return nil, fmt.Errorf("%w: %gx%g", ErrInvalidViewport, width, height)
	}

	out := *m
	bounds := m.Bounds(width, height)
	out.Viewport = Viewport{Width: width, Height: bounds.ViewportHeight}
	out.Scroll = scroll.Clamp(st, bounds)
	out.PixelsPerDay = m.pixelsPerDay(width)
	out.ContentWidth = bounds.ContentWidth
	out.ContentHeight = bounds.ContentHeight

	out.UnitBoundaries = make([]float64, 0, len(m.Units)+1)
	for _, unit := range m.Units {
		out.UnitBoundaries = append(out.UnitBoundaries, float64(unit.StartDay)*out.PixelsPerDay)
	}
	if len(m.Units) > 0 {
		last := m.Units[len(m.Units)-1]
		out.UnitBoundaries = append(out.UnitBoundaries, float64(last.StartDay+last.Days)*out.PixelsPerDay)
	}

	out.TaskDOMMetadata = orderedmap.New[string, DOMMetadata](len(m.Tasks))
	for _, task := range out.Tasks {
		if dom, ok := out.taskGeometry(task.Name, width); ok {
			out.TaskDOMMetadata.Set(task.Name, dom)
		}
	}
	return &out, nil
}

// TaskRegion is the part of the viewport task rows are visible in. Headers
// own the band above it.
func (m *Metadata) TaskRegion() Rect {
	return Rect{
		X:      0,
		Y:      m.Config.HeaderHeight,
		Width:  m.Viewport.Width,
		Height: math.Max(0, m.Viewport.Height-m.Config.HeaderHeight),
	}
}

// TaskDOM returns the stored geometry for a task on screen.
func (m *Metadata) TaskDOM(name string) (DOMMetadata, bool) {
	if m == nil || m.TaskDOMMetadata == nil {
		return DOMMetadata{}, false
	}
	return m.TaskDOMMetadata.Get(name)
}

// GetTaskRect returns the screen rectangle of a task for the given width. With
// the width the metadata was measured at it equals the stored rectangle.
// Tasks that are unknown or entirely off screen report false.
func GetTaskRect(name string, m *Metadata, width float64) (Rect, bool) {
	if m == nil {
		return Rect{}, false
	}
	dom, ok := m.taskGeometry(name, width)
	if !ok {
		return Rect{}, false
	}
	return dom.Rect, true
}

func (m *Metadata) pixelsPerDay(width float64) float64 {
	days := m.TotalDays()
	if days == 0 {
		return 0
	}
	fit := width / float64(days)
	if m.Config.Mode == ModeFit {
		return fit
	}
	return math.Max(fit, m.Config.DayWidth)
}

func (m *Metadata) taskGeometry(name string, width float64) (DOMMetadata, bool) {
	idx, ok := m.taskIndex[name]
	if !ok {
		return DOMMetadata{}, false
	}
	row, ok := m.RowIndex[name]
	if !ok {
		return DOMMetadata{}, false
	}
	task := m.Tasks[idx]
	cfg := m.Config
	ppd := m.pixelsPerDay(width)

	x := float64(domain.DaysBetween(m.RangeStart, task.Start))*ppd - m.Scroll.OffsetX
	span := float64(task.Days()) * ppd
	barWidth := math.Max(span, cfg.MinTaskBarWidth)
	top := cfg.HeaderHeight + float64(row)*cfg.TaskRowHeight() + cfg.Margin - m.Scroll.OffsetY

	dom := DOMMetadata{Row: row}
	if cfg.Mode == ModeFit {
		// Fit rows are packed by calendar day, so nothing may leave the span.
		barWidth = span
		avatar := math.Min(cfg.AvatarSize, span)
		dom.Avatar = Rect{X: x, Y: top + (cfg.AvatarSize-avatar)/2, Width: avatar, Height: avatar}
		dom.Bar = Rect{X: x, Y: top + cfg.AvatarSize + cfg.Margin, Width: barWidth, Height: cfg.TaskBarHeight}
	} else {
		lane := math.Max(cfg.AvatarSize, cfg.TaskBarHeight)
		dom.Bar = Rect{X: x, Y: top + (lane-cfg.TaskBarHeight)/2, Width: barWidth, Height: cfg.TaskBarHeight}
		dom.Avatar = Rect{X: x, Y: top + (lane-cfg.AvatarSize)/2, Width: cfg.AvatarSize, Height: cfg.AvatarSize}
	}
	bottom := math.Max(dom.Bar.Bottom(), dom.Avatar.Bottom())
	dom.Rect = Rect{X: x, Y: top, Width: math.Max(barWidth, dom.Avatar.Width), Height: bottom - top}

	region := Rect{
		X:      0,
		Y:      cfg.HeaderHeight,
		Width:  width,
		Height: math.Max(0, m.Viewport.Height-cfg.HeaderHeight),
	}
	if dom.Rect.Intersect(region).Empty() {
		return DOMMetadata{}, false
	}
	if area := dom.Bar.Area(); area > 0 {
		dom.Visible = dom.Bar.Intersect(region).Area() / area
	}
	dom.IsClipped = dom.Visible < cfg.MinVisibleFraction
	return dom, true
}

func validExtent(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}
