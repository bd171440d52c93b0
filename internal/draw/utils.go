package draw

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/hylla/planner/internal/domain"
	"github.com/hylla/planner/internal/layout"
)

// ErrMissingGeometry reports a caller handing a painter a task the metadata
// never placed.
var ErrMissingGeometry = errors.New("missing task geometry")

const ellipsis = "…"

// Utils bundles the painters for one config and theme. A config change means
// building a new Utils.
type Utils struct {
	cfg   layout.Config
	theme Theme
}

// New returns painters bound to one config and theme.
func New(cfg layout.Config, theme Theme) *Utils {
	return &Utils{cfg: cfg, theme: theme}
}

// Config returns the constants the painters were built with.
func (u *Utils) Config() layout.Config {
	return u.cfg
}

// Theme returns the palette the painters use.
func (u *Utils) Theme() Theme {
	return u.theme
}

// DrawUnitGrid paints the background, alternating unit bands and unit
// boundary lines, shifted by the horizontal pan offset.
func (u *Utils) DrawUnitGrid(s Surface, m *layout.Metadata, width, height float64) {
	s.FillRect(layout.Rect{Width: width, Height: height}, u.theme.Background)

	top := u.cfg.HeaderHeight
	offset := m.Scroll.OffsetX
	for i := 0; i+1 < len(m.UnitBoundaries); i++ {
		x0 := m.UnitBoundaries[i] - offset
		x1 := m.UnitBoundaries[i+1] - offset
		if x1 < 0 || x0 > width || i%2 == 0 {
			continue
		}
		s.FillRect(layout.Rect{X: x0, Y: top, Width: x1 - x0, Height: height - top}, u.theme.Band)
	}
	for _, boundary := range m.UnitBoundaries {
		x := boundary - offset
		if x < 0 || x > width {
			continue
		}
		s.StrokePath([]layout.Point{{X: x, Y: top}, {X: x, Y: height}}, 1, u.theme.GridLine)
	}
}

// DrawUnitHeaders paints the header band with one label per unit. A unit
// scrolled partly off the left edge keeps its label pinned to the edge.
func (u *Utils) DrawUnitHeaders(s Surface, m *layout.Metadata, width float64) {
	height := u.cfg.HeaderHeight
	s.FillRect(layout.Rect{Width: width, Height: height}, u.theme.HeaderBackground)

	offset := m.Scroll.OffsetX
	pad := math.Max(u.cfg.Margin, 2)
	for i, unit := range m.Units {
		if i+1 >= len(m.UnitBoundaries) {
			break
		}
		x0 := m.UnitBoundaries[i] - offset
		x1 := m.UnitBoundaries[i+1] - offset
		if x1 < 0 || x0 > width {
			continue
		}
		if x0 >= 0 {
			s.StrokePath([]layout.Point{{X: x0, Y: 0}, {X: x0, Y: height}}, 1, u.theme.GridLine)
		}
		left := math.Max(x0, 0) + pad
		room := math.Min(x1, width) - pad - left
		label := fitText(s, unit.Label, room)
		if label == "" {
			label = fitText(s, unit.ShortLabel, room)
		}
		if label != "" {
			s.FillText(label, left, height/2, u.theme.HeaderText)
		}
	}
	s.StrokePath([]layout.Point{{X: 0, Y: height}, {X: width, Y: height}}, 1, u.theme.HeaderBorder)
}

// DrawTaskRow paints the avatar, bar and label of m.Tasks[taskIndex]. Tasks
// off screen are skipped. A missing owner or image falls back to a
// placeholder avatar; only an index the metadata never placed is an error.
func (u *Utils) DrawTaskRow(s Surface, taskIndex int, m *layout.Metadata, team domain.Team, images map[string]image.Image, width float64, hovered string) error {
	if taskIndex < 0 || taskIndex >= len(m.Tasks) {
		return fmt.Errorf("%w: task index %d of %d", ErrMissingGeometry, taskIndex, len(m.Tasks))
	}
	task := m.Tasks[taskIndex]
	if _, ok := m.RowIndex[task.Name]; !ok {
		return fmt.Errorf("%w: no row for task %q", ErrMissingGeometry, task.Name)
	}
	dom, ok := m.TaskDOM(task.Name)
	if !ok {
		return nil
	}

	owner, known := team.Lookup(task.Owner)
	barColor := u.theme.TaskBar
	if known && owner.Color != "" {
		if c, err := ParseColor(owner.Color); err == nil {
			barColor = c
		}
	}
	isHovered := hovered != "" && hovered == task.Name
	fill := barColor
	if isHovered {
		fill = Lighten(barColor, 0.35)
	}
	s.FillRect(dom.Bar, fill)
	if isHovered {
		s.StrokeRect(dom.Bar, 2, u.theme.HoverOutline)
	}

	u.drawAvatar(s, dom.Avatar, task.Owner, owner, known, images)
	u.drawLabel(s, task.Name, dom, width)
	return nil
}

// DrawDependencyConnections paints one elbow connector with an arrowhead from
// the parent's bar end to each dependent's bar start. Pairs with an endpoint
// off screen are skipped.
func (u *Utils) DrawDependencyConnections(s Surface, dependents []string, parent string, width float64, m *layout.Metadata) error {
	if m == nil {
		return fmt.Errorf("%w: nil metadata", ErrMissingGeometry)
	}
	from, ok := m.TaskDOM(parent)
	if !ok {
		return nil
	}
	for _, name := range dependents {
		to, ok := m.TaskDOM(name)
		if !ok {
			continue
		}
		path := u.ConnectorPath(from, to)
		if outsideSpan(path, width) {
			continue
		}
		s.StrokePath(path, 1.5, u.theme.Arrow)
		s.FillPolygon(u.arrowHead(path[len(path)-1]), u.theme.Arrow)
	}
	return nil
}

// ConnectorPath routes from the parent's bar end to the child's bar start.
// A child on the parent's row gets a straight run. With room between them it
// is a single elbow. Otherwise it detours through the row gutter next to the
// child so it does not cut across the child's bar.
func (u *Utils) ConnectorPath(parent, child layout.DOMMetadata) []layout.Point {
	start := layout.Point{X: parent.Bar.Right(), Y: parent.Bar.Center().Y}
	end := layout.Point{X: child.Bar.X, Y: child.Bar.Center().Y}
	gap := math.Max(u.cfg.Margin, 4)

	if child.Row == parent.Row && start.Y == end.Y {
		return []layout.Point{start, end}
	}

	if end.X-start.X >= 2*gap {
		if start.Y == end.Y {
			return []layout.Point{start, end}
		}
		elbow := start.X + gap
		return []layout.Point{start, {X: elbow, Y: start.Y}, {X: elbow, Y: end.Y}, end}
	}

	lane := child.Rect.Bottom() + u.cfg.Margin/2
	if child.Row > parent.Row {
		lane = child.Rect.Y - u.cfg.Margin/2
	}
	out := start.X + gap
	in := end.X - gap
	return []layout.Point{
		start,
		{X: out, Y: start.Y},
		{X: out, Y: lane},
		{X: in, Y: lane},
		{X: in, Y: end.Y},
		end,
	}
}

// GetTaskRect returns the rectangle the painters use for a task.
func (u *Utils) GetTaskRect(name string, m *layout.Metadata, width float64) (layout.Rect, bool) {
	return layout.GetTaskRect(name, m, width)
}

func (u *Utils) arrowHead(tip layout.Point) []layout.Point {
	size := math.Max(u.cfg.Margin, 4)
	return []layout.Point{
		tip,
		{X: tip.X - size, Y: tip.Y - size/2},
		{X: tip.X - size, Y: tip.Y + size/2},
	}
}

func (u *Utils) drawAvatar(s Surface, r layout.Rect, ownerID string, owner domain.Owner, known bool, images map[string]image.Image) {
	if img, ok := images[ownerID]; ok && img != nil {
		s.DrawImage(img, r)
		return
	}

	disc := u.theme.AvatarFallback
	initials := "?"
	if known {
		initials = owner.Initials()
		if owner.Color != "" {
			if c, err := ParseColor(owner.Color); err == nil {
				disc = c
			}
		}
	}
	center := r.Center()
	s.FillCircle(center, r.Width/2, disc)
	s.FillText(initials, center.X-s.MeasureText(initials)/2, center.Y, u.theme.AvatarText)
}

// drawLabel writes the task name inside the bar. A label too long for an
// unclipped bar spills past its right end; a clipped bar keeps the label
// inside the visible part of the bar.
func (u *Utils) drawLabel(s Surface, name string, dom layout.DOMMetadata, width float64) {
	pad := math.Max(u.cfg.Margin/2, 2)
	left := dom.Bar.X + pad
	if u.cfg.Mode == layout.ModeScroll {
		left = dom.Avatar.Right() + pad
	}
	right := dom.Bar.Right() - pad
	y := dom.Bar.Center().Y

	if dom.IsClipped {
		left = math.Max(left, pad)
		right = math.Min(right, width-pad)
		if label := fitText(s, name, right-left); label != "" {
			s.FillText(label, left, y, u.theme.TaskText)
		}
		return
	}
	if s.MeasureText(name) <= right-left {
		s.FillText(name, left, y, u.theme.TaskText)
		return
	}
	s.FillText(name, dom.Bar.Right()+pad, y, u.theme.HeaderText)
}

// fitText truncates text with an ellipsis until it fits room.
func fitText(s Surface, text string, room float64) string {
	if room <= 0 || text == "" {
		return ""
	}
	if s.MeasureText(text) <= room {
		return text
	}
	runes := []rune(text)
	for n := len(runes) - 1; n > 0; n-- {
		candidate := string(runes[:n]) + ellipsis
		if s.MeasureText(candidate) <= room {
			return candidate
		}
	}
	return ""
}

func outsideSpan(path []layout.Point, width float64) bool {
	minX, maxX := math.Inf(1), math.Inf(-1)
	for _, p := range path {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
	}
	return maxX < 0 || minX > width
}
