package layout

import "github.com/hylla/planner/internal/domain"

// Hit is a resolved pointer target.
type Hit struct {
	Task domain.Task `json:"task"`
	DOM  DOMMetadata `json:"dom"`
}

// FindTaskAtPoint returns the task whose stored rectangle contains (x, y),
// bounds inclusive. Entries are scanned in insertion (placement) order and
// the first match wins when rectangles overlap. Points outside the task
// region, including the header band, never match: headers sit above rows.
func FindTaskAtPoint(x, y float64, m *Metadata) (Hit, bool) {
	if m == nil || m.TaskDOMMetadata == nil {
		return Hit{}, false
	}
	if !m.TaskRegion().Contains(x, y) {
		return Hit{}, false
	}
	for pair := m.TaskDOMMetadata.Oldest(); pair != nil; pair = pair.Next() {
		if !pair.Value.Rect.Contains(x, y) {
			continue
		}
		task, ok := m.Task(pair.Key)
		if !ok {
			continue
		}
		return Hit{Task: task, DOM: pair.Value}, true
	}
	return Hit{}, false
}

// TooltipAnchor places a tooltip just below a task's footprint.
func TooltipAnchor(dom DOMMetadata, cfg Config) Point {
	return Point{X: dom.Rect.X, Y: dom.Rect.Bottom() + cfg.TooltipOffset}
}

// ContextMenuAnchor offsets a context menu from the pointer.
func ContextMenuAnchor(x, y float64, cfg Config) Point {
	return Point{X: x + cfg.ContextMenuOffset, Y: y + cfg.ContextMenuOffset}
}
