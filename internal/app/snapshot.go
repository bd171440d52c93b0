package app

import (
	"slices"
	"sync"

	"github.com/hylla/planner/internal/layout"
	"github.com/hylla/planner/internal/scroll"
)

// SnapshotVersion tags the inspection payload layout.
const SnapshotVersion = "planner.snapshot.v1"

// Snapshot is the state of one completed render.
type Snapshot struct {
	Version          string           `json:"version"`
	SessionID        string           `json:"session_id"`
	RenderCount      int              `json:"render_count"`
	Mode             layout.Mode      `json:"mode"`
	Viewport         layout.Viewport  `json:"viewport"`
	DevicePixelScale float64          `json:"device_pixel_scale"`
	Hovered          string           `json:"hovered,omitempty"`
	Scroll           scroll.State     `json:"scroll"`
	Metadata         *layout.Metadata `json:"metadata"`
}

// Inspector is an in-memory DiagnosticsSink.
type Inspector struct {
	mu          sync.Mutex
	snapshots   []Snapshot
	diagnostics []layout.Diagnostic
}

// NewInspector returns an empty in-memory diagnostics sink.
func NewInspector() *Inspector {
	return &Inspector{}
}

// PublishSnapshot records s.
func (i *Inspector) PublishSnapshot(s Snapshot) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.snapshots = append(i.snapshots, s)
}

// PublishDiagnostic records d.
func (i *Inspector) PublishDiagnostic(d layout.Diagnostic) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.diagnostics = append(i.diagnostics, d)
}

// Latest returns the most recent snapshot.
func (i *Inspector) Latest() (Snapshot, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.snapshots) == 0 {
		return Snapshot{}, false
	}
	return i.snapshots[len(i.snapshots)-1], true
}

// Snapshots returns a copy of every recorded snapshot.
func (i *Inspector) Snapshots() []Snapshot {
	i.mu.Lock()
	defer i.mu.Unlock()
	return slices.Clone(i.snapshots)
}

// Diagnostics returns a copy of every recorded defect.
func (i *Inspector) Diagnostics() []layout.Diagnostic {
	i.mu.Lock()
	defer i.mu.Unlock()
	return slices.Clone(i.diagnostics)
}

// Reset drops everything collected so far.
func (i *Inspector) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.snapshots = nil
	i.diagnostics = nil
}
