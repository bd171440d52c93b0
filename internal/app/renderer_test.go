package app

import (
	"bytes"
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hylla/planner/internal/adapters/surface/recorder"
	"github.com/hylla/planner/internal/domain"
	"github.com/hylla/planner/internal/draw"
	"github.com/hylla/planner/internal/layout"
)

func day(month time.Month, d int) time.Time {
	return time.Date(2026, month, d, 0, 0, 0, 0, time.UTC)
}

func sampleTasks() []domain.Task {
	return []domain.Task{
		{Name: "A", Owner: "alice", Start: day(1, 5), End: day(1, 18)},
		{Name: "B", Owner: "bob", Start: day(1, 12), End: day(1, 25), Dependencies: []string{"A"}},
	}
}

func newTestRenderer(t *testing.T, mode layout.Mode, opts ...Option) (*Renderer, *recorder.Surface) {
	t.Helper()
	cfg := layout.DefaultConfig()
	cfg.Mode = mode
	surface := recorder.New()
	r, err := NewRenderer(surface, cfg, draw.DefaultTheme(), opts...)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return r, surface
}

func lastIndex(ops []recorder.Op, match func(recorder.Op) bool) int {
	last := -1
	for i, op := range ops {
		if match(op) {
			last = i
		}
	}
	return last
}

func firstIndex(ops []recorder.Op, match func(recorder.Op) bool) int {
	for i, op := range ops {
		if match(op) {
			return i
		}
	}
	return -1
}

func TestNewRendererRejectsBadInputs(t *testing.T) {
	if _, err := NewRenderer(nil, layout.DefaultConfig(), draw.DefaultTheme()); !errors.Is(err, ErrNoSurface) {
		t.Fatalf("expected ErrNoSurface, got %v", err)
	}
	cfg := layout.DefaultConfig()
	cfg.AvatarSize = -4
	if _, err := NewRenderer(recorder.New(), cfg, draw.DefaultTheme()); !errors.Is(err, layout.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRenderSizesBackingStoreByDevicePixelScale(t *testing.T) {
	r, surface := newTestRenderer(t, layout.ModeScroll, WithDevicePixelScale(1.5))
	r.SetData(sampleTasks(), nil, nil)
	if err := r.Resize(101, 51); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	if err := r.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if w, h := surface.BackingSize(); w != 151 || h != 76 {
		t.Fatalf("unexpected backing size %dx%d", w, h)
	}
	if w, h := surface.LogicalSize(); w != 101 || h != 51 {
		t.Fatalf("unexpected logical size %vx%v", w, h)
	}
	if got := surface.Transform(); got != 1.5 {
		t.Fatalf("unexpected transform %v", got)
	}
	ops := surface.Ops()
	kinds := []recorder.OpKind{recorder.OpResize, recorder.OpLogicalSize, recorder.OpScale, recorder.OpClear}
	for i, kind := range kinds {
		if ops[i].Kind != kind {
			t.Fatalf("op %d = %q, want %q", i, ops[i].Kind, kind)
		}
	}
	if err := r.SetDevicePixelScale(0); !errors.Is(err, ErrInvalidScale) {
		t.Fatalf("expected ErrInvalidScale, got %v", err)
	}
}

func TestScrollVariantPaintsHeadersLast(t *testing.T) {
	r, surface := newTestRenderer(t, layout.ModeScroll)
	r.SetData(sampleTasks(), nil, nil)
	if err := r.Resize(200, 200); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	r.ScrollTo(1e6, 0)
	if err := r.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	m, err := r.Metadata()
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if m.Scroll.OffsetX == 0 {
		t.Fatal("expected horizontal pan")
	}
	for pair := m.TaskDOMMetadata.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Rect.Right() < 0 {
			t.Fatalf("task %q stored while entirely off screen", pair.Key)
		}
	}

	cfg := r.Config()
	ops := surface.Ops()
	headerBand := firstIndex(ops, func(op recorder.Op) bool {
		return op.Kind == recorder.OpFillRect && op.Rect.Y == 0 && op.Rect.Height == cfg.HeaderHeight
	})
	lastBar := lastIndex(ops, func(op recorder.Op) bool {
		return op.Kind == recorder.OpFillRect && op.Rect.Height == cfg.TaskBarHeight
	})
	if headerBand < 0 || lastBar < 0 {
		t.Fatalf("expected header band and bars, got %d and %d", headerBand, lastBar)
	}
	if headerBand < lastBar {
		t.Fatalf("expected headers after bars, header=%d bar=%d", headerBand, lastBar)
	}
}

func TestFitVariantPaintsHeadersBeforeRows(t *testing.T) {
	r, surface := newTestRenderer(t, layout.ModeFit)
	r.SetData(sampleTasks(), nil, nil)
	if err := r.Resize(840, 10); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	if err := r.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	m, _ := r.Metadata()
	if _, h := surface.LogicalSize(); h != m.NaturalHeight() {
		t.Fatalf("expected fit height %v, got %v", m.NaturalHeight(), h)
	}

	cfg := r.Config()
	ops := surface.Ops()
	headerBand := firstIndex(ops, func(op recorder.Op) bool {
		return op.Kind == recorder.OpFillRect && op.Rect.Y == 0 && op.Rect.Height == cfg.HeaderHeight
	})
	firstBar := firstIndex(ops, func(op recorder.Op) bool {
		return op.Kind == recorder.OpFillRect && op.Rect.Height == cfg.TaskBarHeight
	})
	if headerBand < 0 || firstBar < 0 || headerBand > firstBar {
		t.Fatalf("expected headers before bars, header=%d bar=%d", headerBand, firstBar)
	}
	connector := firstIndex(ops, func(op recorder.Op) bool {
		return op.Kind == recorder.OpFillPolygon
	})
	lastBar := lastIndex(ops, func(op recorder.Op) bool {
		return op.Kind == recorder.OpFillRect && op.Rect.Height == cfg.TaskBarHeight
	})
	if connector < lastBar {
		t.Fatalf("expected connectors after rows, connector=%d bar=%d", connector, lastBar)
	}
}

func TestRenderCoalescesTriggers(t *testing.T) {
	r, surface := newTestRenderer(t, layout.ModeScroll)
	r.SetData(sampleTasks(), nil, nil)
	_ = r.Resize(300, 200)
	_ = r.Resize(320, 200)
	r.SetHoveredTask("A")
	r.ScrollBy(20, 0)
	if err := r.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := surface.ResizeCount(); got != 1 {
		t.Fatalf("expected a single repaint, got %d", got)
	}
	if err := r.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := surface.ResizeCount(); got != 1 {
		t.Fatalf("expected no repaint without changes, got %d", got)
	}
	r.SetHoveredTask("A")
	if err := r.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := surface.ResizeCount(); got != 1 {
		t.Fatalf("expected unchanged hover to skip repaint, got %d", got)
	}
	r.SetHoveredTask("B")
	if err := r.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := surface.ResizeCount(); got != 2 || r.RenderCount() != 2 {
		t.Fatalf("expected second repaint, got resize=%d renders=%d", surface.ResizeCount(), r.RenderCount())
	}
}

func TestHoverAtEmphasizesTask(t *testing.T) {
	r, surface := newTestRenderer(t, layout.ModeFit)
	r.SetData(sampleTasks(), nil, nil)
	_ = r.Resize(840, 0)

	rect, ok := r.TaskRect("B")
	if !ok {
		t.Fatal("expected B rect")
	}
	center := rect.Center()
	hit, ok := r.HoverAt(center.X, center.Y)
	if !ok || hit.Task.Name != "B" || r.Hovered() != "B" {
		t.Fatalf("expected hover on B, got %#v %t hovered=%q", hit, ok, r.Hovered())
	}
	if err := r.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	outlines := surface.OpsOf(recorder.OpStrokeRect)
	if len(outlines) != 1 || outlines[0].Rect != hit.DOM.Bar {
		t.Fatalf("expected one outline on B, got %#v", outlines)
	}

	if _, ok := r.HoverAt(1, 1); ok || r.Hovered() != "" {
		t.Fatalf("expected header point to clear hover, got %q", r.Hovered())
	}
}

func TestRenderWithMissingImagesUsesPlaceholders(t *testing.T) {
	r, surface := newTestRenderer(t, layout.ModeScroll)
	images := map[string]image.Image{"carol": image.NewRGBA(image.Rect(0, 0, 2, 2))}
	r.SetData(sampleTasks(), nil, images)
	_ = r.Resize(640, 200)
	if err := r.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := len(surface.OpsOf(recorder.OpDrawImage)); got != 0 {
		t.Fatalf("expected no owner images, got %d", got)
	}
	if got := len(surface.OpsOf(recorder.OpFillCircle)); got != 2 {
		t.Fatalf("expected two placeholder avatars, got %d", got)
	}
}

func TestDiagnosticsPortReceivesSnapshotsAndDefects(t *testing.T) {
	inspector := NewInspector()
	r, _ := newTestRenderer(t, layout.ModeScroll,
		WithDiagnostics(inspector),
		WithIDGenerator(func() string { return "session-1" }),
	)
	tasks := append(sampleTasks(), domain.Task{Name: "C", Start: day(1, 6), End: day(1, 7), Dependencies: []string{"ghost"}})
	r.SetData(tasks, nil, nil)
	_ = r.Resize(400, 200)
	if err := r.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	diags := inspector.Diagnostics()
	if len(diags) != 1 || diags[0].Kind != layout.DiagnosticDanglingDependency || diags[0].Ref != "ghost" {
		t.Fatalf("unexpected diagnostics %#v", diags)
	}
	snap, ok := inspector.Latest()
	if !ok {
		t.Fatal("expected a snapshot")
	}
	if snap.SessionID != "session-1" || snap.RenderCount != 1 || snap.Version != SnapshotVersion {
		t.Fatalf("unexpected snapshot %#v", snap)
	}
	if snap.Metadata == nil || snap.Metadata.TaskDOMMetadata.Len() == 0 {
		t.Fatal("expected measured metadata in snapshot")
	}
	if r.SessionID() != "session-1" {
		t.Fatalf("unexpected session id %q", r.SessionID())
	}
}

func TestResizeRejectsNegativeViewport(t *testing.T) {
	r, _ := newTestRenderer(t, layout.ModeScroll)
	if err := r.Resize(-1, 10); !errors.Is(err, layout.ErrInvalidViewport) {
		t.Fatalf("expected ErrInvalidViewport, got %v", err)
	}
}

func TestResizeKeepsScrollWhenStillValid(t *testing.T) {
	r, _ := newTestRenderer(t, layout.ModeScroll)
	r.SetData(sampleTasks(), nil, nil)
	_ = r.Resize(100, 200)
	r.ScrollTo(40, 0)
	_ = r.Resize(120, 200)
	if err := r.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := r.ScrollState().OffsetX; got != 40 {
		t.Fatalf("expected offset kept at 40, got %v", got)
	}
	_ = r.Resize(2000, 200)
	if _, err := r.Metadata(); err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if got := r.ScrollState().OffsetX; got != 0 {
		t.Fatalf("expected offset pinned when content fits, got %v", got)
	}
}

func TestSetConfigRelayouts(t *testing.T) {
	r, _ := newTestRenderer(t, layout.ModeScroll)
	r.SetData(sampleTasks(), nil, nil)
	_ = r.Resize(840, 400)
	before, _ := r.Metadata()

	cfg := layout.DefaultConfig()
	cfg.Mode = layout.ModeFit
	if err := r.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}
	after, _ := r.Metadata()
	if after == before || after.Config.Mode != layout.ModeFit {
		t.Fatalf("expected fresh fit metadata, got %#v", after.Config)
	}
	bad := cfg
	bad.Margin = -1
	if err := r.SetConfig(bad); !errors.Is(err, layout.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestDragPansOppositePointer(t *testing.T) {
	r, _ := newTestRenderer(t, layout.ModeScroll)
	r.SetData(sampleTasks(), nil, nil)
	_ = r.Resize(100, 200)
	r.BeginDrag(50, 50)
	if !r.Dragging() {
		t.Fatal("expected drag in progress")
	}
	state := r.DragTo(20, 50)
	r.EndDrag()
	if state.OffsetX != 30 || r.Dragging() {
		t.Fatalf("unexpected drag result %#v dragging=%t", state, r.Dragging())
	}
}

func TestRendererLogsRelayoutAndDefects(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel, Formatter: log.LogfmtFormatter})
	r, _ := newTestRenderer(t, layout.ModeScroll, WithLogger(logger))
	tasks := append(sampleTasks(), domain.Task{Name: "C", Start: day(1, 6), Dependencies: []string{"ghost"}})
	r.SetData(tasks, nil, nil)
	_ = r.Resize(400, 200)
	if err := r.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"msg=relayout", "tasks=3", "ref=ghost", "msg=rendered"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in log output:\n%s", want, out)
		}
	}
}
