// Package tui is an interactive terminal viewer for a timeline. It forwards
// pointer and key input to the render orchestrator and shows the rendered
// bitmap as half-block cells.
package tui

import (
	"fmt"
	"math"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/hylla/planner/internal/adapters/surface/raster"
	"github.com/hylla/planner/internal/app"
	"github.com/hylla/planner/internal/layout"
)

const (
	defaultDetailWidth = 42
	minCanvasForPanel  = 30
)

// statusMsg replaces the status line.
type statusMsg string

// reloadedMsg carries the outcome of a reload.
type reloadedMsg struct {
	data Data
	err  error
}

type Model struct {
	renderer *app.Renderer
	surface  *raster.Surface
	data     Data

	help     help.Model
	keys     keyMap
	markdown *markdownRenderer
	copyText ClipboardFunc
	reload   ReloadFunc

	title           string
	pixelsPerColumn float64
	panStep         float64
	showHelp        bool
	showInfo        bool
	detailWidth     int

	ready      bool
	width      int
	height     int
	canvas     string
	lastRender int
	status     string
	err        error
}

// NewModel builds a viewer over renderer, which must paint onto surface.
func NewModel(renderer *app.Renderer, surface *raster.Surface, data Data, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		renderer:        renderer,
		surface:         surface,
		data:            data,
		help:            h,
		keys:            newKeyMap(),
		markdown:        newMarkdownRenderer(""),
		copyText:        clipboard.WriteAll,
		title:           "planner",
		pixelsPerColumn: 8,
		panStep:         48,
		showHelp:        true,
		detailWidth:     defaultDetailWidth,
		status:          "ready",
		lastRender:      -1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.renderer.SetData(data.Tasks, data.Team, data.Images)
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.repaint()
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case reloadedMsg:
		if msg.err != nil {
			m.status = "reload failed: " + msg.err.Error()
			return m, nil
		}
		m.data = msg.data
		m.renderer.SetData(msg.data.Tasks, msg.data.Team, msg.data.Images)
		m.status = fmt.Sprintf("reloaded %d tasks", len(msg.data.Tasks))
		m.repaint()
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		m.renderer.EndDrag()
		return m, nil

	default:
		return m, nil
	}
}

func (m Model) View() tea.View {
	if !m.ready {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeAllMotion
		v.AltScreen = true
		return v
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render(m.title) + statusStyle.Render("  "+m.summary())
	body := m.canvas
	if m.infoVisible() {
		panel := lipgloss.NewStyle().
			Width(m.detailWidth).
			Height(m.canvasRows()).
			BorderLeft(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(dim).
			Padding(0, 1).
			Render(m.infoContent())
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, panel)
	}

	status := m.status
	if m.err != nil {
		status = "error: " + m.err.Error()
	}
	sections := []string{header, body, statusStyle.Render(status)}
	if helpLine := m.helpView(); helpLine != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(muted).Render(helpLine))
	}

	v := tea.NewView(strings.Join(sections, "\n"))
	v.MouseMode = tea.MouseModeAllMotion
	v.AltScreen = true
	return v
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		m.repaint()
		return m, nil
	case key.Matches(msg, m.keys.reload):
		if m.reload == nil {
			m.status = "reload unavailable"
			return m, nil
		}
		reload := m.reload
		m.status = "reloading..."
		return m, func() tea.Msg {
			data, err := reload()
			return reloadedMsg{data: data, err: err}
		}
	case key.Matches(msg, m.keys.panLeft):
		m.renderer.ScrollBy(-m.panStep, 0)
	case key.Matches(msg, m.keys.panRight):
		m.renderer.ScrollBy(m.panStep, 0)
	case key.Matches(msg, m.keys.panUp):
		m.renderer.ScrollBy(0, -m.panStep)
	case key.Matches(msg, m.keys.panDown):
		m.renderer.ScrollBy(0, m.panStep)
	case key.Matches(msg, m.keys.home):
		m.renderer.ScrollTo(0, 0)
	case key.Matches(msg, m.keys.nextTask):
		m.cycleHover(1)
	case key.Matches(msg, m.keys.prevTask):
		m.cycleHover(-1)
	case key.Matches(msg, m.keys.taskInfo):
		m.showInfo = !m.showInfo
	case key.Matches(msg, m.keys.copyName):
		return m.copyHovered()
	default:
		return m, nil
	}
	m.repaint()
	return m, nil
}

func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseWheelUp:
		m.renderer.ScrollBy(0, -m.panStep)
	case tea.MouseWheelDown:
		m.renderer.ScrollBy(0, m.panStep)
	case tea.MouseWheelLeft:
		m.renderer.ScrollBy(-m.panStep, 0)
	case tea.MouseWheelRight:
		m.renderer.ScrollBy(m.panStep, 0)
	default:
		return m, nil
	}
	m.repaint()
	return m, nil
}

func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	p, ok := m.logicalPoint(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseLeft:
		m.renderer.BeginDrag(p.X, p.Y)
	case tea.MouseRight:
		hit, found := m.renderer.FindTaskAtPoint(p.X, p.Y)
		if !found {
			m.status = "no task here"
			return m, nil
		}
		anchor := layout.ContextMenuAnchor(p.X, p.Y, m.renderer.Config())
		m.status = fmt.Sprintf("menu for %s at %.0f,%.0f", hit.Task.Name, anchor.X, anchor.Y)
	}
	return m, nil
}

func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	p, ok := m.logicalPoint(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	if m.renderer.Dragging() {
		m.renderer.DragTo(p.X, p.Y)
	} else {
		m.renderer.HoverAt(p.X, p.Y)
	}
	m.repaint()
	return m, nil
}

func (m Model) copyHovered() (tea.Model, tea.Cmd) {
	name := m.renderer.Hovered()
	if name == "" {
		m.status = "hover a task to copy its name"
		return m, nil
	}
	copyText := m.copyText
	return m, func() tea.Msg {
		if err := copyText(name); err != nil {
			return statusMsg("copy failed: " + err.Error())
		}
		return statusMsg("copied " + name)
	}
}

// cycleHover moves the hover through on-screen tasks in placement order.
func (m *Model) cycleHover(step int) {
	meta, err := m.renderer.Metadata()
	if err != nil || meta.TaskDOMMetadata.Len() == 0 {
		m.status = "no tasks on screen"
		return
	}
	var names []string
	for pair := meta.TaskDOMMetadata.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	current := -1
	for idx, name := range names {
		if name == m.renderer.Hovered() {
			current = idx
			break
		}
	}
	next := 0
	if current >= 0 {
		next = (current + step + len(names)) % len(names)
	} else if step < 0 {
		next = len(names) - 1
	}
	m.renderer.SetHoveredTask(names[next])
}

// repaint sizes the renderer to the canvas area and refreshes the cell grid
// when the renderer produced a new frame.
func (m *Model) repaint() {
	if !m.ready {
		return
	}
	cols, rows := m.canvasCols(), m.canvasRows()
	ppc := m.pixelsPerColumn
	if err := m.renderer.Resize(float64(cols)*ppc, float64(rows)*2*ppc); err != nil {
		m.err = err
		return
	}
	if err := m.renderer.SetDevicePixelScale(1 / ppc); err != nil {
		m.err = err
		return
	}
	if err := m.renderer.Render(); err != nil {
		m.err = err
	} else {
		m.err = nil
	}
	if count := m.renderer.RenderCount(); count != m.lastRender {
		m.lastRender = count
		m.canvas = halfBlocks(m.surface.Image(), cols, rows)
	}
}

// logicalPoint maps a terminal cell to the logical pixel at its center.
func (m Model) logicalPoint(x, y int) (layout.Point, bool) {
	row := y - m.canvasTop()
	if !m.ready || x < 0 || x >= m.canvasCols() || row < 0 || row >= m.canvasRows() {
		return layout.Point{}, false
	}
	ppc := m.pixelsPerColumn
	return layout.Point{
		X: (float64(x) + 0.5) * ppc,
		Y: (float64(row) + 0.5) * 2 * ppc,
	}, true
}

func (m Model) canvasTop() int {
	return 1
}

func (m Model) canvasCols() int {
	cols := m.width
	if m.infoVisible() {
		cols -= m.detailWidth + 1
	}
	return max(cols, 0)
}

func (m Model) canvasRows() int {
	chrome := m.canvasTop() + 1
	if helpLine := m.helpView(); helpLine != "" {
		chrome += lipgloss.Height(helpLine)
	}
	return max(m.height-chrome, 0)
}

func (m Model) infoVisible() bool {
	return m.showInfo && m.width-m.detailWidth-1 >= minCanvasForPanel
}

func (m Model) helpView() string {
	if !m.showHelp {
		return ""
	}
	h := m.help
	h.SetWidth(max(0, m.width))
	return h.View(m.keys)
}

func (m Model) summary() string {
	st := m.renderer.ScrollState()
	parts := []string{
		string(m.renderer.Config().Mode),
		fmt.Sprintf("%d tasks", len(m.data.Tasks)),
		fmt.Sprintf("offset %d,%d", int(math.Round(st.OffsetX)), int(math.Round(st.OffsetY))),
	}
	if hovered := m.renderer.Hovered(); hovered != "" {
		parts = append(parts, "▸ "+hovered)
	}
	return strings.Join(parts, " · ")
}
