package tui

import (
	"image"

	"github.com/hylla/planner/internal/domain"
)

// Data is the task set the viewer shows.
type Data struct {
	Tasks  []domain.Task
	Team   domain.Team
	Images map[string]image.Image
}

// ReloadFunc re-reads the task set from its source.
type ReloadFunc func() (Data, error)

// ClipboardFunc writes text to the system clipboard.
type ClipboardFunc func(string) error

// Option configures a Model.
type Option func(*Model)

// WithPixelsPerColumn sets how many logical pixels one terminal column covers.
func WithPixelsPerColumn(px float64) Option {
	return func(m *Model) {
		if px > 0 {
			m.pixelsPerColumn = px
		}
	}
}

// WithPanStep sets the logical distance one pan key moves.
func WithPanStep(step float64) Option {
	return func(m *Model) {
		if step > 0 {
			m.panStep = step
		}
	}
}

// WithShowHelp sets whether the help line starts visible.
func WithShowHelp(show bool) Option {
	return func(m *Model) {
		m.showHelp = show
	}
}

// WithClipboard replaces the clipboard writer.
func WithClipboard(fn ClipboardFunc) Option {
	return func(m *Model) {
		if fn != nil {
			m.copyText = fn
		}
	}
}

// WithReload sets the function the reload key calls.
func WithReload(fn ReloadFunc) Option {
	return func(m *Model) {
		m.reload = fn
	}
}

// WithDetailStyle selects the glamour style of the task detail panel.
func WithDetailStyle(style string) Option {
	return func(m *Model) {
		m.markdown = newMarkdownRenderer(style)
	}
}

// WithDetailWidth sets the task detail panel width in columns.
func WithDetailWidth(cols int) Option {
	return func(m *Model) {
		if cols >= detailMinWrap+2 {
			m.detailWidth = cols
		}
	}
}

// WithTitle sets the header title.
func WithTitle(title string) Option {
	return func(m *Model) {
		m.title = title
	}
}
