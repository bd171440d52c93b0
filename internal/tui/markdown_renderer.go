package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

// detailMinWrap is the narrowest wrap width the detail panel renders at.
const detailMinWrap = 16

// markdownRenderer turns task detail markdown into styled panel text. The
// glamour renderer is rebuilt only when the wrap width changes.
type markdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
	err      error
}

func newMarkdownRenderer(style string) *markdownRenderer {
	style = strings.TrimSpace(style)
	if style == "" {
		style = styles.DarkStyle
	}
	return &markdownRenderer{style: style}
}

// render wraps markdown at width. If the style cannot be loaded the raw
// markdown is returned so the panel still shows the task.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}
	width = max(width, detailMinWrap)
	if (r.renderer == nil && r.err == nil) || r.width != width {
		r.renderer, r.err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		r.width = width
	}
	if r.err != nil {
		return markdown
	}
	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}
