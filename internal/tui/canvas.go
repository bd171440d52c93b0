package tui

import (
	"image"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
)

const upperHalf = "▀"

// halfBlocks draws img as cols x rows terminal cells. Each cell shows two
// stacked pixels: the upper one as foreground, the lower as background.
func halfBlocks(img *image.RGBA, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	var b strings.Builder
	for row := range rows {
		if row > 0 {
			b.WriteByte('\n')
		}
		start := 0
		top, bottom := pixelAt(img, 0, 2*row), pixelAt(img, 0, 2*row+1)
		for col := 1; col <= cols; col++ {
			if col < cols {
				nextTop, nextBottom := pixelAt(img, col, 2*row), pixelAt(img, col, 2*row+1)
				if nextTop == top && nextBottom == bottom {
					continue
				}
				writeRun(&b, top, bottom, col-start)
				start = col
				top, bottom = nextTop, nextBottom
				continue
			}
			writeRun(&b, top, bottom, col-start)
		}
	}
	return b.String()
}

func writeRun(b *strings.Builder, top, bottom color.RGBA, n int) {
	if n <= 0 {
		return
	}
	if top.A == 0 && bottom.A == 0 {
		b.WriteString(strings.Repeat(" ", n))
		return
	}
	style := lipgloss.NewStyle().Foreground(top).Background(bottom)
	b.WriteString(style.Render(strings.Repeat(upperHalf, n)))
}

func pixelAt(img *image.RGBA, x, y int) color.RGBA {
	if !image.Pt(x, y).In(img.Bounds()) {
		return color.RGBA{}
	}
	return img.RGBAAt(x, y)
}
