// Package draw paints timeline layers onto a Surface. Every routine is a pure
// function of its arguments apart from the writes it makes to the surface.
package draw

import (
	"image"
	"image/color"

	"github.com/hylla/planner/internal/layout"
)

// Surface is the drawing capability handed to every painter. Coordinates are
// logical pixels; the backend maps them through its scale transform.
type Surface interface {
	// Resize reallocates the backing store in device pixels and resets the
	// transform, like assigning a canvas width/height.
	Resize(width, height int)
	// SetLogicalSize records the unscaled layout size.
	SetLogicalSize(width, height float64)
	// Scale multiplies the current transform.
	Scale(factor float64)
	Clear(x, y, width, height float64)
	FillRect(r layout.Rect, c color.Color)
	StrokeRect(r layout.Rect, lineWidth float64, c color.Color)
	StrokePath(points []layout.Point, lineWidth float64, c color.Color)
	FillPolygon(points []layout.Point, c color.Color)
	FillCircle(center layout.Point, radius float64, c color.Color)
	DrawImage(img image.Image, r layout.Rect)
	// FillText draws text with its left edge at x and its vertical middle at y.
	FillText(text string, x, y float64, c color.Color)
	MeasureText(text string) float64
}
