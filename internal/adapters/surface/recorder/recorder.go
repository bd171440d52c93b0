// Package recorder is a drawing surface that records calls instead of
// rasterizing them. Painters can be asserted against it without a backend.
package recorder

import (
	"image"
	"image/color"
	"slices"

	"github.com/hylla/planner/internal/layout"
)

// OpKind names one recorded surface call.
type OpKind string

// OpResize and related constants enumerate recorded calls.
const (
	OpResize      OpKind = "resize"
	OpLogicalSize OpKind = "logical_size"
	OpScale       OpKind = "scale"
	OpClear       OpKind = "clear"
	OpFillRect    OpKind = "fill_rect"
	OpStrokeRect  OpKind = "stroke_rect"
	OpStrokePath  OpKind = "stroke_path"
	OpFillPolygon OpKind = "fill_polygon"
	OpFillCircle  OpKind = "fill_circle"
	OpDrawImage   OpKind = "draw_image"
	OpFillText    OpKind = "fill_text"
)

// Op is one recorded call.
type Op struct {
	Kind      OpKind
	Rect      layout.Rect
	Points    []layout.Point
	Text      string
	LineWidth float64
	Factor    float64
	Color     color.RGBA
	Image     image.Image
}

// Surface records every call since the last Resize.
type Surface struct {
	// CharWidth is the fixed advance MeasureText uses per rune.
	CharWidth float64

	ops           []Op
	width, height int
	logicalWidth  float64
	logicalHeight float64
	scale         float64
	resizeCount   int
}

// New returns an empty recorder with a unit scale.
func New() *Surface {
	return &Surface{CharWidth: 6, scale: 1}
}

// Resize drops recorded calls, mirroring a canvas losing its contents.
func (s *Surface) Resize(width, height int) {
	s.ops = s.ops[:0]
	s.width = width
	s.height = height
	s.scale = 1
	s.resizeCount++
	s.record(Op{Kind: OpResize, Rect: layout.Rect{Width: float64(width), Height: float64(height)}})
}

func (s *Surface) SetLogicalSize(width, height float64) {
	s.logicalWidth = width
	s.logicalHeight = height
	s.record(Op{Kind: OpLogicalSize, Rect: layout.Rect{Width: width, Height: height}})
}

func (s *Surface) Scale(factor float64) {
	s.scale *= factor
	s.record(Op{Kind: OpScale, Factor: factor})
}

func (s *Surface) Clear(x, y, width, height float64) {
	s.record(Op{Kind: OpClear, Rect: layout.Rect{X: x, Y: y, Width: width, Height: height}})
}

func (s *Surface) FillRect(r layout.Rect, c color.Color) {
	s.record(Op{Kind: OpFillRect, Rect: r, Color: rgba(c)})
}

func (s *Surface) StrokeRect(r layout.Rect, lineWidth float64, c color.Color) {
	s.record(Op{Kind: OpStrokeRect, Rect: r, LineWidth: lineWidth, Color: rgba(c)})
}

func (s *Surface) StrokePath(points []layout.Point, lineWidth float64, c color.Color) {
	s.record(Op{Kind: OpStrokePath, Points: slices.Clone(points), LineWidth: lineWidth, Color: rgba(c)})
}

func (s *Surface) FillPolygon(points []layout.Point, c color.Color) {
	s.record(Op{Kind: OpFillPolygon, Points: slices.Clone(points), Color: rgba(c)})
}

func (s *Surface) FillCircle(center layout.Point, radius float64, c color.Color) {
	s.record(Op{
		Kind:  OpFillCircle,
		Rect:  layout.Rect{X: center.X - radius, Y: center.Y - radius, Width: 2 * radius, Height: 2 * radius},
		Color: rgba(c),
	})
}

func (s *Surface) DrawImage(img image.Image, r layout.Rect) {
	s.record(Op{Kind: OpDrawImage, Rect: r, Image: img})
}

func (s *Surface) FillText(text string, x, y float64, c color.Color) {
	s.record(Op{
		Kind:  OpFillText,
		Text:  text,
		Rect:  layout.Rect{X: x, Y: y, Width: s.MeasureText(text)},
		Color: rgba(c),
	})
}

func (s *Surface) MeasureText(text string) float64 {
	return float64(len([]rune(text))) * s.CharWidth
}

// Ops returns a copy of the recorded calls.
func (s *Surface) Ops() []Op {
	return slices.Clone(s.ops)
}

// OpsOf returns recorded calls of one kind, in order.
func (s *Surface) OpsOf(kind OpKind) []Op {
	var out []Op
	for _, op := range s.ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Texts returns every drawn string, in order.
func (s *Surface) Texts() []string {
	var out []string
	for _, op := range s.ops {
		if op.Kind == OpFillText {
			out = append(out, op.Text)
		}
	}
	return out
}

// IndexOfText returns the position of the first FillText call drawing text,
// or -1.
func (s *Surface) IndexOfText(text string) int {
	return slices.IndexFunc(s.ops, func(op Op) bool {
		return op.Kind == OpFillText && op.Text == text
	})
}

// BackingSize returns the device pixel size from the last Resize.
func (s *Surface) BackingSize() (int, int) {
	return s.width, s.height
}

// LogicalSize returns the last size passed to SetLogicalSize.
func (s *Surface) LogicalSize() (float64, float64) {
	return s.logicalWidth, s.logicalHeight
}

// Transform returns the accumulated scale factor.
func (s *Surface) Transform() float64 {
	return s.scale
}

// ResizeCount reports how many times the backing store was reallocated.
func (s *Surface) ResizeCount() int {
	return s.resizeCount
}

func (s *Surface) record(op Op) {
	s.ops = append(s.ops, op)
}

func rgba(c color.Color) color.RGBA {
	if c == nil {
		return color.RGBA{}
	}
	return color.RGBAModel.Convert(c).(color.RGBA)
}
