// Package raster implements the drawing surface on an in-memory RGBA bitmap.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"sync"

	"github.com/hylla/planner/internal/layout"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

const (
	defaultFontSize = 11
	circleSegments  = 32
)

var goRegular = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// Option customizes a Surface.
type Option func(*Surface)

// WithFontSize sets the text size in logical points.
func WithFontSize(size float64) Option {
	return func(s *Surface) {
		if size > 0 {
			s.fontSize = size
		}
	}
}

// Surface paints into an *image.RGBA. Logical coordinates are multiplied by
// the accumulated scale before rasterizing.
type Surface struct {
	img           *image.RGBA
	scale         float64
	logicalWidth  float64
	logicalHeight float64
	fontSize      float64

	face      font.Face
	faceScale float64
}

// New returns an empty surface; call Resize before drawing.
func New(opts ...Option) *Surface {
	s := &Surface{
		img:      image.NewRGBA(image.Rectangle{}),
		scale:    1,
		fontSize: defaultFontSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Resize reallocates the bitmap and resets the transform.
func (s *Surface) Resize(width, height int) {
	s.img = image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	s.scale = 1
}

func (s *Surface) SetLogicalSize(width, height float64) {
	s.logicalWidth = width
	s.logicalHeight = height
}

func (s *Surface) Scale(factor float64) {
	if factor > 0 && !math.IsInf(factor, 0) {
		s.scale *= factor
	}
}

func (s *Surface) Clear(x, y, width, height float64) {
	draw.Draw(s.img, s.device(layout.Rect{X: x, Y: y, Width: width, Height: height}), image.Transparent, image.Point{}, draw.Src)
}

func (s *Surface) FillRect(r layout.Rect, c color.Color) {
	draw.Draw(s.img, s.device(r), image.NewUniform(c), image.Point{}, draw.Over)
}

func (s *Surface) StrokeRect(r layout.Rect, lineWidth float64, c color.Color) {
	s.StrokePath([]layout.Point{
		{X: r.X, Y: r.Y},
		{X: r.Right(), Y: r.Y},
		{X: r.Right(), Y: r.Bottom()},
		{X: r.X, Y: r.Bottom()},
		{X: r.X, Y: r.Y},
	}, lineWidth, c)
}

// StrokePath rasterizes each segment as a quad of the given width. Joins are
// square.
func (s *Surface) StrokePath(points []layout.Point, lineWidth float64, c color.Color) {
	if len(points) < 2 || lineWidth <= 0 {
		return
	}
	rz, ok := s.rasterizer()
	if !ok {
		return
	}
	half := lineWidth * s.scale / 2
	for i := 0; i+1 < len(points); i++ {
		a, b := s.point(points[i]), s.point(points[i+1])
		dx, dy := b.X-a.X, b.Y-a.Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		// Extend each end by half the width so adjacent segments overlap at corners.
		ux, uy := dx/length*half, dy/length*half
		nx, ny := -uy, ux
		rz.MoveTo(float32(a.X-ux+nx), float32(a.Y-uy+ny))
		rz.LineTo(float32(b.X+ux+nx), float32(b.Y+uy+ny))
		rz.LineTo(float32(b.X+ux-nx), float32(b.Y+uy-ny))
		rz.LineTo(float32(a.X-ux-nx), float32(a.Y-uy-ny))
		rz.ClosePath()
	}
	s.fill(rz, c)
}

func (s *Surface) FillPolygon(points []layout.Point, c color.Color) {
	if len(points) < 3 {
		return
	}
	rz, ok := s.rasterizer()
	if !ok {
		return
	}
	first := s.point(points[0])
	rz.MoveTo(float32(first.X), float32(first.Y))
	for _, p := range points[1:] {
		dp := s.point(p)
		rz.LineTo(float32(dp.X), float32(dp.Y))
	}
	rz.ClosePath()
	s.fill(rz, c)
}

func (s *Surface) FillCircle(center layout.Point, radius float64, c color.Color) {
	if radius <= 0 {
		return
	}
	points := make([]layout.Point, 0, circleSegments)
	for i := range circleSegments {
		theta := 2 * math.Pi * float64(i) / circleSegments
		points = append(points, layout.Point{
			X: center.X + radius*math.Cos(theta),
			Y: center.Y + radius*math.Sin(theta),
		})
	}
	s.FillPolygon(points, c)
}

func (s *Surface) DrawImage(img image.Image, r layout.Rect) {
	if img == nil || img.Bounds().Empty() {
		return
	}
	dst := s.deviceRect(r)
	if dst.Intersect(s.img.Bounds()).Empty() {
		return
	}
	// Scale clips to the bitmap, so a partly visible image is cropped.
	xdraw.ApproxBiLinear.Scale(s.img, dst, img, img.Bounds(), xdraw.Over, nil)
}

func (s *Surface) FillText(text string, x, y float64, c color.Color) {
	if text == "" {
		return
	}
	face := s.fontFace()
	metrics := face.Metrics()
	mid := float64(metrics.Ascent-metrics.Descent) / 64 / 2
	baseline := y*s.scale + mid
	d := font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: toFixed(x * s.scale), Y: toFixed(baseline)},
	}
	d.DrawString(text)
}

// MeasureText returns the advance of text in logical pixels.
func (s *Surface) MeasureText(text string) float64 {
	if text == "" {
		return 0
	}
	advance := font.MeasureString(s.fontFace(), text)
	return float64(advance) / 64 / s.scale
}

// Image returns the backing bitmap.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// LogicalSize returns the last size passed to SetLogicalSize.
func (s *Surface) LogicalSize() (float64, float64) {
	return s.logicalWidth, s.logicalHeight
}

// EncodePNG writes the bitmap as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, s.img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func (s *Surface) fontFace() font.Face {
	if s.face != nil && s.faceScale == s.scale {
		return s.face
	}
	parsed, err := goRegular()
	if err != nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    s.fontSize,
		DPI:     72 * s.scale,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	s.face = face
	s.faceScale = s.scale
	return face
}

func (s *Surface) rasterizer() (*vector.Rasterizer, bool) {
	b := s.img.Bounds()
	if b.Empty() {
		return nil, false
	}
	rz := vector.NewRasterizer(b.Dx(), b.Dy())
	rz.DrawOp = draw.Over
	return rz, true
}

func (s *Surface) fill(rz *vector.Rasterizer, c color.Color) {
	rz.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{})
}

func (s *Surface) point(p layout.Point) layout.Point {
	return layout.Point{X: p.X * s.scale, Y: p.Y * s.scale}
}

func (s *Surface) device(r layout.Rect) image.Rectangle {
	return s.deviceRect(r).Intersect(s.img.Bounds())
}

func (s *Surface) deviceRect(r layout.Rect) image.Rectangle {
	x0 := int(math.Floor(r.X * s.scale))
	y0 := int(math.Floor(r.Y * s.scale))
	x1 := int(math.Ceil(r.Right() * s.scale))
	y1 := int(math.Ceil(r.Bottom() * s.scale))
	return image.Rect(x0, y0, x1, y1)
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}
