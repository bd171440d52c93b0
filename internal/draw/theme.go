package draw

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Theme is the palette the painters use.
type Theme struct {
	Background       color.RGBA
	GridLine         color.RGBA
	Band             color.RGBA
	HeaderBackground color.RGBA
	HeaderText       color.RGBA
	HeaderBorder     color.RGBA
	TaskBar          color.RGBA
	TaskText         color.RGBA
	HoverOutline     color.RGBA
	Arrow            color.RGBA
	AvatarFallback   color.RGBA
	AvatarText       color.RGBA
}

// DefaultTheme returns the stock light palette.
func DefaultTheme() Theme {
	return Theme{
		Background:       color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		GridLine:         color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff},
		Band:             color.RGBA{R: 0xf6, G: 0xf7, B: 0xf9, A: 0xff},
		HeaderBackground: color.RGBA{R: 0xfb, G: 0xfb, B: 0xfc, A: 0xff},
		HeaderText:       color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff},
		HeaderBorder:     color.RGBA{R: 0xbb, G: 0xbb, B: 0xbb, A: 0xff},
		TaskBar:          color.RGBA{R: 0x42, G: 0x85, B: 0xf4, A: 0xff},
		TaskText:         color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		HoverOutline:     color.RGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff},
		Arrow:            color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff},
		AvatarFallback:   color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff},
		AvatarText:       color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	}
}

// ParseColor decodes a #rrggbb hex string.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", hex, err)
	}
	return toRGBA(c), nil
}

// Lighten blends c toward white by t in [0,1] in Lab space, so the hue holds
// while lightness rises evenly.
func Lighten(c color.RGBA, t float64) color.RGBA {
	base, _ := colorful.MakeColor(c)
	white := colorful.Color{R: 1, G: 1, B: 1}
	return toRGBA(base.BlendLab(white, t))
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
