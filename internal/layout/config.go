package layout

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidConfig and related errors describe broken caller contracts.
var (
	ErrInvalidConfig   = errors.New("invalid layout config")
	ErrInvalidViewport = errors.New("invalid viewport")
)

// Mode selects the rendering variant.
type Mode string

// ModeFit and related constants define the two variants.
const (
	// ModeFit stretches the date range across the viewport width and grows
	// the height to fit every row. Headers paint right after the grid.
	ModeFit Mode = "fit"
	// ModeScroll keeps a fixed viewport and pans over wider/taller content.
	// Headers paint last so they stay above scrolled task bars.
	ModeScroll Mode = "scroll"
)

// Unit is the calendar granularity of the grid.
type Unit string

// UnitWeek and related constants define supported grid units.
const (
	UnitWeek  Unit = "week"
	UnitMonth Unit = "month"
)

// Config holds the pixel constants for one render session.
type Config struct {
	Mode               Mode
	Unit               Unit
	AvatarSize         float64
	Margin             float64
	HeaderHeight       float64
	TaskBarHeight      float64
	TooltipOffset      float64
	ContextMenuOffset  float64
	DayWidth           float64
	MinTaskBarWidth    float64
	MinVisibleFraction float64
	WeekStart          time.Weekday
}

// DefaultConfig returns the stock pixel constants.
func DefaultConfig() Config {
	return Config{
		Mode:               ModeScroll,
		Unit:               UnitWeek,
		AvatarSize:         24,
		Margin:             6,
		HeaderHeight:       28,
		TaskBarHeight:      18,
		TooltipOffset:      8,
		ContextMenuOffset:  4,
		DayWidth:           14,
		MinTaskBarWidth:    6,
		MinVisibleFraction: 0.5,
		WeekStart:          time.Monday,
	}
}

// Validate reports the first broken constant.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeFit, ModeScroll:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	switch c.Unit {
	case UnitWeek, UnitMonth:
	default:
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidConfig, c.Unit)
	}
	positive := []struct {
		name  string
		value float64
	}{
		{"avatar size", c.AvatarSize},
		{"header height", c.HeaderHeight},
		{"task bar height", c.TaskBarHeight},
		{"day width", c.DayWidth},
	}
	for _, p := range positive {
		if !(p.value > 0) || math.IsInf(p.value, 0) {
			return fmt.Errorf("%w: %s must be > 0", ErrInvalidConfig, p.name)
		}
	}
	nonNegative := []struct {
		name  string
		value float64
	}{
		{"margin", c.Margin},
		{"tooltip offset", c.TooltipOffset},
		{"context menu offset", c.ContextMenuOffset},
		{"min task bar width", c.MinTaskBarWidth},
	}
	for _, p := range nonNegative {
		if !(p.value >= 0) || math.IsInf(p.value, 0) {
			return fmt.Errorf("%w: %s must be >= 0", ErrInvalidConfig, p.name)
		}
	}
	if !(c.MinVisibleFraction >= 0 && c.MinVisibleFraction <= 1) {
		return fmt.Errorf("%w: min visible fraction must be within [0,1]", ErrInvalidConfig)
	}
	if c.WeekStart < time.Sunday || c.WeekStart > time.Saturday {
		return fmt.Errorf("%w: week start %d", ErrInvalidConfig, c.WeekStart)
	}
	return nil
}

// TaskRowHeight returns the vertical pitch of one row slot. The fit variant
// stacks the avatar above the bar; the scroll variant insets it in the bar.
func (c Config) TaskRowHeight() float64 {
	if c.Mode == ModeFit {
		return c.Margin + c.AvatarSize + c.Margin + c.TaskBarHeight + c.Margin
	}
	return c.Margin + math.Max(c.AvatarSize, c.TaskBarHeight) + c.Margin
}

// FootprintDays is the fewest calendar days one task rectangle covers. In the
// scroll variant a day is never narrower than DayWidth, so the avatar or a
// minimum-width bar can reach into the following days. The fit variant
// clamps both to the task's own span.
func (c Config) FootprintDays() int {
	if c.Mode == ModeFit || !(c.DayWidth > 0) {
		return 1
	}
	px := math.Max(c.AvatarSize, c.MinTaskBarWidth)
	return max(1, int(math.Ceil(px/c.DayWidth)))
}

// HeadersOnTop reports whether headers paint after every other layer.
func (c Config) HeadersOnTop() bool {
	return c.Mode == ModeScroll
}
