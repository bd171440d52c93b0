package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	colorful "github.com/lucasb-eyer/go-colorful"
	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Layout  LayoutConfig  `toml:"layout"`
	Theme   ThemeConfig   `toml:"theme"`
	Render  RenderConfig  `toml:"render"`
	Viewer  ViewerConfig  `toml:"viewer"`
	Logging LoggingConfig `toml:"logging"`
}

type LayoutConfig struct {
	Mode               string  `toml:"mode"` // fit | scroll
	Unit               string  `toml:"unit"` // week | month
	AvatarSize         float64 `toml:"avatar_size"`
	Margin             float64 `toml:"margin"`
	HeaderHeight       float64 `toml:"header_height"`
	TaskBarHeight      float64 `toml:"task_bar_height"`
	TooltipOffset      float64 `toml:"tooltip_offset"`
	ContextMenuOffset  float64 `toml:"context_menu_offset"`
	DayWidth           float64 `toml:"day_width"`
	MinTaskBarWidth    float64 `toml:"min_task_bar_width"`
	MinVisibleFraction float64 `toml:"min_visible_fraction"`
	WeekStart          string  `toml:"week_start"`
}

// ThemeConfig holds #rrggbb colors. Empty values keep the built-in palette.
type ThemeConfig struct {
	Background       string `toml:"background"`
	GridLine         string `toml:"grid_line"`
	Band             string `toml:"band"`
	HeaderBackground string `toml:"header_background"`
	HeaderText       string `toml:"header_text"`
	HeaderBorder     string `toml:"header_border"`
	TaskBar          string `toml:"task_bar"`
	TaskText         string `toml:"task_text"`
	HoverOutline     string `toml:"hover_outline"`
	Arrow            string `toml:"arrow"`
	AvatarFallback   string `toml:"avatar_fallback"`
	AvatarText       string `toml:"avatar_text"`
}

type RenderConfig struct {
	Width            int     `toml:"width"`
	Height           int     `toml:"height"`
	DevicePixelScale float64 `toml:"device_pixel_scale"`
	FontSize         float64 `toml:"font_size"`
	OutputDir        string  `toml:"output_dir"`
}

type ViewerConfig struct {
	// PixelsPerColumn is the logical width one terminal column covers. Each
	// column shows two stacked pixels.
	PixelsPerColumn float64 `toml:"pixels_per_column"`
	PanStep         float64 `toml:"pan_step"`
	ShowHelp        bool    `toml:"show_help"`
	// DetailStyle is a glamour standard style name for the task panel.
	DetailStyle string `toml:"detail_style"`
	DetailWidth int    `toml:"detail_width"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

var weekdays = map[string]int{
	"sunday":    0,
	"monday":    1,
	"tuesday":   2,
	"wednesday": 3,
	"thursday":  4,
	"friday":    5,
	"saturday":  6,
}

func Default(outputDir string) Config {
	return Config{
		Layout: LayoutConfig{
			Mode:               "scroll",
			Unit:               "week",
			AvatarSize:         24,
			Margin:             6,
			HeaderHeight:       28,
			TaskBarHeight:      18,
			TooltipOffset:      8,
			ContextMenuOffset:  4,
			DayWidth:           14,
			MinTaskBarWidth:    6,
			MinVisibleFraction: 0.5,
			WeekStart:          "monday",
		},
		Render: RenderConfig{
			Width:            1200,
			Height:           480,
			DevicePixelScale: 1,
			FontSize:         11,
			OutputDir:        outputDir,
		},
		Viewer: ViewerConfig{
			PixelsPerColumn: 8,
			PanStep:         48,
			ShowHelp:        true,
			DetailStyle:     styles.DarkStyle,
			DetailWidth:     42,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".planner/log",
			},
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch strings.TrimSpace(strings.ToLower(c.Layout.Mode)) {
	case "fit", "scroll":
	default:
		return fmt.Errorf("invalid layout.mode: %q", c.Layout.Mode)
	}
	switch strings.TrimSpace(strings.ToLower(c.Layout.Unit)) {
	case "week", "month":
	default:
		return fmt.Errorf("invalid layout.unit: %q", c.Layout.Unit)
	}
	positive := []struct {
		name  string
		value float64
	}{
		{"layout.avatar_size", c.Layout.AvatarSize},
		{"layout.header_height", c.Layout.HeaderHeight},
		{"layout.task_bar_height", c.Layout.TaskBarHeight},
		{"layout.day_width", c.Layout.DayWidth},
	}
	for _, field := range positive {
		if field.value <= 0 {
			return fmt.Errorf("%s must be > 0", field.name)
		}
	}
	nonNegative := []struct {
		name  string
		value float64
	}{
		{"layout.margin", c.Layout.Margin},
		{"layout.tooltip_offset", c.Layout.TooltipOffset},
		{"layout.context_menu_offset", c.Layout.ContextMenuOffset},
		{"layout.min_task_bar_width", c.Layout.MinTaskBarWidth},
	}
	for _, field := range nonNegative {
		if field.value < 0 {
			return fmt.Errorf("%s must be >= 0", field.name)
		}
	}
	if c.Layout.MinVisibleFraction < 0 || c.Layout.MinVisibleFraction > 1 {
		return fmt.Errorf("layout.min_visible_fraction must be within [0, 1]")
	}
	if _, ok := weekdays[strings.TrimSpace(strings.ToLower(c.Layout.WeekStart))]; !ok {
		return fmt.Errorf("invalid layout.week_start: %q", c.Layout.WeekStart)
	}

	themeFields := c.Theme.fields()
	for _, name := range slices.Sorted(maps.Keys(themeFields)) {
		value := themeFields[name]
		if strings.TrimSpace(value) == "" {
			continue
		}
		if _, err := colorful.Hex(strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("invalid theme.%s: %q", name, value)
		}
	}

	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render.width and render.height must be > 0")
	}
	if c.Render.DevicePixelScale <= 0 {
		return fmt.Errorf("render.device_pixel_scale must be > 0")
	}
	if c.Render.FontSize <= 0 {
		return fmt.Errorf("render.font_size must be > 0")
	}
	if c.Viewer.PixelsPerColumn <= 0 {
		return fmt.Errorf("viewer.pixels_per_column must be > 0")
	}
	if c.Viewer.PanStep <= 0 {
		return fmt.Errorf("viewer.pan_step must be > 0")
	}
	if style := strings.TrimSpace(c.Viewer.DetailStyle); style != styles.AutoStyle {
		if _, ok := styles.DefaultStyles[style]; !ok {
			return fmt.Errorf("invalid viewer.detail_style: %q", c.Viewer.DetailStyle)
		}
	}
	if c.Viewer.DetailWidth < 18 {
		return fmt.Errorf("viewer.detail_width must be >= 18")
	}

	if _, err := log.ParseLevel(strings.TrimSpace(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	return nil
}

// WeekStartDay returns layout.week_start as a 0 (Sunday) to 6 (Saturday)
// index.
func (c LayoutConfig) WeekStartDay() int {
	return weekdays[strings.TrimSpace(strings.ToLower(c.WeekStart))]
}

func (t ThemeConfig) fields() map[string]string {
	return map[string]string{
		"background":        t.Background,
		"grid_line":         t.GridLine,
		"band":              t.Band,
		"header_background": t.HeaderBackground,
		"header_text":       t.HeaderText,
		"header_border":     t.HeaderBorder,
		"task_bar":          t.TaskBar,
		"task_text":         t.TaskText,
		"hover_outline":     t.HoverOutline,
		"arrow":             t.Arrow,
		"avatar_fallback":   t.AvatarFallback,
		"avatar_text":       t.AvatarText,
	}
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	out, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode toml: %w", err)
	}
	return out, nil
}

// WriteDefault writes cfg to path unless a file already exists there.
func WriteDefault(path string, cfg Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}
	content, err := Encode(cfg)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
