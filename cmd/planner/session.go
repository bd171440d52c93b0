package main

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hylla/planner/internal/adapters/taskfile"
	"github.com/hylla/planner/internal/config"
	"github.com/hylla/planner/internal/draw"
	"github.com/hylla/planner/internal/layout"
	"github.com/hylla/planner/internal/platform"
)

// globalOptions holds the persistent root flags.
type globalOptions struct {
	configPath string
	tasksPath  string
	appName    string
	devMode    bool
	workDir    string
}

// session is the resolved runtime state shared by commands.
type session struct {
	opts       globalOptions
	paths      platform.Paths
	configPath string
	tasksPath  string
	cfg        config.Config
	logger     *runtimeLogger
}

// resolvePaths resolves platform paths. A task file found in the working
// directory's workspace replaces the per-user one.
func resolvePaths(opts globalOptions) (platform.Paths, error) {
	workDir := strings.TrimSpace(opts.workDir)
	if workDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			workDir = cwd
		}
	}
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
		WorkDir: workDir,
	})
}

// resolveConfigPath picks --config, then PLANNER_CONFIG, then the platform default.
func resolveConfigPath(opts globalOptions, paths platform.Paths) string {
	if path := strings.TrimSpace(opts.configPath); path != "" {
		return path
	}
	if envPath := strings.TrimSpace(os.Getenv("PLANNER_CONFIG")); envPath != "" {
		return envPath
	}
	return paths.ConfigPath
}

// openSession resolves paths, loads config and starts the logger. A quiet
// session keeps console logging muted from the start.
func openSession(opts globalOptions, stderr io.Writer, quiet bool) (*session, error) {
	paths, err := resolvePaths(opts)
	if err != nil {
		return nil, err
	}

	configPath := resolveConfigPath(opts, paths)
	tasksPath := strings.TrimSpace(opts.tasksPath)
	if tasksPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("PLANNER_TASKS")); envPath != "" {
			tasksPath = envPath
		} else {
			tasksPath = paths.TasksPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(paths.OutputDir))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	logger.SetConsoleEnabled(!quiet)

	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "tasks_path", tasksPath, "tasks_source", paths.TasksSource)
	logger.Info("configuration loaded", "config_path", configPath, "mode", cfg.Layout.Mode, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}
	return &session{
		opts:       opts,
		paths:      paths,
		configPath: configPath,
		tasksPath:  tasksPath,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

func (s *session) Close(stderr io.Writer) {
	if err := s.logger.Close(); err != nil && s.logger.ConsoleEnabled() {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", err)
	}
}

// loadTasks reads the task file and logs every degraded entry.
func (s *session) loadTasks() (taskfile.Dataset, error) {
	s.logger.Info("loading task file", "path", s.tasksPath)
	ds, err := taskfile.Load(s.tasksPath)
	if err != nil {
		s.logger.Error("task file load failed", "path", s.tasksPath, "err", err)
		return taskfile.Dataset{}, err
	}
	for _, warning := range ds.Warnings {
		s.logger.Warn("task file entry degraded", "path", s.tasksPath, "detail", warning)
	}
	s.logger.Info("task file loaded", "path", s.tasksPath, "tasks", len(ds.Tasks), "owners", len(ds.Team))
	return ds, nil
}

// toLayoutConfig maps persisted layout settings onto engine constants.
func toLayoutConfig(cfg config.LayoutConfig) layout.Config {
	return layout.Config{
		Mode:               layout.Mode(strings.ToLower(strings.TrimSpace(cfg.Mode))),
		Unit:               layout.Unit(strings.ToLower(strings.TrimSpace(cfg.Unit))),
		AvatarSize:         cfg.AvatarSize,
		Margin:             cfg.Margin,
		HeaderHeight:       cfg.HeaderHeight,
		TaskBarHeight:      cfg.TaskBarHeight,
		TooltipOffset:      cfg.TooltipOffset,
		ContextMenuOffset:  cfg.ContextMenuOffset,
		DayWidth:           cfg.DayWidth,
		MinTaskBarWidth:    cfg.MinTaskBarWidth,
		MinVisibleFraction: cfg.MinVisibleFraction,
		WeekStart:          time.Weekday(cfg.WeekStartDay()),
	}
}

// toTheme overlays configured colors on the built-in palette.
func toTheme(cfg config.ThemeConfig) (draw.Theme, error) {
	theme := draw.DefaultTheme()
	fields := []struct {
		name  string
		value string
		apply func(c color.RGBA)
	}{
		{"background", cfg.Background, func(c color.RGBA) { theme.Background = c }},
		{"grid_line", cfg.GridLine, func(c color.RGBA) { theme.GridLine = c }},
		{"band", cfg.Band, func(c color.RGBA) { theme.Band = c }},
		{"header_background", cfg.HeaderBackground, func(c color.RGBA) { theme.HeaderBackground = c }},
		{"header_text", cfg.HeaderText, func(c color.RGBA) { theme.HeaderText = c }},
		{"header_border", cfg.HeaderBorder, func(c color.RGBA) { theme.HeaderBorder = c }},
		{"task_bar", cfg.TaskBar, func(c color.RGBA) { theme.TaskBar = c }},
		{"task_text", cfg.TaskText, func(c color.RGBA) { theme.TaskText = c }},
		{"hover_outline", cfg.HoverOutline, func(c color.RGBA) { theme.HoverOutline = c }},
		{"arrow", cfg.Arrow, func(c color.RGBA) { theme.Arrow = c }},
		{"avatar_fallback", cfg.AvatarFallback, func(c color.RGBA) { theme.AvatarFallback = c }},
		{"avatar_text", cfg.AvatarText, func(c color.RGBA) { theme.AvatarText = c }},
	}
	for _, field := range fields {
		value := strings.TrimSpace(field.value)
		if value == "" {
			continue
		}
		c, err := draw.ParseColor(value)
		if err != nil {
			return draw.Theme{}, fmt.Errorf("theme.%s: %w", field.name, err)
		}
		field.apply(c)
	}
	return theme, nil
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
