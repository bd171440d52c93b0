package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/hylla/planner/internal/adapters/surface/raster"
	"github.com/hylla/planner/internal/adapters/taskfile"
	"github.com/hylla/planner/internal/app"
	"github.com/hylla/planner/internal/config"
	"github.com/hylla/planner/internal/draw"
	"github.com/hylla/planner/internal/layout"
	"github.com/hylla/planner/internal/tui"
	"github.com/spf13/cobra"
)

// version is stamped at build time.
var version = "dev"

type program interface {
	Run() (tea.Model, error)
}

// programFactory is swapped in tests to avoid taking over the terminal.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

func main() {
	root := newRootCommand(os.Stdout, os.Stderr)
	if err := fang.Execute(context.Background(), root, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// run executes one command line without the fang presentation layer.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SilenceUsage = true
	root.SilenceErrors = true
	return root.ExecuteContext(ctx)
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	opts := globalOptions{appName: "planner", devMode: version == "dev"}
	if envDev, ok := parseBoolEnv("PLANNER_DEV_MODE"); ok {
		opts.devMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("PLANNER_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}

	var vf viewportFlags
	root := &cobra.Command{
		Use:     "planner",
		Short:   "Render and explore task timelines",
		Long:    "planner lays out dated, dependent tasks on a calendar grid. Without a subcommand it opens the interactive viewer.",
		Version: version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runView(opts, vf, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.tasksPath, "tasks", "", "path to the task YAML file")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")
	flags.StringVar(&opts.workDir, "workdir", "", "directory searched for a project task file (default: current directory)")
	vf.bindMode(root)

	root.AddCommand(
		newViewCommand(&opts, stderr),
		newRenderCommand(&opts, stdout, stderr),
		newHitCommand(&opts, stdout, stderr),
		newInspectCommand(&opts, stdout, stderr),
		newPathsCommand(&opts, stdout),
		newInitConfigCommand(&opts, stdout),
	)
	return root
}

// viewportFlags are the per-command overrides of the configured render target.
type viewportFlags struct {
	width   int
	height  int
	scale   float64
	mode    string
	unit    string
	offsetX float64
	offsetY float64
	hover   string
}

func (f *viewportFlags) bindMode(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mode, "mode", "", "layout variant: fit or scroll")
	cmd.Flags().StringVar(&f.unit, "unit", "", "calendar unit: week or month")
}

func (f *viewportFlags) bind(cmd *cobra.Command) {
	f.bindMode(cmd)
	cmd.Flags().IntVar(&f.width, "width", 0, "viewport width in logical pixels")
	cmd.Flags().IntVar(&f.height, "height", 0, "viewport height in logical pixels")
	cmd.Flags().Float64Var(&f.offsetX, "offset-x", 0, "horizontal scroll offset")
	cmd.Flags().Float64Var(&f.offsetY, "offset-y", 0, "vertical scroll offset")
	cmd.Flags().StringVar(&f.hover, "hover", "", "task name to emphasize")
}

// layoutConfig merges the flag overrides into the configured layout.
func (f viewportFlags) layoutConfig(cfg config.Config) (layout.Config, error) {
	merged := cfg.Layout
	if f.mode != "" {
		merged.Mode = f.mode
	}
	if f.unit != "" {
		merged.Unit = f.unit
	}
	lcfg := toLayoutConfig(merged)
	if err := lcfg.Validate(); err != nil {
		return layout.Config{}, err
	}
	return lcfg, nil
}

func (f viewportFlags) size(cfg config.Config) (float64, float64) {
	width, height := cfg.Render.Width, cfg.Render.Height
	if f.width > 0 {
		width = f.width
	}
	if f.height > 0 {
		height = f.height
	}
	return float64(width), float64(height)
}

// prepare builds a renderer over a fresh raster surface with every flag applied.
func (f viewportFlags) prepare(s *session, ds taskfile.Dataset, opts ...app.Option) (*app.Renderer, *raster.Surface, error) {
	lcfg, err := f.layoutConfig(s.cfg)
	if err != nil {
		return nil, nil, err
	}
	scale := s.cfg.Render.DevicePixelScale
	if f.scale > 0 {
		scale = f.scale
	}
	surface := raster.New(raster.WithFontSize(s.cfg.Render.FontSize))
	opts = append([]app.Option{app.WithDevicePixelScale(scale)}, opts...)
	renderer, err := s.newRenderer(surface, lcfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	renderer.SetData(ds.Tasks, ds.Team, ds.Images)
	if err := renderer.Resize(f.size(s.cfg)); err != nil {
		return nil, nil, err
	}
	if f.offsetX != 0 || f.offsetY != 0 {
		renderer.ScrollTo(f.offsetX, f.offsetY)
	}
	if f.hover != "" {
		renderer.SetHoveredTask(f.hover)
	}
	return renderer, surface, nil
}

func (s *session) newRenderer(surface draw.Surface, cfg layout.Config, opts ...app.Option) (*app.Renderer, error) {
	theme, err := toTheme(s.cfg.Theme)
	if err != nil {
		return nil, err
	}
	base := []app.Option{
		app.WithLogger(s.logger),
		app.WithIDGenerator(uuid.NewString),
	}
	renderer, err := app.NewRenderer(surface, cfg, theme, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	s.logger.Debug("render session created", "session", renderer.SessionID(), "mode", cfg.Mode, "unit", cfg.Unit)
	return renderer, nil
}

func newViewCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var vf viewportFlags
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the interactive terminal viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runView(*opts, vf, stderr)
		},
	}
	vf.bindMode(cmd)
	return cmd
}

func runView(opts globalOptions, vf viewportFlags, stderr io.Writer) error {
	// Runtime logs stay in the dev-file sink while the viewer owns the screen.
	s, err := openSession(opts, stderr, true)
	if err != nil {
		return err
	}
	defer s.Close(stderr)

	ds, err := s.loadTasks()
	if err != nil {
		return err
	}
	lcfg, err := vf.layoutConfig(s.cfg)
	if err != nil {
		return err
	}
	surface := raster.New(raster.WithFontSize(s.cfg.Render.FontSize))
	renderer, err := s.newRenderer(surface, lcfg)
	if err != nil {
		return err
	}

	m := tui.NewModel(renderer, surface, toViewerData(ds),
		tui.WithTitle("planner · "+filepath.Base(s.tasksPath)),
		tui.WithPixelsPerColumn(s.cfg.Viewer.PixelsPerColumn),
		tui.WithPanStep(s.cfg.Viewer.PanStep),
		tui.WithShowHelp(s.cfg.Viewer.ShowHelp),
		tui.WithDetailStyle(s.cfg.Viewer.DetailStyle),
		tui.WithDetailWidth(s.cfg.Viewer.DetailWidth),
		tui.WithReload(func() (tui.Data, error) {
			s.logger.Info("task reload requested", "path", s.tasksPath)
			reloaded, err := s.loadTasks()
			if err != nil {
				return tui.Data{}, err
			}
			return toViewerData(reloaded), nil
		}),
	)
	s.logger.Info("starting tui program loop", "session", renderer.SessionID())
	if _, err := programFactory(m).Run(); err != nil {
		s.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	s.logger.Info("command flow complete", "command", "view")
	return nil
}

func toViewerData(ds taskfile.Dataset) tui.Data {
	return tui.Data{Tasks: ds.Tasks, Team: ds.Team, Images: ds.Images}
}

func newRenderCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		vf  viewportFlags
		out string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the timeline to a PNG file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(*opts, stderr, false)
			if err != nil {
				return err
			}
			defer s.Close(stderr)
			return runRender(s, vf, out, stdout)
		},
	}
	vf.bind(cmd)
	cmd.Flags().Float64Var(&vf.scale, "scale", 0, "device pixel scale (defaults to render.device_pixel_scale)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output PNG path ('-' for stdout, defaults to <render.output_dir>/timeline.png)")
	return cmd
}

func runRender(s *session, vf viewportFlags, out string, stdout io.Writer) error {
	ds, err := s.loadTasks()
	if err != nil {
		return err
	}
	renderer, surface, err := vf.prepare(s, ds)
	if err != nil {
		return err
	}
	if err := renderer.Render(); err != nil {
		s.logger.Warn("render incomplete", "session", renderer.SessionID(), "err", err)
	}

	var encoded bytes.Buffer
	if err := surface.EncodePNG(&encoded); err != nil {
		return err
	}
	if out == "-" {
		if _, err := stdout.Write(encoded.Bytes()); err != nil {
			return fmt.Errorf("write png to stdout: %w", err)
		}
		return nil
	}
	if strings.TrimSpace(out) == "" {
		out = filepath.Join(s.cfg.Render.OutputDir, "timeline.png")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create render output dir: %w", err)
	}
	if err := os.WriteFile(out, encoded.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write render file: %w", err)
	}
	bounds := surface.Image().Bounds()
	s.logger.Info("render written", "path", out, "bytes", encoded.Len())
	_, _ = fmt.Fprintf(stdout, "wrote %s (%dx%d px, %s)\n", out, bounds.Dx(), bounds.Dy(), humanize.Bytes(uint64(encoded.Len())))
	return nil
}

// hitReport is the JSON answer of the hit command.
type hitReport struct {
	X           float64             `json:"x"`
	Y           float64             `json:"y"`
	Hit         bool                `json:"hit"`
	Task        *taskReport         `json:"task,omitempty"`
	DOM         *layout.DOMMetadata `json:"dom,omitempty"`
	Tooltip     *layout.Point       `json:"tooltip,omitempty"`
	ContextMenu *layout.Point       `json:"context_menu,omitempty"`
}

type taskReport struct {
	Name         string   `json:"name"`
	Owner        string   `json:"owner,omitempty"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	Days         int      `json:"days"`
	Dependencies []string `json:"dependencies,omitempty"`
}

func newHitCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var vf viewportFlags
	cmd := &cobra.Command{
		Use:   "hit X Y",
		Short: "Report the task under a viewport point as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("parse x %q: %w", args[0], err)
			}
			y, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("parse y %q: %w", args[1], err)
			}
			s, err := openSession(*opts, stderr, false)
			if err != nil {
				return err
			}
			defer s.Close(stderr)
			return runHit(s, vf, x, y, stdout)
		},
	}
	vf.bind(cmd)
	return cmd
}

func runHit(s *session, vf viewportFlags, x, y float64, stdout io.Writer) error {
	ds, err := s.loadTasks()
	if err != nil {
		return err
	}
	renderer, _, err := vf.prepare(s, ds)
	if err != nil {
		return err
	}
	report := hitReport{X: x, Y: y}
	if hit, ok := renderer.FindTaskAtPoint(x, y); ok {
		cfg := renderer.Config()
		tooltip := layout.TooltipAnchor(hit.DOM, cfg)
		menu := layout.ContextMenuAnchor(x, y, cfg)
		report.Hit = true
		report.Task = &taskReport{
			Name:         hit.Task.Name,
			Owner:        hit.Task.Owner,
			Start:        hit.Task.Start.Format("2006-01-02"),
			End:          hit.Task.End.Format("2006-01-02"),
			Days:         hit.Task.Days(),
			Dependencies: hit.Task.Dependencies,
		}
		report.DOM = &hit.DOM
		report.Tooltip = &tooltip
		report.ContextMenu = &menu
	}
	s.logger.Debug("hit test resolved", "x", x, "y", y, "hit", report.Hit)
	return writeJSON(stdout, report)
}

// inspectReport is the JSON answer of the inspect command.
type inspectReport struct {
	Snapshot    app.Snapshot        `json:"snapshot"`
	Diagnostics []layout.Diagnostic `json:"diagnostics"`
	Warnings    []string            `json:"warnings"`
}

func newInspectCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var vf viewportFlags
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Render once and dump the layout snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(*opts, stderr, false)
			if err != nil {
				return err
			}
			defer s.Close(stderr)
			return runInspect(s, vf, stdout)
		},
	}
	vf.bind(cmd)
	return cmd
}

func runInspect(s *session, vf viewportFlags, stdout io.Writer) error {
	ds, err := s.loadTasks()
	if err != nil {
		return err
	}
	inspector := app.NewInspector()
	renderer, _, err := vf.prepare(s, ds, app.WithDiagnostics(inspector))
	if err != nil {
		return err
	}
	if err := renderer.Render(); err != nil {
		s.logger.Warn("render incomplete", "session", renderer.SessionID(), "err", err)
	}
	snap, ok := inspector.Latest()
	if !ok {
		snap = renderer.Snapshot()
	}
	report := inspectReport{
		Snapshot:    snap,
		Diagnostics: inspector.Diagnostics(),
		Warnings:    ds.Warnings,
	}
	if report.Diagnostics == nil {
		report.Diagnostics = []layout.Diagnostic{}
	}
	if report.Warnings == nil {
		report.Warnings = []string{}
	}
	return writeJSON(stdout, report)
}

func newPathsCommand(opts *globalOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := resolvePaths(*opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "tasks: %s\n", paths.TasksPath)
			_, _ = fmt.Fprintf(stdout, "tasks_source: %s\n", paths.TasksSource)
			_, _ = fmt.Fprintf(stdout, "renders: %s\n", paths.OutputDir)
			return nil
		},
	}
}

func newInitConfigCommand(opts *globalOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write the default config file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := resolvePaths(*opts)
			if err != nil {
				return err
			}
			path := resolveConfigPath(*opts, paths)
			written, err := config.WriteDefault(path, config.Default(paths.OutputDir))
			if err != nil {
				return err
			}
			if written {
				_, _ = fmt.Fprintf(stdout, "wrote config: %s\n", path)
			} else {
				_, _ = fmt.Fprintf(stdout, "config exists: %s\n", path)
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	encoded = append(encoded, '\n')
	if _, err := w.Write(encoded); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
