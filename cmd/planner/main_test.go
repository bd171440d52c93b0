package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/hylla/planner/internal/app"
	"github.com/hylla/planner/internal/config"
	"github.com/hylla/planner/internal/layout"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("PLANNER_DEV_MODE", "false")
	os.Exit(m.Run())
}

type fakeProgram struct {
	runErr error
}

func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// scriptedProgram drives the model inside run() tests.
type scriptedProgram struct {
	model tea.Model
	runFn func(tea.Model) (tea.Model, error)
}

func (p scriptedProgram) Run() (tea.Model, error) {
	if p.runFn == nil {
		return p.model, nil
	}
	return p.runFn(p.model)
}

func applyModelMsg(t *testing.T, model tea.Model, msg tea.Msg) tea.Model {
	t.Helper()
	updated, cmd := model.Update(msg)
	out := updated
	for i := 0; i < 8 && cmd != nil; i++ {
		out, cmd = out.Update(cmd())
	}
	return out
}

const sampleTasks = `
team:
  - id: alice
    name: Alice Liddell
    color: "#4f7cff"
  - id: bob
    name: Bob Jones
tasks:
  - name: Design
    owner: alice
    start: 2026-01-05
    end: 2026-01-18
  - name: Build
    owner: bob
    start: 2026-01-12
    end: 2026-02-20
    dependencies: [Design, Ghost]
`

// writeFixtures writes a task file and an empty config into a fresh workspace.
func writeFixtures(t *testing.T) (string, string, string) {
	t.Helper()
	workspace := t.TempDir()
	tasksPath := filepath.Join(workspace, "tasks.yaml")
	if err := os.WriteFile(tasksPath, []byte(sampleTasks), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	cfgPath := filepath.Join(workspace, "config.toml")
	if err := os.WriteFile(cfgPath, nil, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return workspace, tasksPath, cfgPath
}

func TestRunVersion(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), []string{"--version"}, &out, io.Discard); err != nil {
		t.Fatalf("run(version) error = %v", err)
	}
	if !strings.Contains(out.String(), "planner") {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

func TestRunStartsProgram(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(_ tea.Model) program { return fakeProgram{} }

	_, tasksPath, cfgPath := writeFixtures(t)
	if err := run(context.Background(), []string{"--tasks", tasksPath, "--config", cfgPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if err := run(context.Background(), []string{"--tasks", tasksPath, "--config", cfgPath, "view", "--mode", "fit"}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(view) error = %v", err)
	}
}

func TestRunViewerShowsTasks(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(model tea.Model) program {
		return scriptedProgram{
			model: model,
			runFn: func(current tea.Model) (tea.Model, error) {
				current = applyModelMsg(t, current, tea.WindowSizeMsg{Width: 120, Height: 40})
				current = applyModelMsg(t, current, tea.KeyPressMsg{Code: tea.KeyTab})
				if rendered := fmt.Sprint(current.View().Content); !strings.Contains(rendered, "Design") {
					t.Fatalf("expected hovered task in viewer, got\n%s", rendered)
				}
				return current, nil
			},
		}
	}

	_, tasksPath, cfgPath := writeFixtures(t)
	if err := run(context.Background(), []string{"--tasks", tasksPath, "--config", cfgPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

func TestRunInvalidFlag(t *testing.T) {
	if err := run(context.Background(), []string{"--unknown-flag"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected flag parse error")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"unknown-command"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestRunMissingTaskFile(t *testing.T) {
	_, _, cfgPath := writeFixtures(t)
	missing := filepath.Join(t.TempDir(), "none.yaml")
	err := run(context.Background(), []string{"--tasks", missing, "--config", cfgPath, "inspect"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "open task file") {
		t.Fatalf("expected task file error, got %v", err)
	}
}

func TestRunRenderWritesPNG(t *testing.T) {
	workspace, tasksPath, cfgPath := writeFixtures(t)
	outPath := filepath.Join(workspace, "out", "timeline.png")
	var stdout strings.Builder
	args := []string{"--tasks", tasksPath, "--config", cfgPath, "render", "--width", "400", "--height", "200", "--scale", "2", "--out", outPath}
	if err := run(context.Background(), args, &stdout, io.Discard); err != nil {
		t.Fatalf("run(render) error = %v", err)
	}
	if !strings.Contains(stdout.String(), "800x400 px") {
		t.Fatalf("expected size report, got %q", stdout.String())
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 400 {
		t.Fatalf("unexpected image bounds %v", b)
	}
}

func TestRunRenderToStdout(t *testing.T) {
	_, tasksPath, cfgPath := writeFixtures(t)
	var stdout bytes.Buffer
	args := []string{"--tasks", tasksPath, "--config", cfgPath, "render", "--mode", "fit", "--width", "300", "--out", "-"}
	if err := run(context.Background(), args, &stdout, io.Discard); err != nil {
		t.Fatalf("run(render) error = %v", err)
	}
	img, err := png.Decode(&stdout)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if img.Bounds().Dx() != 300 {
		t.Fatalf("expected 300px wide render, got %v", img.Bounds())
	}
}

func TestRunRenderRejectsBadMode(t *testing.T) {
	_, tasksPath, cfgPath := writeFixtures(t)
	args := []string{"--tasks", tasksPath, "--config", cfgPath, "render", "--mode", "spiral", "--out", "-"}
	err := run(context.Background(), args, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "invalid layout config") {
		t.Fatalf("expected layout config error, got %v", err)
	}
}

func TestRunHitReportsTask(t *testing.T) {
	_, tasksPath, cfgPath := writeFixtures(t)
	base := []string{"--tasks", tasksPath, "--config", cfgPath, "--dev=false"}

	var inspectOut bytes.Buffer
	if err := run(context.Background(), append(base, "inspect", "--width", "800"), &inspectOut, io.Discard); err != nil {
		t.Fatalf("run(inspect) error = %v", err)
	}
	var dump struct {
		Snapshot struct {
			Metadata struct {
				TaskDOMMetadata map[string]layout.DOMMetadata `json:"task_dom_metadata"`
			} `json:"metadata"`
		} `json:"snapshot"`
	}
	if err := json.Unmarshal(inspectOut.Bytes(), &dump); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	dom, ok := dump.Snapshot.Metadata.TaskDOMMetadata["Build"]
	if !ok {
		t.Fatalf("expected Build geometry, got %#v", dump.Snapshot.Metadata.TaskDOMMetadata)
	}
	center := dom.Bar.Center()

	var hitOut bytes.Buffer
	x := strconvFloat(center.X)
	y := strconvFloat(center.Y)
	if err := run(context.Background(), append(base, "hit", x, y, "--width", "800"), &hitOut, io.Discard); err != nil {
		t.Fatalf("run(hit) error = %v", err)
	}
	var report hitReport
	if err := json.Unmarshal(hitOut.Bytes(), &report); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !report.Hit || report.Task == nil || report.Task.Name != "Build" || report.Task.Days != 40 {
		t.Fatalf("unexpected hit report %#v", report)
	}
	if report.Tooltip == nil || report.Tooltip.Y != dom.Rect.Bottom()+config.Default("").Layout.TooltipOffset {
		t.Fatalf("unexpected tooltip anchor %#v", report.Tooltip)
	}

	hitOut.Reset()
	if err := run(context.Background(), append(base, "hit", "1", "1", "--width", "800"), &hitOut, io.Discard); err != nil {
		t.Fatalf("run(hit header) error = %v", err)
	}
	report = hitReport{}
	if err := json.Unmarshal(hitOut.Bytes(), &report); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if report.Hit || report.Task != nil {
		t.Fatalf("expected header point to miss, got %#v", report)
	}

	if err := run(context.Background(), append(base, "hit", "left", "1"), io.Discard, io.Discard); err == nil {
		t.Fatal("expected coordinate parse error")
	}
}

func TestRunInspectReportsDiagnostics(t *testing.T) {
	_, tasksPath, cfgPath := writeFixtures(t)
	var out bytes.Buffer
	args := []string{"--tasks", tasksPath, "--config", cfgPath, "inspect", "--hover", "Design"}
	if err := run(context.Background(), args, &out, io.Discard); err != nil {
		t.Fatalf("run(inspect) error = %v", err)
	}
	var report struct {
		Diagnostics []layout.Diagnostic `json:"diagnostics"`
		Warnings    []string            `json:"warnings"`
		Raw         struct {
			Version     string `json:"version"`
			SessionID   string `json:"session_id"`
			RenderCount int    `json:"render_count"`
			Hovered     string `json:"hovered"`
		} `json:"snapshot"`
	}
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if report.Raw.Version != app.SnapshotVersion || report.Raw.RenderCount != 1 || report.Raw.Hovered != "Design" {
		t.Fatalf("unexpected snapshot %#v", report.Raw)
	}
	if len(report.Raw.SessionID) != 36 {
		t.Fatalf("expected uuid session id, got %q", report.Raw.SessionID)
	}
	if len(report.Diagnostics) != 1 || report.Diagnostics[0].Kind != layout.DiagnosticDanglingDependency || report.Diagnostics[0].Ref != "Ghost" {
		t.Fatalf("unexpected diagnostics %#v", report.Diagnostics)
	}
	if report.Warnings == nil {
		t.Fatal("expected warnings array")
	}
}

func TestRunConfigEnvOverride(t *testing.T) {
	_, tasksPath, cfgPath := writeFixtures(t)
	if err := os.WriteFile(cfgPath, []byte("[layout]\nmode = \"fit\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("PLANNER_CONFIG", cfgPath)
	t.Setenv("PLANNER_TASKS", tasksPath)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"inspect"}, &out, io.Discard); err != nil {
		t.Fatalf("run(inspect with env paths) error = %v", err)
	}
	if !strings.Contains(out.String(), `"mode": "fit"`) {
		t.Fatalf("expected fit mode from env config, got %s", out.String())
	}
}

func TestRunPathsCommand(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), []string{"--app", "plannerx", "--dev", "paths"}, &out, io.Discard); err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	output := out.String()
	if !strings.Contains(output, "app: plannerx") {
		t.Fatalf("expected app name in paths output, got %q", output)
	}
	if !strings.Contains(output, "dev_mode: true") {
		t.Fatalf("expected dev mode in paths output, got %q", output)
	}
	if !strings.Contains(output, filepath.Join("plannerx-dev", "tasks.yaml")) {
		t.Fatalf("expected dev tasks path, got %q", output)
	}
}

func TestRunInitConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "nested", "config.toml")
	var out strings.Builder
	if err := run(context.Background(), []string{"--config", cfgPath, "init-config"}, &out, io.Discard); err != nil {
		t.Fatalf("run(init-config) error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "wrote config") {
		t.Fatalf("unexpected output %q", out.String())
	}
	cfg, err := config.Load(cfgPath, config.Config{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Layout.Mode != "scroll" || cfg.Render.Width != 1200 {
		t.Fatalf("unexpected written config %#v", cfg.Layout)
	}

	out.Reset()
	if err := run(context.Background(), []string{"--config", cfgPath, "init-config"}, &out, io.Discard); err != nil {
		t.Fatalf("run(init-config again) error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "config exists") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("PLANNER_BOOL_TEST", "true")
	got, ok := parseBoolEnv("PLANNER_BOOL_TEST")
	if !ok || !got {
		t.Fatalf("expected true bool env parse, got value=%t ok=%t", got, ok)
	}
	t.Setenv("PLANNER_BOOL_TEST", "not-bool")
	if _, ok = parseBoolEnv("PLANNER_BOOL_TEST"); ok {
		t.Fatal("expected invalid bool env to return ok=false")
	}
}

func TestToLayoutConfigMapsFields(t *testing.T) {
	cfg := config.Default("")
	cfg.Layout.Mode = " FIT "
	cfg.Layout.Unit = "month"
	cfg.Layout.WeekStart = "sunday"
	cfg.Layout.DayWidth = 20
	got := toLayoutConfig(cfg.Layout)
	if got.Mode != layout.ModeFit || got.Unit != layout.UnitMonth || got.WeekStart != time.Sunday || got.DayWidth != 20 {
		t.Fatalf("unexpected layout config %#v", got)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestToThemeOverridesColors(t *testing.T) {
	theme, err := toTheme(config.ThemeConfig{TaskBar: "#ff0000"})
	if err != nil {
		t.Fatalf("toTheme() error = %v", err)
	}
	if theme.TaskBar.R != 0xff || theme.TaskBar.G != 0 || theme.TaskBar.B != 0 {
		t.Fatalf("unexpected task bar color %#v", theme.TaskBar)
	}
	if _, err := toTheme(config.ThemeConfig{Arrow: "nope"}); err == nil || !strings.Contains(err.Error(), "theme.arrow") {
		t.Fatalf("expected theme.arrow error, got %v", err)
	}
}

func TestRunDevModeCreatesWorkspaceLogFile(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(_ tea.Model) program { return fakeProgram{} }

	workspace, tasksPath, cfgPath := writeFixtures(t)
	t.Chdir(workspace)
	var stderr bytes.Buffer
	if err := run(context.Background(), []string{"--dev", "--tasks", tasksPath, "--config", cfgPath}, io.Discard, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := strings.TrimSpace(stderr.String()); got != "" {
		t.Fatalf("expected no runtime stderr output in viewer mode, got %q", got)
	}

	logDir := filepath.Join(workspace, ".planner", "log")
	entries, err := os.ReadDir(logDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	var logPath string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".log") {
			logPath = filepath.Join(logDir, entry.Name())
			break
		}
	}
	if logPath == "" {
		t.Fatalf("expected a .log file in %s", logDir)
	}
	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	for _, want := range []string{"starting tui program loop", "task file loaded"} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %q in dev log, got %q", want, string(content))
		}
	}
}

func TestRunRejectsInvalidLoggingLevelFromConfig(t *testing.T) {
	_, tasksPath, cfgPath := writeFixtures(t)
	if err := os.WriteFile(cfgPath, []byte("[logging]\nlevel = \"verbose\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	err := run(context.Background(), []string{"--tasks", tasksPath, "--config", cfgPath, "inspect"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "invalid logging.level") {
		t.Fatalf("expected logging level validation error, got %v", err)
	}
}

func TestRunPathsPrefersWorkspaceTaskFile(t *testing.T) {
	workspace := t.TempDir()
	if err := os.WriteFile(filepath.Join(workspace, "go.mod"), []byte("module example.com/plan\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	local := filepath.Join(workspace, "planner.yaml")
	if err := os.WriteFile(local, []byte(sampleTasks), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nested := filepath.Join(workspace, "docs")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	var out strings.Builder
	if err := run(context.Background(), []string{"--workdir", nested, "paths"}, &out, io.Discard); err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	if !strings.Contains(out.String(), "tasks: "+local+"\n") || !strings.Contains(out.String(), "tasks_source: workspace") {
		t.Fatalf("expected workspace task file, got %q", out.String())
	}
}

func TestDevLogFilePathNamesFileByDay(t *testing.T) {
	root := t.TempDir()
	got, err := devLogFilePath(root, "my app", time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("devLogFilePath() error = %v", err)
	}
	if want := filepath.Join(root, "my-app-20260222.log"); got != want {
		t.Fatalf("devLogFilePath() = %q, want %q", got, want)
	}
	if got := sanitizeLogFileStem(" / "); got != "planner" {
		t.Fatalf("expected fallback stem, got %q", got)
	}
}

func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var console bytes.Buffer
	cfg := config.Default("").Logging
	logger, err := newRuntimeLogger(&console, "planner", false, cfg, func() time.Time {
		return time.Date(2026, 2, 23, 12, 0, 0, 0, time.UTC)
	})
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}

	logger.Info("before")
	logger.SetConsoleEnabled(false)
	logger.Info("during")
	logger.SetConsoleEnabled(true)
	logger.Info("after")

	out := console.String()
	if !strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Fatalf("expected unmuted entries, got %q", out)
	}
	if strings.Contains(out, "during") {
		t.Fatalf("expected muted console log to omit 'during', got %q", out)
	}
}

func strconvFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
