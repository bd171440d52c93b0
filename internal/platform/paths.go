// Package platform resolves where planner keeps its config, task file and
// rendered images, and where a project workspace begins.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultAppName names the application directories.
const DefaultAppName = "planner"

const (
	configFileName = "config.toml"
	tasksFileName  = "tasks.yaml"
	rendersDirName = "renders"
)

// TasksSource says where Paths.TasksPath was found.
type TasksSource string

// TasksFromUser and TasksFromWorkspace are the task file origins.
const (
	TasksFromUser      TasksSource = "user"
	TasksFromWorkspace TasksSource = "workspace"
)

// workspaceTaskFiles are project-local task file names, in lookup order.
var workspaceTaskFiles = []string{
	"planner.yaml",
	"planner.yml",
	filepath.Join(".planner", tasksFileName),
}

// workspaceMarkers end the upward search for a workspace root.
var workspaceMarkers = []string{".planner", "go.mod", ".git"}

// Paths holds the locations the CLI reads and writes.
type Paths struct {
	ConfigPath  string
	DataDir     string
	TasksPath   string
	TasksSource TasksSource
	OutputDir   string
}

// Options tunes path resolution. WorkDir, when set, is searched for a
// project task file that takes precedence over the per-user one.
type Options struct {
	AppName string
	DevMode bool
	WorkDir string
}

// DefaultPaths resolves per-user paths for the default app name.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{AppName: DefaultAppName})
}

// DefaultPathsWithOptions resolves paths for the running OS, environment and
// working directory.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	appName := strings.TrimSpace(opts.AppName)
	if appName == "" {
		appName = DefaultAppName
	}
	if opts.DevMode {
		appName += "-dev"
	}

	configDir, dataDir, err := userBaseDirs(runtime.GOOS)
	if err != nil {
		return Paths{}, err
	}
	env := make(map[string]string, 4)
	for _, key := range []string{"XDG_CONFIG_HOME", "XDG_DATA_HOME", "APPDATA", "LOCALAPPDATA"} {
		env[key] = os.Getenv(key)
	}
	paths, err := PathsFor(runtime.GOOS, env, configDir, dataDir, appName)
	if err != nil {
		return Paths{}, err
	}
	if workDir := strings.TrimSpace(opts.WorkDir); workDir != "" {
		if found, ok := FindWorkspaceTasks(workDir); ok {
			paths.TasksPath = found
			paths.TasksSource = TasksFromWorkspace
		}
	}
	return paths, nil
}

func userBaseDirs(goos string) (string, string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", "", fmt.Errorf("user config dir: %w", err)
	}
	switch goos {
	case "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", fmt.Errorf("user home dir: %w", err)
		}
		return configDir, filepath.Join(home, ".local", "share"), nil
	case "windows":
		if v := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); v != "" {
			return configDir, v, nil
		}
	}
	return configDir, configDir, nil
}

// PathsFor resolves per-user paths from explicit inputs so any OS can be
// tested. XDG variables only apply on linux, APPDATA ones only on windows.
func PathsFor(goos string, env map[string]string, userConfigDir, userDataDir, appName string) (Paths, error) {
	if userConfigDir == "" || userDataDir == "" {
		return Paths{}, fmt.Errorf("empty base dirs")
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return Paths{}, fmt.Errorf("empty app name")
	}

	configBase, dataBase := userConfigDir, userDataDir
	var configKey, dataKey string
	switch goos {
	case "linux":
		configKey, dataKey = "XDG_CONFIG_HOME", "XDG_DATA_HOME"
	case "windows":
		configKey, dataKey = "APPDATA", "LOCALAPPDATA"
	}
	if v := env[configKey]; configKey != "" && v != "" {
		configBase = v
	}
	if v := env[dataKey]; dataKey != "" && v != "" {
		dataBase = v
	}

	dataDir := filepath.Join(dataBase, appName)
	return Paths{
		ConfigPath:  filepath.Join(configBase, appName, configFileName),
		DataDir:     dataDir,
		TasksPath:   filepath.Join(dataDir, tasksFileName),
		TasksSource: TasksFromUser,
		OutputDir:   filepath.Join(dataDir, rendersDirName),
	}, nil
}

// WorkspaceRoot walks up from start to the nearest directory holding a
// .planner directory, go.mod or .git. Without one it returns start.
func WorkspaceRoot(start string) string {
	start = strings.TrimSpace(start)
	if start == "" {
		return "."
	}
	start = filepath.Clean(start)
	for dir := start; ; {
		if hasAny(dir, workspaceMarkers) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

// FindWorkspaceTasks looks for a project task file from start up to its
// workspace root. The nearest directory wins.
func FindWorkspaceTasks(start string) (string, bool) {
	start = strings.TrimSpace(start)
	if start == "" {
		return "", false
	}
	start = filepath.Clean(start)
	root := WorkspaceRoot(start)
	for dir := start; ; {
		for _, name := range workspaceTaskFiles {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, true
			}
		}
		parent := filepath.Dir(dir)
		if dir == root || parent == dir {
			return "", false
		}
		dir = parent
	}
}

func hasAny(dir string, names []string) bool {
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
