// Package taskfile loads task sets, owners and avatar images from YAML.
package taskfile

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/planner/internal/domain"
	"gopkg.in/yaml.v3"
)

// ErrInvalidFile reports a document that is not a task file at all.
var ErrInvalidFile = errors.New("invalid task file")

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04"}

// File is the on-disk document.
type File struct {
	Team  []OwnerEntry `yaml:"team"`
	Tasks []TaskEntry  `yaml:"tasks"`
}

// OwnerEntry describes one team member. Avatar is resolved relative to the
// file's directory.
type OwnerEntry struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Color  string `yaml:"color"`
	Avatar string `yaml:"avatar"`
}

// TaskEntry describes one task. Dates are YYYY-MM-DD or RFC 3339.
type TaskEntry struct {
	Name         string   `yaml:"name"`
	Owner        string   `yaml:"owner"`
	Start        string   `yaml:"start"`
	End          string   `yaml:"end"`
	Dependencies []string `yaml:"dependencies"`
}

// Dataset is what a task file decodes into. Warnings list entries that were
// skipped or degraded; they never fail a load.
type Dataset struct {
	Tasks    []domain.Task
	Team     domain.Team
	Images   map[string]image.Image
	Warnings []string
}

// Load reads and decodes the task file at path.
func Load(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open task file %q: %w", path, err)
	}
	defer f.Close()

	ds, err := Decode(f, filepath.Dir(path))
	if err != nil {
		return Dataset{}, fmt.Errorf("load task file %q: %w", path, err)
	}
	return ds, nil
}

// Decode parses a task document. Avatar paths resolve against baseDir.
func Decode(r io.Reader, baseDir string) (Dataset, error) {
	var doc File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Dataset{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	ds := Dataset{
		Team:   domain.Team{},
		Images: map[string]image.Image{},
	}
	for idx, entry := range doc.Team {
		owner, err := domain.NewOwner(entry.ID, entry.Name, entry.Color)
		if errors.Is(err, domain.ErrInvalidColor) {
			ds.warnf("team[%d] %q: %v; using default color", idx, entry.ID, err)
			owner, err = domain.NewOwner(entry.ID, entry.Name, "")
		}
		if err != nil {
			ds.warnf("team[%d]: %v", idx, err)
			continue
		}
		ds.Team[owner.ID] = owner
		if entry.Avatar == "" {
			continue
		}
		img, err := loadImage(resolve(baseDir, entry.Avatar))
		if err != nil {
			ds.warnf("team[%d] %q avatar: %v", idx, owner.ID, err)
			continue
		}
		ds.Images[owner.ID] = img
	}

	for idx, entry := range doc.Tasks {
		task, err := entry.toTask()
		if err != nil {
			ds.warnf("tasks[%d] %q: %v", idx, entry.Name, err)
			continue
		}
		ds.Tasks = append(ds.Tasks, task)
	}
	return ds, nil
}

func (e TaskEntry) toTask() (domain.Task, error) {
	start, err := parseDate(e.Start)
	if err != nil {
		return domain.Task{}, fmt.Errorf("start: %w", err)
	}
	var end time.Time
	if strings.TrimSpace(e.End) != "" {
		end, err = parseDate(e.End)
		if err != nil {
			return domain.Task{}, fmt.Errorf("end: %w", err)
		}
	}
	return domain.NewTask(domain.TaskInput{
		Name:         e.Name,
		Owner:        e.Owner,
		Start:        start,
		End:          end,
		Dependencies: e.Dependencies,
	})
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, domain.ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidDate, raw)
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}
	return img, nil
}

func resolve(baseDir, path string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

func (ds *Dataset) warnf(format string, args ...any) {
	ds.Warnings = append(ds.Warnings, fmt.Sprintf(format, args...))
}
