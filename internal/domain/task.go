package domain

import (
	"slices"
	"strings"
	"time"
)

// Task is one bar on the timeline. Name is unique within a task set.
type Task struct {
	Name         string
	Owner        string
	Start        time.Time
	End          time.Time
	Dependencies []string
}

type TaskInput struct {
	Name         string
	Owner        string
	Start        time.Time
	End          time.Time
	Dependencies []string
}

// NewTask validates and normalizes a task.
func NewTask(in TaskInput) (Task, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Owner = strings.TrimSpace(in.Owner)

	if in.Name == "" {
		return Task{}, ErrInvalidName
	}
	if in.Start.IsZero() {
		return Task{}, ErrInvalidDate
	}
	start := Day(in.Start)
	end := start
	if !in.End.IsZero() {
		end = Day(in.End)
	}
	if end.Before(start) {
		return Task{}, ErrInvalidDateRange
	}

	return Task{
		Name:         in.Name,
		Owner:        in.Owner,
		Start:        start,
		End:          end,
		Dependencies: normalizeDependencies(in.Name, in.Dependencies),
	}, nil
}

// Days reports the inclusive number of calendar days the task spans.
func (t Task) Days() int {
	if t.Start.IsZero() {
		return 0
	}
	end := Day(t.End)
	start := Day(t.Start)
	if end.Before(start) {
		return 1
	}
	return DaysBetween(start, end) + 1
}

// Overlaps reports whether both tasks share at least one calendar day.
func (t Task) Overlaps(other Task) bool {
	return !Day(t.Start).After(Day(other.End)) && !Day(other.Start).After(Day(t.End))
}

// DependsOn reports whether name is a direct dependency of t.
func (t Task) DependsOn(name string) bool {
	return slices.Contains(t.Dependencies, name)
}

// Day truncates ts to midnight UTC of its own calendar date.
func Day(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole days from a to b. Both are expected to be Day values.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Round(time.Hour).Hours() / 24)
}

func normalizeDependencies(self string, deps []string) []string {
	out := make([]string, 0, len(deps))
	seen := map[string]struct{}{}
	for _, raw := range deps {
		dep := strings.TrimSpace(raw)
		if dep == "" || dep == self {
			continue
		}
		if _, ok := seen[dep]; ok {
			continue
		}
		seen[dep] = struct{}{}
		out = append(out, dep)
	}
	return out
}
