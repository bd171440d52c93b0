package layout

import (
	"slices"
	"strings"
	"time"

	"github.com/hylla/planner/internal/domain"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// sanitizeTasks drops tasks that cannot be placed and repairs date ranges.
// Input slices are never aliased into the result.
func sanitizeTasks(tasks []domain.Task) ([]domain.Task, []Diagnostic) {
	out := make([]domain.Task, 0, len(tasks))
	var diags []Diagnostic
	seen := map[string]struct{}{}
	for idx, task := range tasks {
		name := strings.TrimSpace(task.Name)
		switch {
		case name == "":
			diags = append(diags, Diagnostic{Kind: DiagnosticMissingName, Index: idx})
			continue
		case task.Start.IsZero():
			diags = append(diags, Diagnostic{Kind: DiagnosticMissingStart, Task: name, Index: idx})
			continue
		}
		if _, ok := seen[name]; ok {
			diags = append(diags, Diagnostic{Kind: DiagnosticDuplicateName, Task: name, Index: idx})
			continue
		}
		seen[name] = struct{}{}

		start := domain.Day(task.Start)
		end := start
		if !task.End.IsZero() {
			end = domain.Day(task.End)
		}
		if end.Before(start) {
			diags = append(diags, Diagnostic{Kind: DiagnosticInvalidRange, Task: name, Index: idx})
			end = start
		}

		deps := make([]string, 0, len(task.Dependencies))
		for _, raw := range task.Dependencies {
			dep := strings.TrimSpace(raw)
			if dep == "" || dep == name || slices.Contains(deps, dep) {
				continue
			}
			deps = append(deps, dep)
		}

		out = append(out, domain.Task{
			Name:         name,
			Owner:        strings.TrimSpace(task.Owner),
			Start:        start,
			End:          end,
			Dependencies: deps,
		})
	}
	return out, diags
}

// placementOrder returns tasks so that every task follows the tasks it depends
// on. Among tasks whose dependencies are placed, earlier start wins, then
// name. A cycle is broken at its earliest member and reported.
func placementOrder(tasks []domain.Task) ([]domain.Task, []Diagnostic) {
	byName := make(map[string]int, len(tasks))
	for idx, task := range tasks {
		byName[task.Name] = idx
	}
	indegree := make([]int, len(tasks))
	children := make([][]int, len(tasks))
	for idx, task := range tasks {
		for _, dep := range task.Dependencies {
			parent, ok := byName[dep]
			if !ok {
				continue
			}
			indegree[idx]++
			children[parent] = append(children[parent], idx)
		}
	}

	less := func(a, b int) int {
		if c := tasks[a].Start.Compare(tasks[b].Start); c != 0 {
			return c
		}
		return strings.Compare(tasks[a].Name, tasks[b].Name)
	}

	var diags []Diagnostic
	done := make([]bool, len(tasks))
	ready := make([]int, 0, len(tasks))
	for idx := range tasks {
		if indegree[idx] == 0 {
			ready = append(ready, idx)
		}
	}
	out := make([]domain.Task, 0, len(tasks))
	for len(out) < len(tasks) {
		if len(ready) == 0 {
			forced := -1
			for idx := range tasks {
				if !done[idx] && (forced < 0 || less(idx, forced) < 0) {
					forced = idx
				}
			}
			diags = append(diags, Diagnostic{Kind: DiagnosticDependencyCycle, Task: tasks[forced].Name, Index: -1})
			ready = append(ready, forced)
		}
		slices.SortFunc(ready, less)
		next := ready[0]
		ready = ready[1:]
		if done[next] {
			continue
		}
		done[next] = true
		out = append(out, tasks[next])
		for _, child := range children[next] {
			indegree[child]--
			if indegree[child] == 0 && !done[child] {
				ready = append(ready, child)
			}
		}
	}
	return out, diags
}

// assignRows packs tasks into the lowest row slot holding no task whose drawn
// footprint reaches the same days. A task covers its calendar days, stretched
// to at least footprint days. Rows are filled without gaps, so the returned
// count is both one past the highest index and the number of rows in use.
func assignRows(ordered []domain.Task, footprint int) (map[string]int, int) {
	rowIndex := make(map[string]int, len(ordered))
	var rows [][]daySpan
	for _, task := range ordered {
		span := occupiedDays(task, footprint)
		row := 0
		for ; row < len(rows); row++ {
			if !collides(rows[row], span) {
				break
			}
		}
		if row == len(rows) {
			rows = append(rows, nil)
		}
		rows[row] = append(rows[row], span)
		rowIndex[task.Name] = row
	}
	return rowIndex, len(rows)
}

// daySpan is an inclusive range of whole days.
type daySpan struct {
	first, last time.Time
}

func occupiedDays(task domain.Task, footprint int) daySpan {
	first := domain.Day(task.Start)
	last := domain.Day(task.End)
	if reach := first.AddDate(0, 0, footprint-1); reach.After(last) {
		last = reach
	}
	return daySpan{first: first, last: last}
}

func collides(row []daySpan, span daySpan) bool {
	for _, placed := range row {
		if !placed.first.After(span.last) && !span.first.After(placed.last) {
			return true
		}
	}
	return false
}

// invertDependencies maps each parent to its dependents, in placement order.
// References to unknown tasks are skipped and reported.
func invertDependencies(ordered []domain.Task, known map[string]int) (*orderedmap.OrderedMap[string, []string], []Diagnostic) {
	deps := orderedmap.New[string, []string]()
	var diags []Diagnostic
	for _, task := range ordered {
		for _, dep := range task.Dependencies {
			if _, ok := known[dep]; !ok {
				diags = append(diags, Diagnostic{Kind: DiagnosticDanglingDependency, Task: task.Name, Ref: dep, Index: -1})
				continue
			}
			dependents, _ := deps.Get(dep)
			if slices.Contains(dependents, task.Name) {
				continue
			}
			deps.Set(dep, append(dependents, task.Name))
		}
	}
	return deps, diags
}
