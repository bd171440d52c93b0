package tui

import (
	"fmt"
	"strings"

	"github.com/hylla/planner/internal/layout"
)

const dateLayout = "Mon Jan 2, 2006"

// infoContent renders the detail panel for the hovered task.
func (m Model) infoContent() string {
	name := m.renderer.Hovered()
	if name == "" {
		return "Hover a task or press tab to inspect it."
	}
	meta, err := m.renderer.Metadata()
	if err != nil {
		return "layout unavailable: " + err.Error()
	}
	body := taskMarkdown(name, meta)
	if body == "" {
		return name + " is not in the timeline."
	}
	return m.markdown.render(body, m.detailWidth-2)
}

// taskMarkdown describes one task as markdown. It returns "" for unknown names.
func taskMarkdown(name string, meta *layout.Metadata) string {
	task, ok := meta.Task(name)
	if !ok {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", task.Name)

	owner := "unassigned"
	if task.Owner != "" {
		owner = task.Owner
		if o, found := meta.Team.Lookup(task.Owner); found {
			owner = o.Name
		}
	}
	fmt.Fprintf(&b, "- **Owner:** %s\n", owner)
	fmt.Fprintf(&b, "- **Start:** %s\n", task.Start.Format(dateLayout))
	fmt.Fprintf(&b, "- **End:** %s\n", task.End.Format(dateLayout))
	fmt.Fprintf(&b, "- **Days:** %d\n", task.Days())
	if row, found := meta.RowIndex[task.Name]; found {
		fmt.Fprintf(&b, "- **Row:** %d\n", row+1)
	}
	if len(task.Dependencies) > 0 {
		fmt.Fprintf(&b, "- **Depends on:** %s\n", strings.Join(task.Dependencies, ", "))
	}
	if meta.DependenciesMap != nil {
		if blocks, found := meta.DependenciesMap.Get(task.Name); found && len(blocks) > 0 {
			fmt.Fprintf(&b, "- **Blocks:** %s\n", strings.Join(blocks, ", "))
		}
	}
	if meta.TaskDOMMetadata != nil {
		if dom, found := meta.TaskDOMMetadata.Get(task.Name); found {
			anchor := layout.TooltipAnchor(dom, meta.Config)
			fmt.Fprintf(&b, "\n_on screen at %.0f,%.0f_\n", anchor.X, anchor.Y)
		}
	}
	return b.String()
}
