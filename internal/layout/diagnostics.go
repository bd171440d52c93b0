package layout

// DiagnosticKind names one class of task-data defect.
type DiagnosticKind string

// DiagnosticMissingName and related constants enumerate data defects.
const (
	DiagnosticMissingName        DiagnosticKind = "missing_name"
	DiagnosticDuplicateName      DiagnosticKind = "duplicate_name"
	DiagnosticMissingStart       DiagnosticKind = "missing_start"
	DiagnosticInvalidRange       DiagnosticKind = "invalid_range"
	DiagnosticDanglingDependency DiagnosticKind = "dangling_dependency"
	DiagnosticDependencyCycle    DiagnosticKind = "dependency_cycle"
)

// Diagnostic reports a data defect Build worked around. Index is the task's
// position in the input slice, or -1 when the defect is not tied to one input.
type Diagnostic struct {
	Kind  DiagnosticKind `json:"kind"`
	Task  string         `json:"task,omitempty"`
	Ref   string         `json:"ref,omitempty"`
	Index int            `json:"index"`
}
