package app

import "github.com/hylla/planner/internal/layout"

// DiagnosticsSink receives inspection data from a Renderer. It replaces any
// process-wide test hook: only renderers built with WithDiagnostics publish.
type DiagnosticsSink interface {
	PublishSnapshot(Snapshot)
	PublishDiagnostic(layout.Diagnostic)
}

// IDGenerator returns unique identifiers for render sessions.
type IDGenerator func() string

// Logger is the structured logging surface a Renderer writes to. A
// *log.Logger from charmbracelet/log satisfies it.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}
