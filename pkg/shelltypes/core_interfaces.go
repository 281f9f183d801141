// Package shelltypes defines the narrow interfaces that connect the session
// core (variables, actions) with its collaborators: the query sender, the
// file processor and the diagnostic channel.
package shelltypes

import "context"

// DiagnosticSink receives user-facing error and warning messages.
// Implementations must never fail or panic; a diagnostic is fire-and-forget.
type DiagnosticSink interface {
	Errorf(format string, args ...any)
	Warnf(format string, args ...any)
}

// QuerySender sends literal query text to the database.
type QuerySender interface {
	// SendQuery runs text and prints its results, reporting success.
	SendQuery(ctx context.Context, text string) bool
	// Exec runs an internal statement such as BEGIN or COMMIT without printing results.
	Exec(ctx context.Context, sql string) error
}

// FileProcessor runs every statement and meta-command in a file.
// An empty path or "-" means standard input.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string, interactive bool) ExitStatus
}
