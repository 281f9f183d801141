package testutils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Diagnostic is one message captured by RecordingSink.
type Diagnostic struct {
	Level   string
	Message string
}

// RecordingSink implements shelltypes.DiagnosticSink by keeping every message.
type RecordingSink struct {
	Diagnostics []Diagnostic
}

// NewRecordingSink creates an empty sink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// Errorf records an error.
func (r *RecordingSink) Errorf(format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Level: "error", Message: fmt.Sprintf(format, args...)})
}

// Warnf records a warning.
func (r *RecordingSink) Warnf(format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Level: "warning", Message: fmt.Sprintf(format, args...)})
}

// Errors returns the recorded error messages.
func (r *RecordingSink) Errors() []string {
	return r.messages("error")
}

// Warnings returns the recorded warning messages.
func (r *RecordingSink) Warnings() []string {
	return r.messages("warning")
}

// Reset drops every recorded message.
func (r *RecordingSink) Reset() {
	r.Diagnostics = nil
}

// String joins all messages, one per line.
func (r *RecordingSink) String() string {
	var b strings.Builder
	for _, d := range r.Diagnostics {
		fmt.Fprintf(&b, "%s: %s\n", d.Level, d.Message)
	}
	return b.String()
}

func (r *RecordingSink) messages(level string) []string {
	var out []string
	for _, d := range r.Diagnostics {
		if d.Level == level {
			out = append(out, d.Message)
		}
	}
	return out
}

// CreateTempFile creates a temporary file with given content
func CreateTempFile(t *testing.T, filename, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, filename)

	err := os.WriteFile(filePath, []byte(content), 0644)
	require.NoError(t, err, "Should create temp file successfully")

	return filePath
}

// CreateTempDir creates a temporary directory structure
func CreateTempDir(t *testing.T, files map[string]string) string {
	t.Helper()
	tmpDir := t.TempDir()

	for filename, content := range files {
		filePath := filepath.Join(tmpDir, filename)

		dir := filepath.Dir(filePath)
		if dir != tmpDir {
			err := os.MkdirAll(dir, 0755)
			require.NoError(t, err, "Should create directory %s", dir)
		}

		err := os.WriteFile(filePath, []byte(content), 0644)
		require.NoError(t, err, "Should create file %s", filename)
	}

	return tmpDir
}
