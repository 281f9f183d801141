package testutils

import (
	"context"
	"fmt"

	"pgshell/pkg/shelltypes"
)

// FakeSender implements shelltypes.QuerySender without a database.
// Every query and internal statement is recorded in order in Sent.
type FakeSender struct {
	Sent []string
	// Fail lists query or statement texts that should fail.
	Fail map[string]bool
}

// NewFakeSender creates a sender that fails exactly the given texts.
func NewFakeSender(failing ...string) *FakeSender {
	f := &FakeSender{Fail: make(map[string]bool)}
	for _, text := range failing {
		f.Fail[text] = true
	}
	return f
}

// SendQuery records text and reports whether it was configured to succeed.
func (f *FakeSender) SendQuery(_ context.Context, text string) bool {
	f.Sent = append(f.Sent, text)
	return !f.Fail[text]
}

// Exec records sql and fails it when configured to.
func (f *FakeSender) Exec(_ context.Context, sql string) error {
	f.Sent = append(f.Sent, sql)
	if f.Fail[sql] {
		return fmt.Errorf("statement %q failed", sql)
	}
	return nil
}

// FakeFiles implements shelltypes.FileProcessor with canned exit statuses.
type FakeFiles struct {
	Processed []string
	// Status maps a path to the status ProcessFile returns; unknown paths succeed.
	Status map[string]shelltypes.ExitStatus
}

// NewFakeFiles creates a file processor where every file succeeds.
func NewFakeFiles() *FakeFiles {
	return &FakeFiles{Status: make(map[string]shelltypes.ExitStatus)}
}

// ProcessFile records path and returns its configured status.
func (f *FakeFiles) ProcessFile(_ context.Context, path string, _ bool) shelltypes.ExitStatus {
	f.Processed = append(f.Processed, path)
	return f.Status[path]
}
