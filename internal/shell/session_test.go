package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgshell/internal/backend"
	_ "pgshell/internal/commands/builtin"
	"pgshell/internal/logger"
	"pgshell/internal/scan"
)

// fakeBackend answers queries from canned results and tracks a simple
// transaction status the way a server would.
type fakeBackend struct {
	queries []string
	results map[string][]*backend.Result
	errs    map[string]error
	tx      backend.TxStatus
	closed  bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		results: make(map[string][]*backend.Result),
		errs:    make(map[string]error),
	}
}

func (f *fakeBackend) Query(_ context.Context, sql string) ([]*backend.Result, error) {
	f.queries = append(f.queries, sql)
	if err := f.errs[sql]; err != nil {
		if f.tx == backend.TxActive {
			f.tx = backend.TxFailed
		}
		return nil, err
	}

	first, _ := keywords(sql)
	switch first {
	case "BEGIN":
		f.tx = backend.TxActive
	case "COMMIT", "ROLLBACK":
		if !strings.Contains(strings.ToUpper(sql), "SAVEPOINT") {
			f.tx = backend.TxIdle
		} else if f.tx == backend.TxFailed {
			f.tx = backend.TxActive
		}
	}
	return f.results[sql], nil
}

func (f *fakeBackend) Exec(ctx context.Context, sql string) error {
	_, err := f.Query(ctx, sql)
	return err
}

func (f *fakeBackend) TxStatus() backend.TxStatus { return f.tx }

func (f *fakeBackend) Close(context.Context) error {
	f.closed = true
	return nil
}

type harness struct {
	session *Session
	backend *fakeBackend
	in      *bytes.Buffer
	out     *bytes.Buffer
	errOut  *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		backend: newFakeBackend(),
		in:      &bytes.Buffer{},
		out:     &bytes.Buffer{},
		errOut:  &bytes.Buffer{},
	}
	t.Setenv("PG_COLOR", "never")
	h.session = New(Options{
		Diagnostics: logger.NewDiagnostics("pgshell", h.errOut),
		Backend:     h.backend,
		DBName:      "app",
		Stdin:       h.in,
		Stdout:      h.out,
		Stderr:      h.errOut,
	})
	return h
}

func (h *harness) get(t *testing.T, name string) string {
	t.Helper()
	value, ok := h.session.Variables().Get(name)
	require.True(t, ok, "variable %s should be set", name)
	return value
}

func selectResult(columns []string, rows ...[]string) []*backend.Result {
	return []*backend.Result{{
		Columns:      columns,
		Rows:         rows,
		Command:      "SELECT",
		RowsAffected: int64(len(rows)),
	}}
}

func TestNew_Defaults(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "on", h.get(t, "AUTOCOMMIT"))
	assert.Equal(t, "00000", h.get(t, "LAST_ERROR_SQLSTATE"))
	assert.True(t, h.session.Settings().Autocommit)
	assert.Equal(t, "", h.session.CurrentDir())
}

func TestSession_ImplementsDispatcher(t *testing.T) {
	h := newHarness(t)
	cond := scan.NewConditionalStack()

	state := scan.New(`\set greeting hello`, h.session.Lookup)
	h.session.Dispatch(context.Background(), state, cond)

	assert.Equal(t, "hello", h.get(t, "greeting"))
}

func TestClose(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Close(context.Background()))
	assert.True(t, h.backend.closed)

	s := New(Options{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	assert.NoError(t, s.Close(context.Background()))
}

type describedBackend struct {
	*fakeBackend
	info backend.ConnInfo
}

func (d *describedBackend) ConnInfo() backend.ConnInfo { return d.info }

func TestNew_SyncsConnectionVariables(t *testing.T) {
	b := &describedBackend{
		fakeBackend: newFakeBackend(),
		info: backend.ConnInfo{
			Driver:        backend.DriverPostgres,
			Database:      "orders",
			User:          "alice",
			Host:          "db.internal",
			Port:          "5432",
			ServerVersion: "17.2",
			Superuser:     true,
		},
	}

	s := New(Options{Backend: b, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})

	for name, expected := range map[string]string{
		"DBNAME":              "orders",
		"USER":                "alice",
		"HOST":                "db.internal",
		"PORT":                "5432",
		"SERVER_VERSION_NAME": "17.2",
	} {
		value, ok := s.Variables().Get(name)
		assert.True(t, ok, name)
		assert.Equal(t, expected, value, name)
	}
	assert.Equal(t, "orders=# ", s.ExpandPrompt("%/%R%# ", '=', nil))
}
