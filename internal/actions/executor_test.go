package actions

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgshell/internal/scan"
	"pgshell/internal/settings"
	"pgshell/internal/testutils"
	"pgshell/pkg/shelltypes"
)

// scriptedDispatcher returns a canned status per command text.
type scriptedDispatcher struct {
	seen   []string
	status map[string]shelltypes.CommandStatus
	conds  []*scan.ConditionalStack
}

func (d *scriptedDispatcher) Dispatch(_ context.Context, state *scan.State, cond *scan.ConditionalStack) shelltypes.CommandStatus {
	d.seen = append(d.seen, state.Text())
	d.conds = append(d.conds, cond)
	return d.status[state.Text()]
}

type fixture struct {
	exec     *Executor
	sender   *testutils.FakeSender
	dispatch *scriptedDispatcher
	files    *testutils.FakeFiles
	settings *settings.Settings
	out      *bytes.Buffer
}

func newFixture(failing ...string) *fixture {
	testutils.ResetTestCounters()
	f := &fixture{
		sender:   testutils.NewFakeSender(failing...),
		dispatch: &scriptedDispatcher{status: map[string]shelltypes.CommandStatus{}},
		files:    testutils.NewFakeFiles(),
		settings: settings.New(),
		out:      &bytes.Buffer{},
	}
	f.exec = NewExecutor(f.sender, f.dispatch, f.files, f.settings, f.out)
	f.exec.NewID = testutils.DeterministicUUID
	return f
}

func queries(texts ...string) *List {
	var l List
	for _, text := range texts {
		l.Append(Query, text)
	}
	return &l
}

func TestRun_AllSucceed(t *testing.T) {
	f := newFixture()

	out := f.exec.Run(context.Background(), queries("SELECT 1", "SELECT 2"), false)

	assert.Equal(t, Success, out.Status)
	assert.Equal(t, shelltypes.ExitSuccess, out.ExitCode())
	assert.Equal(t, 2, out.Executed)
	assert.Equal(t, TxNone, out.Transaction)
	assert.NoError(t, out.Err)
	assert.Equal(t, "00000001-0000-4000-8000-000000000001", out.RunID)
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, f.sender.Sent)
}

func TestRun_StopOnError(t *testing.T) {
	f := newFixture("BAD")
	f.settings.OnErrorStop = true

	out := f.exec.Run(context.Background(), queries("SELECT 1", "BAD", "SELECT 2"), false)

	assert.Equal(t, UserError, out.Status)
	assert.Equal(t, shelltypes.ExitFailure, out.ExitCode())
	assert.Equal(t, 2, out.Executed)
	assert.Equal(t, []string{"SELECT 1", "BAD"}, f.sender.Sent, "third action never runs")
	assert.ErrorIs(t, out.Err, ErrActionFailed)
}

func TestRun_StopOnErrorSingleTransaction(t *testing.T) {
	f := newFixture("BAD")
	f.settings.OnErrorStop = true

	out := f.exec.Run(context.Background(), queries("SELECT 1", "BAD", "SELECT 2"), true)

	want := []string{"BEGIN", "SELECT 1", "BAD", "ROLLBACK"}
	if diff := cmp.Diff(want, f.sender.Sent); diff != "" {
		t.Errorf("statements mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, UserError, out.Status)
	assert.Equal(t, TxRolledBack, out.Transaction)
	assert.False(t, out.TransactionOpen)
}

func TestRun_ContinueWithoutStopOnError(t *testing.T) {
	f := newFixture("BAD")

	out := f.exec.Run(context.Background(), queries("BAD", "SELECT 2"), true)

	assert.Equal(t, []string{"BEGIN", "BAD", "SELECT 2", "COMMIT"}, f.sender.Sent)
	assert.Equal(t, Success, out.Status, "the last action decides the status")
	assert.Equal(t, TxCommitted, out.Transaction)
	assert.ErrorIs(t, out.Err, ErrActionFailed, "earlier failures are still reported")
}

func TestRun_LastActionFails(t *testing.T) {
	f := newFixture("BAD")

	out := f.exec.Run(context.Background(), queries("SELECT 1", "BAD"), true)

	assert.Equal(t, []string{"BEGIN", "SELECT 1", "BAD", "COMMIT"}, f.sender.Sent, "without ON_ERROR_STOP the work is committed")
	assert.Equal(t, UserError, out.Status)
	assert.Equal(t, TxCommitted, out.Transaction)
}

func TestRun_BeginFails(t *testing.T) {
	t.Run("with ON_ERROR_STOP", func(t *testing.T) {
		f := newFixture("BEGIN")
		f.settings.OnErrorStop = true

		out := f.exec.Run(context.Background(), queries("SELECT 1"), true)

		assert.Equal(t, Fatal, out.Status)
		assert.Equal(t, shelltypes.ExitUser, out.ExitCode())
		assert.Equal(t, 0, out.Executed)
		assert.Equal(t, []string{"BEGIN"}, f.sender.Sent)
		assert.ErrorIs(t, out.Err, ErrTransactionBoundary)
	})

	t.Run("without ON_ERROR_STOP", func(t *testing.T) {
		f := newFixture("BEGIN")

		out := f.exec.Run(context.Background(), queries("SELECT 1"), true)

		assert.Equal(t, Success, out.Status)
		assert.Equal(t, []string{"BEGIN", "SELECT 1", "COMMIT"}, f.sender.Sent)
	})
}

func TestRun_CommitFails(t *testing.T) {
	t.Run("with ON_ERROR_STOP", func(t *testing.T) {
		f := newFixture("COMMIT")
		f.settings.OnErrorStop = true

		out := f.exec.Run(context.Background(), queries("SELECT 1"), true)

		assert.Equal(t, Fatal, out.Status)
		assert.Equal(t, shelltypes.ExitUser, out.ExitCode())
		assert.True(t, out.TransactionOpen)
		assert.Equal(t, TxNone, out.Transaction)
	})

	t.Run("without ON_ERROR_STOP", func(t *testing.T) {
		f := newFixture("COMMIT")

		out := f.exec.Run(context.Background(), queries("SELECT 1"), true)

		assert.Equal(t, Success, out.Status)
		assert.ErrorIs(t, out.Err, ErrTransactionBoundary)
	})
}

func TestRun_RollbackFails(t *testing.T) {
	f := newFixture("BAD", "ROLLBACK")
	f.settings.OnErrorStop = true

	out := f.exec.Run(context.Background(), queries("BAD"), true)

	assert.Equal(t, Fatal, out.Status)
	assert.Equal(t, []string{"BEGIN", "BAD", "ROLLBACK"}, f.sender.Sent)
}

func TestRun_EmptyListNeverOpensTransaction(t *testing.T) {
	f := newFixture()

	out := f.exec.Run(context.Background(), &List{}, true)

	assert.Equal(t, Success, out.Status)
	assert.Empty(t, f.sender.Sent)
	assert.Equal(t, TxNone, out.Transaction)
}

func TestRun_SlashCommands(t *testing.T) {
	f := newFixture()
	f.dispatch.status[`\bad`] = shelltypes.CommandError
	f.settings.OnErrorStop = true

	var l List
	l.Append(SlashCommand, `\set a 1`)
	l.Append(SlashCommand, `\echo :a`)
	l.Append(SlashCommand, `\bad`)
	l.Append(SlashCommand, `\never`)

	out := f.exec.Run(context.Background(), &l, false)

	assert.Equal(t, UserError, out.Status)
	assert.Equal(t, []string{`\set a 1`, `\echo :a`, `\bad`}, f.dispatch.seen)
	require.Len(t, f.dispatch.conds, 3)
	assert.NotSame(t, f.dispatch.conds[0], f.dispatch.conds[1], "every slash action gets its own conditional stack")
}

func TestRun_QuitDoesNotStopRemainingActions(t *testing.T) {
	f := newFixture()
	f.dispatch.status[`\q`] = shelltypes.CommandTerminate

	var l List
	l.Append(Query, "SELECT 1")
	l.Append(SlashCommand, `\q`)
	l.Append(Query, "SELECT 2")

	out := f.exec.Run(context.Background(), &l, true)

	assert.Equal(t, Success, out.Status)
	assert.Equal(t, []string{"BEGIN", "SELECT 1", "SELECT 2", "COMMIT"}, f.sender.Sent)
	assert.Equal(t, 3, out.Executed)
}

func TestRun_QuitFirstStillRunsQuery(t *testing.T) {
	f := newFixture()
	f.dispatch.status[`q`] = shelltypes.CommandTerminate
	f.settings.OnErrorStop = true

	var l List
	l.Append(SlashCommand, "q")
	l.Append(Query, "SELECT 1")

	out := f.exec.Run(context.Background(), &l, false)

	assert.Equal(t, Success, out.Status)
	assert.Equal(t, []string{"SELECT 1"}, f.sender.Sent)
	assert.Equal(t, 2, out.Executed)
}

func TestRun_Files(t *testing.T) {
	f := newFixture()
	f.files.Status["stop.sql"] = shelltypes.ExitUser

	var l List
	l.Append(File, "ok.sql")
	l.Append(File, "stop.sql")

	out := f.exec.Run(context.Background(), &l, false)

	assert.Equal(t, []string{"ok.sql", "stop.sql"}, f.files.Processed)
	assert.Equal(t, UserError, out.Status)
	assert.Equal(t, shelltypes.ExitUser, out.ExitCode(), "a script stopped by ON_ERROR_STOP keeps its exit status")
}

func TestRun_EchoAll(t *testing.T) {
	f := newFixture()
	f.settings.Echo = settings.EchoAll

	var l List
	l.Append(Query, "SELECT 1")
	l.Append(SlashCommand, `\echo hi`)
	l.Append(File, "x.sql")

	f.exec.Run(context.Background(), &l, false)

	assert.Equal(t, "SELECT 1\n\\echo hi\n", f.out.String())
}

func TestRun_NoEchoByDefault(t *testing.T) {
	f := newFixture()

	f.exec.Run(context.Background(), queries("SELECT 1"), false)

	assert.Empty(t, f.out.String())
}

func TestRun_CancelledContext(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := f.exec.Run(ctx, queries("SELECT 1"), true)

	assert.Equal(t, []string{"BEGIN", "ROLLBACK"}, f.sender.Sent)
	assert.Equal(t, UserError, out.Status)
	assert.Equal(t, TxRolledBack, out.Transaction)
	assert.ErrorIs(t, out.Err, context.Canceled)
}

func TestStatusExitCode(t *testing.T) {
	assert.Equal(t, shelltypes.ExitSuccess, Success.ExitCode())
	assert.Equal(t, shelltypes.ExitFailure, UserError.ExitCode())
	assert.Equal(t, shelltypes.ExitUser, Fatal.ExitCode())
	assert.Equal(t, "rolled-back", TxRolledBack.String())
	assert.Equal(t, "aborted", StateAborted.String())
}
