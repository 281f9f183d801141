package actions

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"pgshell/internal/logger"
	"pgshell/internal/scan"
	"pgshell/internal/settings"
	"pgshell/pkg/shelltypes"
)

var (
	// ErrActionFailed wraps the failure of a single action.
	ErrActionFailed = errors.New("action failed")
	// ErrTransactionBoundary wraps a failed BEGIN, COMMIT or ROLLBACK.
	ErrTransactionBoundary = errors.New("transaction boundary failed")
)

// Dispatcher runs one meta-command read from state.
type Dispatcher interface {
	Dispatch(ctx context.Context, state *scan.State, cond *scan.ConditionalStack) shelltypes.CommandStatus
}

// State is a step of an action run.
type State int

// Run states. StateDone and StateAborted are terminal.
const (
	StateIdle State = iota
	StateBegin
	StateRunning
	StateCommit
	StateRollback
	StateDone
	StateAborted
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBegin:
		return "begin"
	case StateRunning:
		return "running"
	case StateCommit:
		return "commit"
	case StateRollback:
		return "rollback"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Status is the overall result of a run.
type Status int

const (
	// Success means the last action executed succeeded.
	Success Status = iota
	// UserError means the last action executed failed.
	UserError
	// Fatal means a transaction boundary failed while ON_ERROR_STOP was set.
	Fatal
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case UserError:
		return "user-error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ExitCode maps the status to a process exit code.
func (s Status) ExitCode() shelltypes.ExitStatus {
	switch s {
	case Success:
		return shelltypes.ExitSuccess
	case Fatal:
		return shelltypes.ExitUser
	default:
		return shelltypes.ExitFailure
	}
}

// Transaction says how the single-transaction envelope ended.
type Transaction int

const (
	// TxNone means no transaction was requested or the list was empty.
	TxNone Transaction = iota
	// TxCommitted means COMMIT succeeded.
	TxCommitted
	// TxRolledBack means ROLLBACK succeeded.
	TxRolledBack
)

// String returns the transaction outcome name.
func (t Transaction) String() string {
	switch t {
	case TxCommitted:
		return "committed"
	case TxRolledBack:
		return "rolled-back"
	default:
		return "none"
	}
}

// Outcome is the result of Executor.Run.
type Outcome struct {
	RunID  string
	Status Status
	// Transaction reports how the envelope was closed.
	Transaction Transaction
	// TransactionOpen is true when BEGIN succeeded but neither COMMIT nor ROLLBACK did.
	TransactionOpen bool
	// Executed counts the actions that were started.
	Executed int
	// Exit is the exit status of the last action executed.
	Exit shelltypes.ExitStatus
	// Err joins every failure met during the run.
	Err error
}

// ExitCode returns the process exit code for the run. A failing file keeps
// its own status, so ON_ERROR_STOP inside a script still exits with 3.
func (o Outcome) ExitCode() shelltypes.ExitStatus {
	if o.Status == UserError && o.Exit != shelltypes.ExitSuccess {
		return o.Exit
	}
	return o.Status.ExitCode()
}

// Executor runs an action list.
type Executor struct {
	Sender     shelltypes.QuerySender
	Dispatcher Dispatcher
	Files      shelltypes.FileProcessor
	Settings   *settings.Settings
	// Lookup resolves variables for meta-command arguments.
	Lookup scan.Lookup
	// Out receives echoed actions when ECHO is all.
	Out io.Writer
	// NewID generates run identifiers.
	NewID func() string

	logger *log.Logger
}

// NewExecutor creates an executor.
func NewExecutor(sender shelltypes.QuerySender, dispatcher Dispatcher, files shelltypes.FileProcessor, s *settings.Settings, out io.Writer) *Executor {
	return &Executor{
		Sender:     sender,
		Dispatcher: dispatcher,
		Files:      files,
		Settings:   s,
		Out:        out,
		NewID:      uuid.NewString,
		logger:     logger.NewStyledLogger("Executor"),
	}
}

// run is the mutable state of one Run call.
type run struct {
	id        string
	list      *List
	singleTxn bool
	outcome   Outcome
	failed    bool
	errs      []error
}

// Run executes every action in list in order.
//
// With singleTransaction set and a non-empty list the actions are wrapped in
// BEGIN and COMMIT, or ROLLBACK when an action failed under ON_ERROR_STOP.
// A failed action stops the run only when ON_ERROR_STOP is set; \q stops it
// as a success. A failed transaction boundary is fatal under ON_ERROR_STOP
// and ignored otherwise.
func (e *Executor) Run(ctx context.Context, list *List, singleTransaction bool) Outcome {
	if e.logger == nil {
		e.logger = logger.NewStyledLogger("Executor")
	}
	id := ""
	if e.NewID != nil {
		id = e.NewID()
	}

	r := &run{id: id, list: list, singleTxn: singleTransaction}
	r.outcome.RunID = id

	state := StateIdle
	for state != StateDone && state != StateAborted {
		next := e.step(ctx, r, state)
		e.logger.Debug("Transition", "run", r.id, "state", state, "next", next)
		state = next
	}

	if state == StateAborted {
		r.outcome.Status = Fatal
	} else if r.failed {
		r.outcome.Status = UserError
	}
	r.outcome.Err = errors.Join(r.errs...)
	return r.outcome
}

func (e *Executor) step(ctx context.Context, r *run, state State) State {
	switch state {
	case StateIdle:
		if r.singleTxn && !r.list.Empty() {
			return StateBegin
		}
		return StateRunning

	case StateBegin:
		if err := e.Sender.Exec(ctx, "BEGIN"); err != nil {
			r.errs = append(r.errs, fmt.Errorf("%w: BEGIN: %w", ErrTransactionBoundary, err))
			if e.Settings.OnErrorStop {
				return StateAborted
			}
			return StateRunning
		}
		r.outcome.TransactionOpen = true
		return StateRunning

	case StateRunning:
		e.runActions(ctx, r)
		if !r.singleTxn || r.list.Empty() {
			return StateDone
		}
		if (r.failed && e.Settings.OnErrorStop) || ctx.Err() != nil {
			return StateRollback
		}
		return StateCommit

	case StateCommit, StateRollback:
		return e.closeTransaction(ctx, r, state)

	default:
		return StateDone
	}
}

func (e *Executor) runActions(ctx context.Context, r *run) {
	for i, action := range r.list.All() {
		if err := ctx.Err(); err != nil {
			r.failed = true
			r.outcome.Exit = shelltypes.ExitFailure
			r.errs = append(r.errs, fmt.Errorf("%w: action %d not started: %w", ErrActionFailed, i, err))
			return
		}

		logger.ActionExecution(r.id, i, action.Kind.String(), action.Value)
		r.outcome.Executed++

		status := e.runAction(ctx, action)
		r.outcome.Exit = status
		r.failed = status != shelltypes.ExitSuccess
		if r.failed {
			r.errs = append(r.errs, fmt.Errorf("%w: %s action %d", ErrActionFailed, action.Kind, i))
		}

		if r.failed && e.Settings.OnErrorStop {
			e.logger.Debug("Stopping on error", "run", r.id, "action", i)
			return
		}
	}
}

// runAction runs one action and reports its exit status. A meta-command
// that asks to quit, such as \q, only ends its own action.
func (e *Executor) runAction(ctx context.Context, action Action) shelltypes.ExitStatus {
	switch action.Kind {
	case Query:
		e.echo(action.Value)
		if e.Sender.SendQuery(ctx, action.Value) {
			return shelltypes.ExitSuccess
		}
		return shelltypes.ExitFailure

	case SlashCommand:
		e.echo(action.Value)
		state := scan.New(action.Value, e.Lookup)
		cond := scan.NewConditionalStack()
		if e.Dispatcher.Dispatch(ctx, state, cond) == shelltypes.CommandError {
			return shelltypes.ExitFailure
		}
		return shelltypes.ExitSuccess

	case File:
		return e.Files.ProcessFile(ctx, action.Value, false)

	default:
		return shelltypes.ExitFailure
	}
}

func (e *Executor) closeTransaction(ctx context.Context, r *run, state State) State {
	stmt, done := "COMMIT", TxCommitted
	if state == StateRollback {
		stmt, done = "ROLLBACK", TxRolledBack
	}
	// The boundary statement must go through even when ctx was cancelled mid-run.
	if err := e.Sender.Exec(context.WithoutCancel(ctx), stmt); err != nil {
		r.errs = append(r.errs, fmt.Errorf("%w: %s: %w", ErrTransactionBoundary, stmt, err))
		if e.Settings.OnErrorStop {
			return StateAborted
		}
		return StateDone
	}
	r.outcome.Transaction = done
	r.outcome.TransactionOpen = false
	return StateDone
}

func (e *Executor) echo(text string) {
	if e.Settings.Echo == settings.EchoAll && e.Out != nil {
		fmt.Fprintln(e.Out, text)
	}
}
