package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pgshell/internal/backend"
	"pgshell/internal/settings"
)

const rollbackSavepoint = "pg_psql_temporary_savepoint"

// ErrNotExecuted is returned by Exec when ECHO_HIDDEN is noexec.
var ErrNotExecuted = errors.New("statement not executed")

// SendQuery runs text on the server and prints its results.
//
// With AUTOCOMMIT off a transaction is opened first unless one is already
// open or text itself controls transactions. With ON_ERROR_ROLLBACK a
// savepoint guards the statement so that a failure does not abort the
// surrounding transaction. ERROR, SQLSTATE and ROW_COUNT are updated after
// every query, and LAST_ERROR_MESSAGE and LAST_ERROR_SQLSTATE after a failure.
func (s *Session) SendQuery(ctx context.Context, text string) bool {
	if s.settings.Echo == settings.EchoQueries {
		fmt.Fprintln(s.out, text)
	}

	if s.backend == nil {
		s.diag.Errorf("no connection to the server")
		s.setResultVariables(false, "08003", 0)
		return false
	}

	if s.settings.SingleStep && s.confirm != nil && !s.confirm(text) {
		return false
	}

	txBefore := s.backend.TxStatus()
	if !s.settings.Autocommit && txBefore == backend.TxIdle && !noImplicitBegin(text) {
		if err := s.backend.Exec(ctx, "BEGIN"); err != nil {
			s.reportError(text, err)
			return false
		}
		txBefore = backend.TxActive
	}

	savepoint := txBefore == backend.TxActive && s.wantsSavepoint() && !isTransactionCommand(text)
	if savepoint {
		if err := s.backend.Exec(ctx, "SAVEPOINT "+rollbackSavepoint); err != nil {
			s.reportError(text, err)
			return false
		}
	}

	s.logger.Debug("Sending query", "query", text)
	start := time.Now()
	results, err := s.backend.Query(ctx, text)
	elapsed := time.Since(start)
	s.printResults(results)
	if s.settings.Timing {
		fmt.Fprintf(s.out, "Time: %.3f ms\n", float64(elapsed.Microseconds())/1000)
	}

	if savepoint {
		s.closeSavepoint(ctx, err == nil)
	}

	if err != nil {
		s.reportError(text, err)
		return false
	}

	var rows int64
	if len(results) > 0 {
		rows = results[len(results)-1].RowsAffected
	}
	s.setResultVariables(true, "00000", rows)
	return true
}

// Exec runs an internal statement such as BEGIN or COMMIT without printing
// anything beyond its error. With ECHO_HIDDEN the statement is shown first,
// and with ECHO_HIDDEN=noexec it is only shown.
func (s *Session) Exec(ctx context.Context, sql string) error {
	if s.backend == nil {
		return errors.New("no connection to the server")
	}
	s.logger.Debug("Executing", "statement", sql)
	if s.settings.EchoHidden != settings.EchoHiddenOff {
		fmt.Fprintf(s.out, "/******** QUERY *********/\n%s\n/************************/\n\n", sql)
		if s.settings.EchoHidden == settings.EchoHiddenNoExec {
			return ErrNotExecuted
		}
	}
	if err := s.backend.Exec(ctx, sql); err != nil {
		s.reportError(sql, err)
		return err
	}
	return nil
}

func (s *Session) wantsSavepoint() bool {
	switch s.settings.OnErrorRollback {
	case settings.ErrorRollbackOn:
		return true
	case settings.ErrorRollbackInteractive:
		f := s.current()
		return f != nil && f.interactive
	default:
		return false
	}
}

// closeSavepoint releases the guard savepoint after success and rolls back
// to it after a failure. A transaction the statement itself ended has no
// savepoint left to touch.
func (s *Session) closeSavepoint(ctx context.Context, ok bool) {
	var stmt string
	switch status := s.backend.TxStatus(); {
	case status == backend.TxFailed:
		stmt = "ROLLBACK TO SAVEPOINT " + rollbackSavepoint
	case status == backend.TxActive && ok:
		stmt = "RELEASE SAVEPOINT " + rollbackSavepoint
	case status == backend.TxActive:
		stmt = "ROLLBACK TO SAVEPOINT " + rollbackSavepoint
	default:
		return
	}
	if err := s.backend.Exec(ctx, stmt); err != nil {
		s.reportError(stmt, err)
	}
}

func (s *Session) printResults(results []*backend.Result) {
	if len(results) == 0 {
		return
	}
	if !s.settings.ShowAllResults {
		results = results[len(results)-1:]
	}
	for _, r := range results {
		s.printResult(r)
	}
}

// printResult writes r in unaligned format: a '|' separated header, the
// rows and a row-count footer. Statements without columns print their
// command tag unless QUIET is set.
func (s *Session) printResult(r *backend.Result) {
	if len(r.Columns) == 0 {
		if !s.settings.Quiet && r.Command != "" {
			fmt.Fprintln(s.out, r.Command)
		}
		return
	}

	fmt.Fprintln(s.out, strings.Join(r.Columns, "|"))
	for _, row := range r.Rows {
		fmt.Fprintln(s.out, strings.Join(row, "|"))
	}
	if len(r.Rows) == 1 {
		fmt.Fprintln(s.out, "(1 row)")
	} else {
		fmt.Fprintf(s.out, "(%d rows)\n", len(r.Rows))
	}
}

// reportError prints err the way VERBOSITY and SHOW_CONTEXT ask for and
// records it in the error variables.
func (s *Session) reportError(query string, err error) {
	var dbErr *backend.Error
	if !errors.As(err, &dbErr) {
		s.diag.Errorf("%v", err)
		s.setErrorVariables(err.Error(), "XX000")
		return
	}

	fmt.Fprint(s.errOut, s.formatError(dbErr))
	if s.settings.Echo == settings.EchoErrors {
		fmt.Fprintf(s.errOut, "%sSTATEMENT:  %s\n", s.errorPrefix(), query)
	}
	s.setErrorVariables(dbErr.Message, dbErr.SQLState)
}

func (s *Session) formatError(e *backend.Error) string {
	var b strings.Builder
	prefix := s.errorPrefix()

	switch s.settings.Verbosity {
	case settings.VerbositySQLState:
		fmt.Fprintf(&b, "%s%s:  %s\n", prefix, e.Severity, e.SQLState)
		return b.String()
	case settings.VerbosityVerbose:
		fmt.Fprintf(&b, "%s%s:  %s: %s\n", prefix, e.Severity, e.SQLState, e.Message)
	default:
		fmt.Fprintf(&b, "%s%s:  %s\n", prefix, e.Severity, e.Message)
	}

	if s.settings.Verbosity != settings.VerbosityTerse {
		if e.Detail != "" {
			fmt.Fprintf(&b, "DETAIL:  %s\n", e.Detail)
		}
		if e.Hint != "" {
			fmt.Fprintf(&b, "HINT:  %s\n", e.Hint)
		}
	}
	if e.Context != "" && s.settings.ShowContext != settings.ShowContextNever &&
		(s.settings.Verbosity != settings.VerbosityTerse || s.settings.ShowContext == settings.ShowContextAlways) {
		fmt.Fprintf(&b, "CONTEXT:  %s\n", e.Context)
	}
	return b.String()
}

func (s *Session) setResultVariables(ok bool, sqlstate string, rows int64) {
	s.vars.Set("ERROR", strconv.FormatBool(!ok))
	s.vars.Set("SQLSTATE", sqlstate)
	s.vars.Set("ROW_COUNT", strconv.FormatInt(rows, 10))
}

func (s *Session) setErrorVariables(message, sqlstate string) {
	s.setResultVariables(false, sqlstate, 0)
	s.vars.Set("LAST_ERROR_MESSAGE", message)
	s.vars.Set("LAST_ERROR_SQLSTATE", sqlstate)
}

// keywords returns the first two upper-cased words of query.
func keywords(query string) (string, string) {
	fields := strings.Fields(strings.ToUpper(query))
	first, second := "", ""
	if len(fields) > 0 {
		first = strings.TrimRight(fields[0], ";")
	}
	if len(fields) > 1 {
		second = strings.TrimRight(fields[1], ";")
	}
	return first, second
}

func isTransactionCommand(query string) bool {
	switch first, _ := keywords(query); first {
	case "BEGIN", "START", "COMMIT", "END", "ROLLBACK", "ABORT", "SAVEPOINT", "RELEASE", "PREPARE":
		return true
	default:
		return false
	}
}

// noImplicitBegin reports whether query must not be wrapped in an implicit
// transaction: transaction control itself, and commands the server refuses
// to run inside a transaction block.
func noImplicitBegin(query string) bool {
	if isTransactionCommand(query) {
		return true
	}
	first, second := keywords(query)
	switch first {
	case "VACUUM", "CLUSTER":
		return true
	case "CREATE", "DROP":
		return second == "DATABASE" || second == "TABLESPACE"
	case "ALTER":
		return second == "SYSTEM"
	case "DISCARD":
		return second == "ALL"
	case "REINDEX":
		return second == "DATABASE" || second == "SYSTEM"
	default:
		return false
	}
}
