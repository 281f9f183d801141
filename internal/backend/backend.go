// Package backend connects pgshell to a database. PostgreSQL is reached
// through pgx; SQLite is available for local scripting and tests.
package backend

import (
	"context"
	"fmt"
	"strings"
)

// TxStatus is the transaction state of a connection.
type TxStatus int

const (
	// TxIdle means no transaction is open.
	TxIdle TxStatus = iota
	// TxActive means a transaction block is open.
	TxActive
	// TxFailed means the open transaction has failed and must be rolled back.
	TxFailed
	// TxUnknown means the state cannot be determined, e.g. the connection is closed.
	TxUnknown
)

// String returns the status name.
func (s TxStatus) String() string {
	switch s {
	case TxIdle:
		return "idle"
	case TxActive:
		return "active"
	case TxFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one statement.
type Result struct {
	Columns []string
	Rows    [][]string
	// Command is the command tag, e.g. "INSERT 0 1" or "SELECT 2".
	Command      string
	RowsAffected int64
}

// Error is a database error with its SQLSTATE.
type Error struct {
	Severity string
	SQLState string
	Message  string
	Detail   string
	Hint     string
	Context  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Severity, e.Message)
}

// Backend is a single database session.
type Backend interface {
	// Query runs one or more statements and returns a result per statement.
	// On error the results of the statements that completed are returned too.
	Query(ctx context.Context, sql string) ([]*Result, error)
	// Exec runs sql and discards any rows.
	Exec(ctx context.Context, sql string) error
	TxStatus() TxStatus
	Close(ctx context.Context) error
}

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects using driver. An empty driver is guessed from dsn.
func Open(ctx context.Context, driver, dsn string) (Backend, error) {
	if driver == "" {
		driver = GuessDriver(dsn)
	}
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pg":
		return OpenPostgres(ctx, dsn)
	case "sqlite", "sqlite3":
		return OpenSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown driver %q (expected %s or %s)", driver, DriverPostgres, DriverSQLite)
	}
}

// GuessDriver picks a driver from the shape of dsn: SQLite for ":memory:",
// "file:" URIs and paths ending in .db, .sqlite or .sqlite3; PostgreSQL otherwise.
func GuessDriver(dsn string) string {
	lower := strings.ToLower(dsn)
	switch {
	case lower == ":memory:",
		strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".db"),
		strings.HasSuffix(lower, ".sqlite"),
		strings.HasSuffix(lower, ".sqlite3"):
		return DriverSQLite
	default:
		return DriverPostgres
	}
}
