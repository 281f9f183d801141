package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"pgshell/internal/logger"
	"pgshell/internal/scan"
)

// SQLite is a SQLite session. All statements share one pinned connection so
// that BEGIN and COMMIT apply to the same session.
type SQLite struct {
	db   *sql.DB
	conn *sql.Conn
	dsn  string
}

// OpenSQLite opens the database file at dsn, or an in-memory database for ":memory:".
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to open sqlite database: %w", convertSQLiteError(err))
	}
	logger.Debug("Connected", "driver", DriverSQLite, "database", dsn)
	return &SQLite{db: db, conn: conn, dsn: dsn}, nil
}

// Query runs each statement in sql in turn, stopping at the first error.
func (s *SQLite) Query(ctx context.Context, sql string) ([]*Result, error) {
	var results []*Result
	for _, stmt := range scan.Split(sql) {
		res, err := s.run(ctx, stmt)
		if err != nil {
			return results, convertSQLiteError(err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Exec runs sql and discards its results.
func (s *SQLite) Exec(ctx context.Context, sql string) error {
	_, err := s.Query(ctx, sql)
	return err
}

func (s *SQLite) run(ctx context.Context, stmt string) (*Result, error) {
	rows, err := s.conn.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: columns}
	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = v.String
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	verb := commandVerb(stmt)
	switch verb {
	case "INSERT", "UPDATE", "DELETE":
		if err := s.conn.QueryRowContext(ctx, "SELECT changes()").Scan(&res.RowsAffected); err != nil {
			return nil, err
		}
	case "SELECT", "VALUES", "WITH", "PRAGMA":
		res.RowsAffected = int64(len(res.Rows))
	}
	res.Command = commandTag(verb, res.RowsAffected)
	return res, nil
}

// TxStatus reports whether a transaction is open.
func (s *SQLite) TxStatus() TxStatus {
	status := TxUnknown
	err := s.conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		if c.AutoCommit() {
			status = TxIdle
		} else {
			status = TxActive
		}
		return nil
	})
	if err != nil {
		return TxUnknown
	}
	return status
}

// Close releases the connection and the database.
func (s *SQLite) Close(context.Context) error {
	return errors.Join(s.conn.Close(), s.db.Close())
}

// commandVerb returns the upper-cased first keyword of stmt.
func commandVerb(stmt string) string {
	fields := strings.Fields(strings.TrimLeft(stmt, "("))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimRight(fields[0], ";"))
}

// commandTag builds a PostgreSQL-style command tag.
func commandTag(verb string, rows int64) string {
	switch verb {
	case "INSERT":
		return fmt.Sprintf("INSERT 0 %d", rows)
	case "UPDATE", "DELETE", "SELECT":
		return fmt.Sprintf("%s %d", verb, rows)
	case "VALUES", "WITH", "PRAGMA":
		return fmt.Sprintf("SELECT %d", rows)
	default:
		return verb
	}
}

// convertSQLiteError maps SQLite result codes to the closest SQLSTATE class.
func convertSQLiteError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	state := "XX000"
	switch sqliteErr.Code {
	case sqlite3.ErrConstraint:
		state = "23000"
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		state = "55P03"
	case sqlite3.ErrReadonly:
		state = "25006"
	case sqlite3.ErrPerm, sqlite3.ErrAuth:
		state = "42501"
	case sqlite3.ErrError:
		state = "42000"
	}
	return &Error{
		Severity: "ERROR",
		SQLState: state,
		Message:  sqliteErr.Error(),
	}
}
