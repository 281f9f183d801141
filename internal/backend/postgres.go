package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pgshell/internal/logger"
)

// Postgres is a PostgreSQL session.
type Postgres struct {
	conn *pgx.Conn
}

// OpenPostgres connects to dsn, a libpq connection string or URL. An empty
// dsn uses the PG* environment variables.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}
	if config.RuntimeParams["application_name"] == "" {
		config.RuntimeParams["application_name"] = "pgshell"
	}

	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connection to server failed: %w", err)
	}
	logger.Debug("Connected", "driver", DriverPostgres, "host", config.Host, "database", config.Database)
	return &Postgres{conn: conn}, nil
}

// Query runs sql over the simple query protocol, so several
// semicolon-separated statements may be sent at once.
func (p *Postgres) Query(ctx context.Context, sql string) ([]*Result, error) {
	results, err := p.conn.PgConn().Exec(ctx, sql).ReadAll()

	out := make([]*Result, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			break
		}
		out = append(out, convertResult(r))
	}
	if err != nil {
		return out, convertError(err)
	}
	return out, nil
}

// Exec runs sql and discards its results.
func (p *Postgres) Exec(ctx context.Context, sql string) error {
	_, err := p.conn.PgConn().Exec(ctx, sql).ReadAll()
	return convertError(err)
}

// TxStatus reports the server's transaction status.
func (p *Postgres) TxStatus() TxStatus {
	if p.conn.IsClosed() {
		return TxUnknown
	}
	switch p.conn.PgConn().TxStatus() {
	case 'I':
		return TxIdle
	case 'T':
		return TxActive
	case 'E':
		return TxFailed
	default:
		return TxUnknown
	}
}

// Close terminates the session.
func (p *Postgres) Close(ctx context.Context) error {
	return p.conn.Close(ctx)
}

func convertResult(r *pgconn.Result) *Result {
	res := &Result{
		Command:      r.CommandTag.String(),
		RowsAffected: r.CommandTag.RowsAffected(),
	}
	for _, fd := range r.FieldDescriptions {
		res.Columns = append(res.Columns, fd.Name)
	}
	for _, row := range r.Rows {
		values := make([]string, len(row))
		for i, v := range row {
			values[i] = string(v)
		}
		res.Rows = append(res.Rows, values)
	}
	return res
}

func convertError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &Error{
			Severity: pgErr.Severity,
			SQLState: pgErr.Code,
			Message:  pgErr.Message,
			Detail:   pgErr.Detail,
			Hint:     pgErr.Hint,
			Context:  pgErr.Where,
		}
	}
	return err
}
