package backend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuessDriver(t *testing.T) {
	tests := []struct {
		dsn      string
		expected string
	}{
		{":memory:", DriverSQLite},
		{"file:test.db?cache=shared", DriverSQLite},
		{"/tmp/app.db", DriverSQLite},
		{"data.SQLITE", DriverSQLite},
		{"data.sqlite3", DriverSQLite},
		{"postgres://localhost/app", DriverPostgres},
		{"host=localhost dbname=app", DriverPostgres},
		{"", DriverPostgres},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.expected, GuessDriver(tt.dsn))
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "oracle"`)
}

func TestTxStatus_String(t *testing.T) {
	assert.Equal(t, "idle", TxIdle.String())
	assert.Equal(t, "active", TxActive.String())
	assert.Equal(t, "failed", TxFailed.String())
	assert.Equal(t, "unknown", TxUnknown.String())
}

func TestError_Error(t *testing.T) {
	err := &Error{Severity: "ERROR", SQLState: "42P01", Message: `relation "x" does not exist`}
	assert.Equal(t, `ERROR: relation "x" does not exist`, err.Error())
}

func TestConvertError(t *testing.T) {
	assert.NoError(t, convertError(nil))

	plain := errors.New("conn closed")
	assert.Same(t, plain, convertError(plain))

	pgErr := &pgconn.PgError{
		Severity: "ERROR",
		Code:     "22012",
		Message:  "division by zero",
		Detail:   "d",
		Hint:     "h",
		Where:    "w",
	}
	var converted *Error
	require.ErrorAs(t, convertError(fmt.Errorf("wrapped: %w", pgErr)), &converted)
	assert.Equal(t, &Error{
		Severity: "ERROR",
		SQLState: "22012",
		Message:  "division by zero",
		Detail:   "d",
		Hint:     "h",
		Context:  "w",
	}, converted)
}

func TestConvertSQLiteError(t *testing.T) {
	tests := []struct {
		code     sqlite3.ErrNo
		expected string
	}{
		{sqlite3.ErrConstraint, "23000"},
		{sqlite3.ErrBusy, "55P03"},
		{sqlite3.ErrLocked, "55P03"},
		{sqlite3.ErrReadonly, "25006"},
		{sqlite3.ErrPerm, "42501"},
		{sqlite3.ErrAuth, "42501"},
		{sqlite3.ErrError, "42000"},
		{sqlite3.ErrCorrupt, "XX000"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			var converted *Error
			require.ErrorAs(t, convertSQLiteError(sqlite3.Error{Code: tt.code}), &converted)
			assert.Equal(t, tt.expected, converted.SQLState)
			assert.Equal(t, "ERROR", converted.Severity)
		})
	}

	plain := errors.New("other")
	assert.Same(t, plain, convertSQLiteError(plain))
}

func TestCommandTag(t *testing.T) {
	assert.Equal(t, "INSERT 0 2", commandTag("INSERT", 2))
	assert.Equal(t, "UPDATE 1", commandTag("UPDATE", 1))
	assert.Equal(t, "SELECT 3", commandTag("WITH", 3))
	assert.Equal(t, "CREATE", commandTag("CREATE", 0))
	assert.Equal(t, "BEGIN", commandTag(commandVerb("  begin;"), 0))
	assert.Equal(t, "SELECT", commandVerb("(select 1)"))
	assert.Equal(t, "", commandVerb("   "))
}
