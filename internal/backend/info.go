package backend

import (
	"strconv"

	"github.com/mattn/go-sqlite3"
)

// ConnInfo describes an open connection.
type ConnInfo struct {
	Driver        string
	Database      string
	User          string
	Host          string
	Port          string
	ServerVersion string
	Superuser     bool
}

// Describer is implemented by backends that can describe their connection.
type Describer interface {
	ConnInfo() ConnInfo
}

// ConnInfo reports the connection parameters and the server's version.
func (p *Postgres) ConnInfo() ConnInfo {
	config := p.conn.Config()
	pg := p.conn.PgConn()
	return ConnInfo{
		Driver:        DriverPostgres,
		Database:      config.Database,
		User:          config.User,
		Host:          config.Host,
		Port:          strconv.Itoa(int(config.Port)),
		ServerVersion: pg.ParameterStatus("server_version"),
		Superuser:     pg.ParameterStatus("is_superuser") == "on",
	}
}

// ConnInfo reports the database path and the SQLite library version.
func (s *SQLite) ConnInfo() ConnInfo {
	version, _, _ := sqlite3.Version()
	return ConnInfo{
		Driver:        DriverSQLite,
		Database:      s.dsn,
		ServerVersion: version,
	}
}
