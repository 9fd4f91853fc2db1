package rowstore

import (
	"database/sql"
	"fmt"
	"time"
)

// ConnectionConfig holds database/sql pool settings.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: time.Minute,
	}
}

// SQLiteConnectionConfig pins the pool to one connection. An in-memory
// SQLite database exists per connection, and a file database only allows
// one writer anyway.
func SQLiteConnectionConfig() ConnectionConfig {
	return ConnectionConfig{MaxOpenConns: 1, MaxIdleConns: 1}
}

func ConnectionConfigFor(driverName string) ConnectionConfig {
	if DialectFor(driverName) == DialectSQLite {
		return SQLiteConnectionConfig()
	}
	return DefaultConnectionConfig()
}

func Connect(driverName, dsn string, cfg ConnectionConfig) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
