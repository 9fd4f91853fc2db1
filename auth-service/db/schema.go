package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chepyr/go-kanban/internal/rowstore"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	display_name  TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const sqliteRevocationSchema = `
CREATE TABLE IF NOT EXISTS revoked_tokens (
	jti        TEXT PRIMARY KEY,
	expires_at TIMESTAMP NOT NULL
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	email         VARCHAR(255) NOT NULL UNIQUE,
	display_name  VARCHAR(50) NOT NULL DEFAULT '',
	password_hash VARCHAR(255) NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const postgresRevocationSchema = `
CREATE TABLE IF NOT EXISTS revoked_tokens (
	jti        VARCHAR(64) PRIMARY KEY,
	expires_at TIMESTAMPTZ NOT NULL
);
`

func Migrate(ctx context.Context, conn *sql.DB, driverName string) error {
	schema := postgresSchema
	if rowstore.DialectFor(driverName) == rowstore.DialectSQLite {
		schema = sqliteSchema
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create users schema: %w", err)
	}
	return MigrateRevocations(ctx, conn, driverName)
}

// MigrateRevocations creates the revoked token table on its own, for services
// that check logouts without owning the users table.
func MigrateRevocations(ctx context.Context, conn *sql.DB, driverName string) error {
	schema := postgresRevocationSchema
	if rowstore.DialectFor(driverName) == rowstore.DialectSQLite {
		schema = sqliteRevocationSchema
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create revoked_tokens schema: %w", err)
	}
	return nil
}
