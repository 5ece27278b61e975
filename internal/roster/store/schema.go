package store

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the pgx stdlib driver for sql.Open("pgx", ...).
	_ "github.com/jackc/pgx/v5/stdlib"
)

const schema = `
CREATE TABLE IF NOT EXISTS activities (
	id               BIGSERIAL PRIMARY KEY,
	name             TEXT NOT NULL UNIQUE,
	description      TEXT NOT NULL DEFAULT '',
	schedule         TEXT NOT NULL DEFAULT '',
	max_participants INTEGER NOT NULL CHECK (max_participants > 0)
);

CREATE TABLE IF NOT EXISTS participants (
	id          BIGSERIAL PRIMARY KEY,
	activity_id BIGINT NOT NULL REFERENCES activities (id),
	email       TEXT NOT NULL,
	name        TEXT,
	grade       INTEGER,
	UNIQUE (activity_id, email)
);
`

// Open connects to PostgreSQL through the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the roster tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
