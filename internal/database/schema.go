package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied idempotently on startup; there is no separate
// migration tooling at this scale.
const schema = `
CREATE TABLE IF NOT EXISTS device (
    id TEXT PRIMARY KEY,
    hardware_uid TEXT UNIQUE NOT NULL,
    device_token TEXT NOT NULL DEFAULT '',
    device_token_expires_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_device_token
    ON device (device_token) WHERE device_token <> '';

CREATE TABLE IF NOT EXISTS pairing (
    pair_code TEXT PRIMARY KEY,
    device_id TEXT NOT NULL REFERENCES device (id),
    expires_at TIMESTAMPTZ NOT NULL,
    claimed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_pairing_expires ON pairing (expires_at);

CREATE TABLE IF NOT EXISTS session (
    session_token TEXT PRIMARY KEY,
    device_id TEXT NOT NULL REFERENCES device (id),
    expires_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_session_expires ON session (expires_at);

CREATE TABLE IF NOT EXISTS module_config (
    device_id TEXT PRIMARY KEY REFERENCES device (id),
    type TEXT NOT NULL,
    params JSONB NOT NULL DEFAULT '{}',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("error initializing schema: %w", err)
	}
	return nil
}
