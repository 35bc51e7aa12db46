package postgres

import (
	"context"
	"fmt"
)

// Schema creates the tables used by Repository. Record metadata is removed
// together with its record.
const Schema = `
CREATE TABLE IF NOT EXISTS records (
	id          UUID PRIMARY KEY,
	record_type VARCHAR(20) NOT NULL,
	slug        TEXT NOT NULL UNIQUE,
	title       TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS record_meta (
	record_id  UUID NOT NULL REFERENCES records(id) ON DELETE CASCADE,
	meta_key   VARCHAR(255) NOT NULL,
	meta_value TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (record_id, meta_key)
);
`

// Migrate applies Schema. It is safe to run repeatedly.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
