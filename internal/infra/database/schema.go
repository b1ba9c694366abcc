package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements create the tables the bot needs. They are idempotent so
// EnsureSchema can run on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT        NOT NULL,
		join_date   DATE,
		rank_title  TEXT,
		is_active   BOOLEAN     NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS members_name_lower_key ON members (LOWER(name))`,
	`CREATE TABLE IF NOT EXISTS rank_settings (
		id                 SMALLINT    PRIMARY KEY CHECK (id = 1),
		rules              TEXT        NOT NULL,
		eligible_ranks     TEXT        NOT NULL DEFAULT '',
		ignored_users      TEXT        NOT NULL DEFAULT '',
		mute_notifications BOOLEAN     NOT NULL DEFAULT TRUE,
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS promotion_deliveries (
		id            BIGSERIAL PRIMARY KEY,
		member_name   TEXT        NOT NULL,
		days_elapsed  INTEGER     NOT NULL,
		target_rank   TEXT        NOT NULL,
		current_rank  TEXT        NOT NULL,
		notified_on   DATE        NOT NULL,
		delivered_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS promotion_deliveries_notified_on_idx ON promotion_deliveries (notified_on)`,
	`CREATE INDEX IF NOT EXISTS promotion_deliveries_member_lower_idx ON promotion_deliveries (LOWER(member_name))`,
}

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
