package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create users",
		sql: `
		CREATE TABLE IF NOT EXISTS users (
			id                UUID PRIMARY KEY,
			email             TEXT NOT NULL UNIQUE,
			password_hash     TEXT NOT NULL,
			timezone          TEXT NOT NULL DEFAULT 'Europe/Moscow',
			reminder_time     TEXT NULL,
			reminders_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			telegram_chat_id  BIGINT NULL,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
	{
		version: 2,
		name:    "create habits",
		sql: `
		CREATE TABLE IF NOT EXISTS habits (
			id             UUID PRIMARY KEY,
			user_id        UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title          VARCHAR(50) NOT NULL,
			schedule_kind  TEXT NOT NULL CHECK (schedule_kind IN ('daily', 'weekly')),
			weekly_target  SMALLINT NOT NULL DEFAULT 7 CHECK (weekly_target BETWEEN 1 AND 7),
			is_active      BOOLEAN NOT NULL DEFAULT TRUE,
			current_streak INTEGER NOT NULL DEFAULT 0,
			best_streak    INTEGER NOT NULL DEFAULT 0,
			version        INTEGER NOT NULL DEFAULT 1,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at     TIMESTAMPTZ NULL
		);
		CREATE INDEX IF NOT EXISTS idx_habits_user ON habits (user_id) WHERE deleted_at IS NULL;
		CREATE INDEX IF NOT EXISTS idx_habits_sync ON habits (user_id, updated_at)`,
	},
	{
		version: 3,
		name:    "create habit logs",
		sql: `
		CREATE TABLE IF NOT EXISTS habit_logs (
			id         UUID PRIMARY KEY,
			habit_id   UUID NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
			user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			log_date   DATE NOT NULL,
			status     TEXT NOT NULL CHECK (status IN ('done', 'not_done', 'skipped')),
			version    INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS ux_habit_logs_habit_date ON habit_logs (habit_id, log_date);
		CREATE INDEX IF NOT EXISTS idx_habit_logs_sync ON habit_logs (user_id, updated_at)`,
	},
}

// Migrate applies every migration newer than the recorded schema version.
// Each migration runs in its own transaction.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	if err := db.GetContext(ctx, &current, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`); err != nil {
		return fmt.Errorf("migrate: read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return err
		}
		log.WithFields(log.Fields{"version": m.version, "name": m.name}).Info("Migration applied")
	}

	return nil
}

func applyMigration(ctx context.Context, db *sqlx.DB, m migration) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate %d: begin: %w", m.version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("migrate %d (%s): %w", m.version, m.name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
		return fmt.Errorf("migrate %d: record version: %w", m.version, err)
	}

	return tx.Commit()
}
