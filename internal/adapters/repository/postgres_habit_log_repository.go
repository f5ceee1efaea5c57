package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

var _ domain.HabitLogRepository = (*PostgresLogRepository)(nil)

type PostgresLogRepository struct {
	db *sqlx.DB
}

func NewPostgresLogRepository(db *sqlx.DB) *PostgresLogRepository {
	return &PostgresLogRepository{db: db}
}

const logColumns = `id, habit_id, user_id, log_date, status, version, created_at, updated_at, deleted_at`

// Upsert relies on the unique (habit_id, log_date) index. The index spans
// soft-deleted rows, so re-marking a deleted day revives it.
func (r *PostgresLogRepository) Upsert(ctx context.Context, l *domain.HabitLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}

	query := `
		INSERT INTO habit_logs (
			id, habit_id, user_id, log_date, status,
			version, created_at, updated_at, deleted_at
		) VALUES (
			$1, $2, $3, $4, $5,
			1, $6, $7, NULL
		)
		ON CONFLICT (habit_id, log_date) DO UPDATE
		SET status = EXCLUDED.status,
		    updated_at = EXCLUDED.updated_at,
		    deleted_at = NULL,
		    version = habit_logs.version + 1
		RETURNING id, version, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		l.ID, l.HabitID, l.UserID, l.Date, l.Status,
		l.CreatedAt, l.UpdatedAt,
	)

	if err := row.Scan(&l.ID, &l.Version, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return fmt.Errorf("upsert habit log: %w", mapPgError(err, nil))
	}
	l.DeletedAt = nil
	return nil
}

func (r *PostgresLogRepository) GetByID(ctx context.Context, id string) (*domain.HabitLog, error) {
	var l domain.HabitLog
	query := `SELECT ` + logColumns + ` FROM habit_logs WHERE id = $1 AND deleted_at IS NULL`

	if err := r.db.GetContext(ctx, &l, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLogNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *PostgresLogRepository) Delete(ctx context.Context, id string, userID string) error {
	now := time.Now().UTC()

	query := `
		UPDATE habit_logs
		SET deleted_at = $1,
		    updated_at = $1,
		    version = version + 1
		WHERE id = $2
		  AND user_id = $3
		  AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, now, id, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrLogNotFound
	}

	return nil
}

func (r *PostgresLogRepository) ListByHabitID(ctx context.Context, habitID string, from, to streak.Date) ([]*domain.HabitLog, error) {
	logs := []*domain.HabitLog{}

	query := `
		SELECT ` + logColumns + ` FROM habit_logs
		WHERE habit_id = $1
		  AND log_date >= $2
		  AND log_date <= $3
		  AND deleted_at IS NULL
		ORDER BY log_date DESC`

	if err := r.db.SelectContext(ctx, &logs, query, habitID, from, to); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *PostgresLogRepository) ListAllByHabitID(ctx context.Context, habitID string) ([]*domain.HabitLog, error) {
	logs := []*domain.HabitLog{}

	query := `
		SELECT ` + logColumns + ` FROM habit_logs
		WHERE habit_id = $1 AND deleted_at IS NULL
		ORDER BY log_date ASC`

	if err := r.db.SelectContext(ctx, &logs, query, habitID); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *PostgresLogRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.HabitLog, error) {
	logs := []*domain.HabitLog{}

	query := `
		SELECT ` + logColumns + ` FROM habit_logs
		WHERE user_id = $1
		  AND updated_at > $2
		ORDER BY updated_at ASC`

	if err := r.db.SelectContext(ctx, &logs, query, userID, since); err != nil {
		return nil, err
	}
	return logs, nil
}
