package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
)

var _ domain.UserRepository = (*PostgresUserRepository)(nil)

type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{
		db: db,
	}
}

const userColumns = `
	id, email, password_hash, timezone, reminder_time, reminders_enabled,
	telegram_chat_id, created_at, updated_at`

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
		INSERT INTO users (
			id, email, password_hash, timezone, reminder_time, reminders_enabled,
			telegram_chat_id, created_at, updated_at
		) VALUES (
			:id, :email, :password_hash, :timezone, :reminder_time, :reminders_enabled,
			:telegram_chat_id, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		mapped := mapPgError(err, domain.ErrEmailAlreadyExists)
		if errors.Is(mapped, domain.ErrEmailAlreadyExists) {
			return mapped
		}
		return fmt.Errorf("repository: create user failed: %w", mapped)
	}

	return nil
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("repository: get user failed: %w", err)
	}

	return &user, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
		UPDATE users SET
			timezone = :timezone,
			reminder_time = :reminder_time,
			reminders_enabled = :reminders_enabled,
			telegram_chat_id = :telegram_chat_id,
			password_hash = :password_hash,
			updated_at = :updated_at
		WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("repository: update user failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) ListWithReminders(ctx context.Context) ([]*domain.User, error) {
	users := []*domain.User{}
	query := `
		SELECT ` + userColumns + ` FROM users
		WHERE reminders_enabled AND reminder_time IS NOT NULL
		ORDER BY created_at`

	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("repository: list reminder users failed: %w", err)
	}
	return users, nil
}
