package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func setupTestDB(t *testing.T) *sqlx.DB {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DB_USER", "kanso_user"),
		getEnv("DB_PASSWORD", "secret"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "kanso_db"),
	)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		t.Skipf("Skipping integration tests: database connection failed: %v", err)
	}

	require.NoError(t, Migrate(context.Background(), db), "migrations must apply cleanly")
	return db
}

func cleanup(t *testing.T, db *sqlx.DB) {
	_, err := db.Exec("TRUNCATE TABLE habit_logs, habits, users CASCADE")
	require.NoError(t, err, "Failed to clean up database")
}

func createUserFixture(t *testing.T, db *sqlx.DB) string {
	userID := uuid.NewString()
	_, err := db.Exec(`INSERT INTO users (id, email, password_hash) VALUES ($1, $2, 'hash')`,
		userID, fmt.Sprintf("fixture_%s@kanso.app", userID))
	require.NoError(t, err, "Failed to create user fixture")
	return userID
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	require.NoError(t, Migrate(context.Background(), db))

	var version int
	require.NoError(t, db.Get(&version, "SELECT MAX(version) FROM schema_migrations"))
	assert.Equal(t, len(migrations), version)
}

func TestPostgresHabitRepository_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cleanup(t, db)
	defer cleanup(t, db)

	repo := NewPostgresHabitRepository(db)
	ctx := context.Background()
	userID := createUserFixture(t, db)

	newHabit, err := domain.NewHabit(userID, "Read 20 pages", streak.Weekly(3))
	require.NoError(t, err)
	habitID := newHabit.ID

	t.Run("Create Habit", func(t *testing.T) {
		err := repo.Create(ctx, newHabit)
		assert.NoError(t, err)
	})

	t.Run("Get By ID", func(t *testing.T) {
		fetched, err := repo.GetByID(ctx, habitID)
		require.NoError(t, err)
		assert.Equal(t, newHabit.ID, fetched.ID)
		assert.Equal(t, streak.ScheduleWeekly, fetched.ScheduleKind)
		assert.Equal(t, 3, fetched.WeeklyTarget)
		assert.True(t, fetched.IsActive)
		assert.Equal(t, 1, fetched.Version, "Version starts at 1")
		assert.Nil(t, fetched.DeletedAt)
	})

	t.Run("Update Habit", func(t *testing.T) {
		oldUpdatedAt := newHabit.UpdatedAt
		require.NoError(t, newHabit.Rename("Read 30 pages"))

		time.Sleep(100 * time.Millisecond)

		require.NoError(t, repo.Update(ctx, newHabit))
		assert.Equal(t, 2, newHabit.Version)

		updated, err := repo.GetByID(ctx, habitID)
		require.NoError(t, err)
		assert.Equal(t, "Read 30 pages", updated.Title)
		assert.True(t, updated.UpdatedAt.After(oldUpdatedAt))
		assert.Equal(t, 2, updated.Version)
	})

	t.Run("Update Streaks keeps version", func(t *testing.T) {
		require.NoError(t, repo.UpdateStreaks(ctx, habitID, 4, 9))

		fetched, err := repo.GetByID(ctx, habitID)
		require.NoError(t, err)
		assert.Equal(t, 4, fetched.CurrentStreak)
		assert.Equal(t, 9, fetched.BestStreak)
		assert.Equal(t, 2, fetched.Version)
	})

	t.Run("List By UserID", func(t *testing.T) {
		list, err := repo.ListByUserID(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, habitID, list[0].ID)
	})

	t.Run("Delete Habit (Soft Delete Check)", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, habitID))

		_, err := repo.GetByID(ctx, habitID)
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)

		var count int
		err = db.QueryRow("SELECT count(*) FROM habits WHERE id=$1 AND deleted_at IS NOT NULL", habitID).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "Row must still exist physically")
	})

	t.Run("Update/Delete Non-Existent ID", func(t *testing.T) {
		ghost, err := domain.NewHabit(userID, "Ghost", streak.Daily())
		require.NoError(t, err)

		assert.ErrorIs(t, repo.Update(ctx, ghost), domain.ErrHabitNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, ghost.ID), domain.ErrHabitNotFound)
		assert.ErrorIs(t, repo.UpdateStreaks(ctx, ghost.ID, 1, 1), domain.ErrHabitNotFound)
	})

	t.Run("Constraint Violation: weekly target out of range", func(t *testing.T) {
		bad, err := domain.NewHabit(userID, "Bad target", streak.Weekly(2))
		require.NoError(t, err)
		bad.WeeklyTarget = 9

		assert.Error(t, repo.Create(ctx, bad))
	})

	t.Run("Missing owner maps to ErrMissingRef", func(t *testing.T) {
		orphan, err := domain.NewHabit(uuid.NewString(), "Orphan", streak.Daily())
		require.NoError(t, err)

		assert.ErrorIs(t, repo.Create(ctx, orphan), domain.ErrMissingRef)
	})

	t.Run("Optimistic Locking: Prevent Overwrite", func(t *testing.T) {
		h, err := domain.NewHabit(userID, "Conflict Base", streak.Daily())
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, h))

		deviceA, err := repo.GetByID(ctx, h.ID)
		require.NoError(t, err)
		deviceB, err := repo.GetByID(ctx, h.ID)
		require.NoError(t, err)

		deviceB.Title = "B wins"
		require.NoError(t, repo.Update(ctx, deviceB))

		deviceA.Title = "A loses"
		assert.ErrorIs(t, repo.Update(ctx, deviceA), domain.ErrHabitConflict)
	})

	t.Run("GetChanges (Delta Sync)", func(t *testing.T) {
		syncUser := createUserFixture(t, db)

		h1, _ := domain.NewHabit(syncUser, "H1", streak.Daily())
		h2, _ := domain.NewHabit(syncUser, "H2", streak.Daily())
		h3, _ := domain.NewHabit(syncUser, "H3", streak.Daily())
		require.NoError(t, repo.Create(ctx, h1))
		require.NoError(t, repo.Create(ctx, h2))
		require.NoError(t, repo.Create(ctx, h3))

		time.Sleep(50 * time.Millisecond)

		var lastSync time.Time
		require.NoError(t, db.QueryRow("SELECT NOW()").Scan(&lastSync))

		time.Sleep(50 * time.Millisecond)

		h1.Title = "H1 Changed"
		require.NoError(t, repo.Update(ctx, h1))
		require.NoError(t, repo.Delete(ctx, h2.ID))

		changes, err := repo.GetChanges(ctx, syncUser, lastSync)
		require.NoError(t, err)
		require.Len(t, changes, 2)

		ids := []string{changes[0].ID, changes[1].ID}
		assert.ElementsMatch(t, []string{h1.ID, h2.ID}, ids)
	})
}
