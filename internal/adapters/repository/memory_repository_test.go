package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

func TestInMemoryHabitRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryHabitRepository()
	userID := uuid.NewString()

	habit, err := domain.NewHabit(userID, "Stretch", streak.Daily())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, habit))

	t.Run("Success: reads return copies", func(t *testing.T) {
		fetched, err := repo.GetByID(ctx, habit.ID)
		require.NoError(t, err)
		fetched.Title = "mutated"

		again, err := repo.GetByID(ctx, habit.ID)
		require.NoError(t, err)
		assert.Equal(t, "Stretch", again.Title)
	})

	t.Run("Error: duplicate id", func(t *testing.T) {
		dup := *habit
		assert.ErrorIs(t, repo.Create(ctx, &dup), domain.ErrHabitConflict)
	})

	t.Run("Success: update bumps version, stale copy conflicts", func(t *testing.T) {
		a, _ := repo.GetByID(ctx, habit.ID)
		b, _ := repo.GetByID(ctx, habit.ID)

		require.NoError(t, a.Rename("Stretch longer"))
		require.NoError(t, repo.Update(ctx, a))
		assert.Equal(t, 2, a.Version)

		b.Pause()
		assert.ErrorIs(t, repo.Update(ctx, b), domain.ErrHabitConflict)
	})

	t.Run("Success: streak update keeps version", func(t *testing.T) {
		require.NoError(t, repo.UpdateStreaks(ctx, habit.ID, 3, 8))

		fetched, err := repo.GetByID(ctx, habit.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, fetched.CurrentStreak)
		assert.Equal(t, 8, fetched.BestStreak)
		assert.Equal(t, 2, fetched.Version)

		// A client edit must not roll the streaks back.
		require.NoError(t, fetched.Rename("Stretch daily"))
		require.NoError(t, repo.Update(ctx, fetched))
		again, _ := repo.GetByID(ctx, habit.ID)
		assert.Equal(t, 8, again.BestStreak)
	})

	t.Run("Success: list is scoped to the owner", func(t *testing.T) {
		other, _ := domain.NewHabit(uuid.NewString(), "Other", streak.Daily())
		require.NoError(t, repo.Create(ctx, other))

		list, err := repo.ListByUserID(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, habit.ID, list[0].ID)
	})

	t.Run("Success: soft delete hides the habit but shows in changes", func(t *testing.T) {
		since := time.Now().UTC().Add(-time.Second)
		require.NoError(t, repo.Delete(ctx, habit.ID))

		_, err := repo.GetByID(ctx, habit.ID)
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, habit.ID), domain.ErrHabitNotFound)

		changes, err := repo.GetChanges(ctx, userID, since)
		require.NoError(t, err)
		require.Len(t, changes, 1)
		assert.NotNil(t, changes[0].DeletedAt)
	})
}

func TestInMemoryLogRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryLogRepository()
	habitID, userID := uuid.NewString(), uuid.NewString()
	day := streak.NewDate(2024, time.February, 28)

	first := domain.NewHabitLog(habitID, userID, day, streak.StatusDone)
	require.NoError(t, repo.Upsert(ctx, first))
	require.NotEmpty(t, first.ID)

	t.Run("Success: upsert keeps one row per day", func(t *testing.T) {
		second := domain.NewHabitLog(habitID, userID, day, streak.StatusNotDone)
		require.NoError(t, repo.Upsert(ctx, second))

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 2, second.Version)

		all, err := repo.ListAllByHabitID(ctx, habitID)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, streak.StatusNotDone, all[0].Status)
	})

	t.Run("Success: delete then upsert revives", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, first.ID, uuid.NewString()), domain.ErrLogNotFound)
		require.NoError(t, repo.Delete(ctx, first.ID, userID))

		_, err := repo.GetByID(ctx, first.ID)
		require.ErrorIs(t, err, domain.ErrLogNotFound)

		revived := domain.NewHabitLog(habitID, userID, day, streak.StatusDone)
		require.NoError(t, repo.Upsert(ctx, revived))
		assert.Equal(t, first.ID, revived.ID)
		assert.Nil(t, revived.DeletedAt)
		assert.Equal(t, 4, revived.Version)
	})

	t.Run("Success: range listing is newest first", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			require.NoError(t, repo.Upsert(ctx, domain.NewHabitLog(habitID, userID, day.AddDays(i), streak.StatusDone)))
		}

		logs, err := repo.ListByHabitID(ctx, habitID, day.AddDays(1), day.AddDays(2))
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, streak.NewDate(2024, time.March, 1), logs[0].Date)
		assert.Equal(t, streak.NewDate(2024, time.February, 29), logs[1].Date)
	})

	t.Run("Success: changes are per user", func(t *testing.T) {
		changes, err := repo.GetChanges(ctx, userID, time.Time{})
		require.NoError(t, err)
		assert.Len(t, changes, 4)

		none, err := repo.GetChanges(ctx, uuid.NewString(), time.Time{})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Concurrent marks of the same day stay unique", func(t *testing.T) {
		target := day.AddDays(10)
		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = repo.Upsert(ctx, domain.NewHabitLog(habitID, userID, target, streak.StatusDone))
			}()
		}
		wg.Wait()

		logs, err := repo.ListByHabitID(ctx, habitID, target, target)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, 20, logs[0].Version)
	})
}

func TestInMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryUserRepository()

	user, err := domain.NewUser(uuid.NewString(), "anna@example.com")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, user))

	t.Run("Error: email taken", func(t *testing.T) {
		dup, _ := domain.NewUser(uuid.NewString(), "anna@example.com")
		assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrEmailAlreadyExists)
	})

	t.Run("Success: lookup by email and id", func(t *testing.T) {
		byEmail, err := repo.GetByEmail(ctx, "anna@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		_, err = repo.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		_, err = repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("Success: reminder users", func(t *testing.T) {
		users, err := repo.ListWithReminders(ctx)
		require.NoError(t, err)
		assert.Empty(t, users)

		at := "08:15"
		require.NoError(t, user.UpdateSettings(domain.UserSettings{ReminderTime: &at, RemindersEnabled: true}))
		require.NoError(t, repo.Update(ctx, user))

		users, err = repo.ListWithReminders(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, user.ID, users[0].ID)
	})

	t.Run("Error: update unknown", func(t *testing.T) {
		ghost, _ := domain.NewUser(uuid.NewString(), "ghost@example.com")
		assert.ErrorIs(t, repo.Update(ctx, ghost), domain.ErrUserNotFound)
	})
}
