package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/services"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

type statsFixture struct {
	habits *repository.InMemoryHabitRepository
	logs   *repository.InMemoryLogRepository
	users  *repository.InMemoryUserRepository
	today  streak.Date
}

func newStatsFixture(t *testing.T) *statsFixture {
	t.Helper()

	f := &statsFixture{
		habits: repository.NewInMemoryHabitRepository(),
		logs:   repository.NewInMemoryLogRepository(),
		users:  repository.NewInMemoryUserRepository(),
		today:  streak.NewDate(2024, time.January, 15),
	}

	user, err := domain.NewUser("user-1", "stats@kanso.app")
	require.NoError(t, err)
	require.NoError(t, f.users.Create(context.Background(), user))
	return f
}

func (f *statsFixture) habit(t *testing.T, title string, schedule streak.Schedule) *domain.Habit {
	t.Helper()
	h, err := domain.NewHabit("user-1", title, schedule)
	require.NoError(t, err)
	require.NoError(t, f.habits.Create(context.Background(), h))
	return h
}

func (f *statsFixture) mark(t *testing.T, h *domain.Habit, daysAgo int, status streak.Status) {
	t.Helper()
	l := domain.NewHabitLog(h.ID, h.UserID, f.today.AddDays(-daysAgo), status)
	require.NoError(t, f.logs.Upsert(context.Background(), l))
}

func TestStatsService_GetHabitStats(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Computes on a cache miss and stores the result", func(t *testing.T) {
		f := newStatsFixture(t)
		h := f.habit(t, "Read", streak.Daily())
		f.mark(t, h, 0, streak.StatusDone)
		f.mark(t, h, 1, streak.StatusSkipped)
		f.mark(t, h, 2, streak.StatusDone)
		f.mark(t, h, 4, streak.StatusDone)

		cache := new(MockStatsCache)
		cache.On("Get", mock.Anything, h.ID, f.today).Return(streak.Stats{}, false)
		want := streak.Stats{CurrentStreak: 2, BestStreak: 2, Done7: 3, Done30: 3, TotalDone: 3}
		cache.On("Set", mock.Anything, h.ID, f.today, want).Return()

		svc := services.NewStatsService(f.habits, f.logs, f.users, cache).WithClock(fixedClock(f.today))

		view, err := svc.GetHabitStats(ctx, h.ID, "user-1")

		require.NoError(t, err)
		assert.Equal(t, want, view.Stats)
		assert.Equal(t, f.today, view.AsOf)
		assert.Equal(t, "Read", view.Title)
		cache.AssertExpectations(t)
	})

	t.Run("Success: Cache hit skips the log snapshot", func(t *testing.T) {
		f := newStatsFixture(t)
		h := f.habit(t, "Read", streak.Daily())

		cached := streak.Stats{CurrentStreak: 9, BestStreak: 9, Done7: 7, Done30: 9, TotalDone: 9}
		cache := new(MockStatsCache)
		cache.On("Get", mock.Anything, h.ID, f.today).Return(cached, true)

		svc := services.NewStatsService(f.habits, f.logs, f.users, cache).WithClock(fixedClock(f.today))

		view, err := svc.GetHabitStats(ctx, h.ID, "user-1")

		require.NoError(t, err)
		assert.Equal(t, cached, view.Stats)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Success: Weekly habit", func(t *testing.T) {
		f := newStatsFixture(t)
		h := f.habit(t, "Gym", streak.Weekly(2))
		// 2024-01-15 is a Monday: two done in each of the two previous weeks.
		for _, daysAgo := range []int{1, 3, 8, 10} {
			f.mark(t, h, daysAgo, streak.StatusDone)
		}

		svc := services.NewStatsService(f.habits, f.logs, f.users, noopCache{}).WithClock(fixedClock(f.today))

		view, err := svc.GetHabitStats(ctx, h.ID, "user-1")

		require.NoError(t, err)
		assert.Equal(t, 0, view.CurrentStreak, "the current week has no marks yet")
		assert.Equal(t, 2, view.BestStreak)
		assert.Equal(t, 4, view.TotalDone)
	})

	t.Run("Fail: Other user's habit", func(t *testing.T) {
		f := newStatsFixture(t)
		h := f.habit(t, "Private", streak.Daily())
		intruder, _ := domain.NewUser("user-2", "intruder@kanso.app")
		require.NoError(t, f.users.Create(ctx, intruder))

		svc := services.NewStatsService(f.habits, f.logs, f.users, noopCache{})

		_, err := svc.GetHabitStats(ctx, h.ID, "user-2")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestStatsService_GetUserStats(t *testing.T) {
	ctx := context.Background()
	f := newStatsFixture(t)

	read := f.habit(t, "Read", streak.Daily())
	gym := f.habit(t, "Gym", streak.Weekly(3))
	f.mark(t, read, 0, streak.StatusDone)
	f.mark(t, read, 1, streak.StatusDone)
	f.mark(t, gym, 2, streak.StatusDone)

	gym.Pause()
	require.NoError(t, f.habits.Update(ctx, gym))

	svc := services.NewStatsService(f.habits, f.logs, f.users, noopCache{}).WithClock(fixedClock(f.today))

	stats, err := svc.GetUserStats(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, f.today, stats.AsOf)
	assert.Equal(t, 2, stats.TotalHabits)
	assert.Equal(t, 1, stats.ActiveCount)
	assert.Equal(t, 3, stats.TotalDone)
	require.Len(t, stats.Habits, 2)

	byID := map[string]domain.HabitStatsView{}
	for _, v := range stats.Habits {
		byID[v.HabitID] = v
	}
	assert.Equal(t, 2, byID[read.ID].CurrentStreak)
	assert.False(t, byID[gym.ID].IsActive)
	assert.Equal(t, 1, byID[gym.ID].TotalDone)

	_, err = svc.GetUserStats(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, streak.Date) (streak.Stats, bool) {
	return streak.Stats{}, false
}
func (noopCache) Set(context.Context, string, streak.Date, streak.Stats) {}
func (noopCache) Invalidate(context.Context, string)                    {}
