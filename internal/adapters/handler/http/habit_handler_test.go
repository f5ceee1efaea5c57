package http_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

func TestCreateHabit(t *testing.T) {
	t.Run("Success: 201 Created, daily by default", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.addUser(t)

		w := env.do(http.MethodPost, "/api/v1/habits", user.ID, `{"title": "Gym"}`)

		require.Equal(t, http.StatusCreated, w.Code)
		habit := decode[domain.Habit](t, w)
		assert.Equal(t, "Gym", habit.Title)
		assert.Equal(t, streak.ScheduleDaily, habit.ScheduleKind)
		assert.Equal(t, domain.DaysPerWeek, habit.WeeklyTarget)
		assert.True(t, habit.IsActive)
		assert.NotEmpty(t, habit.ID)
	})

	t.Run("Success: weekly with target", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.addUser(t)

		w := env.do(http.MethodPost, "/api/v1/habits", user.ID, map[string]any{
			"title": "Swim", "schedule": "weekly", "weekly_target": 3,
		})

		require.Equal(t, http.StatusCreated, w.Code)
		habit := decode[domain.Habit](t, w)
		assert.Equal(t, streak.ScheduleWeekly, habit.ScheduleKind)
		assert.Equal(t, 3, habit.WeeklyTarget)
	})

	t.Run("Fail: 401 Unauthorized (Missing Header)", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodPost, "/api/v1/habits", "", `{"title": "Gym"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Fail: 400 Bad Request (validation)", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.addUser(t)

		cases := []string{
			`{"title": ""}`,
			`{"title": "   "}`,
			`{"title": "Swim", "schedule": "monthly"}`,
			`{"title": "Swim", "schedule": "weekly", "weekly_target": 8}`,
			`{"title": "Swim", "schedule": "weekly"}`,
			`not json`,
		}
		for _, body := range cases {
			w := env.do(http.MethodPost, "/api/v1/habits", user.ID, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
		}
	})
}

func TestListAndGetHabits(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t)
	other := env.addUser(t)

	gym := env.addHabit(t, user.ID, "Gym", streak.Daily())
	paused := env.addHabit(t, user.ID, "Paused", streak.Weekly(2))
	paused.Pause()
	require.NoError(t, env.habits.Update(context.Background(), paused))
	env.addHabit(t, other.ID, "Not mine", streak.Daily())

	t.Run("Success: lists own habits", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/habits", user.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]domain.Habit](t, w), 2)
	})

	t.Run("Success: active filter", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/habits?active=true", user.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[[]domain.Habit](t, w)
		require.Len(t, list, 1)
		assert.Equal(t, gym.ID, list[0].ID)
	})

	t.Run("Success: get one", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/habits/"+gym.ID, user.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, gym.ID, decode[domain.Habit](t, w).ID)
	})

	t.Run("Fail: another user's habit looks missing", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/habits/"+gym.ID, other.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUpdateHabit(t *testing.T) {
	t.Run("Success: rename and reschedule", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.addUser(t)
		h := env.addHabit(t, user.ID, "Gym", streak.Daily())

		w := env.do(http.MethodPut, "/api/v1/habits/"+h.ID, user.ID, map[string]any{
			"title": "Gym x3", "schedule": "weekly", "weekly_target": 3, "version": 1,
		})

		require.Equal(t, http.StatusOK, w.Code)
		updated := decode[domain.Habit](t, w)
		assert.Equal(t, "Gym x3", updated.Title)
		assert.Equal(t, 3, updated.WeeklyTarget)
		assert.Equal(t, 2, updated.Version)
	})

	t.Run("Fail: 409 on stale version", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.addUser(t)
		h := env.addHabit(t, user.ID, "Gym", streak.Daily())

		require.Equal(t, http.StatusOK, env.do(http.MethodPut, "/api/v1/habits/"+h.ID, user.ID, map[string]any{"title": "A", "version": 1}).Code)

		w := env.do(http.MethodPut, "/api/v1/habits/"+h.ID, user.ID, map[string]any{"title": "B", "version": 1})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "version conflict")
	})

	t.Run("Fail: 404 unknown habit", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.addUser(t)

		w := env.do(http.MethodPut, "/api/v1/habits/nope", user.ID, map[string]any{"title": "A"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPauseResumeHabit(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t)
	h := env.addHabit(t, user.ID, "Gym", streak.Daily())

	w := env.do(http.MethodPost, "/api/v1/habits/"+h.ID+"/pause", user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[domain.Habit](t, w).IsActive)

	w = env.do(http.MethodPost, "/api/v1/habits/"+h.ID+"/resume", user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[domain.Habit](t, w).IsActive)
}

func TestDeleteAndSyncHabits(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t)
	h := env.addHabit(t, user.ID, "Gym", streak.Daily())
	since := time.Now().UTC().Add(-time.Minute).Format(time.RFC3339)

	w := env.do(http.MethodDelete, "/api/v1/habits/"+h.ID, user.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodDelete, "/api/v1/habits/"+h.ID, user.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/v1/habits/sync?last_sync="+since, user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Changes []domain.Habit `json:"changes"`
	}](t, w)
	require.Len(t, resp.Changes, 1)
	assert.NotNil(t, resp.Changes[0].DeletedAt)

	w = env.do(http.MethodGet, "/api/v1/habits/sync?last_sync=yesterday", user.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
