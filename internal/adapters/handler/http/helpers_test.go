package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-habit-stats/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/services"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

// Noon UTC on 2024-03-11, the same calendar day in Moscow.
var testNow = time.Date(2024, time.March, 11, 12, 0, 0, 0, time.UTC)

type noopQueue struct{}

func (noopQueue) Enqueue(string) {}

type testEnv struct {
	router *gin.Engine
	users  *repository.InMemoryUserRepository
	habits *repository.InMemoryHabitRepository
	logs   *repository.InMemoryLogRepository
}

// newTestEnv wires the handlers over in-memory storage. The X-User-ID
// header stands in for the JWT middleware.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		users:  repository.NewInMemoryUserRepository(),
		habits: repository.NewInMemoryHabitRepository(),
		logs:   repository.NewInMemoryLogRepository(),
	}
	clock := func() time.Time { return testNow }

	habitSvc := services.NewHabitService(env.habits, cache.NoopStatsCache{}, noopQueue{})
	logSvc := services.NewLogService(env.logs, env.habits, env.users, cache.NoopStatsCache{}, noopQueue{}).WithClock(clock)
	statsSvc := services.NewStatsService(env.habits, env.logs, env.users, cache.NoopStatsCache{}).WithClock(clock)
	userSvc := services.NewUserService(env.users, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			c.Set(middleware.ContextUserIDKey, userID)
		}
		c.Next()
	})

	api := r.Group("/api/v1")
	adapterHTTP.NewHabitHandler(habitSvc).RegisterRoutes(api)
	adapterHTTP.NewLogHandler(logSvc).RegisterRoutes(api)
	adapterHTTP.NewStatsHandler(statsSvc).RegisterRoutes(api)
	adapterHTTP.NewSettingsHandler(userSvc).RegisterRoutes(api)

	env.router = r
	return env
}

func (e *testEnv) addUser(t *testing.T) *domain.User {
	t.Helper()
	u, err := domain.NewUser(uuid.NewString(), uuid.NewString()[:8]+"@kanso.app")
	require.NoError(t, err)
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) addHabit(t *testing.T, userID, title string, schedule streak.Schedule) *domain.Habit {
	t.Helper()
	h, err := domain.NewHabit(userID, title, schedule)
	require.NoError(t, err)
	require.NoError(t, e.habits.Create(context.Background(), h))
	return h
}

func (e *testEnv) mark(t *testing.T, h *domain.Habit, d streak.Date, s streak.Status) *domain.HabitLog {
	t.Helper()
	l := domain.NewHabitLog(h.ID, h.UserID, d, s)
	require.NoError(t, e.logs.Upsert(context.Background(), l))
	return l
}

func (e *testEnv) do(method, path, userID string, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	switch p := payload.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(p)
	default:
		raw, _ := json.Marshal(p)
		body = bytes.NewBuffer(raw)
	}

	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
