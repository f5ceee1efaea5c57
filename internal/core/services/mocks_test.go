package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) ListWithReminders(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateToken(userID string) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

// recordingQueue remembers enqueued habit ids instead of running a worker.
type recordingQueue struct {
	mu  sync.Mutex
	ids []string
}

func (q *recordingQueue) Enqueue(habitID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, habitID)
}

func (q *recordingQueue) Enqueued() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.ids...)
}

type MockStatsCache struct {
	mock.Mock
}

func (m *MockStatsCache) Get(ctx context.Context, habitID string, today streak.Date) (streak.Stats, bool) {
	args := m.Called(ctx, habitID, today)
	return args.Get(0).(streak.Stats), args.Bool(1)
}

func (m *MockStatsCache) Set(ctx context.Context, habitID string, today streak.Date, stats streak.Stats) {
	m.Called(ctx, habitID, today, stats)
}

func (m *MockStatsCache) Invalidate(ctx context.Context, habitID string) {
	m.Called(ctx, habitID)
}

// dayCache keeps one value per habit and only hands it back for the day it
// was computed on, like the Redis stats cache.
type dayCache struct {
	mu      sync.Mutex
	entries map[string]dayCacheEntry
}

type dayCacheEntry struct {
	asOf  streak.Date
	stats streak.Stats
}

func newDayCache() *dayCache {
	return &dayCache{entries: make(map[string]dayCacheEntry)}
}

func (c *dayCache) Get(_ context.Context, habitID string, today streak.Date) (streak.Stats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[habitID]
	if !ok || e.asOf != today {
		return streak.Stats{}, false
	}
	return e.stats, true
}

func (c *dayCache) Set(_ context.Context, habitID string, today streak.Date, stats streak.Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[habitID] = dayCacheEntry{asOf: today, stats: stats}
}

func (c *dayCache) Invalidate(_ context.Context, habitID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, habitID)
}

func (c *dayCache) Has(habitID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[habitID]
	return ok
}

type MockReminderScheduler struct {
	mock.Mock
}

func (m *MockReminderScheduler) Schedule(user *domain.User) error {
	return m.Called(user).Error(0)
}

func (m *MockReminderScheduler) Unschedule(userID string) {
	m.Called(userID)
}

// fixedClock returns an instant that is date d at noon UTC.
func fixedClock(d streak.Date) func() time.Time {
	return func() time.Time {
		return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC)
	}
}
