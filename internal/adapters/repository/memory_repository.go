package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

// The in-memory repositories back STORAGE_DRIVER=memory. They hand out
// copies so callers never share state with the store.

var (
	_ domain.HabitRepository    = (*InMemoryHabitRepository)(nil)
	_ domain.HabitLogRepository = (*InMemoryLogRepository)(nil)
	_ domain.UserRepository     = (*InMemoryUserRepository)(nil)
)

type InMemoryHabitRepository struct {
	store map[string]*domain.Habit
	mu    sync.RWMutex
}

func NewInMemoryHabitRepository() *InMemoryHabitRepository {
	return &InMemoryHabitRepository{
		store: make(map[string]*domain.Habit),
	}
}

func (r *InMemoryHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[habit.ID]; exists {
		return domain.ErrHabitConflict
	}
	habit.Version = 1
	stored := *habit
	r.store[habit.ID] = &stored
	return nil
}

func (r *InMemoryHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habit, ok := r.store[id]
	if !ok || habit.DeletedAt != nil {
		return nil, domain.ErrHabitNotFound
	}
	copied := *habit
	return &copied, nil
}

func (r *InMemoryHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habits := []*domain.Habit{}
	for _, h := range r.store {
		if h.UserID == userID && h.DeletedAt == nil {
			copied := *h
			habits = append(habits, &copied)
		}
	}

	slices.SortFunc(habits, func(a, b *domain.Habit) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return habits, nil
}

func (r *InMemoryHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store[habit.ID]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}
	if stored.Version != habit.Version {
		return domain.ErrHabitConflict
	}

	habit.Version++
	habit.UpdatedAt = time.Now().UTC()
	updated := *habit
	updated.CurrentStreak, updated.BestStreak = stored.CurrentStreak, stored.BestStreak
	r.store[habit.ID] = &updated
	return nil
}

func (r *InMemoryHabitRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store[id]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}
	now := time.Now().UTC()
	stored.DeletedAt = &now
	stored.UpdatedAt = now
	stored.Version++
	return nil
}

func (r *InMemoryHabitRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	changes := []*domain.Habit{}
	for _, h := range r.store {
		if h.UserID == userID && h.UpdatedAt.After(since) {
			copied := *h
			changes = append(changes, &copied)
		}
	}
	slices.SortFunc(changes, func(a, b *domain.Habit) int {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	})
	return changes, nil
}

func (r *InMemoryHabitRepository) UpdateStreaks(ctx context.Context, id string, current, best int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store[id]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}
	stored.UpdateStreak(current, best)
	return nil
}

type logKey struct {
	habitID string
	date    streak.Date
}

type InMemoryLogRepository struct {
	store  map[string]*domain.HabitLog
	byDate map[logKey]string
	mu     sync.RWMutex
}

func NewInMemoryLogRepository() *InMemoryLogRepository {
	return &InMemoryLogRepository{
		store:  make(map[string]*domain.HabitLog),
		byDate: make(map[logKey]string),
	}
}

func (r *InMemoryLogRepository) Upsert(ctx context.Context, l *domain.HabitLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	key := logKey{habitID: l.HabitID, date: l.Date}

	if id, ok := r.byDate[key]; ok {
		stored := r.store[id]
		stored.Status = l.Status
		stored.DeletedAt = nil
		stored.UpdatedAt = now
		stored.Version++
		*l = *stored
		return nil
	}

	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.Version = 1
	l.UpdatedAt = now
	l.DeletedAt = nil
	stored := *l
	r.store[l.ID] = &stored
	r.byDate[key] = l.ID
	return nil
}

func (r *InMemoryLogRepository) GetByID(ctx context.Context, id string) (*domain.HabitLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.store[id]
	if !ok || l.DeletedAt != nil {
		return nil, domain.ErrLogNotFound
	}
	copied := *l
	return &copied, nil
}

func (r *InMemoryLogRepository) Delete(ctx context.Context, id string, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.store[id]
	if !ok || l.DeletedAt != nil || l.UserID != userID {
		return domain.ErrLogNotFound
	}
	now := time.Now().UTC()
	l.DeletedAt = &now
	l.UpdatedAt = now
	l.Version++
	return nil
}

func (r *InMemoryLogRepository) ListByHabitID(ctx context.Context, habitID string, from, to streak.Date) ([]*domain.HabitLog, error) {
	logs := r.collect(func(l *domain.HabitLog) bool {
		return l.HabitID == habitID && l.DeletedAt == nil &&
			!l.Date.Before(from) && !l.Date.After(to)
	})
	slices.SortFunc(logs, func(a, b *domain.HabitLog) int {
		return b.Date.Compare(a.Date)
	})
	return logs, nil
}

func (r *InMemoryLogRepository) ListAllByHabitID(ctx context.Context, habitID string) ([]*domain.HabitLog, error) {
	logs := r.collect(func(l *domain.HabitLog) bool {
		return l.HabitID == habitID && l.DeletedAt == nil
	})
	slices.SortFunc(logs, func(a, b *domain.HabitLog) int {
		return a.Date.Compare(b.Date)
	})
	return logs, nil
}

func (r *InMemoryLogRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.HabitLog, error) {
	logs := r.collect(func(l *domain.HabitLog) bool {
		return l.UserID == userID && l.UpdatedAt.After(since)
	})
	slices.SortFunc(logs, func(a, b *domain.HabitLog) int {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	})
	return logs, nil
}

func (r *InMemoryLogRepository) collect(keep func(*domain.HabitLog) bool) []*domain.HabitLog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	logs := []*domain.HabitLog{}
	for _, l := range r.store {
		if keep(l) {
			copied := *l
			logs = append(logs, &copied)
		}
	}
	return logs
}

type InMemoryUserRepository struct {
	store   map[string]*domain.User
	byEmail map[string]string
	mu      sync.RWMutex
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		store:   make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return domain.ErrEmailAlreadyExists
	}
	stored := *user
	r.store[user.ID] = &stored
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.store[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()

	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *InMemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	stored := *user
	r.store[user.ID] = &stored
	return nil
}

func (r *InMemoryUserRepository) ListWithReminders(ctx context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := []*domain.User{}
	for _, u := range r.store {
		if u.WantsReminder() {
			copied := *u
			users = append(users, &copied)
		}
	}
	slices.SortFunc(users, func(a, b *domain.User) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return users, nil
}
