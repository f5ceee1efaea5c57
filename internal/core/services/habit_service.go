package services

import (
	"context"
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

// StreakQueue schedules a background recomputation of a habit's streaks.
// Implementations must not block.
type StreakQueue interface {
	Enqueue(habitID string)
}

type HabitService struct {
	repo  domain.HabitRepository
	cache domain.StatsCache
	queue StreakQueue
}

func NewHabitService(repo domain.HabitRepository, cache domain.StatsCache, queue StreakQueue) *HabitService {
	return &HabitService{
		repo:  repo,
		cache: cache,
		queue: queue,
	}
}

type CreateHabitInput struct {
	UserID   string
	Title    string
	Schedule streak.Schedule
}

// UpdateHabitInput carries a partial update: an empty Title and a nil
// Schedule keep the stored values.
type UpdateHabitInput struct {
	ID       string
	UserID   string
	Title    string
	Schedule *streak.Schedule
	Version  int
}

func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	habit, err := domain.NewHabit(input.UserID, input.Title, input.Schedule)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		return nil, err
	}

	return habit, nil
}

func (s *HabitService) List(ctx context.Context, userID string, activeOnly bool) ([]*domain.Habit, error) {
	habits, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return habits, nil
	}

	active := make([]*domain.Habit, 0, len(habits))
	for _, h := range habits {
		if h.IsActive {
			active = append(active, h)
		}
	}
	return active, nil
}

// Get returns a habit owned by userID. Habits of other users look missing.
func (s *HabitService) Get(ctx context.Context, id string, userID string) (*domain.Habit, error) {
	habit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrHabitNotFound
	}
	return habit, nil
}

func (s *HabitService) GetDelta(ctx context.Context, userID string, lastSync time.Time) ([]*domain.Habit, error) {
	return s.repo.GetChanges(ctx, userID, lastSync)
}

func (s *HabitService) Update(ctx context.Context, input UpdateHabitInput) (*domain.Habit, error) {
	habit, err := s.Get(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && habit.Version != input.Version {
		return nil, fmt.Errorf("%w: client v%d vs server v%d", domain.ErrHabitConflict, input.Version, habit.Version)
	}

	if input.Title != "" {
		if err := habit.Rename(input.Title); err != nil {
			return nil, err
		}
	}

	rescheduled := false
	if input.Schedule != nil {
		if rescheduled, err = habit.Reschedule(*input.Schedule); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}

	// Streaks depend on the schedule.
	if rescheduled {
		s.cache.Invalidate(ctx, habit.ID)
		s.queue.Enqueue(habit.ID)
	}

	return habit, nil
}

// SetActive pauses or resumes a habit. Paused habits accept no new marks
// and get no reminders.
func (s *HabitService) SetActive(ctx context.Context, id string, userID string, active bool) (*domain.Habit, error) {
	habit, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if habit.IsActive == active {
		return habit, nil
	}

	if active {
		habit.Resume()
	} else {
		habit.Pause()
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}
	return habit, nil
}

func (s *HabitService) Delete(ctx context.Context, id string, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, id)
	s.queue.Enqueue(id)
	return nil
}
