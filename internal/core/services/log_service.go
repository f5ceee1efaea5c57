package services

import (
	"context"
	"errors"
	"time"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

var ErrInvalidRange = errors.New("from must not be after to")

// DefaultLogWindow is the number of days listed when no range is given.
const DefaultLogWindow = 30

type LogService struct {
	repo      domain.HabitLogRepository
	habitRepo domain.HabitRepository
	userRepo  domain.UserRepository
	cache     domain.StatsCache
	queue     StreakQueue
	now       func() time.Time
}

func NewLogService(repo domain.HabitLogRepository, habitRepo domain.HabitRepository, userRepo domain.UserRepository, cache domain.StatsCache, queue StreakQueue) *LogService {
	return &LogService{
		repo:      repo,
		habitRepo: habitRepo,
		userRepo:  userRepo,
		cache:     cache,
		queue:     queue,
		now:       time.Now,
	}
}

// WithClock replaces the wall clock used to resolve the user's today.
func (s *LogService) WithClock(now func() time.Time) *LogService {
	s.now = now
	return s
}

type MarkInput struct {
	HabitID string
	UserID  string
	// Date defaults to the user's today.
	Date   *streak.Date
	Status streak.Status
}

// Mark records the status of a habit on one day. Marking the same day again
// replaces the previous status.
func (s *LogService) Mark(ctx context.Context, input MarkInput) (*domain.HabitLog, error) {
	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	today := user.Today(s.now())

	date := today
	if input.Date != nil {
		date = *input.Date
	}
	if date.After(today) {
		return nil, domain.ErrFutureDate
	}

	log := domain.NewHabitLog(input.HabitID, input.UserID, date, input.Status)
	if err := log.Validate(); err != nil {
		return nil, err
	}

	habit, err := s.habitRepo.GetByID(ctx, log.HabitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != log.UserID {
		return nil, domain.ErrUnauthorized
	}
	if !habit.IsActive {
		return nil, domain.ErrHabitInactive
	}

	if err := s.repo.Upsert(ctx, log); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, log.HabitID)
	s.queue.Enqueue(log.HabitID)

	return log, nil
}

// List returns the marks of a habit between from and to, newest first. A
// zero to means the user's today; a zero from means DefaultLogWindow days
// back from to.
func (s *LogService) List(ctx context.Context, habitID string, userID string, from, to streak.Date) ([]*domain.HabitLog, error) {
	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	if to.IsZero() {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		to = user.Today(s.now())
	}
	if from.IsZero() {
		from = to.AddDays(-(DefaultLogWindow - 1))
	}
	if from.After(to) {
		return nil, ErrInvalidRange
	}

	return s.repo.ListByHabitID(ctx, habitID, from, to)
}

func (s *LogService) Delete(ctx context.Context, id string, userID string) error {
	log, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if log.UserID != userID {
		return domain.ErrUnauthorized
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, log.HabitID)
	s.queue.Enqueue(log.HabitID)

	return nil
}

func (s *LogService) GetDelta(ctx context.Context, userID string, since time.Time) ([]*domain.HabitLog, error) {
	return s.repo.GetChanges(ctx, userID, since)
}
