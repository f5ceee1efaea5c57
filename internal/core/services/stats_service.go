package services

import (
	"context"
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

// StatsService answers stats queries. Each habit's stats come from the
// cache when they were computed for the same day, otherwise from the full
// log snapshot.
type StatsService struct {
	habitRepo domain.HabitRepository
	logRepo   domain.HabitLogRepository
	userRepo  domain.UserRepository
	cache     domain.StatsCache
	now       func() time.Time
}

func NewStatsService(habitRepo domain.HabitRepository, logRepo domain.HabitLogRepository, userRepo domain.UserRepository, cache domain.StatsCache) *StatsService {
	return &StatsService{
		habitRepo: habitRepo,
		logRepo:   logRepo,
		userRepo:  userRepo,
		cache:     cache,
		now:       time.Now,
	}
}

func (s *StatsService) WithClock(now func() time.Time) *StatsService {
	s.now = now
	return s
}

func (s *StatsService) today(ctx context.Context, userID string) (streak.Date, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return streak.Date{}, err
	}
	return user.Today(s.now()), nil
}

func (s *StatsService) GetHabitStats(ctx context.Context, habitID string, userID string) (*domain.HabitStatsView, error) {
	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	today, err := s.today(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.computeStats(ctx, habit, today)
	if err != nil {
		return nil, err
	}

	view := domain.NewHabitStatsView(habit, today, stats)
	return &view, nil
}

func (s *StatsService) GetUserStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	today, err := s.today(ctx, userID)
	if err != nil {
		return nil, err
	}

	habits, err := s.habitRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &domain.UserStats{
		UserID:      userID,
		AsOf:        today,
		TotalHabits: len(habits),
		Habits:      make([]domain.HabitStatsView, 0, len(habits)),
	}

	for _, h := range habits {
		stats, err := s.computeStats(ctx, h, today)
		if err != nil {
			return nil, err
		}

		if h.IsActive {
			result.ActiveCount++
		}
		result.TotalDone += stats.TotalDone
		result.Habits = append(result.Habits, domain.NewHabitStatsView(h, today, stats))
	}

	return result, nil
}

func (s *StatsService) computeStats(ctx context.Context, habit *domain.Habit, today streak.Date) (streak.Stats, error) {
	if stats, ok := s.cache.Get(ctx, habit.ID, today); ok {
		return stats, nil
	}

	logs, err := s.logRepo.ListAllByHabitID(ctx, habit.ID)
	if err != nil {
		return streak.Stats{}, err
	}

	stats, err := streak.Compute(domain.Entries(logs), habit.Schedule(), today)
	if err != nil {
		return streak.Stats{}, fmt.Errorf("stats for habit %s: %w", habit.ID, err)
	}

	s.cache.Set(ctx, habit.ID, today, stats)
	return stats, nil
}
