package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

var (
	ErrHabitTitleEmpty    = errors.New("habit title cannot be empty")
	ErrHabitTitleTooLong  = errors.New("habit title is too long (max 50 chars)")
	ErrHabitInvalidUserID = errors.New("invalid user id")
	ErrInvalidSchedule    = errors.New("invalid habit schedule")
)

const (
	MaxTitleLen = 50
	// DaysPerWeek is the weekly target stored for daily habits.
	DaysPerWeek = streak.MaxWeeklyTarget
)

type Habit struct {
	ID           string              `json:"id" db:"id"`
	UserID       string              `json:"user_id" db:"user_id"`
	Title        string              `json:"title" db:"title"`
	ScheduleKind streak.ScheduleKind `json:"schedule" db:"schedule_kind"`
	WeeklyTarget int                 `json:"weekly_target" db:"weekly_target"`
	IsActive     bool                `json:"is_active" db:"is_active"`

	CurrentStreak int `json:"current_streak" db:"current_streak"`
	BestStreak    int `json:"best_streak" db:"best_streak"`

	Version   int        `json:"version" db:"version"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

func validateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrHabitTitleEmpty
	}
	if utf8.RuneCountInString(trimmed) > MaxTitleLen {
		return "", ErrHabitTitleTooLong
	}
	return trimmed, nil
}

// normalizeSchedule validates s and returns the weekly target to store.
func normalizeSchedule(s streak.Schedule) (int, error) {
	if err := s.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}
	if s.Kind == streak.ScheduleDaily {
		return DaysPerWeek, nil
	}
	return s.WeeklyTarget, nil
}

func NewHabit(userID, title string, schedule streak.Schedule) (*Habit, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrHabitInvalidUserID
	}

	cleanTitle, err := validateTitle(title)
	if err != nil {
		return nil, err
	}

	target, err := normalizeSchedule(schedule)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &Habit{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        cleanTitle,
		ScheduleKind: schedule.Kind,
		WeeklyTarget: target,
		IsActive:     true,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Schedule is the cadence the streak engine evaluates this habit against.
func (h *Habit) Schedule() streak.Schedule {
	if h.ScheduleKind == streak.ScheduleWeekly {
		return streak.Weekly(h.WeeklyTarget)
	}
	return streak.Daily()
}

func (h *Habit) Rename(title string) error {
	cleanTitle, err := validateTitle(title)
	if err != nil {
		return err
	}
	h.Title = cleanTitle
	h.UpdatedAt = time.Now().UTC()
	return nil
}

// Reschedule reports whether the schedule actually changed, in which case
// stored streaks are stale.
func (h *Habit) Reschedule(schedule streak.Schedule) (bool, error) {
	target, err := normalizeSchedule(schedule)
	if err != nil {
		return false, err
	}
	if h.ScheduleKind == schedule.Kind && h.WeeklyTarget == target {
		return false, nil
	}
	h.ScheduleKind = schedule.Kind
	h.WeeklyTarget = target
	h.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (h *Habit) Pause() {
	if !h.IsActive {
		return
	}
	h.IsActive = false
	h.UpdatedAt = time.Now().UTC()
}

func (h *Habit) Resume() {
	if h.IsActive {
		return
	}
	h.IsActive = true
	h.UpdatedAt = time.Now().UTC()
}

func (h *Habit) UpdateStreak(current, best int) {
	h.CurrentStreak = current
	h.BestStreak = best
	h.UpdatedAt = time.Now().UTC()
}
