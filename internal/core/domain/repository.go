package domain

import (
	"context"
	"errors"
	"time"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrHabitConflict = errors.New("habit version conflict")
	ErrHabitInactive = errors.New("habit is paused")
	ErrLogNotFound   = errors.New("habit log not found")
	ErrUnauthorized  = errors.New("resource belongs to another user")
	ErrFutureDate    = errors.New("cannot mark a day after today")
	ErrMissingRef    = errors.New("referenced habit or user does not exist")
)

type HabitRepository interface {
	// Create persists a new habit definition in the storage.
	Create(ctx context.Context, habit *Habit) error

	// GetByID retrieves a live (non-deleted) habit by its unique identifier.
	GetByID(ctx context.Context, id string) (*Habit, error)

	// ListByUserID retrieves all live habits associated with a specific user.
	ListByUserID(ctx context.Context, userID string) ([]*Habit, error)

	// Update modifies an existing habit.
	// Implementations must check Version and return ErrHabitConflict on mismatch.
	Update(ctx context.Context, habit *Habit) error

	// Delete performs a soft delete.
	Delete(ctx context.Context, id string) error

	// GetChanges [SYNC] Returns the habits changed after since, deletions included.
	GetChanges(ctx context.Context, userID string, since time.Time) ([]*Habit, error)

	// UpdateStreaks stores recomputed streaks without touching Version.
	UpdateStreaks(ctx context.Context, id string, current, best int) error
}

type HabitLogRepository interface {
	// Upsert stores the mark for (HabitID, Date), replacing the previous one
	// and reviving it if it was soft-deleted. On return log holds the stored
	// ID and Version.
	Upsert(ctx context.Context, log *HabitLog) error

	// GetByID retrieves a single live log.
	GetByID(ctx context.Context, id string) (*HabitLog, error)

	// Delete performs a soft delete of a log owned by userID.
	Delete(ctx context.Context, id string, userID string) error

	// ListByHabitID returns live logs with from <= Date <= to, newest first.
	ListByHabitID(ctx context.Context, habitID string, from, to streak.Date) ([]*HabitLog, error)

	// ListAllByHabitID returns the complete live log of a habit.
	ListAllByHabitID(ctx context.Context, habitID string) ([]*HabitLog, error)

	// GetChanges [SYNC] Returns every log of the user changed after since.
	GetChanges(ctx context.Context, userID string, since time.Time) ([]*HabitLog, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error

	// ListWithReminders returns users with reminders enabled and a reminder time.
	ListWithReminders(ctx context.Context) ([]*User, error)
}

// StatsCache holds computed stats keyed by habit. A cached value is only
// valid for the day it was computed on.
type StatsCache interface {
	Get(ctx context.Context, habitID string, today streak.Date) (streak.Stats, bool)
	Set(ctx context.Context, habitID string, today streak.Date, stats streak.Stats)
	Invalidate(ctx context.Context, habitID string)
}
