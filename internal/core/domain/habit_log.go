package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

var (
	ErrInvalidLog = errors.New("invalid habit log data")
)

// HabitLog is the stored mark of one habit on one calendar day. There is at
// most one live log per (HabitID, Date).
type HabitLog struct {
	ID      string `json:"id" db:"id"`
	HabitID string `json:"habit_id" db:"habit_id"`
	UserID  string `json:"user_id" db:"user_id"`

	Date   streak.Date   `json:"date" db:"log_date"`
	Status streak.Status `json:"status" db:"status"`

	Version   int        `json:"version" db:"version"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

func NewHabitLog(habitID, userID string, date streak.Date, status streak.Status) *HabitLog {
	now := time.Now().UTC()

	return &HabitLog{
		HabitID: habitID,
		UserID:  userID,
		Date:    date,
		Status:  status,

		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (l *HabitLog) Validate() error {
	switch {
	case strings.TrimSpace(l.HabitID) == "":
		return errors.Join(ErrInvalidLog, errors.New("habit_id is required"))
	case strings.TrimSpace(l.UserID) == "":
		return errors.Join(ErrInvalidLog, errors.New("user_id is required"))
	case l.Date.IsZero():
		return errors.Join(ErrInvalidLog, errors.New("date is required"))
	case !l.Status.Valid():
		return errors.Join(ErrInvalidLog, streak.ErrUnknownStatus)
	}
	return nil
}

func (l *HabitLog) Entry() streak.LogEntry {
	return streak.LogEntry{Date: l.Date, Status: l.Status}
}

// Entries projects live logs onto the engine's input. Soft-deleted rows are
// dropped.
func Entries(logs []*HabitLog) []streak.LogEntry {
	entries := make([]streak.LogEntry, 0, len(logs))
	for _, l := range logs {
		if l.DeletedAt != nil {
			continue
		}
		entries = append(entries, l.Entry())
	}
	return entries
}
