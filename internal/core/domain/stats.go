package domain

import "github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"

// HabitStatsView is the read model for one habit's engagement.
type HabitStatsView struct {
	HabitID      string              `json:"habit_id"`
	Title        string              `json:"title"`
	Schedule     streak.ScheduleKind `json:"schedule"`
	WeeklyTarget int                 `json:"weekly_target"`
	IsActive     bool                `json:"is_active"`
	AsOf         streak.Date         `json:"as_of"`

	streak.Stats
}

func NewHabitStatsView(h *Habit, asOf streak.Date, stats streak.Stats) HabitStatsView {
	return HabitStatsView{
		HabitID:      h.ID,
		Title:        h.Title,
		Schedule:     h.ScheduleKind,
		WeeklyTarget: h.WeeklyTarget,
		IsActive:     h.IsActive,
		AsOf:         asOf,
		Stats:        stats,
	}
}

type UserStats struct {
	UserID      string           `json:"user_id"`
	AsOf        streak.Date      `json:"as_of"`
	TotalHabits int              `json:"total_habits"`
	ActiveCount int              `json:"active_habits"`
	TotalDone   int              `json:"total_done"`
	Habits      []HabitStatsView `json:"habits"`
}
