// Package streak computes streaks and completion counts for one habit from
// its per-day log. Everything here is a pure function of its arguments: no
// I/O, no shared state, inputs are never modified.
package streak

const (
	shortWindowDays = 7
	longWindowDays  = 30
)

// Stats is the engagement summary of one habit as of a given day.
type Stats struct {
	CurrentStreak int `json:"current_streak"`
	BestStreak    int `json:"best_streak"`
	Done7         int `json:"done_7_days"`
	Done30        int `json:"done_30_days"`
	TotalDone     int `json:"total_done"`
}

// Compute returns the stats of a habit whose log is entries, evaluated on
// today. The order of entries does not matter. It fails on an invalid
// schedule and on entries violating the one-mark-per-day rule.
func Compute(entries []LogEntry, schedule Schedule, today Date) (Stats, error) {
	if err := schedule.Validate(); err != nil {
		return Stats{}, err
	}

	byDate, err := indexByDate(entries)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	switch schedule.Kind {
	case ScheduleDaily:
		stats.CurrentStreak, stats.BestStreak = dailyStreak(entries, byDate, today)
	case ScheduleWeekly:
		stats.CurrentStreak, stats.BestStreak = weeklyStreak(entries, schedule.WeeklyTarget, today)
	}

	for _, e := range entries {
		if e.Status != StatusDone {
			continue
		}
		stats.TotalDone++

		age := today.DaysSince(e.Date)
		if age < 0 {
			continue
		}
		if age <= shortWindowDays {
			stats.Done7++
		}
		if age <= longWindowDays {
			stats.Done30++
		}
	}

	return stats, nil
}
