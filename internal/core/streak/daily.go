package streak

import "slices"

// dailyStreak computes the streaks of an every-day habit. byDate must be the
// index of entries.
func dailyStreak(entries []LogEntry, byDate map[Date]Status, today Date) (current, best int) {
	if len(entries) == 0 {
		return 0, 0
	}

	// An unmarked today does not break the run that ended yesterday.
walk:
	for day := today; ; day = day.AddDays(-1) {
		status, ok := byDate[day]
		if !ok {
			if day.Before(today) {
				break
			}
			continue
		}

		switch status {
		case StatusDone:
			current++
		case StatusSkipped:
		default:
			break walk
		}
	}

	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b LogEntry) int {
		return a.Date.Compare(b.Date)
	})

	run := 0
	var lastDone Date
	hasLast := false

	for _, e := range sorted {
		switch e.Status {
		case StatusDone:
			if hasLast && onlySkippedBetween(byDate, lastDone, e.Date) {
				run++
			} else {
				run = 1
			}
			lastDone, hasLast = e.Date, true
			best = max(best, run)
		case StatusSkipped:
			// Neutral: the gap check of the next done reads skips from byDate.
		default:
			run = 0
			hasLast = false
		}
	}

	return current, best
}

// onlySkippedBetween reports whether every day strictly between from and to
// is present and skipped. Adjacent days have nothing in between.
func onlySkippedBetween(byDate map[Date]Status, from, to Date) bool {
	for day := from.AddDays(1); day.Before(to); day = day.AddDays(1) {
		if status, ok := byDate[day]; !ok || status != StatusSkipped {
			return false
		}
	}
	return true
}
