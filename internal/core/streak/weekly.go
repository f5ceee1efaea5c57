package streak

import "slices"

// weeklyStreak computes the streaks of an N-times-per-week habit, counted in
// consecutive successful ISO weeks.
func weeklyStreak(entries []LogEntry, target int, today Date) (current, best int) {
	if len(entries) == 0 {
		return 0, 0
	}

	// Every week that has at least one entry gets a bucket, even with zero done.
	doneByWeek := make(map[Week]int)
	for _, e := range entries {
		w := WeekOf(e.Date)
		n := doneByWeek[w]
		if e.Status == StatusDone {
			n++
		}
		doneByWeek[w] = n
	}

	successful := func(w Week) bool {
		n, ok := doneByWeek[w]
		return ok && n >= target
	}

	for w := WeekOf(today); successful(w); w = w.Prev() {
		current++
	}

	weeks := make([]Week, 0, len(doneByWeek))
	for w := range doneByWeek {
		weeks = append(weeks, w)
	}
	slices.SortFunc(weeks, Week.Compare)

	run := 0
	for _, w := range weeks {
		if !successful(w) {
			run = 0
			continue
		}
		if successful(w.Prev()) {
			run++
		} else {
			run = 1
		}
		best = max(best, run)
	}

	return current, best
}
