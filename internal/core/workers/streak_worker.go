package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

const DefaultQueueSize = 100

type HabitRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Habit, error)
	UpdateStreaks(ctx context.Context, id string, current, best int) error
}

type LogRepository interface {
	ListAllByHabitID(ctx context.Context, habitID string) ([]*domain.HabitLog, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type StreakJob struct {
	HabitID string
}

// StreakWorker recomputes a habit's stats after its log or schedule changed,
// stores the streaks on the habit and refreshes the stats cache.
type StreakWorker struct {
	habitRepo HabitRepository
	logRepo   LogRepository
	userRepo  UserRepository
	cache     domain.StatsCache
	jobs      chan StreakJob
	now       func() time.Time
	done      sync.WaitGroup
}

func NewStreakWorker(hRepo HabitRepository, lRepo LogRepository, uRepo UserRepository, cache domain.StatsCache, queueSize int) *StreakWorker {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &StreakWorker{
		habitRepo: hRepo,
		logRepo:   lRepo,
		userRepo:  uRepo,
		cache:     cache,
		jobs:      make(chan StreakJob, queueSize),
		now:       time.Now,
	}
}

// Start consumes the queue until ctx is cancelled.
func (w *StreakWorker) Start(ctx context.Context) {
	w.done.Add(1)
	go func() {
		defer w.done.Done()
		log.Info("[WORKER] Streak worker started")
		for {
			select {
			case job := <-w.jobs:
				if err := w.processJob(ctx, job); err != nil {
					log.WithError(err).WithField("habit_id", job.HabitID).Error("[WORKER] Streak recomputation failed")
				}
			case <-ctx.Done():
				log.Info("[WORKER] Streak worker shutting down")
				return
			}
		}
	}()
}

// Wait blocks until the goroutine started by Start has returned.
func (w *StreakWorker) Wait() {
	w.done.Wait()
}

// Enqueue never blocks. A full queue drops the job; the next mark of the
// habit schedules it again.
func (w *StreakWorker) Enqueue(habitID string) {
	select {
	case w.jobs <- StreakJob{HabitID: habitID}:
	default:
		log.WithField("habit_id", habitID).Warn("[WORKER] Queue full, dropping streak job")
	}
}

func (w *StreakWorker) processJob(ctx context.Context, job StreakJob) error {
	habit, err := w.habitRepo.GetByID(ctx, job.HabitID)
	if err != nil {
		if errors.Is(err, domain.ErrHabitNotFound) {
			// Deleted habits only need their cached stats dropped.
			w.cache.Invalidate(ctx, job.HabitID)
			return nil
		}
		return err
	}

	user, err := w.userRepo.GetByID(ctx, habit.UserID)
	if err != nil {
		return err
	}
	today := user.Today(w.now())

	logs, err := w.logRepo.ListAllByHabitID(ctx, habit.ID)
	if err != nil {
		return err
	}

	stats, err := streak.Compute(domain.Entries(logs), habit.Schedule(), today)
	if err != nil {
		w.cache.Invalidate(ctx, habit.ID)
		return err
	}

	w.cache.Set(ctx, habit.ID, today, stats)

	if habit.CurrentStreak == stats.CurrentStreak && habit.BestStreak == stats.BestStreak {
		return nil
	}

	if err := w.habitRepo.UpdateStreaks(ctx, habit.ID, stats.CurrentStreak, stats.BestStreak); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"habit_id": habit.ID,
		"current":  stats.CurrentStreak,
		"best":     stats.BestStreak,
	}).Debug("[WORKER] Streak updated")
	return nil
}
