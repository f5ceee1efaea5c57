// Package jobs runs the per-user daily reminders.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
)

const reminderTimeout = 30 * time.Second

// Notifier delivers a reminder text to a user.
type Notifier interface {
	Notify(ctx context.Context, user *domain.User, text string) error
}

// ReminderScheduler keeps one cron entry per user, firing daily at the
// user's reminder time in the user's timezone.
type ReminderScheduler struct {
	cron     *cron.Cron
	users    domain.UserRepository
	habits   domain.HabitRepository
	logs     domain.HabitLogRepository
	notifier Notifier
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func NewReminderScheduler(users domain.UserRepository, habits domain.HabitRepository, logs domain.HabitLogRepository, notifier Notifier) *ReminderScheduler {
	return &ReminderScheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		users:    users,
		habits:   habits,
		logs:     logs,
		notifier: notifier,
		now:      time.Now,
		entries:  make(map[string]cron.EntryID),
	}
}

func (s *ReminderScheduler) Start() {
	s.cron.Start()
	log.Info("[REMINDER] Scheduler started")
}

// Stop waits for running reminders to finish.
func (s *ReminderScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("[REMINDER] Scheduler stopped")
}

// Restore rebuilds the entries of every user with reminders enabled.
func (s *ReminderScheduler) Restore(ctx context.Context) (int, error) {
	users, err := s.users.ListWithReminders(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore reminders: %w", err)
	}

	restored := 0
	for _, u := range users {
		if err := s.Schedule(u); err != nil {
			log.WithError(err).WithField("user_id", u.ID).Warn("[REMINDER] Skipping unschedulable user")
			continue
		}
		restored++
	}

	log.WithField("count", restored).Info("[REMINDER] Restored reminder jobs")
	return restored, nil
}

// cronSpec turns "HH:MM" in zone into a daily cron spec.
func cronSpec(reminderTime, zone string) (string, error) {
	at, err := time.Parse("15:04", reminderTime)
	if err != nil {
		return "", domain.ErrInvalidReminder
	}
	if _, err := time.LoadLocation(zone); err != nil {
		return "", domain.ErrInvalidTimezone
	}
	return fmt.Sprintf("CRON_TZ=%s %d %d * * *", zone, at.Minute(), at.Hour()), nil
}

// Schedule replaces the user's entry. Users without a reminder are
// unscheduled.
func (s *ReminderScheduler) Schedule(user *domain.User) error {
	if !user.WantsReminder() {
		s.Unschedule(user.ID)
		return nil
	}

	spec, err := cronSpec(*user.ReminderTime, user.Timezone)
	if err != nil {
		return err
	}

	userID := user.ID
	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reminderTimeout)
		defer cancel()

		if _, err := s.SendReminder(ctx, userID); err != nil {
			log.WithError(err).WithField("user_id", userID).Error("[REMINDER] Failed to send reminder")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reminder %q: %w", spec, err)
	}

	s.mu.Lock()
	if old, ok := s.entries[userID]; ok {
		s.cron.Remove(old)
	}
	s.entries[userID] = id
	s.mu.Unlock()

	log.WithFields(log.Fields{"user_id": userID, "spec": spec}).Info("[REMINDER] Reminder scheduled")
	return nil
}

func (s *ReminderScheduler) Unschedule(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[userID]; ok {
		s.cron.Remove(id)
		delete(s.entries, userID)
		log.WithField("user_id", userID).Info("[REMINDER] Reminder removed")
	}
}

// Scheduled reports whether the user has an entry.
func (s *ReminderScheduler) Scheduled(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[userID]
	return ok
}

// SendReminder notifies the user about active habits still unmarked on
// their today. Nothing is sent when every habit is marked.
func (s *ReminderScheduler) SendReminder(ctx context.Context, userID string) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if !user.WantsReminder() {
		return false, nil
	}

	pending, err := s.unmarkedHabits(ctx, user)
	if err != nil {
		return false, err
	}
	if len(pending) == 0 {
		log.WithField("user_id", userID).Debug("[REMINDER] Everything marked, nothing to send")
		return false, nil
	}

	if err := s.notifier.Notify(ctx, user, reminderText(pending)); err != nil {
		return false, err
	}

	log.WithFields(log.Fields{"user_id": userID, "pending": len(pending)}).Info("[REMINDER] Reminder sent")
	return true, nil
}

func (s *ReminderScheduler) unmarkedHabits(ctx context.Context, user *domain.User) ([]*domain.Habit, error) {
	habits, err := s.habits.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	today := user.Today(s.now())

	var pending []*domain.Habit
	for _, h := range habits {
		if !h.IsActive {
			continue
		}
		marks, err := s.logs.ListByHabitID(ctx, h.ID, today, today)
		if err != nil {
			return nil, err
		}
		if len(marks) == 0 {
			pending = append(pending, h)
		}
	}
	return pending, nil
}

func reminderText(pending []*domain.Habit) string {
	var b strings.Builder
	b.WriteString("🔔 Reminder! Not marked yet today:\n")
	for _, h := range pending {
		b.WriteString("• ")
		b.WriteString(h.Title)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
