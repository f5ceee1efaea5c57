package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
)

// ReminderScheduler keeps the daily reminder of a user in sync with their
// settings.
type ReminderScheduler interface {
	Schedule(user *domain.User) error
	Unschedule(userID string)
}

type UserService struct {
	repo      domain.UserRepository
	scheduler ReminderScheduler
}

// NewUserService accepts a nil scheduler when reminders are disabled.
func NewUserService(repo domain.UserRepository, scheduler ReminderScheduler) *UserService {
	return &UserService{
		repo:      repo,
		scheduler: scheduler,
	}
}

func (s *UserService) GetSettings(ctx context.Context, userID string) (domain.UserSettings, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return domain.UserSettings{}, err
	}
	return user.Settings(), nil
}

func (s *UserService) UpdateSettings(ctx context.Context, userID string, settings domain.UserSettings) (domain.UserSettings, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return domain.UserSettings{}, err
	}

	if err := user.UpdateSettings(settings); err != nil {
		return domain.UserSettings{}, err
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return domain.UserSettings{}, err
	}

	s.syncReminder(user)
	return user.Settings(), nil
}

func (s *UserService) syncReminder(user *domain.User) {
	if s.scheduler == nil {
		return
	}

	if !user.WantsReminder() {
		s.scheduler.Unschedule(user.ID)
		return
	}

	// The settings are saved; a broken entry is rebuilt on the next restart.
	if err := s.scheduler.Schedule(user); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("[REMINDER] Failed to schedule reminder")
	}
}
