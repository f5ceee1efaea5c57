package domain

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrInvalidTimezone    = errors.New("unknown IANA timezone")
	ErrInvalidReminder    = errors.New("invalid reminder format (must be HH:MM 24h)")
	ErrReminderTimeNeeded = errors.New("reminders need a reminder time")
)

const DefaultTimezone = "Europe/Moscow"

var reminderRegex = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

type User struct {
	ID           string `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`

	Timezone         string  `json:"timezone" db:"timezone"`
	ReminderTime     *string `json:"reminder_time,omitempty" db:"reminder_time"`
	RemindersEnabled bool    `json:"reminders_enabled" db:"reminders_enabled"`
	TelegramChatID   *int64  `json:"telegram_chat_id,omitempty" db:"telegram_chat_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserSettings is the editable part of a user. A nil ReminderTime clears it.
type UserSettings struct {
	Timezone         string
	ReminderTime     *string
	RemindersEnabled bool
	TelegramChatID   *int64
}

func NewUser(id, email string) (*User, error) {

	email = strings.TrimSpace(email)

	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	now := time.Now().UTC()
	return &User{
		ID:        id,
		Email:     strings.ToLower(email),
		Timezone:  DefaultTimezone,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (u *User) SetPassword(plainPassword string) error {
	if utf8.RuneCountInString(plainPassword) < 8 {
		return ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), 12)
	if err != nil {
		return err
	}

	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (u *User) CheckPassword(plainPassword string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plainPassword))
}

// Location falls back to UTC when the stored zone cannot be loaded.
func (u *User) Location() *time.Location {
	if u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Today is the calendar day it is for the user at instant now.
func (u *User) Today(now time.Time) streak.Date {
	return streak.DateOf(now.In(u.Location()))
}

func (u *User) Settings() UserSettings {
	return UserSettings{
		Timezone:         u.Timezone,
		ReminderTime:     u.ReminderTime,
		RemindersEnabled: u.RemindersEnabled,
		TelegramChatID:   u.TelegramChatID,
	}
}

func (u *User) UpdateSettings(s UserSettings) error {
	tz := strings.TrimSpace(s.Timezone)
	if tz == "" {
		tz = u.Timezone
	}
	if _, err := time.LoadLocation(tz); err != nil || tz == "" {
		return ErrInvalidTimezone
	}

	var reminder *string
	if s.ReminderTime != nil && *s.ReminderTime != "" {
		if !reminderRegex.MatchString(*s.ReminderTime) {
			return ErrInvalidReminder
		}
		rt := *s.ReminderTime
		reminder = &rt
	}
	if s.RemindersEnabled && reminder == nil {
		return ErrReminderTimeNeeded
	}

	u.Timezone = tz
	u.ReminderTime = reminder
	u.RemindersEnabled = s.RemindersEnabled
	u.TelegramChatID = s.TelegramChatID
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// WantsReminder reports whether a daily reminder should be scheduled.
func (u *User) WantsReminder() bool {
	return u.RemindersEnabled && u.ReminderTime != nil
}

func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
