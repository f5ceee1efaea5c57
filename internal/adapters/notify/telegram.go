// Package notify delivers reminder texts to users.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
)

var ErrNoChatLinked = errors.New("user has no telegram chat linked")

// TelegramNotifier sends reminders through the Bot API to the chat stored
// on the user.
type TelegramNotifier struct {
	bot *telego.Bot
}

// NewTelegramNotifier builds a bot client. apiServer may be empty for the
// public Bot API.
func NewTelegramNotifier(token, apiServer string) (*TelegramNotifier, error) {
	opts := []telego.BotOption{telego.WithDiscardLogger()}
	if apiServer != "" {
		opts = append(opts, telego.WithAPIServer(apiServer))
	}

	bot, err := telego.NewBot(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, user *domain.User, text string) error {
	if user.TelegramChatID == nil {
		return ErrNoChatLinked
	}

	if _, err := n.bot.SendMessage(ctx, tu.Message(tu.ID(*user.TelegramChatID), text)); err != nil {
		return fmt.Errorf("telegram send to %d: %w", *user.TelegramChatID, err)
	}
	return nil
}

// LogNotifier only logs. Used when no bot token is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, user *domain.User, text string) error {
	log.WithFields(log.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("[REMINDER] " + text)
	return nil
}
