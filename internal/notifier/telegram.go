package notifier

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"workend-notifier/internal/models"
)

// BotAPI - часть tgbotapi.BotAPI, нужная для отправки
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TelegramSender отправляет уведомления в чат. Уведомления без
// RequireInteraction приходят без звука и удаляются по таймауту.
type TelegramSender struct {
	bot         BotAPI
	chatID      int64
	autoDismiss bool
	afterFunc   func(d time.Duration, f func())
	logger      *logrus.Logger
}

func NewTelegramSender(bot BotAPI, chatID int64, autoDismiss bool) *TelegramSender {
	return &TelegramSender{
		bot:         bot,
		chatID:      chatID,
		autoDismiss: autoDismiss,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		logger: newLogger(),
	}
}

func (s *TelegramSender) Name() string { return "telegram" }

func (s *TelegramSender) Send(_ context.Context, req models.NotificationRequest) error {
	msg := tgbotapi.NewMessage(s.chatID, FormatMessage(req))
	msg.DisableNotification = !req.RequireInteraction

	sent, err := s.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	if s.autoDismiss && !req.RequireInteraction && req.AutoDismissAfter > 0 {
		messageID := sent.MessageID
		s.afterFunc(req.AutoDismissAfter, func() {
			if _, err := s.bot.Request(tgbotapi.NewDeleteMessage(s.chatID, messageID)); err != nil {
				s.logger.WithError(err).WithField("message_id", messageID).Warn("Failed to auto-dismiss message")
			}
		})
	}

	return nil
}

func (s *TelegramSender) Permission(context.Context) models.Permission {
	if s.bot == nil || s.chatID == 0 {
		return models.PermissionDenied
	}
	return models.PermissionGranted
}

// FormatMessage - текст сообщения: заголовок и тело
func FormatMessage(req models.NotificationRequest) string {
	if req.Message == "" {
		return req.Title
	}
	return req.Title + "\n" + req.Message
}
