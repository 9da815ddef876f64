package handler

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"workend-notifier/internal/config"
	"workend-notifier/internal/models"
	"workend-notifier/internal/service"
	"workend-notifier/internal/timer"
)

// BotAPI - отправка сообщений боту
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Tracker - операции с перерывами и состоянием дня
type Tracker interface {
	ReportBreakStart(ctx context.Context, durationMinutes, warningMinutes int) (models.CompletionResult, error)
	ReportBreakEnd(ctx context.Context) (models.CompletionResult, error)
	CurrentStatus(ctx context.Context) service.StatusView
}

// AlarmLister отдает живые таймеры
type AlarmLister interface {
	Alarms() []timer.Timer
}

// SettingsStore - чтение и запись настроек уведомлений
type SettingsStore interface {
	Get() config.Settings
	Save(next config.Settings) error
}

type Handler struct {
	bot      BotAPI
	chatID   int64
	tracker  Tracker
	alarms   AlarmLister
	settings SettingsStore
	logger   *logrus.Logger
}

func NewHandler(
	bot BotAPI,
	chatID int64,
	tracker Tracker,
	alarms AlarmLister,
	settings SettingsStore,
) *Handler {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.GetLevel())

	return &Handler{
		bot:      bot,
		chatID:   chatID,
		tracker:  tracker,
		alarms:   alarms,
		settings: settings,
		logger:   logger,
	}
}

// HandleUpdates обрабатывает обновления, пока канал не закроется или не отменится ctx
func (h *Handler) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			h.handleMessage(ctx, update.Message)
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	fields := logrus.Fields{"chat_id": chatID}
	if message.From != nil {
		fields["user"] = message.From.UserName
	}

	// Бот персональный: чужие чаты не обслуживаются
	if chatID != h.chatID {
		h.logger.WithFields(fields).Warn("Message from unknown chat ignored")
		return
	}

	h.logger.WithFields(fields).Infof("%s", message.Text)

	if !message.IsCommand() {
		h.reply(chatID, "Я понимаю только команды. Используйте /help для списка команд.")
		return
	}
	h.handleCommand(ctx, message)
}

func (h *Handler) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.WithError(models.NewExternalServiceError("telegram", "send reply", err)).Error("Failed to send reply")
	}
}
