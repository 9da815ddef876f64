package handler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workend-notifier/internal/config"
	"workend-notifier/internal/models"
	"workend-notifier/internal/service"
	"workend-notifier/internal/timer"
)

const ownChat int64 = 42

type fakeBot struct {
	sent []string
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) last() string {
	if len(b.sent) == 0 {
		return ""
	}
	return b.sent[len(b.sent)-1]
}

type fakeTracker struct {
	duration, warning int
	breakStart        string
	breakEnded        bool
	err               error
}

func (f *fakeTracker) ReportBreakStart(_ context.Context, duration, warning int) (models.CompletionResult, error) {
	if f.err != nil {
		return models.CompletionResult{}, f.err
	}
	f.duration, f.warning = duration, warning
	start := f.breakStart
	if start == "" {
		start = "12:00"
	}
	return models.CompletionResult{
		Status:         models.StatusBreakStart,
		BreakStartTime: start,
		Message:        "休憩開始しました",
	}, nil
}

func (f *fakeTracker) ReportBreakEnd(context.Context) (models.CompletionResult, error) {
	f.breakEnded = true
	return models.CompletionResult{Status: models.StatusBreakEnd, Message: "休憩終了しました"}, nil
}

func (f *fakeTracker) CurrentStatus(context.Context) service.StatusView {
	return service.StatusView{
		WorkDate:   "2026-10-16",
		Latest:     &models.CompletionResult{Status: models.StatusPending, CompletionTime: "18:00"},
		Permission: service.PermissionGrantedText,
		Observer:   service.ObserverActiveText,
	}
}

type fakeAlarms []timer.Timer

func (f fakeAlarms) Alarms() []timer.Timer { return f }

func newTestHandler(t *testing.T) (*Handler, *fakeBot, *fakeTracker, *config.SettingsStore) {
	t.Helper()
	store, err := config.NewSettingsStore(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)

	bot := &fakeBot{}
	tracker := &fakeTracker{}
	alarms := fakeAlarms{{Name: "2026-10-16_completion", FireAt: time.Date(2026, 10, 16, 18, 0, 0, 0, time.Local)}}
	return NewHandler(bot, ownChat, tracker, alarms, store), bot, tracker, store
}

func command(chatID int64, text string) *tgbotapi.Message {
	length := len(text)
	for i, r := range text {
		if r == ' ' {
			length = i
			break
		}
	}
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func TestHandleUpdates_IgnoresOtherChats(t *testing.T) {
	h, bot, _, _ := newTestHandler(t)

	updates := make(chan tgbotapi.Update, 2)
	updates <- tgbotapi.Update{Message: command(7, "/status")}
	updates <- tgbotapi.Update{Message: command(ownChat, "/help")}
	close(updates)

	h.HandleUpdates(context.Background(), updates)
	require.Len(t, bot.sent, 1)
	assert.Contains(t, bot.sent[0], "/break")
}

func TestHandleMessage_PlainText(t *testing.T) {
	h, bot, _, _ := newTestHandler(t)
	h.handleMessage(context.Background(), &tgbotapi.Message{Text: "привет", Chat: &tgbotapi.Chat{ID: ownChat}})
	assert.Contains(t, bot.last(), "/help")
}

func TestStatusCommand(t *testing.T) {
	h, bot, _, _ := newTestHandler(t)
	h.handleMessage(context.Background(), command(ownChat, "/status"))

	assert.Contains(t, bot.last(), "2026-10-16")
	assert.Contains(t, bot.last(), "⏰ 8 часов: 18:00")
	assert.Contains(t, bot.last(), "18:00 - 2026-10-16_completion")
}

func TestBreakCommands(t *testing.T) {
	h, bot, tracker, _ := newTestHandler(t)
	ctx := context.Background()

	h.handleMessage(ctx, command(ownChat, "/break 45 10"))
	assert.Equal(t, 45, tracker.duration)
	assert.Equal(t, 10, tracker.warning)
	assert.Contains(t, bot.last(), "Конец: 12:45")

	h.handleMessage(ctx, command(ownChat, "/break 30"))
	assert.Equal(t, defaultBreakWarning, tracker.warning)

	h.handleMessage(ctx, command(ownChat, "/break"))
	assert.Contains(t, bot.last(), "Формат")

	tracker.err = models.ErrInvalidBreak
	h.handleMessage(ctx, command(ownChat, "/break 999"))
	assert.Contains(t, bot.last(), "Не удалось начать перерыв")

	h.handleMessage(ctx, command(ownChat, "/breakend"))
	assert.True(t, tracker.breakEnded)
	assert.Equal(t, "✅ 休憩終了しました", bot.last())

	// Конец перерыва после полуночи пишется так же, как в напоминании
	tracker.err = nil
	tracker.breakStart = "23:50"
	h.handleMessage(ctx, command(ownChat, "/break 30 5"))
	assert.Contains(t, bot.last(), "Конец: 24:20")
}

func TestSettingsCommands(t *testing.T) {
	h, bot, _, store := newTestHandler(t)
	ctx := context.Background()

	var changes int
	store.Subscribe(func(prev, next config.Settings) { changes++ })

	h.handleMessage(ctx, command(ownChat, "/overtime on 45"))
	cfg := store.NotificationConfig()
	assert.True(t, cfg.Overtime.Enabled)
	assert.Equal(t, 45, cfg.Overtime.IntervalMinutes)
	assert.Contains(t, bot.last(), "Настройки сохранены")

	h.handleMessage(ctx, command(ownChat, "/warning 2 off"))
	assert.False(t, store.NotificationConfig().Warning2.Enabled)

	h.handleMessage(ctx, command(ownChat, "/warning 1 -5"))
	assert.Contains(t, bot.last(), "Настройки не сохранены")
	assert.Equal(t, 10, store.NotificationConfig().Warning1.OffsetMinutes)

	h.handleMessage(ctx, command(ownChat, "/settings"))
	assert.Contains(t, bot.last(), "Переработка: вкл, каждые 45 мин")
	assert.Equal(t, 2, changes)
}

func TestParseBreakArgs(t *testing.T) {
	d, w, err := parseBreakArgs("45 5")
	require.NoError(t, err)
	assert.Equal(t, 45, d)
	assert.Equal(t, 5, w)

	d, w, err = parseBreakArgs(" 60 ")
	require.NoError(t, err)
	assert.Equal(t, 60, d)
	assert.Equal(t, defaultBreakWarning, w)

	for _, args := range []string{"", "abc", "30 x", "1 2 3"} {
		_, _, err := parseBreakArgs(args)
		assert.ErrorIs(t, err, errUsage, args)
	}
}

func TestApplyOvertime(t *testing.T) {
	base := config.DefaultSettings()

	s, err := applyOvertime(base, "on")
	require.NoError(t, err)
	assert.True(t, s.EnableOvertimeNotifications)
	assert.Equal(t, "30", s.OvertimeInterval)

	s, err = applyOvertime(base, "ON 15")
	require.NoError(t, err)
	assert.Equal(t, "15", s.OvertimeInterval)

	s, err = applyOvertime(base, "on 50")
	require.NoError(t, err)
	assert.Equal(t, config.CustomChoice, s.OvertimeInterval)
	assert.Equal(t, 50, s.CustomOvertime)

	s, err = applyOvertime(s, "off")
	require.NoError(t, err)
	assert.False(t, s.EnableOvertimeNotifications)

	for _, args := range []string{"", "maybe", "off 30", "on x"} {
		_, err := applyOvertime(base, args)
		assert.ErrorIs(t, err, errUsage, args)
	}
}

func TestApplyWarning(t *testing.T) {
	base := config.DefaultSettings()

	s, err := applyWarning(base, "1 15")
	require.NoError(t, err)
	assert.Equal(t, "15", s.WarningTime1)
	assert.True(t, s.EnableNotification1)

	s, err = applyWarning(base, "2 7")
	require.NoError(t, err)
	assert.Equal(t, config.CustomChoice, s.WarningTime2)
	assert.Equal(t, 7, s.CustomWarning2)
	assert.Equal(t, 7, s.NotificationConfig().Warning2.OffsetMinutes)

	for _, args := range []string{"", "3 5", "1", "1 soon"} {
		_, err := applyWarning(base, args)
		assert.ErrorIs(t, err, errUsage, args)
	}
}

func TestFormatStatus_NoData(t *testing.T) {
	text := formatStatus(service.StatusView{
		WorkDate:   "2026-10-16",
		Permission: service.PermissionRequiredText,
		Observer:   service.ObserverReloadText,
	}, nil)
	assert.Contains(t, text, "Отметок за сегодня еще не было")
	assert.Contains(t, text, "permission required")
	assert.Contains(t, text, "Напоминаний нет")
}
