package handler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"workend-notifier/internal/config"
	"workend-notifier/internal/models"
	"workend-notifier/internal/service"
	"workend-notifier/internal/timer"
	"workend-notifier/pkg/timeofday"
)

// defaultBreakWarning - за сколько минут напомнить о конце перерыва, если не указано
const defaultBreakWarning = 5

var errUsage = errors.New("usage")

func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	args := message.CommandArguments()

	switch message.Command() {
	case "start", "help":
		h.sendHelpMessage(message)
	case "status":
		h.showStatus(ctx, message)
	case "break":
		h.startBreak(ctx, message, args)
	case "breakend":
		h.endBreak(ctx, message)
	case "settings":
		h.showSettings(message)
	case "overtime":
		h.setOvertime(message, args)
	case "warning":
		h.setWarning(message, args)
	default:
		h.reply(message.Chat.ID, "❌ Неизвестная команда. Используйте /help для списка команд.")
	}
}

func (h *Handler) sendHelpMessage(message *tgbotapi.Message) {
	text := `📋 Доступные команды:

⏰ Рабочий день:
/status - Текущий статус и запланированные напоминания

☕ Перерывы:
/break минуты [за_сколько] - Начать перерыв
    Пример: /break 45 5
/breakend - Закончить перерыв

⚙️ Настройки:
/settings - Показать настройки уведомлений
/warning 1|2 минуты - Изменить предупреждение
/warning 1|2 off - Выключить предупреждение
/overtime on [интервал] - Напоминать о переработке
/overtime off - Не напоминать о переработке

💡 Отметки прихода и ухода приходят со страницы табеля автоматически.`

	h.reply(message.Chat.ID, text)
}

func (h *Handler) showStatus(ctx context.Context, message *tgbotapi.Message) {
	view := h.tracker.CurrentStatus(ctx)
	h.reply(message.Chat.ID, formatStatus(view, h.alarms.Alarms()))
}

func (h *Handler) startBreak(ctx context.Context, message *tgbotapi.Message, args string) {
	duration, warning, err := parseBreakArgs(args)
	if err != nil {
		h.reply(message.Chat.ID, "❌ Формат: /break минуты [за_сколько]\nПример: /break 45 5")
		return
	}

	result, err := h.tracker.ReportBreakStart(ctx, duration, warning)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to start break")
		h.reply(message.Chat.ID, "❌ Не удалось начать перерыв: "+err.Error())
		return
	}

	// Как и в напоминании, после полуночи время не переносится: 24:20
	end, err := timeofday.AddMinutes(result.BreakStartTime, duration)
	if err != nil {
		end = "?"
	}
	h.reply(message.Chat.ID, fmt.Sprintf("☕ Перерыв начат в %s\n⏳ Конец: %s\n🔔 %s", result.BreakStartTime, end, result.Message))
}

func (h *Handler) endBreak(ctx context.Context, message *tgbotapi.Message) {
	result, err := h.tracker.ReportBreakEnd(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to end break")
		h.reply(message.Chat.ID, "❌ Не удалось закончить перерыв: "+err.Error())
		return
	}
	h.reply(message.Chat.ID, "✅ "+result.Message)
}

func (h *Handler) showSettings(message *tgbotapi.Message) {
	h.reply(message.Chat.ID, formatSettings(h.settings.Get().NotificationConfig()))
}

func (h *Handler) setOvertime(message *tgbotapi.Message, args string) {
	next, err := applyOvertime(h.settings.Get(), args)
	if err != nil {
		h.reply(message.Chat.ID, "❌ Формат: /overtime on [интервал] или /overtime off")
		return
	}
	h.saveSettings(message, next)
}

func (h *Handler) setWarning(message *tgbotapi.Message, args string) {
	next, err := applyWarning(h.settings.Get(), args)
	if err != nil {
		h.reply(message.Chat.ID, "❌ Формат: /warning 1|2 минуты или /warning 1|2 off")
		return
	}
	h.saveSettings(message, next)
}

func (h *Handler) saveSettings(message *tgbotapi.Message, next config.Settings) {
	if err := h.settings.Save(next); err != nil {
		h.logger.WithError(err).Warn("Rejected settings change")
		h.reply(message.Chat.ID, "❌ Настройки не сохранены: "+err.Error())
		return
	}
	h.reply(message.Chat.ID, "✅ Настройки сохранены\n\n"+formatSettings(next.NotificationConfig()))
}

// parseBreakArgs разбирает "минуты [за_сколько]"
func parseBreakArgs(args string) (duration, warning int, err error) {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, 0, errUsage
	}

	if duration, err = strconv.Atoi(fields[0]); err != nil {
		return 0, 0, errUsage
	}
	warning = defaultBreakWarning
	if len(fields) == 2 {
		if warning, err = strconv.Atoi(fields[1]); err != nil {
			return 0, 0, errUsage
		}
	}
	return duration, warning, nil
}

// choiceFor превращает минуты в выбор предустановки или custom
func choiceFor(minutes int, presets []int) (choice string, custom int, isCustom bool) {
	if slices.Contains(presets, minutes) {
		return strconv.Itoa(minutes), 0, false
	}
	return config.CustomChoice, minutes, true
}

// applyOvertime применяет "on [интервал]" или "off"
func applyOvertime(s config.Settings, args string) (config.Settings, error) {
	fields := strings.Fields(strings.ToLower(args))
	if len(fields) == 0 || len(fields) > 2 {
		return s, errUsage
	}

	switch fields[0] {
	case "off":
		if len(fields) != 1 {
			return s, errUsage
		}
		s.EnableOvertimeNotifications = false
	case "on":
		s.EnableOvertimeNotifications = true
		if len(fields) == 2 {
			minutes, err := strconv.Atoi(fields[1])
			if err != nil {
				return s, errUsage
			}
			choice, custom, isCustom := choiceFor(minutes, config.OvertimePresets)
			s.OvertimeInterval = choice
			if isCustom {
				s.CustomOvertime = custom
			}
		}
	default:
		return s, errUsage
	}
	return s, nil
}

// applyWarning применяет "1|2 минуты" или "1|2 off"
func applyWarning(s config.Settings, args string) (config.Settings, error) {
	fields := strings.Fields(strings.ToLower(args))
	if len(fields) != 2 {
		return s, errUsage
	}

	enabled, choice, custom := &s.EnableNotification1, &s.WarningTime1, &s.CustomWarning1
	switch fields[0] {
	case "1":
	case "2":
		enabled, choice, custom = &s.EnableNotification2, &s.WarningTime2, &s.CustomWarning2
	default:
		return s, errUsage
	}

	if fields[1] == "off" {
		*enabled = false
		return s, nil
	}

	minutes, err := strconv.Atoi(fields[1])
	if err != nil {
		return s, errUsage
	}
	c, v, isCustom := choiceFor(minutes, config.WarningPresets)
	*enabled = true
	*choice = c
	if isCustom {
		*custom = v
	}
	return s, nil
}

func formatSettings(cfg models.NotificationConfig) string {
	onOff := func(enabled bool) string {
		if enabled {
			return "вкл"
		}
		return "выкл"
	}

	return fmt.Sprintf(`⚙️ Настройки уведомлений:

🔔 Предупреждение 1: %s, за %d мин
🔔 Предупреждение 2: %s, за %d мин
⏱ Переработка: %s, каждые %d мин`,
		onOff(cfg.Warning1.Enabled), cfg.Warning1.OffsetMinutes,
		onOff(cfg.Warning2.Enabled), cfg.Warning2.OffsetMinutes,
		onOff(cfg.Overtime.Enabled), cfg.Overtime.IntervalMinutes,
	)
}

func formatStatus(view service.StatusView, alarms []timer.Timer) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📅 Рабочий день: %s\n", view.WorkDate)
	if view.Latest != nil {
		fmt.Fprintf(&b, "📊 Статус: %s\n", view.Latest.Status)
		if view.Latest.CompletionTime != "" {
			fmt.Fprintf(&b, "⏰ 8 часов: %s\n", view.Latest.CompletionTime)
		}
		if view.Latest.Message != "" {
			fmt.Fprintf(&b, "💬 %s\n", view.Latest.Message)
		}
	} else {
		b.WriteString("📊 Отметок за сегодня еще не было\n")
	}
	fmt.Fprintf(&b, "🔔 Уведомления: %s\n", view.Permission)
	fmt.Fprintf(&b, "👀 Наблюдатель: %s\n", view.Observer)

	if len(alarms) == 0 {
		b.WriteString("\nНапоминаний нет")
		return b.String()
	}

	b.WriteString("\n⏳ Напоминания:")
	for _, t := range alarms {
		fmt.Fprintf(&b, "\n• %s - %s", t.FireAt.Format("15:04"), t.Name)
		if t.IsPeriodic() {
			fmt.Fprintf(&b, " (каждые %d мин)", int(t.Period/time.Minute))
		}
	}
	return b.String()
}
