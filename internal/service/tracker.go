package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"workend-notifier/internal/models"
	"workend-notifier/internal/repository"
	"workend-notifier/pkg/timeofday"
)

// Значения полей StatusView
const (
	PermissionGrantedText  = "granted"
	PermissionRequiredText = "permission required"
	ObserverActiveText     = "active"
	ObserverReloadText     = "reload required"
)

// MaxBreakMinutes - верхняя граница длительности перерыва
const MaxBreakMinutes = models.EightHoursMinutes

const (
	latestPrefix     = "latest:"
	sentPrefix       = "sent:"
	breakStartPrefix = "break:"
)

// StatusView - ответ на запрос текущего состояния
type StatusView struct {
	WorkDate   string                   `json:"workDate"`
	Latest     *models.CompletionResult `json:"latest"`
	Permission string                   `json:"permission"`
	Observer   string                   `json:"observer"`
}

// published - последняя отправленная пара результат+настройки.
// Сравнивается целиком, чтобы не объявлять одно и то же дважды.
type published struct {
	Result models.CompletionResult
	Config models.NotificationConfig
}

// AttendanceTracker принимает отметки со страницы табеля и ведет
// последний результат дня.
type AttendanceTracker struct {
	mu        sync.Mutex
	calc      *CompletionCalculator
	scheduler *AlarmScheduler
	guard     *DailyResetGuard
	state     repository.StateRepository
	config    ConfigProvider
	notifier  Notifier
	cache     *cache.Cache
	now       Clock
	observed  bool
	logger    *logrus.Logger
}

func NewAttendanceTracker(
	calc *CompletionCalculator,
	scheduler *AlarmScheduler,
	guard *DailyResetGuard,
	state repository.StateRepository,
	config ConfigProvider,
	notifier Notifier,
	now Clock,
) *AttendanceTracker {
	t := &AttendanceTracker{
		calc:      calc,
		scheduler: scheduler,
		guard:     guard,
		state:     state,
		config:    config,
		notifier:  notifier,
		cache:     cache.New(24*time.Hour, time.Hour),
		now:       now,
		logger:    newLogger(),
	}
	guard.OnReset(func(previous, today string) {
		t.cache.Flush()
	})
	return t
}

// ReportAttendance пересчитывает день по свежим отметкам
func (t *AttendanceTracker) ReportAttendance(ctx context.Context, record models.AttendanceRecord) (models.CompletionResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.observed = true
	if err := record.Validate(); err != nil {
		return models.CompletionResult{}, err
	}

	now := t.now()
	result, err := t.calc.Calculate(record, timeofday.MinuteOfDay(now))
	if err != nil {
		return models.CompletionResult{}, err
	}
	result.WorkDate = timeofday.DateString(now)

	return *result, t.publish(ctx, *result)
}

// ReportBreakStart ставит напоминания о конце начатого сейчас перерыва
func (t *AttendanceTracker) ReportBreakStart(ctx context.Context, durationMinutes, warningMinutes int) (models.CompletionResult, error) {
	if durationMinutes < 1 || durationMinutes > MaxBreakMinutes {
		return models.CompletionResult{}, fmt.Errorf("%w: duration must be between 1 and %d minutes, got %d",
			models.ErrInvalidBreak, MaxBreakMinutes, durationMinutes)
	}
	if warningMinutes < 0 {
		return models.CompletionResult{}, fmt.Errorf("%w: warning must not be negative, got %d",
			models.ErrInvalidBreak, warningMinutes)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.observed = true
	now := t.now()
	today := timeofday.DateString(now)
	breakStart := timeofday.Format(now)

	if err := t.scheduler.ScheduleBreakEnd(ctx, breakStart, durationMinutes, warningMinutes); err != nil {
		return models.CompletionResult{}, err
	}
	t.cache.Set(breakStartPrefix+today, breakStart, cache.DefaultExpiration)

	result := models.CompletionResult{
		Status:               models.StatusBreakStart,
		WorkDate:             today,
		BreakStartTime:       breakStart,
		BreakDurationMinutes: durationMinutes,
		BreakWarningMinutes:  warningMinutes,
		Message:              fmt.Sprintf("休憩開始しました (%d分の予定、%d分前に通知)", durationMinutes, warningMinutes),
	}
	notify(ctx, t.notifier, t.logger, models.NewNotificationRequest(models.NotificationBreak, "休憩開始", result.Message, false))

	return result, t.publish(ctx, result)
}

// ReportBreakEnd отменяет напоминания о перерывах за сегодня
func (t *AttendanceTracker) ReportBreakEnd(ctx context.Context) (models.CompletionResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.observed = true
	today := timeofday.DateString(t.now())

	cancelled := t.scheduler.CancelBreakAlarms(ctx, today)
	t.cache.Delete(breakStartPrefix + today)
	t.logger.WithField("cancelled", cancelled).Info("Break ended")

	result := models.CompletionResult{
		Status:   models.StatusBreakEnd,
		WorkDate: today,
		Message:  "休憩終了しました",
	}
	notify(ctx, t.notifier, t.logger, models.NewNotificationRequest(models.NotificationBreak, "休憩終了", result.Message, false))

	return result, t.publish(ctx, result)
}

// ReportBeforeWork - приход еще не отмечен
func (t *AttendanceTracker) ReportBeforeWork(ctx context.Context) (models.CompletionResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.observed = true
	result := models.CompletionResult{
		Status:   models.StatusBeforeWork,
		WorkDate: timeofday.DateString(t.now()),
		Message:  "出勤前",
	}
	return result, t.publish(ctx, result)
}

// ReportOnBreak - страница показывает, что сотрудник на перерыве
func (t *AttendanceTracker) ReportOnBreak(ctx context.Context) (models.CompletionResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.observed = true
	now := t.now()
	today := timeofday.DateString(now)

	current := 0
	if v, ok := t.cache.Get(breakStartPrefix + today); ok {
		if start, err := timeofday.ToMinutes(v.(string)); err == nil {
			current = max(0, timeofday.MinuteOfDay(now)-start)
		}
	}

	total := 0
	var stored models.CompletionResult
	if ok, err := t.state.GetJSON(ctx, models.WorkDataKey(today), &stored); err != nil {
		t.logger.WithError(models.NewExternalServiceError("storage", "get work data", err)).Warn("Total break unknown")
	} else if ok {
		total = stored.TotalBreakMinutes
	}

	result := models.CompletionResult{
		Status:              models.StatusOnBreak,
		WorkDate:            today,
		CurrentBreakMinutes: current,
		TotalBreakMinutes:   total,
		Message:             onBreakMessage(current, total),
	}
	return result, t.publish(ctx, result)
}

func onBreakMessage(current, total int) string {
	var lines []string
	if current > 0 {
		lines = append(lines, "現在の休憩: "+timeofday.FormatDuration(current))
	} else {
		lines = append(lines, "現在休憩中です")
	}
	if total > 0 {
		lines = append(lines, "合計休憩: "+timeofday.FormatDuration(total))
	}
	return strings.Join(lines, "\n")
}

// publish отправляет результат планировщику, если он отличается от
// последнего отправленного. Вызывается под t.mu.
func (t *AttendanceTracker) publish(ctx context.Context, result models.CompletionResult) error {
	// Смена дня сбрасывает кэш, поэтому проверка идет до записи в него
	t.guard.CheckBeforeSchedule(ctx)

	cfg := t.config.NotificationConfig()
	current := published{Result: result, Config: cfg}
	sentKey := sentPrefix + result.WorkDate

	if v, ok := t.cache.Get(sentKey); ok {
		if last := v.(published); last.Result.Equal(result) && last.Config == cfg {
			t.logger.WithField("status", result.Status).Debug("Same result and settings, skipping")
			return nil
		}
	}

	t.cache.Set(sentKey, current, cache.DefaultExpiration)
	t.cache.Set(latestPrefix+result.WorkDate, result, cache.DefaultExpiration)

	// Для восстановления хранится только результат с временами
	if result.HasCompletionTime() || result.Status == models.StatusFinished {
		if err := t.state.SetJSON(ctx, models.WorkDataKey(result.WorkDate), result.WorkDate, result); err != nil {
			t.logger.WithError(models.NewExternalServiceError("storage", "save work data", err)).Error("Failed to persist work data")
		}
	}

	return t.scheduler.ScheduleWorkEnd(ctx, result, cfg)
}

// Restore поднимает сохраненный результат дня и приводит его к текущему
// времени. Таймеры не трогает.
func (t *AttendanceTracker) Restore(ctx context.Context) (*models.CompletionResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	today := timeofday.DateString(now)

	var stored models.CompletionResult
	ok, err := t.state.GetJSON(ctx, models.WorkDataKey(today), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		t.logger.WithField("work_date", today).Info("No stored work data to restore")
		return nil, nil
	}

	recalculated, err := t.calc.Recalculate(stored, timeofday.MinuteOfDay(now))
	if err != nil {
		return nil, err
	}
	t.cache.Set(latestPrefix+today, recalculated, cache.DefaultExpiration)

	t.logger.WithFields(logrus.Fields{
		"status":    recalculated.Status,
		"work_date": today,
	}).Info("Work data restored")
	return &recalculated, nil
}

// CurrentStatus - рабочий день, последний результат и состояние каналов
func (t *AttendanceTracker) CurrentStatus(ctx context.Context) StatusView {
	t.mu.Lock()
	observed := t.observed
	t.mu.Unlock()

	workDate := t.guard.CurrentWorkDate()
	if workDate == "" {
		workDate = timeofday.DateString(t.now())
	}

	view := StatusView{
		WorkDate:   workDate,
		Permission: PermissionRequiredText,
		Observer:   ObserverReloadText,
	}
	if v, ok := t.cache.Get(latestPrefix + workDate); ok {
		latest := v.(models.CompletionResult)
		view.Latest = &latest
	}
	if t.notifier.Permission(ctx) == models.PermissionGranted {
		view.Permission = PermissionGrantedText
	}
	if observed {
		view.Observer = ObserverActiveText
	}
	return view
}
