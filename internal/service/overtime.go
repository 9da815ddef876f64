package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"workend-notifier/internal/models"
	"workend-notifier/internal/repository"
	"workend-notifier/internal/timer"
	"workend-notifier/pkg/timeofday"
)

// OvertimeLoop - периодическое напоминание о переработке.
// Вызовы сериализует AlarmScheduler.
type OvertimeLoop struct {
	timers   timer.Service
	alarms   repository.AlarmRepository
	state    repository.StateRepository
	notifier Notifier
	now      Clock
	logger   *logrus.Logger
}

func NewOvertimeLoop(
	timers timer.Service,
	alarms repository.AlarmRepository,
	state repository.StateRepository,
	notifier Notifier,
	now Clock,
) *OvertimeLoop {
	return &OvertimeLoop{
		timers:   timers,
		alarms:   alarms,
		state:    state,
		notifier: notifier,
		now:      now,
		logger:   newLogger(),
	}
}

// Start создает периодический таймер, существующий заменяется
func (o *OvertimeLoop) Start(ctx context.Context, intervalMinutes int) {
	if intervalMinutes <= 0 {
		o.logger.WithField("interval", intervalMinutes).Warn("Invalid overtime interval, loop not started")
		return
	}

	o.Stop(ctx)

	now := o.now()
	period := time.Duration(intervalMinutes) * time.Minute
	alarm := &models.Alarm{
		Name:          models.OvertimeAlarmName,
		Kind:          models.AlarmOvertime,
		WorkDate:      timeofday.DateString(now),
		FireAt:        now.Add(period),
		PeriodMinutes: intervalMinutes,
		ScheduledAt:   now,
	}
	if err := o.alarms.Save(ctx, alarm); err != nil {
		o.logger.WithError(models.NewExternalServiceError("storage", "save overtime alarm", err)).
			Error("Overtime loop not started")
		return
	}
	o.timers.Create(alarm.Name, alarm.FireAt, period)

	o.logger.WithField("interval", intervalMinutes).Info("Overtime loop started")
}

// Stop отменяет таймер, повторный вызов ничего не делает
func (o *OvertimeLoop) Stop(ctx context.Context) {
	cleared := o.timers.Clear(models.OvertimeAlarmName)
	if err := o.alarms.Delete(ctx, models.OvertimeAlarmName); err != nil {
		o.logger.WithError(models.NewExternalServiceError("storage", "delete overtime alarm", err)).
			Warn("Failed to delete overtime alarm metadata")
	}
	if cleared {
		o.logger.Info("Overtime loop stopped")
	}
}

// Active возвращает период работающего таймера
func (o *OvertimeLoop) Active() (time.Duration, bool) {
	for _, t := range o.timers.GetAll() {
		if t.Name == models.OvertimeAlarmName {
			return t.Period, true
		}
	}
	return 0, false
}

// Tick - одно срабатывание: сообщает о переработке, если она есть
func (o *OvertimeLoop) Tick(ctx context.Context) {
	completion, ok, err := o.state.Get(ctx, models.KeyCompletionTimeForOvertime)
	if err != nil {
		o.logger.WithError(models.NewExternalServiceError("storage", "get completion time", err)).
			Warn("Overtime tick skipped")
		return
	}
	if !ok || completion == "" {
		return
	}

	completionMinutes, err := timeofday.ToMinutes(completion)
	if err != nil {
		o.logger.WithError(err).Warn("Stored completion time is malformed")
		return
	}

	overtime := timeofday.MinuteOfDay(o.now()) - completionMinutes
	if overtime <= 0 {
		o.logger.WithField("overtime", overtime).Debug("No overtime yet, tick ignored")
		return
	}

	notify(ctx, o.notifier, o.logger, models.NewNotificationRequest(
		models.NotificationOvertime,
		"超過勤務のお知らせ",
		fmt.Sprintf("8時間労働完了から%sが経過しました\n完了時刻: %s", timeofday.FormatDuration(overtime), completion),
		true,
	))
}

// Reconcile приводит таймер к настройкам: выключение отменяет его,
// смена интервала пересоздает. Если норма за сегодня уже выработана,
// включение запускает цикл сразу.
func (o *OvertimeLoop) Reconcile(ctx context.Context, setting models.OvertimeSetting) {
	period, active := o.Active()

	if !setting.Enabled {
		if active {
			o.Stop(ctx)
		}
		return
	}

	want := time.Duration(setting.IntervalMinutes) * time.Minute
	if active {
		if period != want {
			o.Start(ctx, setting.IntervalMinutes)
		}
		return
	}

	_, completed, err := o.state.Get(ctx, models.KeyCompletionTimeForOvertime)
	if err != nil {
		o.logger.WithError(models.NewExternalServiceError("storage", "get completion time", err)).
			Warn("Overtime reconcile skipped")
		return
	}
	if completed {
		o.Start(ctx, setting.IntervalMinutes)
	}
}
