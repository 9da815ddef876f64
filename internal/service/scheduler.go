package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"workend-notifier/internal/models"
	"workend-notifier/internal/repository"
	"workend-notifier/internal/timer"
	"workend-notifier/pkg/timeofday"
)

// AlarmScheduler превращает результат расчета в именованные таймеры.
// Метаданные таймера сохраняются до его взвода, список живых таймеров
// всегда берется у timer.Service.
type AlarmScheduler struct {
	mu       sync.Mutex
	timers   timer.Service
	alarms   repository.AlarmRepository
	state    repository.StateRepository
	guard    *DailyResetGuard
	overtime *OvertimeLoop
	notifier Notifier
	config   ConfigProvider
	now      Clock
	logger   *logrus.Logger
}

func NewAlarmScheduler(
	timers timer.Service,
	alarms repository.AlarmRepository,
	state repository.StateRepository,
	guard *DailyResetGuard,
	notifier Notifier,
	config ConfigProvider,
	now Clock,
) *AlarmScheduler {
	s := &AlarmScheduler{
		timers:   timers,
		alarms:   alarms,
		state:    state,
		guard:    guard,
		overtime: NewOvertimeLoop(timers, alarms, state, notifier, now),
		notifier: notifier,
		config:   config,
		now:      now,
		logger:   newLogger(),
	}
	timers.SetHandler(func(name string) {
		s.OnAlarmFired(context.Background(), name)
	})
	return s
}

// ScheduleWorkEnd пересоздает напоминания об окончании дня по результату расчета.
// Напоминания о перерыве не трогаются.
func (s *AlarmScheduler) ScheduleWorkEnd(ctx context.Context, result models.CompletionResult, cfg models.NotificationConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.guard.CheckBeforeSchedule(ctx)

	now := s.now()
	today := timeofday.DateString(now)

	s.clearAlarms(ctx, today, models.AlarmKind.IsWorkEnd)
	s.guard.MarkWorkDate(ctx, today)

	s.logger.WithFields(logrus.Fields{
		"status":     result.Status,
		"work_date":  today,
		"completion": result.CompletionTime,
	}).Info("Scheduling work end notifications")

	switch result.Status {
	case models.StatusFinished:
		s.overtime.Stop(ctx)
		notify(ctx, s.notifier, s.logger, models.NewNotificationRequest(
			models.NotificationFinished, "退勤済み", result.Message, false))
	case models.StatusCompleted:
		notify(ctx, s.notifier, s.logger, models.NewNotificationRequest(
			models.NotificationCompleted, "8時間労働完了済み", result.Message, false))
	case models.StatusPending:
		return s.schedulePending(ctx, today, now, result, cfg)
	}

	return nil
}

func (s *AlarmScheduler) schedulePending(ctx context.Context, today string, now time.Time, result models.CompletionResult, cfg models.NotificationConfig) error {
	completion, err := timeofday.ToMinutes(result.CompletionTime)
	if err != nil {
		return err
	}
	nowMinutes := timeofday.MinuteOfDay(now)

	for _, w := range cfg.EnabledWarnings() {
		notifyAt := completion - w
		if notifyAt <= nowMinutes {
			continue
		}
		s.createAlarm(ctx, &models.Alarm{
			Name:           models.WarningKey(today, w).Name(),
			Kind:           models.AlarmWarning,
			WorkDate:       today,
			FireAt:         now.Add(time.Duration(notifyAt-nowMinutes) * time.Minute),
			MinutesBefore:  w,
			CompletionTime: result.CompletionTime,
			ScheduledAt:    now,
		})
	}

	if completion > nowMinutes {
		s.createAlarm(ctx, &models.Alarm{
			Name:           models.CompletionKey(today).Name(),
			Kind:           models.AlarmCompletion,
			WorkDate:       today,
			FireAt:         now.Add(time.Duration(completion-nowMinutes) * time.Minute),
			CompletionTime: result.CompletionTime,
			ScheduledAt:    now,
		})
	}

	notify(ctx, s.notifier, s.logger, models.NewNotificationRequest(
		models.NotificationStatus, "退勤通知設定完了", scheduleSummary(today, result.CompletionTime, cfg), false))

	return nil
}

func scheduleSummary(today, completionTime string, cfg models.NotificationConfig) string {
	lines := []string{
		today + "の通知をセットしました",
		"完了予定: " + completionTime,
	}
	for _, w := range cfg.EnabledWarnings() {
		at, err := timeofday.AddMinutes(completionTime, -w)
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d分前: %s", w, at))
	}
	if cfg.Overtime.Enabled {
		lines = append(lines, fmt.Sprintf("超過勤務通知: %d分ごと", cfg.Overtime.IntervalMinutes))
	}
	return strings.Join(lines, "\n")
}

// ScheduleBreakEnd ставит напоминания о конце перерыва, начатого в breakStart
func (s *AlarmScheduler) ScheduleBreakEnd(ctx context.Context, breakStart string, durationMinutes, warningMinutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start, err := timeofday.ToMinutes(breakStart)
	if err != nil {
		return err
	}

	s.guard.CheckBeforeSchedule(ctx)

	now := s.now()
	today := timeofday.DateString(now)
	nowMinutes := timeofday.MinuteOfDay(now)
	s.guard.MarkWorkDate(ctx, today)

	breakEnd := start + durationMinutes
	endTime := timeofday.ToTimeString(breakEnd)
	if breakEnd <= nowMinutes {
		s.logger.WithFields(logrus.Fields{
			"break_start": breakStart,
			"break_end":   endTime,
		}).Info("Break already over, nothing to schedule")
		return nil
	}

	exact := models.BreakEndKey(today, breakStart).Name()
	s.clearAlarm(ctx, exact)
	s.createAlarm(ctx, &models.Alarm{
		Name:           exact,
		Kind:           models.AlarmBreakEndExact,
		WorkDate:       today,
		FireAt:         now.Add(time.Duration(breakEnd-nowMinutes) * time.Minute),
		BreakStartTime: breakStart,
		BreakEndTime:   endTime,
		ScheduledAt:    now,
	})

	warning := models.BreakWarningKey(today, breakStart).Name()
	s.clearAlarm(ctx, warning)
	if warnAt := breakEnd - warningMinutes; warningMinutes > 0 && warnAt > nowMinutes {
		s.createAlarm(ctx, &models.Alarm{
			Name:           warning,
			Kind:           models.AlarmBreakWarning,
			WorkDate:       today,
			FireAt:         now.Add(time.Duration(warnAt-nowMinutes) * time.Minute),
			MinutesBefore:  warningMinutes,
			BreakStartTime: breakStart,
			BreakEndTime:   endTime,
			ScheduledAt:    now,
		})
	}

	return nil
}

// CancelBreakAlarms отменяет напоминания о перерывах за workDate
func (s *AlarmScheduler) CancelBreakAlarms(ctx context.Context, workDate string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearAlarms(ctx, workDate, models.AlarmKind.IsBreak)
}

// OnAlarmFired обрабатывает срабатывание таймера. Отсутствие метаданных
// значит, что таймер уже обработан или устарел.
func (s *AlarmScheduler) OnAlarmFired(ctx context.Context, name string) {
	// Чтение настроек может вызвать подписчиков, которые сами берут s.mu
	cfg := s.config.NotificationConfig()

	s.mu.Lock()
	defer s.mu.Unlock()

	alarm, err := s.alarms.Get(ctx, name)
	if err != nil {
		s.logger.WithError(models.NewExternalServiceError("storage", "get alarm", err)).
			WithField("name", name).Error("Failed to load fired alarm")
		return
	}
	if alarm == nil {
		s.logger.WithField("name", name).Debug("Fired alarm has no metadata, ignoring")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"name": name,
		"kind": alarm.Kind,
	}).Info("Alarm fired")

	switch alarm.Kind {
	case models.AlarmOvertime:
		if today := timeofday.DateString(s.now()); alarm.WorkDate != today {
			s.logger.WithFields(logrus.Fields{
				"work_date": alarm.WorkDate,
				"today":     today,
			}).Info("Overtime alarm outlived its work day, stopping")
			s.guard.CheckBeforeSchedule(ctx)
			s.overtime.Stop(ctx)
			return
		}
		s.overtime.Tick(ctx)
		return
	case models.AlarmWarning:
		notify(ctx, s.notifier, s.logger, models.NewNotificationRequest(
			models.NotificationWarning,
			fmt.Sprintf("退勤%d分前", alarm.MinutesBefore),
			fmt.Sprintf("8時間労働完了まで%d分です\n完了予定時刻: %s", alarm.MinutesBefore, alarm.CompletionTime),
			true,
		))
	case models.AlarmCompletion:
		notify(ctx, s.notifier, s.logger, models.NewNotificationRequest(
			models.NotificationSuccess,
			"8時間労働完了！",
			"お疲れさまでした！\n完了時刻: "+alarm.CompletionTime,
			true,
		))
		if err := s.state.Set(ctx, models.KeyCompletionTimeForOvertime, alarm.WorkDate, alarm.CompletionTime); err != nil {
			s.logger.WithError(models.NewExternalServiceError("storage", "set completion time", err)).
				Error("Failed to persist completion time")
		}
		if cfg.Overtime.Enabled {
			s.overtime.Start(ctx, cfg.Overtime.IntervalMinutes)
		}
	case models.AlarmBreakWarning:
		notify(ctx, s.notifier, s.logger, models.NewNotificationRequest(
			models.NotificationBreak,
			fmt.Sprintf("休憩終了%d分前", alarm.MinutesBefore),
			fmt.Sprintf("休憩終了まであと%d分です\n終了予定: %s", alarm.MinutesBefore, alarm.BreakEndTime),
			true,
		))
	case models.AlarmBreakEndExact:
		notify(ctx, s.notifier, s.logger, models.NewNotificationRequest(
			models.NotificationBreak,
			"休憩終了時刻です",
			fmt.Sprintf("休憩開始 %s から予定の時間が経過しました\n終了予定: %s", alarm.BreakStartTime, alarm.BreakEndTime),
			true,
		))
	default:
		s.logger.WithField("kind", alarm.Kind).Warn("Unknown alarm kind")
	}

	s.clearAlarm(ctx, name)
}

// Restore взводит сохраненные таймеры после перезапуска процесса.
// Просроченные одноразовые срабатывают сразу, метаданные других дней удаляются.
func (s *AlarmScheduler) Restore(ctx context.Context) int {
	s.guard.CheckOnStartup(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	today := timeofday.DateString(now)

	alarms, err := s.alarms.List(ctx)
	if err != nil {
		s.logger.WithError(models.NewExternalServiceError("storage", "list alarms", err)).Error("Failed to restore alarms")
		return 0
	}

	restored := 0
	for _, alarm := range alarms {
		if alarm.WorkDate != today {
			if err := s.alarms.Delete(ctx, alarm.Name); err != nil {
				s.logger.WithError(err).WithField("name", alarm.Name).Warn("Failed to purge stale alarm")
			}
			continue
		}

		fireAt := alarm.FireAt
		if alarm.IsPeriodic() {
			for !fireAt.After(now) {
				fireAt = fireAt.Add(alarm.Period())
			}
		}
		s.timers.Create(alarm.Name, fireAt, alarm.Period())
		restored++
	}

	s.logger.WithFields(logrus.Fields{
		"restored": restored,
		"total":    len(alarms),
	}).Info("Alarms restored")
	return restored
}

// ReconcileOvertime применяет новые настройки напоминаний о переработке
func (s *AlarmScheduler) ReconcileOvertime(ctx context.Context, setting models.OvertimeSetting) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.guard.CheckBeforeSchedule(ctx)
	s.overtime.Reconcile(ctx, setting)
}

// Alarms - снимок живых таймеров
func (s *AlarmScheduler) Alarms() []timer.Timer {
	return s.timers.GetAll()
}

// createAlarm сохраняет метаданные и только потом взводит таймер
func (s *AlarmScheduler) createAlarm(ctx context.Context, alarm *models.Alarm) {
	if err := s.alarms.Save(ctx, alarm); err != nil {
		s.logger.WithError(models.NewExternalServiceError("storage", "save alarm", err)).
			WithField("name", alarm.Name).Error("Alarm not scheduled")
		return
	}
	s.timers.Create(alarm.Name, alarm.FireAt, alarm.Period())

	s.logger.WithFields(logrus.Fields{
		"name":    alarm.Name,
		"fire_at": alarm.FireAt.Format("15:04:05"),
	}).Debug("Alarm scheduled")
}

func (s *AlarmScheduler) clearAlarm(ctx context.Context, name string) {
	s.timers.Clear(name)
	if err := s.alarms.Delete(ctx, name); err != nil {
		s.logger.WithError(models.NewExternalServiceError("storage", "delete alarm", err)).
			WithField("name", name).Warn("Failed to delete alarm metadata")
	}
}

// clearAlarms отменяет живые таймеры дня workDate, вид которых подходит под match
func (s *AlarmScheduler) clearAlarms(ctx context.Context, workDate string, match func(models.AlarmKind) bool) int {
	cleared := 0
	for _, t := range s.timers.GetAll() {
		key, ok := models.ParseAlarmName(t.Name)
		if !ok || key.WorkDate != workDate || !match(key.Kind) {
			continue
		}
		s.clearAlarm(ctx, t.Name)
		cleared++
	}
	return cleared
}
