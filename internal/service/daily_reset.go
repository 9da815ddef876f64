package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"workend-notifier/internal/models"
	"workend-notifier/internal/repository"
	"workend-notifier/internal/timer"
	"workend-notifier/pkg/timeofday"
)

// Clock - источник текущего времени
type Clock func() time.Time

// ResetFunc получает прошлый и новый рабочий день
type ResetFunc func(previous, today string)

// DailyResetGuard следит за сменой рабочего дня. Рабочий день каждый раз
// перечитывается из хранилища, память процесса служит только запасным вариантом.
type DailyResetGuard struct {
	mu        sync.Mutex
	current   string
	timers    timer.Service
	alarms    repository.AlarmRepository
	state     repository.StateRepository
	now       Clock
	listeners []ResetFunc
	logger    *logrus.Logger
}

func NewDailyResetGuard(
	timers timer.Service,
	alarms repository.AlarmRepository,
	state repository.StateRepository,
	now Clock,
) *DailyResetGuard {
	return &DailyResetGuard{
		timers: timers,
		alarms: alarms,
		state:  state,
		now:    now,
		logger: newLogger(),
	}
}

// OnReset регистрирует обработчик смены дня. Обработчик вызывается
// без блокировок guard и не должен обращаться к нему обратно.
func (g *DailyResetGuard) OnReset(fn ResetFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// CheckOnStartup - проверка при запуске процесса
func (g *DailyResetGuard) CheckOnStartup(ctx context.Context) bool {
	reset := g.check(ctx)
	g.logger.WithFields(logrus.Fields{
		"work_date": g.CurrentWorkDate(),
		"reset":     reset,
	}).Info("Startup work date check completed")
	return reset
}

// CheckBeforeSchedule - проверка перед любой операцией планирования
func (g *DailyResetGuard) CheckBeforeSchedule(ctx context.Context) bool {
	return g.check(ctx)
}

func (g *DailyResetGuard) check(ctx context.Context) bool {
	today := timeofday.DateString(g.now())

	g.mu.Lock()
	stored, ok, err := g.state.Get(ctx, models.KeyCurrentWorkDate)
	switch {
	case err != nil:
		g.logger.WithError(models.NewExternalServiceError("storage", "get work date", err)).
			Warn("Falling back to in-memory work date")
	case ok:
		g.current = stored
	}
	previous := g.current
	g.mu.Unlock()

	if previous == "" || previous == today {
		return false
	}

	g.ResetForNewDay(ctx, previous)
	return true
}

// ResetForNewDay сбрасывает все таймеры и состояние прошлого дня
func (g *DailyResetGuard) ResetForNewDay(ctx context.Context, previous string) {
	today := timeofday.DateString(g.now())

	g.logger.WithFields(logrus.Fields{
		"previous": previous,
		"today":    today,
	}).Info("Work date changed, resetting alarms and state")

	cleared := g.timers.ClearAll()

	if _, err := g.alarms.DeleteAll(ctx); err != nil {
		g.logger.WithError(models.NewExternalServiceError("storage", "delete alarms", err)).Error("Failed to purge alarms")
	}

	if err := g.state.Delete(ctx, models.KeyCurrentWorkDate, models.KeyCompletionTimeForOvertime, models.WorkDataKey(previous)); err != nil {
		g.logger.WithError(models.NewExternalServiceError("storage", "delete state", err)).Error("Failed to delete day state")
	}
	if _, err := g.state.DeleteByWorkDate(ctx, previous); err != nil {
		g.logger.WithError(models.NewExternalServiceError("storage", "delete day entries", err)).Error("Failed to delete day state")
	}

	g.mu.Lock()
	g.current = today
	listeners := append([]ResetFunc(nil), g.listeners...)
	g.mu.Unlock()

	g.logger.WithField("timers_cleared", cleared).Info("Daily reset completed")

	for _, fn := range listeners {
		fn(previous, today)
	}
}

// MarkWorkDate запоминает рабочий день в памяти и в хранилище
func (g *DailyResetGuard) MarkWorkDate(ctx context.Context, workDate string) {
	g.mu.Lock()
	g.current = workDate
	g.mu.Unlock()

	if err := g.state.Set(ctx, models.KeyCurrentWorkDate, "", workDate); err != nil {
		g.logger.WithError(models.NewExternalServiceError("storage", "set work date", err)).Error("Failed to persist work date")
	}
}

// CurrentWorkDate - последний известный рабочий день
func (g *DailyResetGuard) CurrentWorkDate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}
