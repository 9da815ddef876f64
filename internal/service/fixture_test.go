package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"workend-notifier/internal/db"
	"workend-notifier/internal/models"
	"workend-notifier/internal/repository"
	"workend-notifier/internal/timer"
)

type recordingNotifier struct {
	mu         sync.Mutex
	permission models.Permission
	requests   []models.NotificationRequest
}

func (n *recordingNotifier) Notify(_ context.Context, req models.NotificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.permission == models.PermissionDenied {
		return models.ErrPermissionDenied
	}
	n.requests = append(n.requests, req)
	return nil
}

func (n *recordingNotifier) Permission(context.Context) models.Permission {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.permission == "" {
		return models.PermissionGranted
	}
	return n.permission
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	titles := make([]string, 0, len(n.requests))
	for _, r := range n.requests {
		titles = append(titles, r.Title)
	}
	return titles
}

func (n *recordingNotifier) count(kind models.NotificationKind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, r := range n.requests {
		if r.Kind == kind {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) last() models.NotificationRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.requests[len(n.requests)-1]
}

type staticConfig struct {
	mu  sync.Mutex
	cfg models.NotificationConfig
}

func (c *staticConfig) NotificationConfig() models.NotificationConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

func (c *staticConfig) set(cfg models.NotificationConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

func defaultTestConfig() models.NotificationConfig {
	return models.NotificationConfig{
		Warning1: models.WarningSetting{Enabled: true, OffsetMinutes: 10},
		Warning2: models.WarningSetting{Enabled: true, OffsetMinutes: 1},
		Overtime: models.OvertimeSetting{Enabled: false, IntervalMinutes: 30},
	}
}

type fixture struct {
	ctx       context.Context
	db        *gorm.DB
	timers    *timer.Manual
	alarms    *repository.GormAlarmRepository
	state     *repository.GormStateRepository
	guard     *DailyResetGuard
	scheduler *AlarmScheduler
	tracker   *AttendanceTracker
	notifier  *recordingNotifier
	config    *staticConfig
	provider  ConfigProvider

	mu       sync.Mutex
	override time.Time
}

func at(day int, clock string) time.Time {
	parsed, err := time.ParseInLocation("15:04", clock, time.Local)
	if err != nil {
		panic(err)
	}
	return time.Date(2026, 10, day, parsed.Hour(), parsed.Minute(), 0, 0, time.Local)
}

func newFixture(t *testing.T, start time.Time) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gormDB, err := db.Open(db.DriverSQLite, "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &fixture{
		ctx:      context.Background(),
		db:       gormDB,
		notifier: &recordingNotifier{},
		config:   &staticConfig{cfg: defaultTestConfig()},
	}
	f.provider = f.config
	f.alarms, err = repository.NewGormAlarmRepository(gormDB)
	require.NoError(t, err)
	f.state, err = repository.NewGormStateRepository(gormDB)
	require.NoError(t, err)

	f.boot(start)
	return f
}

// boot собирает сервисы поверх той же базы, как после перезапуска процесса
func (f *fixture) boot(now time.Time) {
	f.timers = timer.NewManual(now)
	f.mu.Lock()
	f.override = time.Time{}
	f.mu.Unlock()

	f.guard = NewDailyResetGuard(f.timers, f.alarms, f.state, f.now)
	f.scheduler = NewAlarmScheduler(f.timers, f.alarms, f.state, f.guard, f.notifier, f.provider, f.now)
	f.tracker = NewAttendanceTracker(NewCompletionCalculator(), f.scheduler, f.guard, f.state, f.provider, f.notifier, f.now)
}

func (f *fixture) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.override.IsZero() {
		return f.override
	}
	return f.timers.Now()
}

// jump переводит часы сервисов без срабатывания таймеров
func (f *fixture) jump(to time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.override = to
}

func (f *fixture) timerNames() []string {
	var names []string
	for _, t := range f.timers.GetAll() {
		names = append(names, t.Name)
	}
	return names
}

func (f *fixture) storedAlarmNames(t *testing.T) []string {
	t.Helper()
	alarms, err := f.alarms.List(f.ctx)
	require.NoError(t, err)
	var names []string
	for _, a := range alarms {
		names = append(names, a.Name)
	}
	return names
}

func pendingResult(workDate, completion string, remaining int) models.CompletionResult {
	return models.CompletionResult{
		Status:            models.StatusPending,
		WorkDate:          workDate,
		CompletionTime:    completion,
		RemainingMinutes:  remaining,
		ActualWorkMinutes: models.EightHoursMinutes - remaining,
	}
}
