package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workend-notifier/internal/models"
)

func morningRecord() models.AttendanceRecord {
	return models.AttendanceRecord{
		StartTime: "09:00",
		Breaks:    []models.BreakInterval{{Start: "12:00", End: "13:00"}},
	}
}

func TestReportAttendance_SchedulesOnce(t *testing.T) {
	f := newFixture(t, at(16, "14:00"))

	result, err := f.tracker.ReportAttendance(f.ctx, morningRecord())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, result.Status)
	assert.Equal(t, "18:00", result.CompletionTime)
	assert.Equal(t, day1, result.WorkDate)
	assert.Len(t, f.timerNames(), 3)

	// Тот же результат при тех же настройках не объявляется повторно
	_, err = f.tracker.ReportAttendance(f.ctx, morningRecord())
	require.NoError(t, err)
	assert.Equal(t, 1, f.notifier.count(models.NotificationStatus))

	// Смена настроек объявляет результат заново
	cfg := defaultTestConfig()
	cfg.Warning1.OffsetMinutes = 15
	f.config.set(cfg)
	_, err = f.tracker.ReportAttendance(f.ctx, morningRecord())
	require.NoError(t, err)
	assert.Equal(t, 2, f.notifier.count(models.NotificationStatus))
	assert.Contains(t, f.timerNames(), day1+"_15min-warning")
	assert.NotContains(t, f.timerNames(), day1+"_10min-warning")
}

func TestReportAttendance_PersistsWorkData(t *testing.T) {
	f := newFixture(t, at(16, "14:00"))
	_, err := f.tracker.ReportAttendance(f.ctx, morningRecord())
	require.NoError(t, err)

	var stored models.CompletionResult
	ok, err := f.state.GetJSON(f.ctx, models.WorkDataKey(day1), &stored)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "18:00", stored.CompletionTime)
	assert.Equal(t, 60, stored.TotalBreakMinutes)

	// Статусы без времени не перезаписывают сохраненный результат
	_, err = f.tracker.ReportBeforeWork(f.ctx)
	require.NoError(t, err)
	ok, err = f.state.GetJSON(f.ctx, models.WorkDataKey(day1), &stored)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestReportAttendance_InvalidRecord(t *testing.T) {
	f := newFixture(t, at(16, "14:00"))

	_, err := f.tracker.ReportAttendance(f.ctx, models.AttendanceRecord{})
	assert.ErrorIs(t, err, models.ErrMissingStartTime)

	_, err = f.tracker.ReportAttendance(f.ctx, models.AttendanceRecord{
		StartTime: "09:00",
		Breaks:    []models.BreakInterval{{Start: "11:00"}, {Start: "12:00"}},
	})
	assert.ErrorIs(t, err, models.ErrMultipleOpenBreaks)

	assert.Empty(t, f.timers.GetAll())
	assert.Empty(t, f.notifier.titles())
}

func TestReportAttendance_CompletedAndFinished(t *testing.T) {
	f := newFixture(t, at(16, "18:30"))

	result, err := f.tracker.ReportAttendance(f.ctx, morningRecord())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.Equal(t, "18:00", result.CompletionTime)
	assert.Equal(t, 30, result.OvertimeMinutes)
	assert.Equal(t, "8時間労働完了済み", f.notifier.last().Title)

	finished := morningRecord()
	finished.EndTime = "18:40"
	result, err = f.tracker.ReportAttendance(f.ctx, finished)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, result.Status)
	assert.Equal(t, "退勤済み", f.notifier.last().Title)
	assert.Empty(t, f.timers.GetAll())
}

func TestReportBreakStart_Validation(t *testing.T) {
	f := newFixture(t, at(16, "12:00"))

	for _, tc := range []struct {
		name     string
		duration int
		warning  int
	}{
		{"zero duration", 0, 5},
		{"too long", MaxBreakMinutes + 1, 5},
		{"negative warning", 30, -1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tracker.ReportBreakStart(f.ctx, tc.duration, tc.warning)
			assert.ErrorIs(t, err, models.ErrInvalidBreak)
		})
	}
	assert.Empty(t, f.timers.GetAll())
}

func TestReportBreakStartAndEnd(t *testing.T) {
	f := newFixture(t, at(16, "12:00"))

	result, err := f.tracker.ReportBreakStart(f.ctx, 60, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBreakStart, result.Status)
	assert.Equal(t, "12:00", result.BreakStartTime)
	assert.Equal(t, "休憩開始しました (60分の予定、5分前に通知)", result.Message)
	assert.Equal(t, []string{day1 + "_break-warning_1200", day1 + "_break-end_1200"}, f.timerNames())
	assert.Contains(t, f.notifier.titles(), "休憩開始")

	f.timers.AdvanceBy(20 * time.Minute)
	onBreak, err := f.tracker.ReportOnBreak(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, onBreak.CurrentBreakMinutes)
	assert.Equal(t, "現在の休憩: 0時間20分", onBreak.Message)

	result, err = f.tracker.ReportBreakEnd(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBreakEnd, result.Status)
	assert.Empty(t, f.timers.GetAll())
	assert.Empty(t, f.storedAlarmNames(t))
	assert.Equal(t, "休憩終了", f.notifier.last().Title)

	// После конца перерыва текущая длительность неизвестна
	onBreak, err = f.tracker.ReportOnBreak(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, onBreak.CurrentBreakMinutes)
}

func TestReportBreakStart_WorkEndRearmedOnNextReport(t *testing.T) {
	f := newFixture(t, at(16, "14:00"))
	_, err := f.tracker.ReportAttendance(f.ctx, morningRecord())
	require.NoError(t, err)

	// Статус перерыва снимает напоминания об окончании дня до следующей отметки
	_, err = f.tracker.ReportBreakStart(f.ctx, 15, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{day1 + "_break-end_1400"}, f.timerNames())

	record := morningRecord()
	record.Breaks = append(record.Breaks, models.BreakInterval{Start: "14:00"})
	_, err = f.tracker.ReportAttendance(f.ctx, record)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		day1 + "_10min-warning",
		day1 + "_1min-warning",
		day1 + "_completion",
		day1 + "_break-end_1400",
	}, f.timerNames())

	_, err = f.tracker.ReportBreakEnd(f.ctx)
	require.NoError(t, err)
	assert.NotContains(t, f.timerNames(), day1+"_break-end_1400")
}

func TestReportOnBreak_UsesStoredTotal(t *testing.T) {
	f := newFixture(t, at(16, "14:00"))
	_, err := f.tracker.ReportAttendance(f.ctx, morningRecord())
	require.NoError(t, err)

	result, err := f.tracker.ReportOnBreak(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOnBreak, result.Status)
	assert.Equal(t, 60, result.TotalBreakMinutes)
	assert.Equal(t, "現在休憩中です\n合計休憩: 1時間0分", result.Message)
}

func TestRestore_RecalculatesStoredResult(t *testing.T) {
	f := newFixture(t, at(16, "14:00"))
	_, err := f.tracker.ReportAttendance(f.ctx, morningRecord())
	require.NoError(t, err)

	f.boot(at(16, "15:30"))
	restored, err := f.tracker.Restore(f.ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, models.StatusPending, restored.Status)
	assert.Equal(t, 150, restored.RemainingMinutes)
	assert.Contains(t, restored.Message, "約")
	assert.Contains(t, restored.Message, "休憩: 1時間0分")

	f.boot(at(16, "18:20"))
	restored, err = f.tracker.Restore(f.ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, models.StatusCompleted, restored.Status)
	assert.Equal(t, 20, restored.OvertimeMinutes)

	// Восстановление не планирует и не уведомляет
	assert.Empty(t, f.timers.GetAll())
	assert.Equal(t, 1, len(f.notifier.titles()))

	status := f.tracker.CurrentStatus(f.ctx)
	require.NotNil(t, status.Latest)
	assert.Equal(t, models.StatusCompleted, status.Latest.Status)
}

func TestRestore_NothingStored(t *testing.T) {
	f := newFixture(t, at(16, "08:00"))
	restored, err := f.tracker.Restore(f.ctx)
	require.NoError(t, err)
	assert.Nil(t, restored)
}

func TestCurrentStatus(t *testing.T) {
	f := newFixture(t, at(16, "14:00"))

	status := f.tracker.CurrentStatus(f.ctx)
	assert.Equal(t, day1, status.WorkDate)
	assert.Nil(t, status.Latest)
	assert.Equal(t, PermissionGrantedText, status.Permission)
	assert.Equal(t, ObserverReloadText, status.Observer)

	_, err := f.tracker.ReportAttendance(f.ctx, morningRecord())
	require.NoError(t, err)
	f.notifier.permission = models.PermissionDenied

	status = f.tracker.CurrentStatus(f.ctx)
	require.NotNil(t, status.Latest)
	assert.Equal(t, "18:00", status.Latest.CompletionTime)
	assert.Equal(t, PermissionRequiredText, status.Permission)
	assert.Equal(t, ObserverActiveText, status.Observer)
}

func TestTracker_NewDayFlushesCache(t *testing.T) {
	f := newFixture(t, at(16, "14:00"))
	_, err := f.tracker.ReportAttendance(f.ctx, morningRecord())
	require.NoError(t, err)

	f.jump(at(17, "08:30"))
	_, err = f.tracker.ReportBeforeWork(f.ctx)
	require.NoError(t, err)

	status := f.tracker.CurrentStatus(f.ctx)
	assert.Equal(t, "2026-10-17", status.WorkDate)
	require.NotNil(t, status.Latest)
	assert.Equal(t, models.StatusBeforeWork, status.Latest.Status)
	assert.Empty(t, f.timers.GetAll())
}
