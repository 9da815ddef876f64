package service

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"workend-notifier/internal/models"
	"workend-notifier/pkg/timeofday"
)

// CompletionCalculator считает, когда будет выработана 8-часовая норма
type CompletionCalculator struct {
	logger *logrus.Logger
}

func NewCompletionCalculator() *CompletionCalculator {
	return &CompletionCalculator{logger: newLogger()}
}

// Calculate строит результат по отметкам дня и текущей минуте суток.
// WorkDate в результате не заполняется.
func (c *CompletionCalculator) Calculate(record models.AttendanceRecord, nowMinutes int) (*models.CompletionResult, error) {
	if !record.HasStartTime() {
		return nil, models.ErrMissingStartTime
	}

	start, err := timeofday.ToMinutes(record.StartTime)
	if err != nil {
		return nil, err
	}

	isFinished := record.IsFinished()
	effectiveEnd := nowMinutes
	if isFinished {
		effectiveEnd, err = timeofday.ToMinutes(record.EndTime)
		if err != nil {
			return nil, err
		}
	}

	totalBreak := 0
	for _, b := range record.Breaks {
		breakStart, err := timeofday.ToMinutes(b.Start)
		if err != nil {
			return nil, err
		}

		breakEnd := effectiveEnd
		if !b.IsOpen() {
			breakEnd, err = timeofday.ToMinutes(b.End)
			if err != nil {
				return nil, err
			}
		}

		if breakEnd > breakStart {
			totalBreak += breakEnd - breakStart
		} else {
			c.logger.WithFields(logrus.Fields{
				"start": b.Start,
				"end":   b.End,
			}).Warn("Ignoring break with non-positive duration")
		}
	}

	actual := effectiveEnd - start - totalBreak

	// Уход отмечен: дальше ничего не считаем
	if isFinished {
		return &models.CompletionResult{
			Status:            models.StatusFinished,
			EndTime:           record.EndTime,
			ActualWorkMinutes: actual,
			TotalBreakMinutes: totalBreak,
			Message:           fmt.Sprintf("退勤済み (%s勤務)", timeofday.FormatDuration(actual)),
		}, nil
	}

	if actual >= models.EightHoursMinutes {
		overtime := actual - models.EightHoursMinutes
		// От начала дня, а не от now: время не плавает между пересчетами
		completion := timeofday.ToTimeString(start + models.EightHoursMinutes + totalBreak)
		return &models.CompletionResult{
			Status:            models.StatusCompleted,
			CompletionTime:    completion,
			ActualWorkMinutes: actual,
			OvertimeMinutes:   overtime,
			TotalBreakMinutes: totalBreak,
			Message:           fmt.Sprintf("8時間勤務完了済み（%s超過）", timeofday.FormatDuration(overtime)),
		}, nil
	}

	remaining := models.EightHoursMinutes - actual
	completion := timeofday.ToTimeString(nowMinutes + remaining)
	return &models.CompletionResult{
		Status:            models.StatusPending,
		CompletionTime:    completion,
		ActualWorkMinutes: actual,
		RemainingMinutes:  remaining,
		TotalBreakMinutes: totalBreak,
		Message:           fmt.Sprintf("8時間完了予定: %s (残り%s)", completion, timeofday.FormatDuration(remaining)),
	}, nil
}

// Recalculate приводит сохраненный результат к текущему времени.
// Нужен только для отображения, таймеры не трогает.
func (c *CompletionCalculator) Recalculate(stored models.CompletionResult, nowMinutes int) (models.CompletionResult, error) {
	updated := stored
	if stored.Status != models.StatusPending && stored.Status != models.StatusCompleted {
		return updated, nil
	}
	if stored.CompletionTime == "" {
		return updated, nil
	}

	completion, err := timeofday.ToMinutes(stored.CompletionTime)
	if err != nil {
		return stored, err
	}

	remaining := completion - nowMinutes
	if stored.Status == models.StatusPending && remaining > 0 {
		updated.RemainingMinutes = remaining
		updated.ActualWorkMinutes = models.EightHoursMinutes - remaining
		updated.Message = approximateMessage(
			fmt.Sprintf("8時間完了予定: %s (残り約%s)", stored.CompletionTime, timeofday.FormatDuration(remaining)),
			stored.TotalBreakMinutes,
		)
		return updated, nil
	}

	overtime := nowMinutes - completion
	if overtime < 0 {
		overtime = 0
	}
	updated.Status = models.StatusCompleted
	updated.RemainingMinutes = 0
	updated.OvertimeMinutes = overtime
	updated.ActualWorkMinutes = models.EightHoursMinutes + overtime
	updated.Message = approximateMessage(
		fmt.Sprintf("8時間勤務完了済み（約%s超過）", timeofday.FormatDuration(overtime)),
		stored.TotalBreakMinutes,
	)
	return updated, nil
}

func approximateMessage(headline string, totalBreak int) string {
	lines := []string{headline}
	if totalBreak > 0 {
		lines = append(lines, "休憩: "+timeofday.FormatDuration(totalBreak))
	}
	lines = append(lines, "※正確な時間と現在のステータスは勤怠ページで確認してください")
	return strings.Join(lines, "\n")
}
