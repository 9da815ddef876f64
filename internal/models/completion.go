package models

// CompletionStatus - состояние рабочего дня относительно 8-часовой нормы
type CompletionStatus string

// Статусы рабочего дня
const (
	StatusPending    CompletionStatus = "pending"     // Норма еще не выработана
	StatusCompleted  CompletionStatus = "completed"   // Норма выработана, сотрудник еще на работе
	StatusFinished   CompletionStatus = "finished"    // Уход отмечен
	StatusBeforeWork CompletionStatus = "before_work" // Приход еще не отмечен
	StatusOnBreak    CompletionStatus = "on_break"    // На перерыве
	StatusBreakStart CompletionStatus = "break_start" // Перерыв только что начат
	StatusBreakEnd   CompletionStatus = "break_end"   // Перерыв только что закончен
)

// EightHoursMinutes - дневная норма в минутах
const EightHoursMinutes = 8 * 60

// CompletionResult - результат расчета. Значение сравнимо через ==,
// поэтому в нем нет ни срезов, ни указателей.
type CompletionResult struct {
	Status            CompletionStatus `json:"status"`
	WorkDate          string           `json:"workDate"`
	Message           string           `json:"message"`
	CompletionTime    string           `json:"completionTime,omitempty"`
	EndTime           string           `json:"endTime,omitempty"`
	ActualWorkMinutes int              `json:"actualWorkMinutes"`
	RemainingMinutes  int              `json:"remainingMinutes,omitempty"`
	OvertimeMinutes   int              `json:"overtimeMinutes,omitempty"`
	TotalBreakMinutes int              `json:"totalBreakMinutes"`

	BreakStartTime       string `json:"breakStartTime,omitempty"`
	BreakDurationMinutes int    `json:"breakDurationMinutes,omitempty"`
	BreakWarningMinutes  int    `json:"breakWarningMinutes,omitempty"`
	CurrentBreakMinutes  int    `json:"currentBreakMinutes,omitempty"`
}

// Equal - структурное сравнение двух результатов
func (r CompletionResult) Equal(other CompletionResult) bool {
	return r == other
}

// HasCompletionTime проверяет, несет ли статус время окончания нормы
func (r CompletionResult) HasCompletionTime() bool {
	return r.Status == StatusPending || r.Status == StatusCompleted
}

// IsValid проверяет, что статус известен
func (s CompletionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFinished, StatusBeforeWork,
		StatusOnBreak, StatusBreakStart, StatusBreakEnd:
		return true
	}
	return false
}
