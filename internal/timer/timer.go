// Package timer - служба именованных таймеров. Таймер с тем же именем
// заменяет существующий, сброс несуществующего таймера не ошибка.
package timer

import "time"

// Handler вызывается при срабатывании таймера
type Handler func(name string)

// Timer - снимок активного таймера
type Timer struct {
	Name   string
	FireAt time.Time
	Period time.Duration
}

// IsPeriodic проверяет, повторяется ли таймер
func (t Timer) IsPeriodic() bool {
	return t.Period > 0
}

type Service interface {
	// Create создает или заменяет таймер. period > 0 делает его периодическим.
	Create(name string, fireAt time.Time, period time.Duration)
	Clear(name string) bool
	ClearAll() int
	GetAll() []Timer
	SetHandler(h Handler)
}
