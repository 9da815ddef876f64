package models

import "strings"

// BreakInterval - один перерыв. Пустой End означает, что перерыв еще идет.
type BreakInterval struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// IsOpen проверяет, идет ли перерыв сейчас
func (b BreakInterval) IsOpen() bool {
	return strings.TrimSpace(b.End) == ""
}

// AttendanceRecord - отметки за день в том виде, как их видит страница табеля
type AttendanceRecord struct {
	StartTime string          `json:"startTime"`
	EndTime   string          `json:"endTime,omitempty"`
	Breaks    []BreakInterval `json:"breaks"`
}

// HasStartTime проверяет, отмечен ли приход
func (r AttendanceRecord) HasStartTime() bool {
	return strings.TrimSpace(r.StartTime) != ""
}

// IsFinished проверяет, отмечен ли уход
func (r AttendanceRecord) IsFinished() bool {
	return strings.TrimSpace(r.EndTime) != ""
}

// OpenBreaks возвращает количество незакрытых перерывов
func (r AttendanceRecord) OpenBreaks() int {
	count := 0
	for _, b := range r.Breaks {
		if b.IsOpen() {
			count++
		}
	}
	return count
}

// Validate проверяет инварианты записи
func (r AttendanceRecord) Validate() error {
	if !r.HasStartTime() {
		return ErrMissingStartTime
	}
	if r.OpenBreaks() > 1 {
		return ErrMultipleOpenBreaks
	}
	return nil
}
