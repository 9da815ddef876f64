package timeofday

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout - формат даты рабочего дня (YYYY-MM-DD)
	DateLayout = "2006-01-02"
	// ClockLayout - формат времени суток (HH:MM)
	ClockLayout = "15:04"
)

// ParseError - строка времени не в формате HH:MM
type ParseError struct {
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid time of day %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("invalid time of day %q", e.Value)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ToMinutes - переводит "HH:MM" в минуты от начала суток.
// Пустая строка дает 0, диапазон часов не проверяется.
func ToMinutes(s string) (int, error) {
	if s == "" {
		return 0, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, &ParseError{Value: s}
	}

	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, &ParseError{Value: s, Err: err}
	}

	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, &ParseError{Value: s, Err: err}
	}

	return hours*60 + minutes, nil
}

// ToTimeString - переводит минуты в "HH:MM".
// Не переносит через 24:00: 1500 минут дают "25:00".
func ToTimeString(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AddMinutes - прибавляет delta минут к "HH:MM"
func AddMinutes(s string, delta int) (string, error) {
	total, err := ToMinutes(s)
	if err != nil {
		return "", err
	}
	return ToTimeString(total + delta), nil
}

// MinuteOfDay - минута суток по локальному времени t
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Format - время суток t в виде "HH:MM"
func Format(t time.Time) string {
	return t.Format(ClockLayout)
}

// DateString - дата t в виде "YYYY-MM-DD"
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatDuration - минуты в виде "X時間Y分"
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%d時間%d分", minutes/60, minutes%60)
}
