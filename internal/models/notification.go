package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind - тип уведомления, от него зависит время автоскрытия
type NotificationKind string

// Типы уведомлений
const (
	NotificationWarning   NotificationKind = "warning"
	NotificationSuccess   NotificationKind = "success"
	NotificationCompleted NotificationKind = "completed"
	NotificationFinished  NotificationKind = "finished"
	NotificationStatus    NotificationKind = "status"
	NotificationBreak     NotificationKind = "break"
	NotificationOvertime  NotificationKind = "overtime"
)

// AutoDismissDelay возвращает время, через которое уведомление скрывается
func AutoDismissDelay(kind NotificationKind) time.Duration {
	switch kind {
	case NotificationWarning:
		return 20 * time.Second
	case NotificationSuccess:
		return 15 * time.Second
	case NotificationCompleted:
		return 10 * time.Second
	case NotificationFinished:
		return 12 * time.Second
	case NotificationStatus:
		return 8 * time.Second
	default:
		return 15 * time.Second
	}
}

// NotificationRequest - запрос на показ уведомления
type NotificationRequest struct {
	ID                 string           `json:"id"`
	Kind               NotificationKind `json:"kind"`
	Title              string           `json:"title"`
	Message            string           `json:"message"`
	RequireInteraction bool             `json:"requireInteraction"`
	AutoDismissAfter   time.Duration    `json:"autoDismissAfter"`
}

// NewNotificationRequest создает запрос с временем автоскрытия по типу
func NewNotificationRequest(kind NotificationKind, title, message string, requireInteraction bool) NotificationRequest {
	return NotificationRequest{
		ID:                 uuid.NewString(),
		Kind:               kind,
		Title:              title,
		Message:            message,
		RequireInteraction: requireInteraction,
		AutoDismissAfter:   AutoDismissDelay(kind),
	}
}

// Permission - разрешение на показ уведомлений
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// WarningSetting - одно предупреждение перед окончанием нормы
type WarningSetting struct {
	Enabled       bool `json:"enabled"`
	OffsetMinutes int  `json:"offsetMinutes"`
}

// OvertimeSetting - периодические напоминания о переработке
type OvertimeSetting struct {
	Enabled         bool `json:"enabled"`
	IntervalMinutes int  `json:"intervalMinutes"`
}

// NotificationConfig - снимок настроек уведомлений
type NotificationConfig struct {
	Warning1 WarningSetting  `json:"warning1"`
	Warning2 WarningSetting  `json:"warning2"`
	Overtime OvertimeSetting `json:"overtime"`
}

// EnabledWarnings возвращает включенные смещения в порядке настроек
func (c NotificationConfig) EnabledWarnings() []int {
	var offsets []int
	for _, w := range []WarningSetting{c.Warning1, c.Warning2} {
		if w.Enabled && w.OffsetMinutes > 0 {
			offsets = append(offsets, w.OffsetMinutes)
		}
	}
	return offsets
}
