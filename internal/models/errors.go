package models

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingStartTime - нет отметки прихода, расчет пропускается
	ErrMissingStartTime = errors.New("attendance record has no start time")
	// ErrMultipleOpenBreaks - больше одного незакрытого перерыва
	ErrMultipleOpenBreaks = errors.New("attendance record has more than one open break")
	// ErrInvalidBreak - некорректная длительность перерыва или время напоминания
	ErrInvalidBreak = errors.New("invalid break parameters")
	// ErrPermissionDenied - нет разрешения на показ уведомлений
	ErrPermissionDenied = errors.New("notification permission not granted")
)

// ExternalServiceError - сбой внешнего сервиса (хранилище, таймеры, уведомления).
// Такие ошибки логируются на месте вызова и дальше не пробрасываются.
type ExternalServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// NewExternalServiceError оборачивает ошибку внешнего сервиса, nil остается nil
func NewExternalServiceError(service, op string, err error) error {
	if err == nil {
		return nil
	}
	return &ExternalServiceError{Service: service, Op: op, Err: err}
}
