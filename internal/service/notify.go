package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"workend-notifier/internal/models"
)

// Notifier - приемник уведомлений
type Notifier interface {
	Notify(ctx context.Context, req models.NotificationRequest) error
	Permission(ctx context.Context) models.Permission
}

// ConfigProvider отдает свежий снимок настроек уведомлений. Вызов может
// синхронно оповестить подписчиков настроек, поэтому под s.mu его не делают.
type ConfigProvider interface {
	NotificationConfig() models.NotificationConfig
}

// notify отправляет уведомление, ошибки доставки только логируются
func notify(ctx context.Context, n Notifier, logger *logrus.Logger, req models.NotificationRequest) {
	err := n.Notify(ctx, req)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrPermissionDenied):
		// Уже залогировано диспетчером
	default:
		logger.WithError(models.NewExternalServiceError("notifier", "notify", err)).
			WithField("title", req.Title).
			Warn("Notification was not queued")
	}
}
