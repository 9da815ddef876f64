package notifier

import (
	"context"

	"github.com/sirupsen/logrus"

	"workend-notifier/internal/models"
)

// LogSender пишет уведомления в лог, разрешение есть всегда
type LogSender struct {
	logger *logrus.Logger
}

func NewLogSender() *LogSender {
	return &LogSender{logger: newLogger()}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(_ context.Context, req models.NotificationRequest) error {
	s.logger.WithFields(logrus.Fields{
		"id":                  req.ID,
		"kind":                req.Kind,
		"require_interaction": req.RequireInteraction,
	}).Infof("%s: %s", req.Title, req.Message)
	return nil
}

func (s *LogSender) Permission(context.Context) models.Permission {
	return models.PermissionGranted
}
