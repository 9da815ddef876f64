package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"workend-notifier/internal/config"
	"workend-notifier/internal/models"
	"workend-notifier/internal/repository"
	"workend-notifier/internal/service"
	"workend-notifier/internal/timer"
	"workend-notifier/pkg/timeofday"
)

// Tracker - операции приема отметок, нужные API
type Tracker interface {
	ReportAttendance(ctx context.Context, record models.AttendanceRecord) (models.CompletionResult, error)
	ReportBreakStart(ctx context.Context, durationMinutes, warningMinutes int) (models.CompletionResult, error)
	ReportBreakEnd(ctx context.Context) (models.CompletionResult, error)
	ReportBeforeWork(ctx context.Context) (models.CompletionResult, error)
	ReportOnBreak(ctx context.Context) (models.CompletionResult, error)
	CurrentStatus(ctx context.Context) service.StatusView
}

// AlarmLister отдает снимок живых таймеров
type AlarmLister interface {
	Alarms() []timer.Timer
}

// SettingsStore - чтение и запись настроек уведомлений
type SettingsStore interface {
	Get() config.Settings
	Save(next config.Settings) error
}

// Handler - общие зависимости обработчиков
type Handler struct {
	tracker   Tracker
	alarms    AlarmLister
	settings  SettingsStore
	subs      repository.SubscriptionRepository
	publicKey string
	logger    *logrus.Logger
}

func NewHandler(
	tracker Tracker,
	alarms AlarmLister,
	settings SettingsStore,
	subs repository.SubscriptionRepository,
	publicKey string,
) *Handler {
	return &Handler{
		tracker:   tracker,
		alarms:    alarms,
		settings:  settings,
		subs:      subs,
		publicKey: publicKey,
		logger:    newLogger(),
	}
}

// errorStatus сопоставляет ошибку сервиса с HTTP статусом
func errorStatus(err error) int {
	var parseErr *timeofday.ParseError
	switch {
	case errors.Is(err, models.ErrMissingStartTime):
		return http.StatusUnprocessableEntity
	case errors.As(err, &parseErr),
		errors.Is(err, models.ErrMultipleOpenBreaks),
		errors.Is(err, models.ErrInvalidBreak):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.GetLevel())
	return logger
}
