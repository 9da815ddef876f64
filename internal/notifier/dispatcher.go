package notifier

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"workend-notifier/internal/models"
)

// Sender - канал доставки уведомлений
type Sender interface {
	Name() string
	Send(ctx context.Context, req models.NotificationRequest) error
	Permission(ctx context.Context) models.Permission
}

// ErrQueueFull - буфер заданий переполнен, уведомление отброшено
var ErrQueueFull = errors.New("notification queue is full")

// Dispatcher раздает уведомления пулу воркеров. Отправка не блокирует
// вызывающего: результат доставки только логируется.
type Dispatcher struct {
	size    int
	jobs    chan models.NotificationRequest
	senders []Sender
	logger  *logrus.Logger
}

func NewDispatcher(size int, senders ...Sender) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	return &Dispatcher{
		size:    size,
		jobs:    make(chan models.NotificationRequest, size*16),
		senders: senders,
		logger:  newLogger(),
	}
}

// Start запускает воркеры, они работают до отмены ctx
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.size; i++ {
		go d.worker(ctx, i)
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	d.logger.WithField("worker", id).Debug("Notification worker started")
	for {
		select {
		case req := <-d.jobs:
			d.deliver(ctx, req)
		case <-ctx.Done():
			d.logger.WithField("worker", id).Debug("Notification worker shutting down")
			return
		}
	}
}

// Notify ставит уведомление в очередь. Без разрешения ни у одного канала
// запрос отбрасывается, это не ошибка вычислений.
func (d *Dispatcher) Notify(ctx context.Context, req models.NotificationRequest) error {
	if d.Permission(ctx) != models.PermissionGranted {
		d.logger.WithFields(logrus.Fields{
			"kind":  req.Kind,
			"title": req.Title,
		}).Warn("Notification suppressed: permission not granted")
		return models.ErrPermissionDenied
	}

	select {
	case d.jobs <- req:
		return nil
	default:
		d.logger.WithField("title", req.Title).Warn("Notification queue is full, dropping request")
		return ErrQueueFull
	}
}

// Permission - granted, если хотя бы один канал может доставить уведомление
func (d *Dispatcher) Permission(ctx context.Context) models.Permission {
	for _, s := range d.senders {
		if s.Permission(ctx) == models.PermissionGranted {
			return models.PermissionGranted
		}
	}
	return models.PermissionDenied
}

// Jobs - канал заданий, нужен тестам
func (d *Dispatcher) Jobs() chan models.NotificationRequest {
	return d.jobs
}

func (d *Dispatcher) deliver(ctx context.Context, req models.NotificationRequest) {
	for _, s := range d.senders {
		if s.Permission(ctx) != models.PermissionGranted {
			continue
		}
		if err := s.Send(ctx, req); err != nil {
			d.logger.WithError(models.NewExternalServiceError(s.Name(), "send", err)).
				WithField("id", req.ID).
				Error("Failed to deliver notification")
			continue
		}
		d.logger.WithFields(logrus.Fields{
			"id":     req.ID,
			"sender": s.Name(),
			"kind":   req.Kind,
		}).Debug("Notification delivered")
	}
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
