package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"

	"workend-notifier/internal/models"
	"workend-notifier/internal/repository"
)

// PushClient - отправка одного web push сообщения
type PushClient interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

type webPushClient struct{}

func (webPushClient) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WebPushSender рассылает уведомление всем подпискам браузеров
type WebPushSender struct {
	subs    repository.SubscriptionRepository
	options *webpush.Options
	client  PushClient
	logger  *logrus.Logger
}

func NewWebPushSender(subs repository.SubscriptionRepository, options *webpush.Options) *WebPushSender {
	return &WebPushSender{
		subs:    subs,
		options: options,
		client:  webPushClient{},
		logger:  newLogger(),
	}
}

func (s *WebPushSender) Name() string { return "webpush" }

type pushPayload struct {
	ID                 string `json:"id"`
	Kind               string `json:"kind"`
	Title              string `json:"title"`
	Body               string `json:"body"`
	RequireInteraction bool   `json:"requireInteraction"`
	AutoDismissMillis  int64  `json:"autoDismissMs"`
}

func (s *WebPushSender) Send(ctx context.Context, req models.NotificationRequest) error {
	subs, err := s.subs.List(ctx)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	payload, err := json.Marshal(pushPayload{
		ID:                 req.ID,
		Kind:               string(req.Kind),
		Title:              req.Title,
		Body:               req.Message,
		RequireInteraction: req.RequireInteraction,
		AutoDismissMillis:  req.AutoDismissAfter.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	options := *s.options
	if req.RequireInteraction {
		options.Urgency = webpush.UrgencyHigh
	}

	for _, sub := range subs {
		s.sendOne(ctx, sub, payload, &options)
	}
	return nil
}

func (s *WebPushSender) sendOne(ctx context.Context, sub models.PushSubscription, payload []byte, options *webpush.Options) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := s.client.Send(payload, wpSub, options)
	if err != nil {
		s.logger.WithError(err).WithField("endpoint", sub.Endpoint).Error("Error sending push notification")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		s.logger.WithField("endpoint", sub.Endpoint).Info("Push subscription expired, deleting")
		if err := s.subs.Delete(ctx, sub.Endpoint); err != nil {
			s.logger.WithError(err).WithField("endpoint", sub.Endpoint).Warn("Failed to delete expired subscription")
		}
	}
}

// Permission - granted, если заданы VAPID ключи и есть хотя бы одна подписка
func (s *WebPushSender) Permission(ctx context.Context) models.Permission {
	if s.options == nil || s.options.VAPIDPublicKey == "" || s.options.VAPIDPrivateKey == "" {
		return models.PermissionDenied
	}
	subs, err := s.subs.List(ctx)
	if err != nil || len(subs) == 0 {
		return models.PermissionDenied
	}
	return models.PermissionGranted
}

// PublicKey возвращает VAPID ключ для браузера
func (s *WebPushSender) PublicKey() string {
	if s.options == nil {
		return ""
	}
	return s.options.VAPIDPublicKey
}
