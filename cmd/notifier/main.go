package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"workend-notifier/internal/api"
	"workend-notifier/internal/config"
	"workend-notifier/internal/db"
	"workend-notifier/internal/handler"
	"workend-notifier/internal/notifier"
	"workend-notifier/internal/repository"
	"workend-notifier/internal/service"
	"workend-notifier/internal/timer"
	"workend-notifier/pkg/telegram"
)

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetAppConfig()
	logrus.SetLevel(cfg.LogLevel)
	logrus.Info("Config initialized...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to get database instance")
	}

	alarmRepo, err := repository.NewGormAlarmRepository(gormDB)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create alarm repository")
	}
	stateRepo, err := repository.NewGormStateRepository(gormDB)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create state repository")
	}
	subscriptionRepo, err := repository.NewGormSubscriptionRepository(gormDB)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create subscription repository")
	}

	settings, err := config.NewSettingsStore(cfg.SettingsPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load notification settings")
	}

	var senders []notifier.Sender

	var client *telegram.Client
	if cfg.TelegramEnabled() {
		client, err = telegram.NewClient(cfg.TelegramToken, cfg.TelegramChatID, cfg.TelegramDebug)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to create Telegram client")
		}
		logrus.Infof("Authorized on account %s", client.Bot.Self.UserName)
		senders = append(senders, notifier.NewTelegramSender(client.Bot, cfg.TelegramChatID, cfg.AutoDismiss))
	} else {
		logrus.Info("Telegram is not configured, bot disabled")
	}

	var publicKey string
	if cfg.WebPushEnabled() {
		options := &webpush.Options{
			Subscriber:      cfg.VAPIDSubject,
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			TTL:             cfg.PushTTL,
		}
		pushSender := notifier.NewWebPushSender(subscriptionRepo, options)
		publicKey = pushSender.PublicKey()
		senders = append(senders, pushSender)
	}

	// Без внешних каналов уведомления пишутся в лог
	if len(senders) == 0 {
		logrus.Warn("No notification channel configured, notifications go to the log")
		senders = append(senders, notifier.NewLogSender())
	}
	dispatcher := notifier.NewDispatcher(cfg.WorkerPoolSize, senders...)
	dispatcher.Start(ctx)

	timers := timer.NewLocal()
	guard := service.NewDailyResetGuard(timers, alarmRepo, stateRepo, time.Now)
	scheduler := service.NewAlarmScheduler(timers, alarmRepo, stateRepo, guard, dispatcher, settings, time.Now)
	tracker := service.NewAttendanceTracker(
		service.NewCompletionCalculator(), scheduler, guard, stateRepo, settings, dispatcher, time.Now)

	settings.Subscribe(func(prev, next config.Settings) {
		scheduler.ReconcileOvertime(ctx, next.NotificationConfig().Overtime)
	})

	restored := scheduler.Restore(ctx)
	if _, err := tracker.Restore(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to restore work data")
	}
	logrus.WithField("alarms", restored).Info("State restored")

	apiHandler := api.NewHandler(tracker, scheduler, settings, subscriptionRepo, publicKey)
	router := api.NewRouter(apiHandler, api.RouterOptions{
		RateLimit: rate.Limit(cfg.RateLimitPerSec),
		Burst:     cfg.RateLimitBurst,
	})
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("HTTP server stopped")
			stop()
		}
	}()

	if client != nil {
		botHandler := handler.NewHandler(client.Bot, cfg.TelegramChatID, tracker, scheduler, settings)
		go botHandler.HandleUpdates(ctx, client.Updates())
	}

	logrus.Info("Notifier started. Press Ctrl+C to stop.")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP server shutdown failed")
	}
	if client != nil {
		client.Stop()
	}

	// Метаданные остаются в базе, таймеры будут взведены при следующем запуске
	logrus.WithField("timers", timers.ClearAll()).Info("Timers stopped")

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Warn("Error closing database")
	}

	logrus.Info("Notifier stopped gracefully")
}
