package config

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type AppConfig struct {
	TelegramToken  string
	TelegramChatID int64
	TelegramDebug  bool
	AutoDismiss    bool

	DatabaseDriver string
	DatabaseURL    string

	HTTPPort     int
	SettingsPath string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string
	PushTTL         int

	WorkerPoolSize  int
	RateLimitPerSec float64
	RateLimitBurst  int
	LogLevel        logrus.Level
}

// TelegramEnabled - заданы ли токен и чат
func (c *AppConfig) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// WebPushEnabled - заданы ли VAPID ключи
func (c *AppConfig) WebPushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// ReportURL - адрес HTTP API для локальных клиентов
func (c *AppConfig) ReportURL() string {
	return "http://127.0.0.1:" + strconv.Itoa(c.HTTPPort)
}

var instance *AppConfig
var once sync.Once

func GetAppConfig() *AppConfig {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Warnf("no .env file loaded, using process environment: %s", err.Error())
		}
		instance = loadFromEnv()
	})

	return instance
}

func loadFromEnv() *AppConfig {
	cfg := &AppConfig{}

	cfg.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	cfg.TelegramChatID = getEnvAsInt("TELEGRAM_CHAT_ID", 0)
	cfg.TelegramDebug = getEnvAsBool("TELEGRAM_DEBUG", false)
	cfg.AutoDismiss = getEnvAsBool("NOTIFY_AUTO_DISMISS", true)
	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		logrus.Warn("TELEGRAM_CHAT_ID is not set, telegram notifications are disabled")
	}

	cfg.DatabaseDriver = strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite"))
	cfg.DatabaseURL = getEnv("DATABASE_URL", "workend.db")

	cfg.HTTPPort = int(getEnvAsInt("HTTP_PORT", 8080))
	cfg.SettingsPath = getEnv("SETTINGS_PATH", "settings.yaml")

	cfg.VAPIDPublicKey = getEnv("VAPID_PUBLIC_KEY", "")
	cfg.VAPIDPrivateKey = getEnv("VAPID_PRIVATE_KEY", "")
	cfg.VAPIDSubject = getEnv("VAPID_SUBJECT", "mailto:admin@example.com")
	cfg.PushTTL = int(getEnvAsInt("PUSH_TTL", 3600))
	if cfg.PushTTL <= 0 {
		cfg.PushTTL = 3600
	}

	cfg.WorkerPoolSize = int(getEnvAsInt("WORKER_POOL_SIZE", 2))
	if cfg.WorkerPoolSize <= 0 {
		logrus.Warn("WORKER_POOL_SIZE is invalid; defaulting to 1")
		cfg.WorkerPoolSize = 1
	}

	cfg.RateLimitPerSec = getEnvAsFloat("RATE_LIMIT_PER_SEC", 10)
	cfg.RateLimitBurst = int(getEnvAsInt("RATE_LIMIT_BURST", 5))

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		logrus.Warnf("invalid LOG_LEVEL, using info: %v", err)
		level = logrus.InfoLevel
	}
	cfg.LogLevel = level

	return cfg
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsFloat(name string, defaultVal float64) float64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseFloat(valStr, 64); err == nil {
		return val
	}

	return defaultVal
}
