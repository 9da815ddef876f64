package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"workend-notifier/internal/models"
)

// CustomChoice - значение выбора, при котором берется пользовательское число
const CustomChoice = "custom"

var (
	// WarningPresets - допустимые предустановки предупреждений, минуты
	WarningPresets = []int{1, 3, 5, 10, 15, 20, 30}
	// OvertimePresets - допустимые интервалы напоминаний о переработке, минуты
	OvertimePresets = []int{15, 30, 60}
)

// Значения по умолчанию для пользовательских полей
const (
	defaultCustomWarning1 = 25
	defaultCustomWarning2 = 2
	defaultCustomOvertime = 45
)

// Settings - настройки уведомлений в том виде, как они лежат в файле
type Settings struct {
	EnableNotification1 bool   `yaml:"enable_notification_1" json:"enableNotification1"`
	WarningTime1        string `yaml:"warning_time_1" json:"warningTime1"`
	CustomWarning1      int    `yaml:"custom_warning_1" json:"customWarning1"`

	EnableNotification2 bool   `yaml:"enable_notification_2" json:"enableNotification2"`
	WarningTime2        string `yaml:"warning_time_2" json:"warningTime2"`
	CustomWarning2      int    `yaml:"custom_warning_2" json:"customWarning2"`

	EnableOvertimeNotifications bool   `yaml:"enable_overtime_notifications" json:"enableOvertimeNotifications"`
	OvertimeInterval            string `yaml:"overtime_interval" json:"overtimeInterval"`
	CustomOvertime              int    `yaml:"custom_overtime" json:"customOvertime"`
}

func DefaultSettings() Settings {
	return Settings{
		EnableNotification1:         true,
		WarningTime1:                "10",
		CustomWarning1:              defaultCustomWarning1,
		EnableNotification2:         true,
		WarningTime2:                "1",
		CustomWarning2:              defaultCustomWarning2,
		EnableOvertimeNotifications: false,
		OvertimeInterval:            "30",
		CustomOvertime:              defaultCustomOvertime,
	}
}

// Validate проверяет выбор предустановок и пользовательские значения
func (s Settings) Validate() error {
	var errs []error
	if err := validateChoice("warning_time_1", s.WarningTime1, s.CustomWarning1, WarningPresets); err != nil {
		errs = append(errs, err)
	}
	if err := validateChoice("warning_time_2", s.WarningTime2, s.CustomWarning2, WarningPresets); err != nil {
		errs = append(errs, err)
	}
	if err := validateChoice("overtime_interval", s.OvertimeInterval, s.CustomOvertime, OvertimePresets); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func validateChoice(field, choice string, custom int, presets []int) error {
	if choice == CustomChoice {
		if custom <= 0 {
			return fmt.Errorf("%s: custom value must be positive, got %d", field, custom)
		}
		return nil
	}

	value, err := strconv.Atoi(choice)
	if err != nil {
		return fmt.Errorf("%s: %q is neither a preset nor %q", field, choice, CustomChoice)
	}
	if !slices.Contains(presets, value) {
		return fmt.Errorf("%s: %d is not one of presets %v", field, value, presets)
	}
	return nil
}

// resolve переводит выбор в минуты. Некорректный выбор дает fallback.
func resolve(choice string, custom, customDefault, fallback int) int {
	if choice == CustomChoice {
		if custom > 0 {
			return custom
		}
		return customDefault
	}
	if value, err := strconv.Atoi(choice); err == nil && value > 0 {
		return value
	}
	return fallback
}

// NotificationConfig - снимок для планировщика
func (s Settings) NotificationConfig() models.NotificationConfig {
	return models.NotificationConfig{
		Warning1: models.WarningSetting{
			Enabled:       s.EnableNotification1,
			OffsetMinutes: resolve(s.WarningTime1, s.CustomWarning1, defaultCustomWarning1, 10),
		},
		Warning2: models.WarningSetting{
			Enabled:       s.EnableNotification2,
			OffsetMinutes: resolve(s.WarningTime2, s.CustomWarning2, defaultCustomWarning2, 1),
		},
		Overtime: models.OvertimeSetting{
			Enabled:         s.EnableOvertimeNotifications,
			IntervalMinutes: resolve(s.OvertimeInterval, s.CustomOvertime, defaultCustomOvertime, 30),
		},
	}
}

// ChangeFunc получает прежние и новые настройки
type ChangeFunc func(prev, next Settings)

// SettingsStore хранит настройки в yaml файле. Файл перечитывается при
// каждом обращении, так что правка руками тоже доходит до подписчиков.
type SettingsStore struct {
	mu          sync.Mutex
	path        string
	current     Settings
	subscribers []ChangeFunc
	logger      *logrus.Logger
}

func NewSettingsStore(path string) (*SettingsStore, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.GetLevel())

	store := &SettingsStore{
		path:    path,
		current: DefaultSettings(),
		logger:  logger,
	}

	loaded, err := readSettings(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.WithField("path", path).Info("Settings file not found, using defaults")
	case err != nil:
		return nil, err
	default:
		store.current = loaded
	}

	return store, nil
}

func readSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	// Отсутствующие в файле поля берутся из значений по умолчанию
	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return settings, nil
}

// Subscribe регистрирует обработчик изменения настроек
func (s *SettingsStore) Subscribe(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Get возвращает актуальные настройки
func (s *SettingsStore) Get() Settings {
	prev, next, changed := s.reload()
	if changed {
		s.notify(prev, next)
	}
	return next
}

// NotificationConfig - актуальный снимок для планировщика
func (s *SettingsStore) NotificationConfig() models.NotificationConfig {
	return s.Get().NotificationConfig()
}

func (s *SettingsStore) reload() (Settings, Settings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current
	loaded, err := readSettings(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.WithError(err).Warn("Failed to reload settings, keeping previous values")
		}
		return prev, prev, false
	}
	if loaded == prev {
		return prev, prev, false
	}

	s.current = loaded
	s.logger.Info("Settings file changed on disk")
	return prev, loaded, true
}

// Save проверяет, записывает настройки и уведомляет подписчиков
func (s *SettingsStore) Save(next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	s.mu.Lock()
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("create settings dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("write settings %s: %w", s.path, err)
	}
	prev := s.current
	s.current = next
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"path":     s.path,
		"overtime": next.EnableOvertimeNotifications,
	}).Info("Settings saved")

	if prev != next {
		s.notify(prev, next)
	}
	return nil
}

func (s *SettingsStore) notify(prev, next Settings) {
	s.mu.Lock()
	subscribers := slices.Clone(s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(prev, next)
	}
}
