package repository

import (
	"context"
	"errors"

	"workend-notifier/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AlarmRepository interface {
	Save(ctx context.Context, alarm *models.Alarm) error
	Get(ctx context.Context, name string) (*models.Alarm, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]*models.Alarm, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type GormAlarmRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormAlarmRepository(db *gorm.DB) (*GormAlarmRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.Alarm{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate alarms table")
		return nil, err
	}

	logger.Debug("Alarm repository initialized")

	return &GormAlarmRepository{
		db:     db,
		logger: logger,
	}, nil
}

// Save создает или перезаписывает метаданные таймера по имени
func (r *GormAlarmRepository) Save(ctx context.Context, alarm *models.Alarm) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(alarm)
	if result.Error != nil {
		r.logger.WithError(result.Error).WithField("name", alarm.Name).Error("Failed to save alarm")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"name":    alarm.Name,
		"kind":    alarm.Kind,
		"fire_at": alarm.FireAt.Format("2006-01-02 15:04:05"),
	}).Debug("Alarm saved")

	return nil
}

// Get возвращает метаданные таймера или nil, если их нет
func (r *GormAlarmRepository) Get(ctx context.Context, name string) (*models.Alarm, error) {
	var alarm models.Alarm
	result := r.db.WithContext(ctx).Where("name = ?", name).First(&alarm)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("name", name).Debug("Alarm not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get alarm")
		return nil, result.Error
	}

	return &alarm, nil
}

// Delete удаляет метаданные, отсутствие записи ошибкой не считается
func (r *GormAlarmRepository) Delete(ctx context.Context, name string) error {
	result := r.db.WithContext(ctx).Delete(&models.Alarm{Name: name})
	if result.Error != nil {
		r.logger.WithError(result.Error).WithField("name", name).Error("Failed to delete alarm")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"name":          name,
		"rows_affected": result.RowsAffected,
	}).Debug("Alarm deleted")

	return nil
}

func (r *GormAlarmRepository) List(ctx context.Context) ([]*models.Alarm, error) {
	var alarms []*models.Alarm
	result := r.db.WithContext(ctx).Order("fire_at ASC").Find(&alarms)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list alarms")
		return nil, result.Error
	}
	return alarms, nil
}

// DeleteAll удаляет все метаданные таймеров
func (r *GormAlarmRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.Alarm{})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete all alarms")
		return 0, result.Error
	}

	r.logger.WithField("rows_affected", result.RowsAffected).Info("All alarms deleted")
	return result.RowsAffected, nil
}
