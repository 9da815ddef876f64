package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"workend-notifier/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StateRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, workDate, value string) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByWorkDate(ctx context.Context, workDate string) (int64, error)
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key, workDate string, value any) error
}

type GormStateRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormStateRepository(db *gorm.DB) (*GormStateRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.StateEntry{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate state_entries table")
		return nil, err
	}

	logger.Debug("State repository initialized")

	return &GormStateRepository{
		db:     db,
		logger: logger,
	}, nil
}

// Get возвращает значение по ключу и признак его наличия
func (r *GormStateRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.StateEntry
	result := r.db.WithContext(ctx).Where(map[string]any{"key": key}).First(&entry)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return "", false, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).WithField("key", key).Error("Failed to get state entry")
		return "", false, result.Error
	}

	return entry.Value, true, nil
}

// Set перезаписывает значение. workDate привязывает запись к дню,
// пустая строка означает запись вне дня.
func (r *GormStateRepository) Set(ctx context.Context, key, workDate, value string) error {
	entry := models.StateEntry{Key: key, WorkDate: workDate, Value: value}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"work_date", "value", "updated_at"}),
		}).
		Create(&entry)
	if result.Error != nil {
		r.logger.WithError(result.Error).WithField("key", key).Error("Failed to set state entry")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"key":       key,
		"work_date": workDate,
	}).Debug("State entry saved")

	return nil
}

func (r *GormStateRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Where(map[string]any{"key": keys}).Delete(&models.StateEntry{})
	if result.Error != nil {
		r.logger.WithError(result.Error).WithField("keys", keys).Error("Failed to delete state entries")
		return result.Error
	}

	return nil
}

// DeleteByWorkDate удаляет все записи указанного дня
func (r *GormStateRepository) DeleteByWorkDate(ctx context.Context, workDate string) (int64, error) {
	if workDate == "" {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Where("work_date = ?", workDate).Delete(&models.StateEntry{})
	if result.Error != nil {
		r.logger.WithError(result.Error).WithField("work_date", workDate).Error("Failed to delete state entries of day")
		return 0, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"work_date":     workDate,
		"rows_affected": result.RowsAffected,
	}).Info("State entries of day deleted")

	return result.RowsAffected, nil
}

func (r *GormStateRepository) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("Stored state entry is not valid JSON")
		return false, fmt.Errorf("decode state entry %q: %w", key, err)
	}

	return true, nil
}

func (r *GormStateRepository) SetJSON(ctx context.Context, key, workDate string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode state entry %q: %w", key, err)
	}
	return r.Set(ctx, key, workDate, string(data))
}
