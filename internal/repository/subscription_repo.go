package repository

import (
	"context"

	"workend-notifier/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepository interface {
	Save(ctx context.Context, sub *models.PushSubscription) error
	List(ctx context.Context) ([]models.PushSubscription, error)
	Delete(ctx context.Context, endpoint string) error
}

type GormSubscriptionRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormSubscriptionRepository(db *gorm.DB) (*GormSubscriptionRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.PushSubscription{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate push_subscriptions table")
		return nil, err
	}

	return &GormSubscriptionRepository{
		db:     db,
		logger: logger,
	}, nil
}

// Save добавляет подписку или обновляет ключи существующей
func (r *GormSubscriptionRepository) Save(ctx context.Context, sub *models.PushSubscription) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).
		Create(sub)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to save push subscription")
		return result.Error
	}

	r.logger.WithField("endpoint", sub.Endpoint).Info("Push subscription saved")
	return nil
}

func (r *GormSubscriptionRepository) List(ctx context.Context) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	if err := r.db.WithContext(ctx).Find(&subs).Error; err != nil {
		r.logger.WithError(err).Error("Failed to list push subscriptions")
		return nil, err
	}
	return subs, nil
}

func (r *GormSubscriptionRepository) Delete(ctx context.Context, endpoint string) error {
	result := r.db.WithContext(ctx).Delete(&models.PushSubscription{Endpoint: endpoint})
	if result.Error != nil {
		r.logger.WithError(result.Error).WithField("endpoint", endpoint).Error("Failed to delete push subscription")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"endpoint":      endpoint,
		"rows_affected": result.RowsAffected,
	}).Info("Push subscription deleted")
	return nil
}
