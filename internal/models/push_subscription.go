package models

import "time"

// PushSubscription - подписка браузера на web push
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (PushSubscription) TableName() string {
	return "push_subscriptions"
}
