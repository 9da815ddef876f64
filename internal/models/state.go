package models

import "time"

// Ключи сохраненного состояния
const (
	KeyCurrentWorkDate           = "currentWorkDate"
	KeyCompletionTimeForOvertime = "completionTimeForOvertime"
	workDataKeyPrefix            = "workData_"
)

// WorkDataKey - ключ последнего результата расчета за день
func WorkDataKey(workDate string) string {
	return workDataKeyPrefix + workDate
}

// StateEntry - запись key-value хранилища. WorkDate позволяет удалить
// все записи дня одной операцией.
type StateEntry struct {
	Key       string    `gorm:"primaryKey;size:128"`
	WorkDate  string    `gorm:"size:10;index"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (StateEntry) TableName() string {
	return "state_entries"
}
