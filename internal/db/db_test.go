package db

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"workend-notifier/internal/models"
)

func TestOpen_SQLiteMigrates(t *testing.T) {
	db, err := Open(DriverSQLite, "file::memory:")
	require.NoError(t, err)

	for _, table := range []string{"alarms", "state_entries", "push_subscriptions"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	assert.Error(t, err)
}

func TestGormLogger_SkipsRecordNotFound(t *testing.T) {
	db, err := Open(DriverSQLite, "file::memory:")
	require.NoError(t, err)

	var buf bytes.Buffer
	session := db.Session(&gorm.Session{Logger: newGormLogger(&buf)})

	var entry models.StateEntry
	err = session.Where("key = ?", models.KeyCurrentWorkDate).First(&entry).Error
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.Empty(t, buf.String())

	// Настоящие ошибки по-прежнему пишутся
	err = session.Raw("SELECT * FROM missing_table").Scan(&entry).Error
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "missing_table")
}
