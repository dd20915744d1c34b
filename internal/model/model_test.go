package model

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		name     string
		model    interface{ TableName() string }
		expected string
	}{
		{"SessionRow", &SessionRow{}, "sessions"},
		{"PinRow", &PinRow{}, "pins"},
		{"EasingRow", &EasingRow{}, "easings"},
		{"CommitRecord", &CommitRecord{}, "commit_records"},
		{"RetimePerformance", &RetimePerformance{}, "retime_performances"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.model.TableName())
		})
	}
}

func TestAutoMigrateAllModels(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(DatabaseModels...))

	sess := &SessionRow{
		SessionUID: "mig-test",
		Pins:       []PinRow{{PinID: 1, Time: 0}, {PinID: 2, Time: 50}},
		Easings:    []EasingRow{{Ordinal: 0, Bias: 0.5}},
		Commits:    []CommitRecord{{Label: "retime: drag pin", PinCount: 2}},
	}
	require.NoError(t, db.Create(sess).Error)

	var loaded SessionRow
	require.NoError(t, db.Preload("Pins").Preload("Easings").Preload("Commits").
		First(&loaded, sess.ID).Error)
	assert.Len(t, loaded.Pins, 2)
	assert.Len(t, loaded.Easings, 1)
	assert.Len(t, loaded.Commits, 1)
	assert.Equal(t, sess.ID, loaded.Pins[0].SessionID)
}

func TestDatabaseModelsContainsAllTables(t *testing.T) {
	assert.Len(t, DatabaseModels, 5)
	for _, m := range DatabaseModels {
		_, ok := m.(interface{ TableName() string })
		assert.True(t, ok, "model %T must declare a table name", m)
	}
}
