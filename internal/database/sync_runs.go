package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StartSyncRun records the start of a sync in the given direction
func StartSyncRun(db *gorm.DB, direction string) (*SyncRun, error) {
	run := &SyncRun{
		ID:        uuid.NewString(),
		Direction: direction,
		Status:    SyncRunRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := db.Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// FinishSyncRun stores the outcome of run
func FinishSyncRun(db *gorm.DB, run *SyncRun, status string, runErr error) error {
	now := time.Now().UTC()
	run.Status = status
	run.FinishedAt = &now
	if runErr != nil {
		run.Error = runErr.Error()
	}
	return db.Save(run).Error
}

// RecentSyncRuns returns up to limit runs, newest first
func RecentSyncRuns(db *gorm.DB, limit int) ([]SyncRun, error) {
	var runs []SyncRun
	if err := db.Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
