package database

import (
	"time"

	"gorm.io/gorm"
)

// Sync run states
const (
	SyncRunRunning   = "running"
	SyncRunCompleted = "completed"
	SyncRunFailed    = "failed"
	SyncRunCanceled  = "canceled"
)

// SeriesRecord is a locally cached copy of a Shoko series
type SeriesRecord struct {
	ShokoID   int       `gorm:"primaryKey;autoIncrement:false"`
	AniDBID   int       `gorm:"column:anidb_id;index"`
	Name      string    `gorm:"not null;index"`
	Payload   string    `gorm:"type:text;not null"` // series JSON as received
	FetchedAt time.Time `gorm:"not null"`
}

// TableName overrides the table name
func (SeriesRecord) TableName() string {
	return "series"
}

// UserData is the local play state of one episode
type UserData struct {
	EpisodeID    int        `gorm:"primaryKey;autoIncrement:false"`
	SeriesID     int        `gorm:"not null;index"`
	FileID       int        `gorm:"default:0"`
	Played       bool       `gorm:"default:false"`
	PlayCount    int        `gorm:"default:0"`
	LastPlayedAt *time.Time `gorm:""`
	ResumeTicks  int64      `gorm:"default:0"` // 100ns units
	ModifiedAt   time.Time  `gorm:"not null;index"`
}

// TableName overrides the table name
func (UserData) TableName() string {
	return "user_data"
}

// SyncRun records one execution of the user data sync
type SyncRun struct {
	ID         string     `gorm:"primaryKey"`
	Direction  string     `gorm:"not null;index"`
	Status     string     `gorm:"not null;index"` // running, completed, failed, canceled
	Episodes   int        `gorm:"default:0"`
	Changed    int        `gorm:"default:0"`
	Error      string     `gorm:""`
	StartedAt  time.Time  `gorm:"not null;index"`
	FinishedAt *time.Time `gorm:""`
}

// TableName overrides the table name
func (SyncRun) TableName() string {
	return "sync_runs"
}

// Setting represents a key-value store for application settings
type Setting struct {
	Key       string    `gorm:"primaryKey"`
	Value     string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`
}

// TableName overrides the table name
func (Setting) TableName() string {
	return "settings"
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&SeriesRecord{},
		&UserData{},
		&SyncRun{},
		&Setting{},
	)
}
