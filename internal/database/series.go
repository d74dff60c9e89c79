package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shokofin/shokofin/internal/shoko"
)

// SaveSeries stores or replaces the cached copy of a series
func SaveSeries(db *gorm.DB, series *shoko.Series) error {
	payload, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("failed to encode series %d: %w", series.IDs.ID, err)
	}

	record := SeriesRecord{
		ShokoID:   series.IDs.ID,
		AniDBID:   series.IDs.AniDB,
		Name:      series.Title(),
		Payload:   string(payload),
		FetchedAt: time.Now().UTC(),
	}
	return db.Save(&record).Error
}

// LoadSeries returns the cached series with the given Shoko id.
// Returns nil if the series was never cached (not an error)
func LoadSeries(db *gorm.DB, id int) (*shoko.Series, error) {
	var record SeriesRecord
	if err := db.First(&record, "shoko_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return shoko.Unmarshal[shoko.Series]([]byte(record.Payload))
}

// ListSeriesRecords returns every cached series ordered by name
func ListSeriesRecords(db *gorm.DB) ([]SeriesRecord, error) {
	var records []SeriesRecord
	if err := db.Order("name").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteSeries removes a cached series
func DeleteSeries(db *gorm.DB, id int) error {
	return db.Where("shoko_id = ?", id).Delete(&SeriesRecord{}).Error
}
