package database

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// GetUserData retrieves the play state of an episode.
// Returns nil if nothing is stored for the episode (not an error)
func GetUserData(db *gorm.DB, episodeID int) (*UserData, error) {
	var data UserData
	err := db.Where("episode_id = ?", episodeID).First(&data).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &data, nil
}

// SaveUserData inserts or replaces the play state of an episode. A zero
// ModifiedAt is stamped with the current time.
func SaveUserData(db *gorm.DB, data *UserData) error {
	if data.ModifiedAt.IsZero() {
		data.ModifiedAt = time.Now().UTC()
	}
	return db.Save(data).Error
}

// ListUserData returns every stored play state ordered by episode
func ListUserData(db *gorm.DB) ([]UserData, error) {
	var rows []UserData
	if err := db.Order("episode_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListSeriesUserData returns the stored play states of one series
func ListSeriesUserData(db *gorm.DB, seriesID int) ([]UserData, error) {
	var rows []UserData
	if err := db.Where("series_id = ?", seriesID).Order("episode_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
