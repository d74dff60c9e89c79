package database

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Setting keys
const (
	SettingAPIKey = "shoko.api_key"
)

// GetSetting returns the stored value for key, or "" when unset
func GetSetting(db *gorm.DB, key string) (string, error) {
	var setting Setting
	if err := db.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return setting.Value, nil
}

// SetSetting stores value under key
func SetSetting(db *gorm.DB, key, value string) error {
	return db.Save(&Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}).Error
}
