package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"billpress/internal/common"
)

// UserPreferences represents user preferences in the database
type UserPreferences struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PreferencesJSON string    `gorm:"type:text" json:"preferences_json"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UserPreferencesData represents the structured preferences data
type UserPreferencesData struct {
	TargetSizeKB int     `json:"target_size_kb"`
	MinQuality   int     `json:"min_quality"`
	MinScale     float64 `json:"min_scale"`
	LastFolder   string  `json:"last_folder"`
}

// DefaultPreferences returns default preference values
func DefaultPreferences() UserPreferencesData {
	return UserPreferencesData{
		TargetSizeKB: common.DefaultTargetKB,
		MinQuality:   25,
		MinScale:     0.3,
		LastFolder:   "",
	}
}

// GetPreferences parses and returns the preferences data
func (up *UserPreferences) GetPreferences() UserPreferencesData {
	if up.PreferencesJSON == "" {
		return DefaultPreferences()
	}

	var prefs UserPreferencesData
	if err := json.Unmarshal([]byte(up.PreferencesJSON), &prefs); err != nil {
		return DefaultPreferences()
	}

	return prefs
}

// SetPreferences sets the preferences data
func (up *UserPreferences) SetPreferences(prefs UserPreferencesData) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}

	up.PreferencesJSON = string(data)
	return nil
}

// GetOrCreatePreferences gets or creates the global preferences instance
func GetOrCreatePreferences(db *gorm.DB) (*UserPreferences, error) {
	var prefs UserPreferences

	result := db.First(&prefs, 1)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			prefs = UserPreferences{
				ID: 1,
			}

			defaultPrefs := DefaultPreferences()
			if err := prefs.SetPreferences(defaultPrefs); err != nil {
				return nil, err
			}

			if err := db.Create(&prefs).Error; err != nil {
				return nil, err
			}
		} else {
			return nil, result.Error
		}
	}

	return &prefs, nil
}
