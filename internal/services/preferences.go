package services

import (
	"billpress/internal/models"

	"gorm.io/gorm"
)

// PreferencesService handles user preferences operations
type PreferencesService struct {
	db *gorm.DB
}

// NewPreferencesService creates a new preferences service
func NewPreferencesService(db *gorm.DB) *PreferencesService {
	return &PreferencesService{db: db}
}

// GetPreferences gets the current user preferences
func (s *PreferencesService) GetPreferences() (*models.UserPreferencesData, error) {
	prefs, err := models.GetOrCreatePreferences(s.db)
	if err != nil {
		return nil, err
	}

	prefsData := prefs.GetPreferences()
	return &prefsData, nil
}

// UpdatePreferences updates user preferences from a partial field map, the
// shape the frontend sends over the Wails bridge (numbers arrive as float64).
func (s *PreferencesService) UpdatePreferences(data map[string]interface{}) error {
	prefs, err := models.GetOrCreatePreferences(s.db)
	if err != nil {
		return err
	}

	currentPrefs := prefs.GetPreferences()

	if val, ok := data["target_size_kb"]; ok {
		if kb, ok := val.(float64); ok && kb > 0 {
			currentPrefs.TargetSizeKB = int(kb)
		}
	}

	if val, ok := data["min_quality"]; ok {
		if quality, ok := val.(float64); ok && quality > 0 {
			currentPrefs.MinQuality = int(quality)
		}
	}

	if val, ok := data["min_scale"]; ok {
		if scale, ok := val.(float64); ok && scale > 0 {
			currentPrefs.MinScale = scale
		}
	}

	if val, ok := data["last_folder"]; ok {
		if folder, ok := val.(string); ok {
			currentPrefs.LastFolder = folder
		}
	}

	if err := prefs.SetPreferences(currentPrefs); err != nil {
		return err
	}

	return s.db.Save(prefs).Error
}
