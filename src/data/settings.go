package data

import (
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	settingsCache map[string]string
	settingsMu    sync.RWMutex
)

// LoadSettings loads all active settings from the database into cache
func LoadSettings(db *gorm.DB) error {
	var settings []Setting
	if err := db.Where("active = ?", true).Find(&settings).Error; err != nil {
		return err
	}

	settingsMu.Lock()
	defer settingsMu.Unlock()

	settingsCache = make(map[string]string)
	for _, s := range settings {
		settingsCache[s.Name] = s.Value
	}

	return nil
}

// GetSetting retrieves a setting value from cache (call LoadSettings first)
func GetSetting(name string) string {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settingsCache[name]
}

// PutSetting stores an active setting, replacing any existing value.
func PutSetting(db *gorm.DB, name, value string) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "active"}),
	}).Create(&Setting{Name: name, Value: value, Active: true}).Error
}

// ResetSettings empties the cache.
func ResetSettings() {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	settingsCache = nil
}
