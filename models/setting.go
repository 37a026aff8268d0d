package models

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting is one value in a namespaced key-value table.
type Setting struct {
	BaseModel
	Namespace string `json:"namespace" gorm:"not null;uniqueIndex:idx_settings_namespace_key"`
	Name      string `json:"name" gorm:"not null;uniqueIndex:idx_settings_namespace_key"`
	Value     string `json:"value"`
}

// FindSetting returns the value stored under 'namespace'/'key'.
// ok is false if no value is stored.
func FindSetting(db *gorm.DB, namespace, key string) (value string, ok bool, err error) {
	setting := Setting{}
	err = db.Where("namespace = ? AND name = ?", namespace, key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}

	if err != nil {
		return "", false, err
	}

	return setting.Value, true, nil
}

// FindSettings returns every value stored in 'namespace' keyed by key.
func FindSettings(db *gorm.DB, namespace string) (map[string]string, error) {
	settings := []Setting{}
	err := db.Where("namespace = ?", namespace).Find(&settings).Error
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(settings))
	for _, setting := range settings {
		values[setting.Name] = setting.Value
	}

	return values, nil
}

// SaveSetting creates or overwrites the value stored under 'namespace'/'key'.
func SaveSetting(db *gorm.DB, namespace, key, value string) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&Setting{Namespace: namespace, Name: key, Value: value}).Error
}

// DeleteSettings removes 'keys' from 'namespace'. With no keys, the whole
// namespace is cleared.
func DeleteSettings(db *gorm.DB, namespace string, keys ...string) error {
	query := db.Where("namespace = ?", namespace)
	if len(keys) > 0 {
		query = query.Where("name IN ?", keys)
	}

	return query.Delete(&Setting{}).Error
}
