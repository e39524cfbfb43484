// Package preferences provides database operations for user preferences.
//
// # Usage
//
//	repo := preferences.NewRepository(db)
//	err := repo.SetAny(entities.PrefKeyTheme, "dark")
package preferences

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ncnbooks/bookshelf/internal/database"
	"github.com/ncnbooks/bookshelf/internal/entities"
)

// Repository handles all preference database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new preferences repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get retrieves a preference by key.
func (r *Repository) Get(key string) (*entities.UserPreference, error) {
	var pref entities.UserPreference
	err := r.db.Where("key = ?", key).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("preference %s: %w", key, database.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// GetAll returns every stored preference.
func (r *Repository) GetAll() ([]entities.UserPreference, error) {
	var list []entities.UserPreference
	err := r.db.Find(&list).Error
	return list, err
}

// Set creates or overwrites a preference. Last writer wins.
func (r *Repository) Set(key string, value entities.PreferenceValue) error {
	var pref entities.UserPreference
	result := r.db.Where("key = ?", key).First(&pref)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		pref = entities.UserPreference{
			Key:       key,
			Value:     value,
			UpdatedAt: time.Now(),
		}
		return r.db.Create(&pref).Error
	} else if result.Error != nil {
		return result.Error
	}

	pref.Value = value
	pref.UpdatedAt = time.Now()
	return r.db.Save(&pref).Error
}

// SetAny marshals an arbitrary JSON-serializable value and stores it.
func (r *Repository) SetAny(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal preference %s: %w", key, err)
	}
	return r.Set(key, entities.PreferenceValue(data))
}

// Delete removes a preference by key.
func (r *Repository) Delete(key string) error {
	return r.db.Where("key = ?", key).Delete(&entities.UserPreference{}).Error
}

// Clear removes every preference.
func (r *Repository) Clear() error {
	return r.db.Where("1 = 1").Delete(&entities.UserPreference{}).Error
}
