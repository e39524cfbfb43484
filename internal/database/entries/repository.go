// Package entries provides database operations for reading entries.
//
// Every update stamps last_updated, including the empty patches used to
// touch an entry when one of its notes changes.
package entries

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ncnbooks/bookshelf/internal/database"
	"github.com/ncnbooks/bookshelf/internal/entities"
)

// Repository handles all reading entry database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reading entries repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts a new reading entry and assigns its ID.
func (r *Repository) Add(entry *entities.ReadingEntry) error {
	if entry.LastUpdated.IsZero() {
		entry.LastUpdated = time.Now()
	}
	return r.db.Create(entry).Error
}

// Get retrieves a reading entry by ID.
func (r *Repository) Get(id uint) (*entities.ReadingEntry, error) {
	var entry entities.ReadingEntry
	err := r.db.First(&entry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("reading entry %d: %w", id, database.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetByISBN retrieves the reading entry for a book.
func (r *Repository) GetByISBN(isbn string) (*entities.ReadingEntry, error) {
	var entry entities.ReadingEntry
	err := r.db.Where("isbn = ?", isbn).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("reading entry for %s: %w", isbn, database.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetAll returns every reading entry.
func (r *Repository) GetAll() ([]entities.ReadingEntry, error) {
	var list []entities.ReadingEntry
	err := r.db.Find(&list).Error
	return list, err
}

// GetByStatus returns entries with the given status.
func (r *Repository) GetByStatus(status entities.ReadingStatus) ([]entities.ReadingEntry, error) {
	var list []entities.ReadingEntry
	err := r.db.Where("status = ?", status).Find(&list).Error
	return list, err
}

// GetByRecentlyUpdated returns all entries ordered by last_updated
// descending, most recently touched first.
func (r *Repository) GetByRecentlyUpdated() ([]entities.ReadingEntry, error) {
	var list []entities.ReadingEntry
	err := r.db.Order("last_updated DESC").Find(&list).Error
	return list, err
}

// Update applies a partial patch to an entry. Keys are column names. The
// patch may be empty; last_updated is stamped regardless.
func (r *Repository) Update(id uint, changes map[string]any) error {
	updates := map[string]any{"last_updated": time.Now()}
	for k, v := range changes {
		updates[k] = v
	}
	res := r.db.Model(&entities.ReadingEntry{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("reading entry %d: %w", id, database.ErrNotFound)
	}
	return nil
}

// Touch advances last_updated without changing anything else, so the entry
// sorts as recently active after a note mutation.
func (r *Repository) Touch(id uint) error {
	return r.Update(id, nil)
}

// Delete removes an entry and all of its notes inside one transaction,
// notes first.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reading_entry_id = ?", id).Delete(&entities.Note{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.ReadingEntry{}, id).Error
	})
}

// Clear removes every reading entry.
func (r *Repository) Clear() error {
	return r.db.Where("1 = 1").Delete(&entities.ReadingEntry{}).Error
}
