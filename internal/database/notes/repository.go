// Package notes provides database operations for reading entry notes.
//
// GetByEntry returns notes oldest-first (created_at ascending). That is the
// canonical order for the whole application; callers that want newest-first
// display reverse at the edge instead of asking for a different order here.
package notes

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ncnbooks/bookshelf/internal/database"
	"github.com/ncnbooks/bookshelf/internal/entities"
)

// Repository handles all note database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new notes repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts a new note and assigns its ID.
func (r *Repository) Add(note *entities.Note) error {
	return r.db.Create(note).Error
}

// Get retrieves a note by ID.
func (r *Repository) Get(id uint) (*entities.Note, error) {
	var note entities.Note
	err := r.db.First(&note, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("note %d: %w", id, database.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// GetByEntry returns all notes for a reading entry, oldest first.
func (r *Repository) GetByEntry(readingEntryID uint) ([]entities.Note, error) {
	var list []entities.Note
	err := r.db.Where("reading_entry_id = ?", readingEntryID).
		Order("created_at ASC").Find(&list).Error
	return list, err
}

// GetAll returns every note.
func (r *Repository) GetAll() ([]entities.Note, error) {
	var list []entities.Note
	err := r.db.Find(&list).Error
	return list, err
}

// UpdateContent replaces a note's content and stamps updated_at.
func (r *Repository) UpdateContent(id uint, content string) error {
	res := r.db.Model(&entities.Note{}).Where("id = ?", id).Updates(map[string]any{
		"content":    content,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("note %d: %w", id, database.ErrNotFound)
	}
	return nil
}

// Delete removes a note by ID.
func (r *Repository) Delete(id uint) error {
	return r.db.Delete(&entities.Note{}, id).Error
}

// Clear removes every note.
func (r *Repository) Clear() error {
	return r.db.Where("1 = 1").Delete(&entities.Note{}).Error
}
