// Package books provides database operations for the book catalog.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.Get("9780134685991")
//
// Delete cascades to the book's reading entry and that entry's notes inside
// a single transaction, so no orphan rows survive a failed delete.
package books

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ncnbooks/bookshelf/internal/database"
	"github.com/ncnbooks/bookshelf/internal/entities"
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts a new book. It fails with database.ErrDuplicateKey when a book
// with the same ISBN already exists; the store is left unchanged.
func (r *Repository) Add(book *entities.Book) error {
	var existing entities.Book
	err := r.db.Where("isbn = ?", book.ISBN).First(&existing).Error
	if err == nil {
		return fmt.Errorf("book %s: %w", book.ISBN, database.ErrDuplicateKey)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Create(book).Error
}

// Get retrieves a book by ISBN.
func (r *Repository) Get(isbn string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("isbn = ?", isbn).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("book %s: %w", isbn, database.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetAll returns every book in the catalog.
func (r *Repository) GetAll() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Find(&books).Error
	return books, err
}

// Update applies a partial patch to a book. Keys are column names.
func (r *Repository) Update(isbn string, changes map[string]any) error {
	res := r.db.Model(&entities.Book{}).Where("isbn = ?", isbn).Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("book %s: %w", isbn, database.ErrNotFound)
	}
	return nil
}

// Put upserts a full book record keyed by ISBN. Used by import
// reconciliation, which is the only caller allowed to overwrite a book.
func (r *Repository) Put(book *entities.Book) error {
	return r.db.Save(book).Error
}

// Delete removes a book together with its reading entry and all of that
// entry's notes. The deletes run inside one transaction, children first, so
// either everything disappears or nothing does.
func (r *Repository) Delete(isbn string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var entry entities.ReadingEntry
		err := tx.Where("isbn = ?", isbn).First(&entry).Error
		if err == nil {
			if err := tx.Where("reading_entry_id = ?", entry.ID).Delete(&entities.Note{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&entities.ReadingEntry{}, entry.ID).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Where("isbn = ?", isbn).Delete(&entities.Book{}).Error
	})
}

// Clear removes every book. Entries and notes are cleared by their own
// repositories; this is only used by import's replace strategy and tests.
func (r *Repository) Clear() error {
	return r.db.Where("1 = 1").Delete(&entities.Book{}).Error
}
