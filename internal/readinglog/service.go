// Package readinglog implements the business rules of the reading log:
// atomic book+entry creation, status transitions with one-shot date
// stamping, and the note lifecycle.
//
// Status transitions are deliberately unrestricted: any of the four statuses
// can be set at any time. Only the date side effects are one-directional —
// startedDate is stamped on the first transition to Currently Reading and
// finishedDate on the first transition to Completed or Did Not Finish;
// neither is ever overwritten once set.
package readinglog

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/ncnbooks/bookshelf/internal/database"
	"github.com/ncnbooks/bookshelf/internal/database/books"
	"github.com/ncnbooks/bookshelf/internal/database/entries"
	"github.com/ncnbooks/bookshelf/internal/database/notes"
	"github.com/ncnbooks/bookshelf/internal/entities"
)

const maxNoteLength = 10000

// Service coordinates the storage repositories and enforces the domain
// invariants the store itself cannot express (ISBN uniqueness across the
// book+entry pair, logical foreign keys, note validation).
type Service struct {
	db      *gorm.DB
	books   *books.Repository
	entries *entries.Repository
	notes   *notes.Repository
}

// NewService creates a reading log service over an open database handle.
func NewService(db *gorm.DB) *Service {
	return &Service{
		db:      db,
		books:   books.NewRepository(db),
		entries: entries.NewRepository(db),
		notes:   notes.NewRepository(db),
	}
}

// BookWithEntry pairs a book with its reading entry for library views.
type BookWithEntry struct {
	Book  entities.Book         `json:"book"`
	Entry entities.ReadingEntry `json:"entry"`
}

// AddBookResult identifies the records created by AddBook.
type AddBookResult struct {
	ISBN    string `json:"isbn"`
	EntryID uint   `json:"entryId"`
}

// AddBook inserts the book and a fresh "Not Started" reading entry in one
// transaction. It fails with database.ErrDuplicateKey when the ISBN is
// already in the library, leaving the store untouched.
func (s *Service) AddBook(book *entities.Book) (*AddBookResult, error) {
	if book.AddedAt.IsZero() {
		book.AddedAt = time.Now()
	}
	if book.Source == "" {
		book.Source = entities.SourceManual
	}

	entry := &entities.ReadingEntry{
		ISBN:        book.ISBN,
		Status:      entities.StatusNotStarted,
		LastUpdated: time.Now(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := books.NewRepository(tx).Add(book); err != nil {
			return err
		}
		return entries.NewRepository(tx).Add(entry)
	})
	if err != nil {
		return nil, err
	}

	return &AddBookResult{ISBN: book.ISBN, EntryID: entry.ID}, nil
}

// UpdateStatus sets an entry's status and applies the one-shot date
// stamping rules.
func (s *Service) UpdateStatus(entryID uint, status entities.ReadingStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%q: %w", status, ErrInvalidStatus)
	}

	entry, err := s.entries.Get(entryID)
	if err != nil {
		return err
	}

	changes := map[string]any{"status": status}
	now := time.Now()

	if status == entities.StatusCurrentlyReading && entry.StartedDate == nil {
		changes["started_date"] = now
	}
	if (status == entities.StatusCompleted || status == entities.StatusDidNotFinish) && entry.FinishedDate == nil {
		changes["finished_date"] = now
	}

	return s.entries.Update(entryID, changes)
}

// SetCurrentPage records page progress on an entry.
func (s *Service) SetCurrentPage(entryID uint, page *int) error {
	return s.entries.Update(entryID, map[string]any{"current_page": page})
}

// DeleteBook removes a book, its entry and the entry's notes. The storage
// layer handles the cascade; there is no additional domain logic.
func (s *Service) DeleteBook(isbn string) error {
	return s.books.Delete(isbn)
}

// GetBookWithEntry returns a book together with its reading entry.
func (s *Service) GetBookWithEntry(isbn string) (*BookWithEntry, error) {
	book, err := s.books.Get(isbn)
	if err != nil {
		return nil, err
	}
	entry, err := s.entries.GetByISBN(isbn)
	if err != nil {
		return nil, err
	}
	return &BookWithEntry{Book: *book, Entry: *entry}, nil
}

// GetAllBooksWithEntries returns the library ordered by most recently
// updated entry. Entries whose book is missing are skipped.
func (s *Service) GetAllBooksWithEntries() ([]BookWithEntry, error) {
	list, err := s.entries.GetByRecentlyUpdated()
	if err != nil {
		return nil, err
	}
	return s.joinBooks(list)
}

// GetBooksByStatus returns the library filtered by reading status.
func (s *Service) GetBooksByStatus(status entities.ReadingStatus) ([]BookWithEntry, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%q: %w", status, ErrInvalidStatus)
	}
	list, err := s.entries.GetByStatus(status)
	if err != nil {
		return nil, err
	}
	return s.joinBooks(list)
}

// joinBooks pairs entries with their books in application code. Orphaned
// entries (book deleted out from under them) are silently dropped.
func (s *Service) joinBooks(list []entities.ReadingEntry) ([]BookWithEntry, error) {
	results := make([]BookWithEntry, 0, len(list))
	for _, entry := range list {
		book, err := s.books.Get(entry.ISBN)
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, BookWithEntry{Book: *book, Entry: entry})
	}
	return results, nil
}

// AddNote attaches a note to a reading entry and touches the entry so it
// sorts as recently active.
func (s *Service) AddNote(readingEntryID uint, content string) (*entities.Note, error) {
	trimmed, err := validateNoteContent(content)
	if err != nil {
		return nil, err
	}

	// The store does not enforce the foreign key; reject dangling notes here.
	if _, err := s.entries.Get(readingEntryID); err != nil {
		return nil, err
	}

	note := &entities.Note{
		ReadingEntryID: readingEntryID,
		Content:        trimmed,
	}
	if err := s.notes.Add(note); err != nil {
		return nil, err
	}

	if err := s.entries.Touch(readingEntryID); err != nil {
		return nil, err
	}
	return note, nil
}

// UpdateNote replaces a note's content and touches the parent entry.
func (s *Service) UpdateNote(noteID uint, content string) error {
	trimmed, err := validateNoteContent(content)
	if err != nil {
		return err
	}

	note, err := s.notes.Get(noteID)
	if err != nil {
		return err
	}

	if err := s.notes.UpdateContent(noteID, trimmed); err != nil {
		return err
	}
	return s.entries.Touch(note.ReadingEntryID)
}

// DeleteNote removes a note and touches the parent entry.
func (s *Service) DeleteNote(noteID uint) error {
	note, err := s.notes.Get(noteID)
	if err != nil {
		return err
	}

	if err := s.notes.Delete(noteID); err != nil {
		return err
	}
	return s.entries.Touch(note.ReadingEntryID)
}

// NotesForEntry returns an entry's notes, oldest first (the canonical note
// order; see the notes repository).
func (s *Service) NotesForEntry(readingEntryID uint) ([]entities.Note, error) {
	return s.notes.GetByEntry(readingEntryID)
}

// validateNoteContent trims the content and enforces the 1..10,000
// character bound on the trimmed text.
func validateNoteContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrNoteEmpty
	}
	if utf8.RuneCountInString(trimmed) > maxNoteLength {
		return "", ErrNoteTooLong
	}
	return trimmed, nil
}
