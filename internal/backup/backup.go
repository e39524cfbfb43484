// Package backup serializes the whole library into a portable JSON snapshot
// and reconciles incoming snapshots against current state.
//
// Reconciliation under the merge strategy is most-recent-timestamp-wins:
// books compare addedAt, reading entries lastUpdated, notes updatedAt.
// Records that lose the comparison are reported as conflicts, not errors;
// preferences are always upserted. Per-record failures are collected so one
// bad record never aborts the batch.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ncnbooks/bookshelf/internal/database"
	"github.com/ncnbooks/bookshelf/internal/database/books"
	"github.com/ncnbooks/bookshelf/internal/database/entries"
	"github.com/ncnbooks/bookshelf/internal/database/notes"
	"github.com/ncnbooks/bookshelf/internal/database/preferences"
	"github.com/ncnbooks/bookshelf/internal/entities"
)

// FormatVersion tags exported snapshots. Import accepts any snapshot whose
// shape validates; the version string is carried for future use.
const FormatVersion = "1.0"

// ErrInvalidFormat indicates a snapshot that does not have the required
// shape (version string, date string, four array fields).
var ErrInvalidFormat = errors.New("invalid import data format")

// ErrUnknownStrategy indicates an import strategy other than merge/replace.
var ErrUnknownStrategy = errors.New("unknown import strategy")

type Strategy string

const (
	StrategyMerge   Strategy = "merge"
	StrategyReplace Strategy = "replace"
)

// Snapshot is the portable export format. It round-trips through Export and
// Import structurally unchanged.
type Snapshot struct {
	Version        string                    `json:"version"`
	ExportDate     string                    `json:"exportDate"`
	Books          []entities.Book           `json:"books"`
	ReadingEntries []entities.ReadingEntry   `json:"readingEntries"`
	Notes          []entities.Note           `json:"notes"`
	Preferences    []entities.UserPreference `json:"preferences"`
}

// Conflict records a merge outcome where the incoming record was skipped
// because the existing one was as new or newer.
type Conflict struct {
	Type       string `json:"type"` // "book", "entry" or "note"
	Identifier string `json:"identifier"`
	Message    string `json:"message"`
}

// ImportResult summarizes an import batch. Conflicts do not constitute
// failure; Success is true exactly when the error list is empty.
type ImportResult struct {
	Success             bool       `json:"success"`
	BooksImported       int        `json:"booksImported"`
	EntriesImported     int        `json:"entriesImported"`
	NotesImported       int        `json:"notesImported"`
	PreferencesImported int        `json:"preferencesImported"`
	Conflicts           []Conflict `json:"conflicts"`
	Errors              []string   `json:"errors"`
}

// Service reads and writes all four tables through the storage access
// layer.
type Service struct {
	books   *books.Repository
	entries *entries.Repository
	notes   *notes.Repository
	prefs   *preferences.Repository
}

// NewService creates a backup service over an open database handle.
func NewService(db *gorm.DB) *Service {
	return &Service{
		books:   books.NewRepository(db),
		entries: entries.NewRepository(db),
		notes:   notes.NewRepository(db),
		prefs:   preferences.NewRepository(db),
	}
}

// Export reads all four tables in parallel and wraps them with the format
// version and an export timestamp.
func (s *Service) Export() (*Snapshot, error) {
	snap := &Snapshot{
		Version:    FormatVersion,
		ExportDate: time.Now().Format(time.RFC3339),
	}

	var wg sync.WaitGroup
	errs := make([]error, 4)

	wg.Add(4)
	go func() {
		defer wg.Done()
		snap.Books, errs[0] = s.books.GetAll()
	}()
	go func() {
		defer wg.Done()
		snap.ReadingEntries, errs[1] = s.entries.GetAll()
	}()
	go func() {
		defer wg.Done()
		snap.Notes, errs[2] = s.notes.GetAll()
	}()
	go func() {
		defer wg.Done()
		snap.Preferences, errs[3] = s.prefs.GetAll()
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}

	// Exports must validate on re-import even when tables are empty.
	if snap.Books == nil {
		snap.Books = []entities.Book{}
	}
	if snap.ReadingEntries == nil {
		snap.ReadingEntries = []entities.ReadingEntry{}
	}
	if snap.Notes == nil {
		snap.Notes = []entities.Note{}
	}
	if snap.Preferences == nil {
		snap.Preferences = []entities.UserPreference{}
	}

	return snap, nil
}

// ParseSnapshot decodes raw JSON into a snapshot, failing with
// ErrInvalidFormat when the payload is not valid JSON or lacks the
// required shape.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if err := snap.validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// validate checks the snapshot shape: non-empty version and date strings
// and all four array fields present (a missing field decodes to nil).
func (s *Snapshot) validate() error {
	if s.Version == "" || s.ExportDate == "" {
		return fmt.Errorf("%w: missing version or export date", ErrInvalidFormat)
	}
	if s.Books == nil || s.ReadingEntries == nil || s.Notes == nil || s.Preferences == nil {
		return fmt.Errorf("%w: missing table arrays", ErrInvalidFormat)
	}
	return nil
}

// Import reconciles a snapshot against current state. Shape problems fail
// with ErrInvalidFormat before anything is written; after that, every
// per-record failure is collected and the batch always runs to the end.
func (s *Service) Import(snap *Snapshot, strategy Strategy) (*ImportResult, error) {
	if err := snap.validate(); err != nil {
		return nil, err
	}
	if strategy != StrategyMerge && strategy != StrategyReplace {
		return nil, fmt.Errorf("%q: %w", strategy, ErrUnknownStrategy)
	}

	result := &ImportResult{
		Conflicts: []Conflict{},
		Errors:    []string{},
	}

	if strategy == StrategyReplace {
		// Each clear is its own operation; a cross-table transaction is
		// not required here.
		for name, clear := range map[string]func() error{
			"books":       s.books.Clear,
			"entries":     s.entries.Clear,
			"notes":       s.notes.Clear,
			"preferences": s.prefs.Clear,
		} {
			if err := clear(); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("failed to clear %s: %v", name, err))
			}
		}
	}

	s.importBooks(snap.Books, strategy, result)
	s.importEntries(snap.ReadingEntries, strategy, result)
	s.importNotes(snap.Notes, strategy, result)
	s.importPreferences(snap.Preferences, result)

	result.Success = len(result.Errors) == 0
	return result, nil
}

func (s *Service) importBooks(incoming []entities.Book, strategy Strategy, result *ImportResult) {
	for _, book := range incoming {
		book := book
		existing, err := s.books.Get(book.ISBN)
		switch {
		case err == nil && strategy == StrategyMerge:
			if book.AddedAt.After(existing.AddedAt) {
				if err := s.books.Put(&book); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("failed to import book %s: %v", book.ISBN, err))
					continue
				}
				result.BooksImported++
			} else {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:       "book",
					Identifier: book.ISBN,
					Message:    fmt.Sprintf("book %q already exists and is newer", book.Title),
				})
			}
		case err == nil || errors.Is(err, database.ErrNotFound):
			if err := s.books.Add(&book); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("failed to import book %s: %v", book.ISBN, err))
				continue
			}
			result.BooksImported++
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("failed to import book %s: %v", book.ISBN, err))
		}
	}
}

func (s *Service) importEntries(incoming []entities.ReadingEntry, strategy Strategy, result *ImportResult) {
	for _, entry := range incoming {
		entry := entry
		existing, err := s.entries.Get(entry.ID)
		switch {
		case err == nil && strategy == StrategyMerge:
			if entry.LastUpdated.After(existing.LastUpdated) {
				// Only the mutable fields move; the isbn foreign key of the
				// existing entry is never rewritten by a merge.
				changes := map[string]any{
					"status":        entry.Status,
					"started_date":  entry.StartedDate,
					"finished_date": entry.FinishedDate,
					"current_page":  entry.CurrentPage,
				}
				if err := s.entries.Update(entry.ID, changes); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("failed to import entry %d: %v", entry.ID, err))
					continue
				}
				result.EntriesImported++
			} else {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:       "entry",
					Identifier: fmt.Sprintf("%d", entry.ID),
					Message:    fmt.Sprintf("entry for book %s already exists and is newer", entry.ISBN),
				})
			}
		case err == nil || errors.Is(err, database.ErrNotFound):
			if err := s.entries.Add(&entry); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("failed to import entry %d: %v", entry.ID, err))
				continue
			}
			result.EntriesImported++
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("failed to import entry %d: %v", entry.ID, err))
		}
	}
}

func (s *Service) importNotes(incoming []entities.Note, strategy Strategy, result *ImportResult) {
	for _, note := range incoming {
		note := note
		existing, err := s.notes.Get(note.ID)
		switch {
		case err == nil && strategy == StrategyMerge:
			if note.UpdatedAt.After(existing.UpdatedAt) {
				if err := s.notes.UpdateContent(note.ID, note.Content); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("failed to import note %d: %v", note.ID, err))
					continue
				}
				result.NotesImported++
			} else {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:       "note",
					Identifier: fmt.Sprintf("%d", note.ID),
					Message:    fmt.Sprintf("note %d already exists and is newer", note.ID),
				})
			}
		case err == nil || errors.Is(err, database.ErrNotFound):
			if err := s.notes.Add(&note); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("failed to import note %d: %v", note.ID, err))
				continue
			}
			result.NotesImported++
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("failed to import note %d: %v", note.ID, err))
		}
	}
}

// importPreferences upserts unconditionally: last writer wins, no conflict
// tracking.
func (s *Service) importPreferences(incoming []entities.UserPreference, result *ImportResult) {
	for _, pref := range incoming {
		if err := s.prefs.Set(pref.Key, pref.Value); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to import preference %s: %v", pref.Key, err))
			continue
		}
		result.PreferencesImported++
	}
}
