package backup

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ncnbooks/bookshelf/internal/entities"
	"github.com/ncnbooks/bookshelf/internal/readinglog"
)

func setupTestService(t *testing.T) (*gorm.DB, *Service, func()) {
	dbPath := "./test_backup_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.ReadingEntry{},
		&entities.Note{},
		&entities.UserPreference{},
	)
	require.NoError(t, err)

	service := NewService(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, service, cleanup
}

func seedLibrary(t *testing.T, db *gorm.DB) {
	log := readinglog.NewService(db)

	result, err := log.AddBook(&entities.Book{ISBN: "isbn-1", Title: "Book 1", Author: "A"})
	require.NoError(t, err)
	require.NoError(t, log.UpdateStatus(result.EntryID, entities.StatusCurrentlyReading))
	_, err = log.AddNote(result.EntryID, "a note")
	require.NoError(t, err)

	_, err = log.AddBook(&entities.Book{ISBN: "isbn-2", Title: "Book 2", Author: "B"})
	require.NoError(t, err)

	require.NoError(t, db.Create(&entities.UserPreference{
		Key:   entities.PrefKeyTheme,
		Value: entities.PreferenceValue(`"dark"`),
	}).Error)
}

func TestService_Export_EmptyLibraryStillValidates(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	snap, err := service.Export()
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, snap.Version)
	assert.NotEmpty(t, snap.ExportDate)
	assert.NotNil(t, snap.Books)
	assert.NotNil(t, snap.ReadingEntries)
	assert.NotNil(t, snap.Notes)
	assert.NotNil(t, snap.Preferences)

	// The export must survive a marshal/parse round trip
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	_, err = ParseSnapshot(data)
	assert.NoError(t, err)
}

func TestService_Export_ContainsAllTables(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	seedLibrary(t, db)

	snap, err := service.Export()
	require.NoError(t, err)

	assert.Len(t, snap.Books, 2)
	assert.Len(t, snap.ReadingEntries, 2)
	assert.Len(t, snap.Notes, 1)
	assert.Len(t, snap.Preferences, 1)
}

func TestParseSnapshot_RejectsBadShapes(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", "not json at all"},
		{"missing version", `{"exportDate":"2026-01-01","books":[],"readingEntries":[],"notes":[],"preferences":[]}`},
		{"missing export date", `{"version":"1.0","books":[],"readingEntries":[],"notes":[],"preferences":[]}`},
		{"missing table array", `{"version":"1.0","exportDate":"2026-01-01","books":[],"readingEntries":[],"notes":[]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSnapshot([]byte(tc.data))
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestService_Import_UnknownStrategy(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	snap, err := service.Export()
	require.NoError(t, err)

	_, err = service.Import(snap, "overwrite")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestService_Import_MergeOfOwnExportIsAllConflicts(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	seedLibrary(t, db)

	snap, err := service.Export()
	require.NoError(t, err)

	result, err := service.Import(snap, StrategyMerge)
	require.NoError(t, err)

	// Nothing in the snapshot is strictly newer than the live records, so
	// books, entries and notes all resolve to conflicts. Preferences are
	// upserted unconditionally.
	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 0, result.BooksImported)
	assert.Equal(t, 0, result.EntriesImported)
	assert.Equal(t, 0, result.NotesImported)
	assert.Equal(t, 1, result.PreferencesImported)
	assert.Len(t, result.Conflicts, 5)
}

func TestService_Import_MergeIntoEmptyDatabase(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	seedLibrary(t, db)
	snap, err := service.Export()
	require.NoError(t, err)

	// Fresh database, same schema
	freshPath := "./test_backup_fresh_" + t.Name() + ".db"
	freshDB, err := gorm.Open(sqlite.Open(freshPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, freshDB.AutoMigrate(
		&entities.Book{},
		&entities.ReadingEntry{},
		&entities.Note{},
		&entities.UserPreference{},
	))
	defer func() {
		sqlDB, _ := freshDB.DB()
		sqlDB.Close()
		os.Remove(freshPath)
	}()
	fresh := NewService(freshDB)

	result, err := fresh.Import(snap, StrategyMerge)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.BooksImported)
	assert.Equal(t, 2, result.EntriesImported)
	assert.Equal(t, 1, result.NotesImported)
	assert.Equal(t, 1, result.PreferencesImported)
	assert.Empty(t, result.Conflicts)
}

func TestService_Import_MergePrefersNewerIncoming(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	require.NoError(t, db.Create(&entities.Book{
		ISBN:    "isbn-1",
		Title:   "Old Title",
		Author:  "A",
		AddedAt: time.Now().Add(-time.Hour),
	}).Error)

	snap := &Snapshot{
		Version:    FormatVersion,
		ExportDate: time.Now().Format(time.RFC3339),
		Books: []entities.Book{{
			ISBN:    "isbn-1",
			Title:   "New Title",
			Author:  "A",
			AddedAt: time.Now(),
		}},
		ReadingEntries: []entities.ReadingEntry{},
		Notes:          []entities.Note{},
		Preferences:    []entities.UserPreference{},
	}

	result, err := service.Import(snap, StrategyMerge)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.BooksImported)
	assert.Empty(t, result.Conflicts)

	var book entities.Book
	require.NoError(t, db.Where("isbn = ?", "isbn-1").First(&book).Error)
	assert.Equal(t, "New Title", book.Title)
}

func TestService_Import_MergeKeepsNewerExisting(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	require.NoError(t, db.Create(&entities.Book{
		ISBN:    "isbn-1",
		Title:   "Current Title",
		Author:  "A",
		AddedAt: time.Now(),
	}).Error)

	snap := &Snapshot{
		Version:    FormatVersion,
		ExportDate: time.Now().Format(time.RFC3339),
		Books: []entities.Book{{
			ISBN:    "isbn-1",
			Title:   "Stale Title",
			Author:  "A",
			AddedAt: time.Now().Add(-time.Hour),
		}},
		ReadingEntries: []entities.ReadingEntry{},
		Notes:          []entities.Note{},
		Preferences:    []entities.UserPreference{},
	}

	result, err := service.Import(snap, StrategyMerge)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.BooksImported)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "book", result.Conflicts[0].Type)
	assert.Equal(t, "isbn-1", result.Conflicts[0].Identifier)

	var book entities.Book
	require.NoError(t, db.Where("isbn = ?", "isbn-1").First(&book).Error)
	assert.Equal(t, "Current Title", book.Title)
}

func TestService_Import_ReplaceWipesBeforeLoading(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	seedLibrary(t, db)

	emptySnap := &Snapshot{
		Version:        FormatVersion,
		ExportDate:     time.Now().Format(time.RFC3339),
		Books:          []entities.Book{},
		ReadingEntries: []entities.ReadingEntry{},
		Notes:          []entities.Note{},
		Preferences:    []entities.UserPreference{},
	}

	result, err := service.Import(emptySnap, StrategyReplace)
	require.NoError(t, err)
	assert.True(t, result.Success)

	var books, entries, notes, prefs int64
	db.Model(&entities.Book{}).Count(&books)
	db.Model(&entities.ReadingEntry{}).Count(&entries)
	db.Model(&entities.Note{}).Count(&notes)
	db.Model(&entities.UserPreference{}).Count(&prefs)
	assert.Equal(t, int64(0), books)
	assert.Equal(t, int64(0), entries)
	assert.Equal(t, int64(0), notes)
	assert.Equal(t, int64(0), prefs)
}

func TestService_Import_ReplaceRoundTrip(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	seedLibrary(t, db)
	snap, err := service.Export()
	require.NoError(t, err)

	result, err := service.Import(snap, StrategyReplace)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.BooksImported)
	assert.Equal(t, 2, result.EntriesImported)
	assert.Equal(t, 1, result.NotesImported)
	assert.Equal(t, 1, result.PreferencesImported)

	after, err := service.Export()
	require.NoError(t, err)
	assert.Len(t, after.Books, 2)
	assert.Len(t, after.ReadingEntries, 2)
	assert.Len(t, after.Notes, 1)
	assert.Len(t, after.Preferences, 1)
}

func TestService_Import_BadRecordDoesNotAbortBatch(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	// Dropping the notes table makes every note record fail while the other
	// tables keep working.
	require.NoError(t, db.Migrator().DropTable(&entities.Note{}))

	snap := &Snapshot{
		Version:    FormatVersion,
		ExportDate: time.Now().Format(time.RFC3339),
		Books: []entities.Book{
			{ISBN: "good-1", Title: "Good 1", Author: "A", AddedAt: time.Now()},
			{ISBN: "good-2", Title: "Good 2", Author: "B", AddedAt: time.Now()},
		},
		ReadingEntries: []entities.ReadingEntry{},
		Notes: []entities.Note{
			{ID: 1, ReadingEntryID: 1, Content: "doomed", CreatedAt: time.Now(), UpdatedAt: time.Now()},
			{ID: 2, ReadingEntryID: 1, Content: "also doomed", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		},
		Preferences: []entities.UserPreference{
			{Key: "theme", Value: entities.PreferenceValue(`"dark"`), UpdatedAt: time.Now()},
		},
	}

	result, err := service.Import(snap, StrategyMerge)
	require.NoError(t, err)

	// The failing notes are collected as errors; everything before and after
	// them still imports.
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "failed to import note 1")
	assert.Contains(t, result.Errors[1], "failed to import note 2")
	assert.Equal(t, 2, result.BooksImported)
	assert.Equal(t, 0, result.NotesImported)
	assert.Equal(t, 1, result.PreferencesImported)

	var count int64
	db.Model(&entities.Book{}).Count(&count)
	assert.Equal(t, int64(2), count)
}
