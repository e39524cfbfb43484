package readinglog

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ncnbooks/bookshelf/internal/database"
	"github.com/ncnbooks/bookshelf/internal/entities"
)

func setupTestService(t *testing.T) (*gorm.DB, *Service, func()) {
	dbPath := "./test_readinglog_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.ReadingEntry{},
		&entities.Note{},
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

func addTestBook(t *testing.T, service *Service, isbn, title string) *AddBookResult {
	result, err := service.AddBook(&entities.Book{
		ISBN:   isbn,
		Title:  title,
		Author: "Test Author",
	})
	require.NoError(t, err)
	return result
}

func TestService_AddBook_CreatesNotStartedEntry(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	result := addTestBook(t, service, "isbn-1", "Book 1")
	assert.NotZero(t, result.EntryID)

	pair, err := service.GetBookWithEntry("isbn-1")
	require.NoError(t, err)
	assert.Equal(t, "Book 1", pair.Book.Title)
	assert.Equal(t, entities.SourceManual, pair.Book.Source)
	assert.False(t, pair.Book.AddedAt.IsZero())
	assert.Equal(t, entities.StatusNotStarted, pair.Entry.Status)
	assert.Nil(t, pair.Entry.StartedDate)
	assert.Nil(t, pair.Entry.FinishedDate)
}

func TestService_AddBook_DuplicateLeavesNothingBehind(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	addTestBook(t, service, "isbn-1", "Original")

	_, err := service.AddBook(&entities.Book{ISBN: "isbn-1", Title: "Duplicate", Author: "X"})
	assert.ErrorIs(t, err, database.ErrDuplicateKey)

	// Exactly one book and one entry remain
	var bookCount, entryCount int64
	db.Model(&entities.Book{}).Count(&bookCount)
	db.Model(&entities.ReadingEntry{}).Count(&entryCount)
	assert.Equal(t, int64(1), bookCount)
	assert.Equal(t, int64(1), entryCount)
}

func TestService_UpdateStatus_StampsStartedDateOnce(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	result := addTestBook(t, service, "isbn-1", "Book 1")

	require.NoError(t, service.UpdateStatus(result.EntryID, entities.StatusCurrentlyReading))

	pair, err := service.GetBookWithEntry("isbn-1")
	require.NoError(t, err)
	require.NotNil(t, pair.Entry.StartedDate)
	firstStarted := *pair.Entry.StartedDate

	// Leaving and re-entering Currently Reading keeps the original date
	require.NoError(t, service.UpdateStatus(result.EntryID, entities.StatusNotStarted))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, service.UpdateStatus(result.EntryID, entities.StatusCurrentlyReading))

	pair, err = service.GetBookWithEntry("isbn-1")
	require.NoError(t, err)
	require.NotNil(t, pair.Entry.StartedDate)
	assert.WithinDuration(t, firstStarted, *pair.Entry.StartedDate, time.Millisecond)
}

func TestService_UpdateStatus_StampsFinishedDateOnce(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	result := addTestBook(t, service, "isbn-1", "Book 1")

	require.NoError(t, service.UpdateStatus(result.EntryID, entities.StatusCompleted))

	pair, err := service.GetBookWithEntry("isbn-1")
	require.NoError(t, err)
	require.NotNil(t, pair.Entry.FinishedDate)
	firstFinished := *pair.Entry.FinishedDate

	// Did Not Finish after Completed does not move the finished date
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, service.UpdateStatus(result.EntryID, entities.StatusDidNotFinish))

	pair, err = service.GetBookWithEntry("isbn-1")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusDidNotFinish, pair.Entry.Status)
	require.NotNil(t, pair.Entry.FinishedDate)
	assert.WithinDuration(t, firstFinished, *pair.Entry.FinishedDate, time.Millisecond)
}

func TestService_UpdateStatus_CompletedWithoutStartLeavesStartedNil(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	result := addTestBook(t, service, "isbn-1", "Book 1")

	require.NoError(t, service.UpdateStatus(result.EntryID, entities.StatusCompleted))

	pair, err := service.GetBookWithEntry("isbn-1")
	require.NoError(t, err)
	assert.Nil(t, pair.Entry.StartedDate)
	assert.NotNil(t, pair.Entry.FinishedDate)
}

func TestService_UpdateStatus_InvalidStatus(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	result := addTestBook(t, service, "isbn-1", "Book 1")

	err := service.UpdateStatus(result.EntryID, "Reading Slowly")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestService_UpdateStatus_EntryNotFound(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	err := service.UpdateStatus(999, entities.StatusCompleted)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestService_SetCurrentPage(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	result := addTestBook(t, service, "isbn-1", "Book 1")

	page := 42
	require.NoError(t, service.SetCurrentPage(result.EntryID, &page))

	pair, err := service.GetBookWithEntry("isbn-1")
	require.NoError(t, err)
	require.NotNil(t, pair.Entry.CurrentPage)
	assert.Equal(t, 42, *pair.Entry.CurrentPage)

	// Clearing progress
	require.NoError(t, service.SetCurrentPage(result.EntryID, nil))
	pair, err = service.GetBookWithEntry("isbn-1")
	require.NoError(t, err)
	assert.Nil(t, pair.Entry.CurrentPage)
}

func TestService_DeleteBook_NoOrphans(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	result := addTestBook(t, service, "isbn-1", "Book 1")
	_, err := service.AddNote(result.EntryID, "first note")
	require.NoError(t, err)
	_, err = service.AddNote(result.EntryID, "second note")
	require.NoError(t, err)

	require.NoError(t, service.DeleteBook("isbn-1"))

	var bookCount, entryCount, noteCount int64
	db.Model(&entities.Book{}).Count(&bookCount)
	db.Model(&entities.ReadingEntry{}).Count(&entryCount)
	db.Model(&entities.Note{}).Count(&noteCount)
	assert.Equal(t, int64(0), bookCount)
	assert.Equal(t, int64(0), entryCount)
	assert.Equal(t, int64(0), noteCount)
}

func TestService_GetAllBooksWithEntries_RecentlyUpdatedFirst(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	addTestBook(t, service, "isbn-1", "Older")
	second := addTestBook(t, service, "isbn-2", "Newer")

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, service.UpdateStatus(second.EntryID, entities.StatusCurrentlyReading))

	list, err := service.GetAllBooksWithEntries()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Newer", list[0].Book.Title)
	assert.Equal(t, "Older", list[1].Book.Title)
}

func TestService_GetBooksByStatus(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	addTestBook(t, service, "isbn-1", "Not started")
	reading := addTestBook(t, service, "isbn-2", "In progress")
	require.NoError(t, service.UpdateStatus(reading.EntryID, entities.StatusCurrentlyReading))

	list, err := service.GetBooksByStatus(entities.StatusCurrentlyReading)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "In progress", list[0].Book.Title)

	_, err = service.GetBooksByStatus("bogus")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestService_AddNote_TrimsAndTouchesEntry(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	result := addTestBook(t, service, "isbn-1", "Book 1")

	pair, err := service.GetBookWithEntry("isbn-1")
	require.NoError(t, err)
	before := pair.Entry.LastUpdated

	time.Sleep(10 * time.Millisecond)
	note, err := service.AddNote(result.EntryID, "  padded content  ")
	require.NoError(t, err)
	assert.Equal(t, "padded content", note.Content)

	pair, err = service.GetBookWithEntry("isbn-1")
	require.NoError(t, err)
	assert.True(t, pair.Entry.LastUpdated.After(before))
}

func TestService_AddNote_Validation(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	result := addTestBook(t, service, "isbn-1", "Book 1")

	_, err := service.AddNote(result.EntryID, "   ")
	assert.ErrorIs(t, err, ErrNoteEmpty)

	// Exactly at the limit is fine
	_, err = service.AddNote(result.EntryID, strings.Repeat("a", 10000))
	assert.NoError(t, err)

	// One character over is rejected
	_, err = service.AddNote(result.EntryID, strings.Repeat("a", 10001))
	assert.ErrorIs(t, err, ErrNoteTooLong)
}

func TestService_AddNote_DanglingEntry(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.AddNote(999, "content")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestService_UpdateNote(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	result := addTestBook(t, service, "isbn-1", "Book 1")
	note, err := service.AddNote(result.EntryID, "draft")
	require.NoError(t, err)

	require.NoError(t, service.UpdateNote(note.ID, "final"))

	list, err := service.NotesForEntry(result.EntryID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "final", list[0].Content)

	err = service.UpdateNote(note.ID, "")
	assert.ErrorIs(t, err, ErrNoteEmpty)
}

func TestService_DeleteNote(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	result := addTestBook(t, service, "isbn-1", "Book 1")
	note, err := service.AddNote(result.EntryID, "remove me")
	require.NoError(t, err)

	require.NoError(t, service.DeleteNote(note.ID))

	list, err := service.NotesForEntry(result.EntryID)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = service.DeleteNote(note.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
