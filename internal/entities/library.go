package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type ReadingStatus string

const (
	StatusNotStarted       ReadingStatus = "Not Started"
	StatusCurrentlyReading ReadingStatus = "Currently Reading"
	StatusCompleted        ReadingStatus = "Completed"
	StatusDidNotFinish     ReadingStatus = "Did Not Finish"
)

// Valid reports whether s is one of the four known reading statuses.
func (s ReadingStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusCurrentlyReading, StatusCompleted, StatusDidNotFinish:
		return true
	}
	return false
}

type BookSource string

const (
	SourceGoogleBooks BookSource = "google-books"
	SourceOpenLibrary BookSource = "open-library"
	SourceManual      BookSource = "manual"
)

// Dimensions holds the physical size of an edition in centimeters.
// Stored as a JSON blob in a single text column.
type Dimensions struct {
	Height    *float64 `json:"height"`
	Width     *float64 `json:"width"`
	Thickness *float64 `json:"thickness"`
}

func (d Dimensions) Value() (driver.Value, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (d *Dimensions) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		return json.Unmarshal([]byte(v), d)
	case []byte:
		return json.Unmarshal(v, d)
	default:
		return fmt.Errorf("unsupported dimensions column type %T", src)
	}
}

// Book is keyed by ISBN. When a provider has no real ISBN for a volume the
// key is synthesized as "<PREFIX>-<provider id>" so the primary key is
// always populated. The key never changes after creation.
type Book struct {
	ISBN            string      `gorm:"primaryKey;size:64" json:"isbn"`
	Title           string      `gorm:"index;size:512" json:"title"`
	Author          string      `gorm:"index;size:256" json:"author"`
	PublicationYear *int        `gorm:"index" json:"publicationYear"`
	PageCount       *int        `json:"pageCount"`
	Dimensions      *Dimensions `gorm:"type:text" json:"dimensions"`
	CoverImageURL   *string     `gorm:"size:2048" json:"coverImageUrl"`
	Description     *string     `gorm:"type:text" json:"description"`
	GoogleBooksID   *string     `gorm:"size:256" json:"googleBooksId"`
	OpenLibraryKey  *string     `gorm:"size:256" json:"openLibraryKey"`
	Source          BookSource  `gorm:"size:20" json:"source"`
	AddedAt         time.Time   `json:"addedAt"`
}

// ReadingEntry tracks the user's relationship with one Book. The ISBN is a
// logical foreign key; referential integrity is enforced in the reading log
// service, not by the store.
type ReadingEntry struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	ISBN         string        `gorm:"index;size:64" json:"isbn"`
	Status       ReadingStatus `gorm:"index;size:20" json:"status"`
	StartedDate  *time.Time    `gorm:"index" json:"startedDate"`
	FinishedDate *time.Time    `gorm:"index" json:"finishedDate"`
	LastUpdated  time.Time     `gorm:"index" json:"lastUpdated"`
	CurrentPage  *int          `json:"currentPage,omitempty"`
}

// Note is a personal annotation attached to a ReadingEntry.
type Note struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ReadingEntryID uint      `gorm:"index" json:"readingEntryId"`
	Content        string    `gorm:"type:text" json:"content"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"index" json:"updatedAt"`
}

func (Book) TableName() string {
	return "books"
}

func (ReadingEntry) TableName() string {
	return "reading_entries"
}

func (Note) TableName() string {
	return "notes"
}
