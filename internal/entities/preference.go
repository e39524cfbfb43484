package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PreferenceValue is an arbitrary JSON payload stored verbatim in a text
// column, so preferences round-trip through export files without losing
// their shape.
type PreferenceValue json.RawMessage

func (v PreferenceValue) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return v, nil
}

func (v *PreferenceValue) UnmarshalJSON(data []byte) error {
	*v = append((*v)[:0], data...)
	return nil
}

func (v PreferenceValue) Value() (driver.Value, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return string(v), nil
}

// Unmarshal decodes the stored JSON payload into out. An empty value
// leaves out untouched.
func (v PreferenceValue) Unmarshal(out any) error {
	if len(v) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(v), out)
}

func (v *PreferenceValue) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		*v = nil
		return nil
	case string:
		*v = PreferenceValue(s)
		return nil
	case []byte:
		*v = append((*v)[:0], s...)
		return nil
	default:
		return fmt.Errorf("unsupported preference value column type %T", src)
	}
}

// UserPreference is a key-value pair for UI and behaviour settings.
type UserPreference struct {
	Key       string          `gorm:"primaryKey;size:100" json:"key"`
	Value     PreferenceValue `gorm:"type:text" json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (UserPreference) TableName() string {
	return "preferences"
}

// Known preference keys
const (
	PrefKeyLibraryStatusFilter = "library-status-filter" // []string of statuses
	PrefKeyLibrarySort         = "library-sort"          // one of the sort values below
	PrefKeyReadingSpeed        = "readingSpeed"          // words per minute
	PrefKeyDefaultSort         = "defaultSort"
	PrefKeyTheme               = "theme"
	PrefKeyLastExportDate      = "lastExportDate"
)

// Values accepted for PrefKeyLibrarySort
const (
	SortRecentlyUpdated = "recently-updated"
	SortTitleAsc        = "title-asc"
	SortAuthorAsc       = "author-asc"
)
