package metadata

import (
	"context"
	"strconv"
	"strings"

	"github.com/ncnbooks/bookshelf/internal/entities"
)

const userAgent = "Bookshelf/1.0 (https://github.com/ncnbooks/bookshelf)"

// Provider is an external catalog client. Each implementation translates its
// native response schema into the canonical Book shape; errors are transport
// or parse failures and are handled by the Searcher, never by callers.
type Provider interface {
	Name() string
	Search(ctx context.Context, title, author string, limit, offset int) ([]entities.Book, error)
	SearchByISBN(ctx context.Context, isbn string) ([]entities.Book, error)
}

// parseYear derives a publication year from the first four characters of a
// provider date string ("2018-06-12", "2018", ...). Returns nil when the
// prefix is not a number.
func parseYear(dateStr string) *int {
	if len(dateStr) < 4 {
		return nil
	}
	year, err := strconv.Atoi(dateStr[:4])
	if err != nil {
		return nil
	}
	return &year
}

// parseDimension converts a "<number> <unit>" string such as "20.30 cm" to
// a bare number. The unit is discarded. Returns nil when no leading number
// can be read.
func parseDimension(dimension string) *float64 {
	dimension = strings.TrimSpace(dimension)
	end := 0
	for end < len(dimension) && (dimension[end] == '.' || (dimension[end] >= '0' && dimension[end] <= '9')) {
		end++
	}
	if end == 0 {
		return nil
	}
	value, err := strconv.ParseFloat(dimension[:end], 64)
	if err != nil {
		return nil
	}
	return &value
}

// joinAuthors flattens a provider author list into the single comma-joined
// string the Book model carries. A missing list yields "Unknown Author".
func joinAuthors(authors []string) string {
	if len(authors) == 0 {
		return "Unknown Author"
	}
	return strings.Join(authors, ", ")
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func intPtr(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
