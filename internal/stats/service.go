// Package stats derives read-only reading statistics from stored entries
// and books. Everything here is a pure function of stored data; nothing is
// written back.
package stats

import (
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/ncnbooks/bookshelf/internal/database/books"
	"github.com/ncnbooks/bookshelf/internal/database/entries"
	"github.com/ncnbooks/bookshelf/internal/entities"
)

// Service computes aggregate statistics over the reading log.
type Service struct {
	books   *books.Repository
	entries *entries.Repository
}

// NewService creates a statistics service over an open database handle.
func NewService(db *gorm.DB) *Service {
	return &Service{
		books:   books.NewRepository(db),
		entries: entries.NewRepository(db),
	}
}

// ReadingStats summarizes the whole library.
type ReadingStats struct {
	TotalBooks       int `json:"totalBooks"`
	NotStarted       int `json:"notStarted"`
	CurrentlyReading int `json:"currentlyReading"`
	Completed        int `json:"completed"`
	DidNotFinish     int `json:"didNotFinish"`
	// CompletionRate is a percentage of attempted books (completed plus
	// did-not-finish) that were completed; zero when nothing was attempted.
	CompletionRate float64 `json:"completionRate"`
	// AverageReadingTimeInDays is the rounded mean of per-book ceil'd day
	// spans, over completed entries with both dates set. Nil when no such
	// entry exists.
	AverageReadingTimeInDays *int `json:"averageReadingTimeInDays"`
}

// StatusDistribution is one slice of the status pie chart.
type StatusDistribution struct {
	Status     entities.ReadingStatus `json:"status"`
	Count      int                    `json:"count"`
	Percentage float64                `json:"percentage"`
}

// ReadingTrend is a one-day bucket of started/completed counts.
type ReadingTrend struct {
	Date      time.Time `json:"date"`
	Completed int       `json:"completed"`
	Started   int       `json:"started"`
}

// MonthCount is a per-month completion count for the current year.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// GetReadingStats computes the summary statistics.
func (s *Service) GetReadingStats() (*ReadingStats, error) {
	list, err := s.entries.GetAll()
	if err != nil {
		return nil, err
	}

	result := &ReadingStats{TotalBooks: len(list)}

	for _, entry := range list {
		switch entry.Status {
		case entities.StatusNotStarted:
			result.NotStarted++
		case entities.StatusCurrentlyReading:
			result.CurrentlyReading++
		case entities.StatusCompleted:
			result.Completed++
		case entities.StatusDidNotFinish:
			result.DidNotFinish++
		}
	}

	attempted := result.Completed + result.DidNotFinish
	if attempted > 0 {
		result.CompletionRate = float64(result.Completed) / float64(attempted) * 100
	}

	totalDays := 0
	counted := 0
	for _, entry := range list {
		if entry.Status != entities.StatusCompleted || entry.StartedDate == nil || entry.FinishedDate == nil {
			continue
		}
		totalDays += daysBetween(*entry.StartedDate, *entry.FinishedDate)
		counted++
	}
	if counted > 0 {
		avg := int(math.Round(float64(totalDays) / float64(counted)))
		result.AverageReadingTimeInDays = &avg
	}

	return result, nil
}

// GetStatusDistribution returns per-status counts with percentages, in a
// fixed status order. Empty libraries yield an empty slice.
func (s *Service) GetStatusDistribution() ([]StatusDistribution, error) {
	list, err := s.entries.GetAll()
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return []StatusDistribution{}, nil
	}

	counts := map[entities.ReadingStatus]int{}
	for _, entry := range list {
		counts[entry.Status]++
	}

	order := []entities.ReadingStatus{
		entities.StatusNotStarted,
		entities.StatusCurrentlyReading,
		entities.StatusCompleted,
		entities.StatusDidNotFinish,
	}

	distribution := make([]StatusDistribution, 0, len(order))
	for _, status := range order {
		distribution = append(distribution, StatusDistribution{
			Status:     status,
			Count:      counts[status],
			Percentage: float64(counts[status]) / float64(len(list)) * 100,
		})
	}
	return distribution, nil
}

// GetReadingTrends buckets starts and completions by day over a trailing
// window ending today.
func (s *Service) GetReadingTrends(daysBack int) ([]ReadingTrend, error) {
	list, err := s.entries.GetAll()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	start := truncateToDay(now.AddDate(0, 0, -daysBack))

	buckets := make(map[string]*ReadingTrend)
	trends := make([]ReadingTrend, 0, daysBack+1)
	for day := start; !day.After(now); day = day.AddDate(0, 0, 1) {
		buckets[dayKey(day)] = &ReadingTrend{Date: day}
	}

	for _, entry := range list {
		if entry.StartedDate != nil && !entry.StartedDate.Before(start) {
			if trend, ok := buckets[dayKey(*entry.StartedDate)]; ok {
				trend.Started++
			}
		}
		if entry.FinishedDate != nil && entry.Status == entities.StatusCompleted && !entry.FinishedDate.Before(start) {
			if trend, ok := buckets[dayKey(*entry.FinishedDate)]; ok {
				trend.Completed++
			}
		}
	}

	for day := start; !day.After(now); day = day.AddDate(0, 0, 1) {
		trends = append(trends, *buckets[dayKey(day)])
	}
	return trends, nil
}

// GetBooksReadPerMonth returns twelve buckets of completions for the
// current calendar year.
func (s *Service) GetBooksReadPerMonth() ([]MonthCount, error) {
	list, err := s.entries.GetAll()
	if err != nil {
		return nil, err
	}

	currentYear := time.Now().Year()
	counts := make([]int, 12)
	for _, entry := range list {
		if entry.FinishedDate == nil || entry.Status != entities.StatusCompleted {
			continue
		}
		if entry.FinishedDate.Year() == currentYear {
			counts[entry.FinishedDate.Month()-1]++
		}
	}

	monthNames := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	result := make([]MonthCount, 12)
	for i, name := range monthNames {
		result[i] = MonthCount{Month: name, Count: counts[i]}
	}
	return result, nil
}

// GetTotalPagesRead sums page counts across completed books.
func (s *Service) GetTotalPagesRead() (int, error) {
	completed, err := s.entries.GetByStatus(entities.StatusCompleted)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, entry := range completed {
		book, err := s.books.Get(entry.ISBN)
		if err != nil {
			continue
		}
		if book.PageCount != nil {
			total += *book.PageCount
		}
	}
	return total, nil
}

// daysBetween is the ceiling of the span between two timestamps in whole
// days.
func daysBetween(start, finish time.Time) int {
	return int(math.Ceil(finish.Sub(start).Hours() / 24))
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
