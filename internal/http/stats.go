package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ncnbooks/bookshelf/internal/database"
	"github.com/ncnbooks/bookshelf/internal/stats"
)

// StatsController serves derived reading statistics and raw table counts.
type StatsController struct {
	service *stats.Service
	db      *database.Database
}

func NewStatsController(service *stats.Service, db *database.Database) *StatsController {
	return &StatsController{service: service, db: db}
}

// GetReadingStats returns the library summary.
// GET /api/stats
func (sc *StatsController) GetReadingStats(c *gin.Context) {
	result, err := sc.service.GetReadingStats()
	if err != nil {
		respondInternalError(c, err, "reading stats")
		return
	}
	c.IndentedJSON(http.StatusOK, result)
}

// GetStatusDistribution returns per-status counts with percentages.
// GET /api/stats/distribution
func (sc *StatsController) GetStatusDistribution(c *gin.Context) {
	result, err := sc.service.GetStatusDistribution()
	if err != nil {
		respondInternalError(c, err, "status distribution")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"distribution": result})
}

// GetReadingTrends returns day-bucketed start/completion counts over a
// trailing window. The days query parameter defaults to 30.
// GET /api/stats/trends
func (sc *StatsController) GetReadingTrends(c *gin.Context) {
	days := parsePositiveQueryInt(c, "days", 30)
	if days == 0 {
		days = 30
	}

	result, err := sc.service.GetReadingTrends(days)
	if err != nil {
		respondInternalError(c, err, "reading trends")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"trends": result})
}

// GetBooksPerMonth returns completions per month for the current year.
// GET /api/stats/monthly
func (sc *StatsController) GetBooksPerMonth(c *gin.Context) {
	result, err := sc.service.GetBooksReadPerMonth()
	if err != nil {
		respondInternalError(c, err, "books per month")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"months": result})
}

// GetTotalPagesRead sums page counts across completed books.
// GET /api/stats/pages
func (sc *StatsController) GetTotalPagesRead(c *gin.Context) {
	total, err := sc.service.GetTotalPagesRead()
	if err != nil {
		respondInternalError(c, err, "total pages read")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"totalPagesRead": total})
}

// GetDatabaseStats returns raw row counts per table.
// GET /api/stats/database
func (sc *StatsController) GetDatabaseStats(c *gin.Context) {
	counts, err := sc.db.GetStats()
	if err != nil {
		respondInternalError(c, err, "database stats")
		return
	}
	c.IndentedJSON(http.StatusOK, counts)
}
