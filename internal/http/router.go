package http

import (
	"github.com/gin-gonic/gin"

	"github.com/ncnbooks/bookshelf/internal/backup"
	"github.com/ncnbooks/bookshelf/internal/database"
	"github.com/ncnbooks/bookshelf/internal/database/preferences"
	"github.com/ncnbooks/bookshelf/internal/metadata"
	"github.com/ncnbooks/bookshelf/internal/readinglog"
	"github.com/ncnbooks/bookshelf/internal/stats"
)

// RouterConfig carries every dependency the router needs, keeping the
// constructor signature stable as endpoints grow.
type RouterConfig struct {
	Database    *database.Database
	ReadingLog  *readinglog.Service
	Searcher    *metadata.Searcher
	Backup      *backup.Service
	Stats       *stats.Service
	Preferences *preferences.Repository
	Version     string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	library := NewLibraryController(cfg.ReadingLog)
	notes := NewNotesController(cfg.ReadingLog)
	backupController := NewBackupController(cfg.Backup)
	statsController := NewStatsController(cfg.Stats, cfg.Database)
	preferencesController := NewPreferencesController(cfg.Preferences)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Library endpoints
	router.POST("/api/library", library.AddBook)
	router.GET("/api/library", library.GetLibrary)
	router.GET("/api/library/:isbn", library.GetBook)
	router.DELETE("/api/library/:isbn", library.DeleteBook)

	// Reading entry endpoints
	router.PATCH("/api/entries/:id/status", library.UpdateStatus)
	router.PATCH("/api/entries/:id/progress", library.UpdateProgress)

	// Note endpoints
	router.GET("/api/entries/:id/notes", notes.ListNotes)
	router.POST("/api/entries/:id/notes", notes.AddNote)
	router.PATCH("/api/notes/:id", notes.UpdateNote)
	router.DELETE("/api/notes/:id", notes.DeleteNote)

	// Catalog search endpoints
	if cfg.Searcher != nil {
		catalog := NewCatalogController(cfg.Searcher)
		router.GET("/api/catalog/search", catalog.Search)
		router.GET("/api/catalog/isbn/:isbn", catalog.SearchByISBN)
		router.POST("/api/catalog/cache/clear", catalog.ClearCache)
	}

	// Backup endpoints
	router.GET("/api/backup/export", backupController.Export)
	router.POST("/api/backup/import", backupController.Import)

	// Statistics endpoints
	router.GET("/api/stats", statsController.GetReadingStats)
	router.GET("/api/stats/distribution", statsController.GetStatusDistribution)
	router.GET("/api/stats/trends", statsController.GetReadingTrends)
	router.GET("/api/stats/monthly", statsController.GetBooksPerMonth)
	router.GET("/api/stats/pages", statsController.GetTotalPagesRead)
	router.GET("/api/stats/database", statsController.GetDatabaseStats)

	// Preference endpoints
	router.GET("/api/preferences", preferencesController.ListPreferences)
	router.GET("/api/preferences/:key", preferencesController.GetPreference)
	router.PUT("/api/preferences/:key", preferencesController.SetPreference)
	router.DELETE("/api/preferences/:key", preferencesController.DeletePreference)

	return router
}
