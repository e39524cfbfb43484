package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ncnbooks/bookshelf/internal/backup"
	"github.com/ncnbooks/bookshelf/internal/config"
	"github.com/ncnbooks/bookshelf/internal/database"
	"github.com/ncnbooks/bookshelf/internal/database/preferences"
	http_controllers "github.com/ncnbooks/bookshelf/internal/http"
	"github.com/ncnbooks/bookshelf/internal/metadata"
	"github.com/ncnbooks/bookshelf/internal/readinglog"
	"github.com/ncnbooks/bookshelf/internal/scheduler"
	"github.com/ncnbooks/bookshelf/internal/stats"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT / SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop the cache sweep)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Bookshelf v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Domain services over the shared database handle
	readingLog := readinglog.NewService(db.DB)
	backupService := backup.NewService(db.DB)
	statsService := stats.NewService(db.DB)
	preferenceStore := preferences.NewRepository(db.DB)

	// Catalog search: Google Books first, Open Library as fallback
	googleBooks := metadata.NewGoogleBooksClient(cfg.Catalog.GoogleBooksBaseURL)
	openLibrary := metadata.NewOpenLibraryClient(cfg.Catalog.OpenLibraryBaseURL)
	searcher := metadata.NewSearcher(
		googleBooks,
		openLibrary,
		cfg.Catalog.MaxRetries,
		cfg.Catalog.RetryDelay,
		cfg.Catalog.CacheTTL,
	)

	// Periodic eviction of expired catalog cache entries
	sweep := scheduler.NewCacheSweepScheduler(searcher, cfg.Catalog.CacheSweepSchedule)
	if err := sweep.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start cache sweep scheduler: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Database:    db,
		ReadingLog:  readingLog,
		Searcher:    searcher,
		Backup:      backupService,
		Stats:       statsService,
		Preferences: preferenceStore,
		Version:     version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		sweep.Stop()
	}

	Serve(router, cfg, onShutdown)
}
