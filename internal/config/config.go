package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Catalog
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Catalog struct {
		GoogleBooksBaseURL string
		OpenLibraryBaseURL string
		CacheTTL           time.Duration
		CacheSweepSchedule string // Cron format: "*/5 * * * *" = every 5 minutes
		MaxRetries         int    // retries after the initial provider call
		RetryDelay         time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Catalog search defaults
	v.SetDefault("googlebooks_base_url", "https://www.googleapis.com/books/v1")
	v.SetDefault("openlibrary_base_url", "https://openlibrary.org")
	v.SetDefault("catalog_cache_ttl", "5m")
	v.SetDefault("catalog_cache_sweep_schedule", "*/5 * * * *")
	v.SetDefault("catalog_max_retries", 3)
	v.SetDefault("catalog_retry_delay", "1s")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Catalog: Catalog{
			GoogleBooksBaseURL: v.GetString("GOOGLEBOOKS_BASE_URL"),
			OpenLibraryBaseURL: v.GetString("OPENLIBRARY_BASE_URL"),
			CacheTTL:           v.GetDuration("CATALOG_CACHE_TTL"),
			CacheSweepSchedule: v.GetString("CATALOG_CACHE_SWEEP_SCHEDULE"),
			MaxRetries:         v.GetInt("CATALOG_MAX_RETRIES"),
			RetryDelay:         v.GetDuration("CATALOG_RETRY_DELAY"),
		},
	}
}
