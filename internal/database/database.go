package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ncnbooks/bookshelf/internal/entities"
)

// SchemaVersion is the single supported schema version. It is recorded in
// export snapshots; there is no migration machinery beyond the initial
// auto-migration.
const SchemaVersion = 1

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.ReadingEntry{},
		&entities.Note{},
		&entities.UserPreference{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Stats holds row counts for the three content tables.
type Stats struct {
	Books   int64 `json:"books"`
	Entries int64 `json:"entries"`
	Notes   int64 `json:"notes"`
}

func (d *Database) GetStats() (Stats, error) {
	var stats Stats
	if err := d.DB.Model(&entities.Book{}).Count(&stats.Books).Error; err != nil {
		return stats, err
	}
	if err := d.DB.Model(&entities.ReadingEntry{}).Count(&stats.Entries).Error; err != nil {
		return stats, err
	}
	if err := d.DB.Model(&entities.Note{}).Count(&stats.Notes).Error; err != nil {
		return stats, err
	}
	return stats, nil
}
