// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, schema migration
//	├── errors.go        # Sentinel errors shared by the repositories
//	├── books/           # Book CRUD and cascade deletion
//	├── entries/         # Reading entry CRUD and ordering queries
//	├── notes/           # Note CRUD
//	└── preferences/     # User preference key-value store
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./bookshelf.db")
//
//	// Create domain-specific repositories
//	booksRepo := books.NewRepository(db.DB)
//	entriesRepo := entries.NewRepository(db.DB)
//
//	// Use repositories
//	book, err := booksRepo.Get("9780134685991")
//	recent, err := entriesRepo.GetByRecentlyUpdated()
//
// Repositories are cheap wrappers over *gorm.DB; to participate in a
// transaction, construct one over the transaction handle:
//
//	db.DB.Transaction(func(tx *gorm.DB) error {
//		return books.NewRepository(tx).Add(&book)
//	})
//
// # Error Conventions
//
// Lookup misses are reported as database.ErrNotFound and duplicate inserts
// as database.ErrDuplicateKey, so callers never depend on gorm sentinels.
package database
