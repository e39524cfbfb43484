package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ncnbooks/bookshelf/internal/backup"
	"github.com/ncnbooks/bookshelf/internal/config"
	"github.com/ncnbooks/bookshelf/internal/database"
)

// ImportCommand applies a previously exported snapshot to the database.
type ImportCommand struct {
	DatabasePath string
	SnapshotPath string
	Strategy     string
	Verbose      bool
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.SnapshotPath, "file", "", "Path to the snapshot JSON file (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.StringVar(&cmd.Strategy, "strategy", string(backup.StrategyMerge), "Import strategy: merge or replace")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "List every conflict and error")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a library snapshot produced by the export command.\n\n")
		fmt.Fprintf(os.Stderr, "With -strategy merge (the default) existing records are kept when they\n")
		fmt.Fprintf(os.Stderr, "are at least as recent as the incoming ones. With -strategy replace the\n")
		fmt.Fprintf(os.Stderr, "current library is wiped before loading the snapshot.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file library.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -file library.json -strategy replace\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.SnapshotPath == "" {
		return fmt.Errorf("required flag -file not provided")
	}

	return nil
}

func (cmd *ImportCommand) Run() error {
	data, err := os.ReadFile(cmd.SnapshotPath)
	if err != nil {
		return fmt.Errorf("failed to read snapshot file: %w", err)
	}

	snap, err := backup.ParseSnapshot(data)
	if err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	result, err := backup.NewService(db.DB).Import(snap, backup.Strategy(cmd.Strategy))
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Println("=== Import Summary ===")
	fmt.Printf("Books imported: %d\n", result.BooksImported)
	fmt.Printf("Entries imported: %d\n", result.EntriesImported)
	fmt.Printf("Notes imported: %d\n", result.NotesImported)
	fmt.Printf("Preferences imported: %d\n", result.PreferencesImported)
	fmt.Printf("Conflicts (existing kept): %d\n", len(result.Conflicts))
	fmt.Printf("Errors: %d\n", len(result.Errors))

	if cmd.Verbose {
		for _, conflict := range result.Conflicts {
			fmt.Printf("  [CONFLICT] %s %s: %s\n", conflict.Type, conflict.Identifier, conflict.Message)
		}
		for _, errMsg := range result.Errors {
			fmt.Printf("  [ERROR] %s\n", errMsg)
		}
	}

	if !result.Success {
		return fmt.Errorf("import finished with %d errors", len(result.Errors))
	}

	fmt.Println("\nImport complete!")
	return nil
}
