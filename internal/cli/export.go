package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ncnbooks/bookshelf/internal/backup"
	"github.com/ncnbooks/bookshelf/internal/config"
	"github.com/ncnbooks/bookshelf/internal/database"
)

// ExportCommand writes a full-library snapshot to a JSON file.
type ExportCommand struct {
	DatabasePath string
	OutputPath   string
}

func NewExportCommand() *ExportCommand {
	return &ExportCommand{}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.StringVar(&cmd.OutputPath, "output", "", "Path of the snapshot file to write (defaults to stdout)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export the whole library (books, reading entries, notes, preferences)\n")
		fmt.Fprintf(os.Stderr, "as a JSON snapshot that can later be re-imported.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s export -output library.json\n", os.Args[0])
	}

	return fs.Parse(args)
}

func (cmd *ExportCommand) Run() error {
	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	snap, err := backup.NewService(db.DB).Export()
	if err != nil {
		return fmt.Errorf("failed to export library: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if cmd.OutputPath == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(cmd.OutputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	fmt.Printf("Exported %d books, %d entries, %d notes, %d preferences to %s\n",
		len(snap.Books), len(snap.ReadingEntries), len(snap.Notes), len(snap.Preferences), cmd.OutputPath)
	return nil
}
