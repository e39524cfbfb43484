package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ncnbooks/bookshelf/internal/config"
	"github.com/ncnbooks/bookshelf/internal/database"
	"github.com/ncnbooks/bookshelf/internal/stats"
)

// StatsCommand prints reading statistics for a local database.
type StatsCommand struct {
	DatabasePath string
}

func NewStatsCommand() *StatsCommand {
	return &StatsCommand{}
}

func (cmd *StatsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s stats [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print reading statistics for the library.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *StatsCommand) Run() error {
	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	service := stats.NewService(db.DB)

	summary, err := service.GetReadingStats()
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}

	fmt.Println("=== Reading Statistics ===")
	fmt.Printf("Total books: %d\n", summary.TotalBooks)
	fmt.Printf("  Not started: %d\n", summary.NotStarted)
	fmt.Printf("  Currently reading: %d\n", summary.CurrentlyReading)
	fmt.Printf("  Completed: %d\n", summary.Completed)
	fmt.Printf("  Did not finish: %d\n", summary.DidNotFinish)
	fmt.Printf("Completion rate: %.1f%%\n", summary.CompletionRate)
	if summary.AverageReadingTimeInDays != nil {
		fmt.Printf("Average reading time: %d days\n", *summary.AverageReadingTimeInDays)
	}

	pages, err := service.GetTotalPagesRead()
	if err != nil {
		return fmt.Errorf("failed to compute pages read: %w", err)
	}
	fmt.Printf("Total pages read: %d\n", pages)

	return nil
}
