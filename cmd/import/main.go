// Command import loads a listing CSV export into the configured database.
//
//	import -file data/ogloszenia_warszawa_detailed.csv -batch 50
//
// Settings come from the environment (and .env); see internal/config.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/listings/internal/config"
	"github.com/JonMunkholm/listings/internal/core"
	"github.com/JonMunkholm/listings/internal/logging"
	"github.com/JonMunkholm/listings/internal/store"
)

const defaultFile = "data/ogloszenia_warszawa_detailed.csv"

func main() {
	// Overload lets .env win over the shell, matching the server.
	if err := godotenv.Overload(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Getenv))
}

// run is main without the process globals. It returns the exit code.
func run(ctx context.Context, args []string, stdout io.Writer, getenv func(string) string) int {
	cfg, err := config.LoadFrom(getenv)
	if err != nil {
		fmt.Fprintf(stdout, "Fatal error during import: %v\n", err)
		return 1
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stdout)
	file := fs.String("file", defaultFile, "path of the CSV export")
	batch := fs.Int("batch", cfg.Import.BatchSize, "listings committed per transaction")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *batch <= 0 {
		fmt.Fprintf(stdout, "Fatal error during import: -batch must be positive\n")
		return 2
	}

	policy, err := core.ParseMatchPolicy(cfg.Import.LocationMatch)
	if err != nil {
		fmt.Fprintf(stdout, "Fatal error during import: %v\n", err)
		return 1
	}

	if cfg.Import.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Import.Timeout)
		defer cancel()
	}

	backend, err := store.Open(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(stdout, "Fatal error during import: %s\n", core.FormatUserError(err))
		slog.Error("open database", "driver", cfg.Database.Driver, "error", err)
		return 1
	}
	defer backend.Close()

	fmt.Fprintf(stdout, "Starting import from %s...\n", *file)

	im := core.NewImporter(backend, core.ImportOptions{
		BatchSize:     *batch,
		LocationMatch: policy,
		StrictQuotes:  cfg.Import.StrictQuotes,
		OnBatch: func(p core.ImportProgress) {
			fmt.Fprintf(stdout, "Processed %d listings...\n", p.Imported)
		},
	})

	sum, err := im.ImportFile(ctx, *file)
	if sum != nil {
		printSummary(stdout, sum)
	}
	if err != nil {
		fmt.Fprintf(stdout, "Fatal error during import: %v\n", err)
		fmt.Fprintf(stdout, "  %s\n", core.FormatUserError(err))
		return 1
	}
	return 0
}

// printSummary writes the three final counts. The created/updated split and
// batch figures go to the "import completed" log record.
func printSummary(w io.Writer, sum *core.Summary) {
	fmt.Fprintf(w, "\nImport completed:\n")
	fmt.Fprintf(w, "  Imported: %d\n", sum.Imported)
	fmt.Fprintf(w, "  Skipped: %d\n", sum.Skipped)
	fmt.Fprintf(w, "  Errors: %d\n", sum.Errors)
}
