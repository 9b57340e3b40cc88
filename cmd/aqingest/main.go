// Command aqingest loads an AirQualityUCI-style CSV file into PostgreSQL
// using the same ingestion pipeline as the service, rendering job progress
// in the terminal.
//
// Usage:
//
//	aqingest [flags] FILE
//
// With --dry-run the file is parsed and normalized but nothing is written,
// which makes it a quick validator for new exports.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/couchcryptid/airquality-ingest-service/internal/adapter/postgres"
	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
	"github.com/couchcryptid/airquality-ingest-service/internal/observability"
	"github.com/couchcryptid/airquality-ingest-service/internal/pipeline"
	"github.com/couchcryptid/airquality-ingest-service/internal/progress"
)

type options struct {
	file        string
	databaseURL string
	separator   string
	chunkSize   int
	timezone    string
	dryRun      bool
	quiet       bool
	logLevel    string
}

func main() {
	_ = godotenv.Load()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "aqingest:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.NewLoggerTo(os.Stderr, opts.logLevel, "text")
	if err := run(ctx, opts, os.Stdout, newProgressConfig(opts.quiet), logger); err != nil {
		fmt.Fprintln(os.Stderr, "aqingest:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("aqingest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	fs.StringVarP(&opts.separator, "separator", "s", sharedcfg.EnvOrDefault("INGEST_SEPARATOR", ";"), "field separator")
	fs.IntVarP(&opts.chunkSize, "chunk-size", "c", pipeline.DefaultChunkSize, "rows per database write")
	fs.StringVar(&opts.timezone, "timezone", sharedcfg.EnvOrDefault("INGEST_TIMEZONE", "UTC"), "time zone of the Date/Time columns")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "parse and normalize without writing")
	fs.BoolVarP(&opts.quiet, "quiet", "q", false, "disable the progress bar")
	fs.StringVar(&opts.logLevel, "log-level", sharedcfg.EnvOrDefault("LOG_LEVEL", "warn"), "log level")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: aqingest [flags] FILE\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return opts, errors.New("exactly one FILE argument is required")
	}
	opts.file = fs.Arg(0)

	if !opts.dryRun && opts.databaseURL == "" {
		return opts, errors.New("--database-url or DATABASE_URL is required unless --dry-run is set")
	}
	if opts.chunkSize <= 0 {
		return opts, fmt.Errorf("%w: %d", domain.ErrInvalidChunkSize, opts.chunkSize)
	}
	return opts, nil
}

func run(ctx context.Context, opts options, stdout io.Writer, pcfg progressConfig, logger *slog.Logger) error {
	sep, err := pipeline.ParseSeparator(opts.separator)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return err
	}

	var loader pipeline.BatchLoader = discardLoader{}
	if !opts.dryRun {
		store, err := postgres.New(ctx, opts.databaseURL)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		loader = store
	}

	metrics := observability.NewMetricsForTesting()
	registry := progress.NewRegistry(logger, metrics)
	orchestrator := pipeline.New(loader, registry, logger, metrics, pipeline.WithLocation(loc))

	id, err := orchestrator.Start(data, pipeline.Options{Separator: sep, ChunkSize: opts.chunkSize})
	if err != nil {
		return err
	}
	sub, err := orchestrator.Subscribe(ctx, id)
	if err != nil {
		return err
	}
	defer sub.Close()

	final, err := watch(sub, newProgressBar(pcfg, opts.file))
	if err != nil {
		return err
	}

	verb := "ingested"
	if opts.dryRun {
		verb = "validated"
	}
	fmt.Fprintf(stdout, "%s %d of %d rows from %s (%d skipped)\n",
		verb, final.Processed, final.Total, opts.file, final.Skipped)
	return nil
}

// discardLoader accepts every batch without writing it.
type discardLoader struct{}

func (discardLoader) SaveAll(context.Context, []domain.Measurement) error { return nil }
