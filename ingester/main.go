package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/deidaraiorek/botanica/internal/config"
	"github.com/deidaraiorek/botanica/internal/ingest"
	"github.com/deidaraiorek/botanica/internal/logger"
	"github.com/deidaraiorek/botanica/internal/storage"
	"github.com/deidaraiorek/botanica/internal/textprocessor"
)

func init() {
	godotenv.Load()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logg.Sync()

	source := cfg.SourcePath
	if len(os.Args) > 1 {
		source = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, source, logg); err != nil {
		logg.Error("ingestion failed", "error", err)
		logg.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, source string, logg *logger.Logger) error {
	logg.Info("starting ingester", "database", cfg.DatabasePath, "source", source)

	store, err := storage.Open(cfg.DatabasePath, logg)
	if err != nil {
		return err
	}
	defer store.Close()

	tp, err := textprocessor.NewTextProcessor(cfg.Search.StemLanguage)
	if err != nil {
		return err
	}

	report, err := ingest.NewPipeline(store, cfg.DatabasePath, tp, logg).Run(ctx, source)
	if err != nil {
		return err
	}

	fmt.Printf("build %s: %d entries, %d accepted, %d skipped, %d duplicates, %d loaded, %d failed (%s)\n",
		report.BuildID,
		report.SourceEntries,
		report.Accepted,
		report.Skipped,
		report.Duplicates,
		report.Load.Inserted,
		report.Load.Errored,
		report.Duration.Round(time.Millisecond),
	)
	for _, e := range report.Load.Errors {
		fmt.Printf("  %v\n", e)
	}
	return nil
}
