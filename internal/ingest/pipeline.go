package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/deidaraiorek/botanica/internal/catalog"
	"github.com/deidaraiorek/botanica/internal/logger"
	"github.com/deidaraiorek/botanica/internal/storage"
	"github.com/deidaraiorek/botanica/internal/textprocessor"
)

var (
	// ErrIngestInProgress is returned when another ingestion run holds the
	// guard for the same database.
	ErrIngestInProgress = errors.New("ingestion already in progress")
	// ErrIntegrity is returned when the loaded catalog breaks referential
	// rules.
	ErrIntegrity = errors.New("catalog integrity check failed")
)

// Report summarizes one ingestion run.
type Report struct {
	BuildID    string
	SourcePath string
	StartedAt  time.Time
	Duration   time.Duration

	SourceEntries int
	Accepted      int
	Skipped       int
	Duplicates    int
	Diagnostics   []catalog.Diagnostic

	Load      storage.LoadReport
	Integrity storage.IntegrityReport
	Stats     *storage.Stats
}

// Pipeline rebuilds the catalog store from a source file.
type Pipeline struct {
	store  *storage.Store
	loader *storage.Loader
	guard  *guard
	log    *logger.Logger
}

func NewPipeline(store *storage.Store, dbPath string, tp *textprocessor.TextProcessor, log *logger.Logger) *Pipeline {
	return &Pipeline{
		store:  store,
		loader: storage.NewLoader(store, tp, log),
		guard:  newGuard(dbPath),
		log:    log.With("component", "ingest"),
	}
}

// Run reads, normalizes and loads the catalog at sourcePath, replacing the
// store's contents. Only one run per database proceeds at a time.
func (p *Pipeline) Run(ctx context.Context, sourcePath string) (*Report, error) {
	release, err := p.guard.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	return p.run(ctx, sourcePath)
}

func (p *Pipeline) run(ctx context.Context, sourcePath string) (*Report, error) {
	report := &Report{
		BuildID:    uuid.New().String(),
		SourcePath: sourcePath,
		StartedAt:  time.Now(),
	}
	log := p.log.With("build_id", report.BuildID)
	log.Info("ingestion started", "source", sourcePath)

	entries, err := catalog.ReadSource(sourcePath)
	if err != nil {
		return nil, err
	}
	report.SourceEntries = len(entries)

	batch := catalog.Normalize(entries)
	report.Accepted = batch.Accepted
	report.Skipped = batch.Skipped
	report.Duplicates = batch.Duplicates
	report.Diagnostics = batch.Diagnostics
	for _, d := range batch.Diagnostics {
		log.Warn("source entry", "diagnostic", d.String())
	}
	log.Info("normalized",
		"entries", report.SourceEntries,
		"accepted", batch.Accepted,
		"skipped", batch.Skipped,
		"duplicates", batch.Duplicates,
	)

	if err := p.store.Rebuild(ctx); err != nil {
		return nil, err
	}

	report.Load, err = p.loader.Load(ctx, batch.Records)
	if err != nil {
		return nil, fmt.Errorf("load aborted: %w", err)
	}

	report.Integrity, err = p.store.CheckIntegrity(ctx)
	if err != nil {
		return nil, err
	}
	if !report.Integrity.Clean() {
		return nil, fmt.Errorf("%w: %+v", ErrIntegrity, report.Integrity)
	}

	metadata := []struct{ key, value string }{
		{storage.MetaBuildID, report.BuildID},
		{storage.MetaBuiltAt, time.Now().UTC().Format(time.RFC3339)},
		{storage.MetaSource, sourcePath},
	}
	for _, m := range metadata {
		if err := p.store.SetMetadata(ctx, m.key, m.value); err != nil {
			return nil, fmt.Errorf("failed to write metadata %s: %w", m.key, err)
		}
	}

	report.Stats, err = p.store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	report.Duration = time.Since(report.StartedAt)
	log.Info("ingestion finished",
		"inserted", report.Load.Inserted,
		"errored", report.Load.Errored,
		"uses", report.Load.UsesLinked,
		"harvest_months", report.Load.MonthsLinked,
		"certifications", report.Load.CertificationsLinked,
		"keywords", report.Load.KeywordsLinked,
		"postings", report.Load.TermsPosted,
		"duration", report.Duration,
	)
	return report, nil
}
