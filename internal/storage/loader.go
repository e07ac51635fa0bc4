package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/deidaraiorek/botanica/internal/catalog"
	"github.com/deidaraiorek/botanica/internal/logger"
	"github.com/deidaraiorek/botanica/internal/textprocessor"
)

// LoadError reports one record that could not be stored. Its transaction was
// rolled back, so none of its rows remain.
type LoadError struct {
	ID  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.ID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type LoadReport struct {
	Inserted int
	Errored  int
	Errors   []*LoadError

	UsesLinked           int
	MonthsLinked         int
	CertificationsLinked int
	KeywordsLinked       int
	TermsPosted          int
}

// Loader writes normalized records into a rebuilt store.
type Loader struct {
	store *Store
	index *searchIndexer
	log   *logger.Logger
}

func NewLoader(store *Store, tp *textprocessor.TextProcessor, log *logger.Logger) *Loader {
	return &Loader{
		store: store,
		index: &searchIndexer{tp: tp},
		log:   log.With("component", "loader"),
	}
}

type loadStatements struct {
	entity        *sql.Stmt
	use           *sql.Stmt
	month         *sql.Stmt
	certification *sql.Stmt
	keyword       *sql.Stmt
	mirror        *sql.Stmt
	getTerm       *sql.Stmt
	insertTerm    *sql.Stmt
	updateDF      *sql.Stmt
	posting       *sql.Stmt
}

var loadQueries = []struct {
	dst   func(*loadStatements) **sql.Stmt
	query string
}{
	{func(s *loadStatements) **sql.Stmt { return &s.entity }, `INSERT INTO entities (
		id, name, scientific_name, category, origin, color,
		nutrition_score, efficacy_score, commercial_value,
		description, detailed_info, region, region_folded,
		spacing, climate, soil_type, warning, severity
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`},
	{func(s *loadStatements) **sql.Stmt { return &s.use }, "INSERT INTO entity_uses (entity_id, position, use_name) VALUES (?, ?, ?)"},
	{func(s *loadStatements) **sql.Stmt { return &s.month }, "INSERT INTO harvest_months (entity_id, position, month) VALUES (?, ?, ?)"},
	{func(s *loadStatements) **sql.Stmt { return &s.certification }, "INSERT INTO certifications (entity_id, position, certification) VALUES (?, ?, ?)"},
	{func(s *loadStatements) **sql.Stmt { return &s.keyword }, "INSERT INTO keywords (entity_id, position, keyword) VALUES (?, ?, ?)"},
	{func(s *loadStatements) **sql.Stmt { return &s.mirror }, `INSERT INTO entity_search (
		entity_id, name, scientific_name, description, detailed_info, region, doc_length
	) VALUES (?, ?, ?, ?, ?, ?, ?)`},
	{func(s *loadStatements) **sql.Stmt { return &s.getTerm }, "SELECT term_id FROM search_terms WHERE term = ?"},
	{func(s *loadStatements) **sql.Stmt { return &s.insertTerm }, "INSERT INTO search_terms (term, document_frequency) VALUES (?, 1)"},
	{func(s *loadStatements) **sql.Stmt { return &s.updateDF }, "UPDATE search_terms SET document_frequency = document_frequency + 1 WHERE term_id = ?"},
	{func(s *loadStatements) **sql.Stmt { return &s.posting }, "INSERT INTO search_postings (term_id, entity_id, term_frequency) VALUES (?, ?, ?)"},
}

func (l *Loader) prepare(ctx context.Context) (*loadStatements, error) {
	stmts := &loadStatements{}
	for _, q := range loadQueries {
		stmt, err := l.store.db.PrepareContext(ctx, q.query)
		if err != nil {
			stmts.close()
			return nil, fmt.Errorf("failed to prepare load statement: %w", err)
		}
		*q.dst(stmts) = stmt
	}
	return stmts, nil
}

func (s *loadStatements) close() {
	for _, q := range loadQueries {
		if stmt := *q.dst(s); stmt != nil {
			stmt.Close()
		}
	}
}

// bind returns the statements bound to tx.
func (s *loadStatements) bind(ctx context.Context, tx *sql.Tx) *loadStatements {
	bound := &loadStatements{}
	for _, q := range loadQueries {
		*q.dst(bound) = tx.StmtContext(ctx, *q.dst(s))
	}
	return bound
}

// Load stores every record in its own transaction. A record that fails is
// recorded in the report and the remaining records continue. The returned
// error is reserved for failures that stop the whole load, such as a
// cancelled context or statements that cannot be prepared.
func (l *Loader) Load(ctx context.Context, records []catalog.Record) (LoadReport, error) {
	var report LoadReport

	stmts, err := l.prepare(ctx)
	if err != nil {
		return report, err
	}
	defer stmts.close()

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		links, err := l.loadRecord(ctx, stmts, record)
		if err != nil {
			loadErr := &LoadError{ID: record.ID, Err: err}
			report.Errors = append(report.Errors, loadErr)
			report.Errored++
			l.log.Warn("record not loaded", "id", record.ID, "error", err)
			continue
		}

		report.Inserted++
		report.UsesLinked += links.uses
		report.MonthsLinked += links.months
		report.CertificationsLinked += links.certifications
		report.KeywordsLinked += links.keywords
		report.TermsPosted += links.terms

		if (i+1)%500 == 0 {
			l.log.Debug("load progress", "processed", i+1, "total", len(records))
		}
	}

	l.log.Info("load finished", "inserted", report.Inserted, "errored", report.Errored)
	return report, nil
}

type recordLinks struct {
	uses, months, certifications, keywords, terms int
}

func (l *Loader) loadRecord(ctx context.Context, stmts *loadStatements, r catalog.Record) (recordLinks, error) {
	var links recordLinks

	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return links, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	st := stmts.bind(ctx, tx)

	_, err = st.entity.ExecContext(ctx,
		r.ID, r.Name, nullString(r.ScientificName), r.Category, r.Origin, nullString(r.Color),
		r.NutritionScore, r.EfficacyScore, r.CommercialValue,
		nullString(r.Description), nullString(r.DetailedInfo),
		nullString(r.Region), nullString(strings.ToLower(r.Region)),
		nullString(r.Spacing), nullString(r.Climate), nullString(r.SoilType),
		nullString(r.Warning), nullString(r.Severity),
	)
	if err != nil {
		return links, fmt.Errorf("failed to insert entity: %w", err)
	}

	if links.uses, err = insertValues(ctx, st.use, r.ID, r.Uses); err != nil {
		return links, fmt.Errorf("failed to link uses: %w", err)
	}
	for i, month := range r.HarvestMonths {
		if _, err := st.month.ExecContext(ctx, r.ID, i, month); err != nil {
			return links, fmt.Errorf("failed to link harvest month %d: %w", month, err)
		}
		links.months++
	}
	if links.certifications, err = insertValues(ctx, st.certification, r.ID, r.Certifications); err != nil {
		return links, fmt.Errorf("failed to link certifications: %w", err)
	}
	if links.keywords, err = insertValues(ctx, st.keyword, r.ID, r.Keywords); err != nil {
		return links, fmt.Errorf("failed to link keywords: %w", err)
	}

	if links.terms, err = l.index.indexRecord(ctx, st, r); err != nil {
		return links, err
	}

	if err := tx.Commit(); err != nil {
		return links, fmt.Errorf("failed to commit: %w", err)
	}
	return links, nil
}

func insertValues(ctx context.Context, stmt *sql.Stmt, id string, values []string) (int, error) {
	for i, v := range values {
		if _, err := stmt.ExecContext(ctx, id, i, v); err != nil {
			return i, fmt.Errorf("%q: %w", v, err)
		}
	}
	return len(values), nil
}

// nullString stores empty optional text as NULL.
func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
