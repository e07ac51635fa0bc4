package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/deidaraiorek/botanica/internal/logger"
	"github.com/deidaraiorek/botanica/internal/storage"
	"github.com/deidaraiorek/botanica/internal/textprocessor"
)

// DefaultSearchLimit caps the number of ranked search results.
const DefaultSearchLimit = 50

// Page is one window of a filtered list. Total counts every match, not just
// the returned items.
type Page struct {
	Items  []storage.Entity
	Total  int
	Limit  int
	Offset int
}

// Engine answers list, search and lookup requests. It only reads from the
// store and is safe for concurrent use.
type Engine struct {
	store       *storage.Store
	tp          *textprocessor.TextProcessor
	limits      Limits
	searchLimit int
	log         *logger.Logger
}

func NewEngine(store *storage.Store, tp *textprocessor.TextProcessor, limits Limits, searchLimit int, log *logger.Logger) *Engine {
	if searchLimit <= 0 {
		searchLimit = DefaultSearchLimit
	}
	return &Engine{
		store:       store,
		tp:          tp,
		limits:      limits,
		searchLimit: searchLimit,
		log:         log.With("component", "query"),
	}
}

// List returns the page of entities matching every constraint in f, ordered
// by id. The window is clamped to the engine's limits. Count and page are read
// from the same snapshot.
func (e *Engine) List(ctx context.Context, f Filter) (*Page, error) {
	f = e.limits.Clamp(f)
	where, args := e.predicates(f)

	page := &Page{Items: []storage.Entity{}, Limit: f.Limit, Offset: f.Offset}
	err := e.store.ReadTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM entities e"+where,
			args...,
		).Scan(&page.Total); err != nil {
			return fmt.Errorf("failed to count entities: %w", err)
		}
		if page.Total == 0 || f.Offset >= page.Total {
			return nil
		}

		rows, err := tx.QueryContext(ctx,
			"SELECT e.id FROM entities e"+where+" ORDER BY e.id ASC LIMIT ? OFFSET ?",
			append(args, f.Limit, f.Offset)...,
		)
		if err != nil {
			return fmt.Errorf("failed to query entities: %w", err)
		}
		ids, err := scanIDs(rows)
		if err != nil {
			return err
		}

		page.Items, err = storage.Hydrate(ctx, tx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Debug("list", "filter", f.Signature(), "total", page.Total, "returned", len(page.Items))
	return page, nil
}

// Get returns one hydrated entity or storage.ErrNotFound.
func (e *Engine) Get(ctx context.Context, id string) (*storage.Entity, error) {
	return e.store.GetEntity(ctx, id)
}

// predicates builds the WHERE clause for f. Every value is bound as a
// parameter.
func (e *Engine) predicates(f Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if f.Category != nil {
		clauses = append(clauses, "e.category = ?")
		args = append(args, *f.Category)
	}
	if f.Origin != nil {
		clauses = append(clauses, "e.origin = ?")
		args = append(args, *f.Origin)
	}
	if f.Region != nil {
		clauses = append(clauses, `e.region_folded LIKE ? ESCAPE '\'`)
		args = append(args, "%"+storage.EscapeLike(strings.ToLower(*f.Region))+"%")
	}
	if f.HasWarning != nil {
		if *f.HasWarning {
			clauses = append(clauses, "(e.warning IS NOT NULL AND e.warning <> '')")
		} else {
			clauses = append(clauses, "(e.warning IS NULL OR e.warning = '')")
		}
	}
	if f.MinNutrition != nil {
		clauses = append(clauses, "e.nutrition_score >= ?")
		args = append(args, *f.MinNutrition)
	}
	if f.HarvestMonth != nil {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM harvest_months h WHERE h.entity_id = e.id AND h.month = ?)")
		args = append(args, *f.HarvestMonth)
	}
	if f.Search != nil {
		clause, searchArgs := e.textPredicate(*f.Search)
		clauses = append(clauses, clause)
		args = append(args, searchArgs...)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// textPredicate matches entities that contain every query term in the index,
// or whose name or scientific name contains the text.
func (e *Engine) textPredicate(text string) (string, []any) {
	pattern := "%" + storage.EscapeLike(strings.ToLower(text)) + "%"
	substring := `e.id IN (SELECT entity_id FROM entity_search
		WHERE lower(name) LIKE ? ESCAPE '\' OR lower(COALESCE(scientific_name, '')) LIKE ? ESCAPE '\')`

	terms := e.tp.QueryTerms(text)
	if len(terms) == 0 {
		return substring, []any{pattern, pattern}
	}

	var (
		termClauses []string
		args        []any
	)
	for _, term := range terms {
		match := "t.term = ?"
		args = append(args, term.Stem)
		if len([]rune(term.Raw)) >= minPrefixLength {
			match += ` OR t.term LIKE ? ESCAPE '\'`
			args = append(args, storage.EscapeLike(term.Raw)+"%")
		}
		termClauses = append(termClauses, `e.id IN (SELECT p.entity_id FROM search_postings p
			JOIN search_terms t ON t.term_id = p.term_id WHERE `+match+")")
	}

	args = append(args, pattern, pattern)
	return "((" + strings.Join(termClauses, " AND ") + ") OR " + substring + ")", args
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
