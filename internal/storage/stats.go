package storage

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Stats is a descriptive summary of the loaded catalog.
type Stats struct {
	Total        int            `json:"total"`
	ByCategory   map[string]int `json:"byCategory"`
	ByOrigin     map[string]int `json:"byOrigin"`
	WithWarnings int            `json:"withWarnings"`

	AvgNutrition  *float64 `json:"avgNutrition"`
	AvgEfficacy   *float64 `json:"avgEfficacy"`
	AvgCommercial *float64 `json:"avgCommercial"`

	UniqueUses           int `json:"uniqueUses"`
	UniqueKeywords       int `json:"uniqueKeywords"`
	UniqueCertifications int `json:"uniqueCertifications"`
}

type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats runs its aggregate queries concurrently; each one reads through the
// shared pool.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.db.QueryRowContext(ctx, `
			SELECT COUNT(*),
			       COUNT(warning),
			       AVG(nutrition_score),
			       AVG(efficacy_score),
			       AVG(commercial_value)
			FROM entities`,
		).Scan(&stats.Total, &stats.WithWarnings, nullFloat(&stats.AvgNutrition), nullFloat(&stats.AvgEfficacy), nullFloat(&stats.AvgCommercial))
	})
	g.Go(func() error {
		m, err := s.groupCount(ctx, "SELECT category, COUNT(*) FROM entities GROUP BY category")
		stats.ByCategory = m
		return err
	})
	g.Go(func() error {
		m, err := s.groupCount(ctx, "SELECT origin, COUNT(*) FROM entities GROUP BY origin")
		stats.ByOrigin = m
		return err
	})
	g.Go(func() error {
		return s.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT lower(use_name)) FROM entity_uses").Scan(&stats.UniqueUses)
	})
	g.Go(func() error {
		return s.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT lower(keyword)) FROM keywords").Scan(&stats.UniqueKeywords)
	})
	g.Go(func() error {
		return s.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT lower(certification)) FROM certifications").Scan(&stats.UniqueCertifications)
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return stats, nil
}

func (s *Store) groupCount(ctx context.Context, query string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

// Categories returns every category with its entity count, largest first.
func (s *Store) Categories(ctx context.Context) ([]CategoryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*) AS n
		FROM entities
		GROUP BY category
		ORDER BY n DESC, category ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []CategoryCount{}
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// IntegrityReport counts rows that break the catalog's referential rules.
type IntegrityReport struct {
	OrphanUses           int
	OrphanMonths         int
	OrphanCertifications int
	OrphanKeywords       int
	OrphanPostings       int
	MissingMirror        int
	OrphanMirror         int
}

func (r IntegrityReport) Clean() bool {
	return r == IntegrityReport{}
}

func (s *Store) CheckIntegrity(ctx context.Context) (IntegrityReport, error) {
	var report IntegrityReport

	checks := []struct {
		dst   *int
		query string
	}{
		{&report.OrphanUses, "SELECT COUNT(*) FROM entity_uses WHERE entity_id NOT IN (SELECT id FROM entities)"},
		{&report.OrphanMonths, "SELECT COUNT(*) FROM harvest_months WHERE entity_id NOT IN (SELECT id FROM entities)"},
		{&report.OrphanCertifications, "SELECT COUNT(*) FROM certifications WHERE entity_id NOT IN (SELECT id FROM entities)"},
		{&report.OrphanKeywords, "SELECT COUNT(*) FROM keywords WHERE entity_id NOT IN (SELECT id FROM entities)"},
		{&report.OrphanPostings, "SELECT COUNT(*) FROM search_postings WHERE entity_id NOT IN (SELECT id FROM entities)"},
		{&report.MissingMirror, "SELECT COUNT(*) FROM entities WHERE id NOT IN (SELECT entity_id FROM entity_search)"},
		{&report.OrphanMirror, "SELECT COUNT(*) FROM entity_search WHERE entity_id NOT IN (SELECT id FROM entities)"},
	}

	err := s.ReadTx(ctx, func(tx *sql.Tx) error {
		for _, c := range checks {
			if err := tx.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
				return fmt.Errorf("integrity check failed: %w", err)
			}
		}
		return nil
	})
	return report, err
}

// nullFloat scans a nullable REAL into a *float64 left nil on NULL.
func nullFloat(dst **float64) sql.Scanner {
	return &floatScanner{dst: dst}
}

type floatScanner struct {
	dst **float64
}

func (f *floatScanner) Scan(src any) error {
	var v sql.NullFloat64
	if err := v.Scan(src); err != nil {
		return err
	}
	*f.dst = floatPtr(v)
	return nil
}
