package query

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"strings"

	"github.com/deidaraiorek/botanica/internal/storage"
)

const (
	// minPrefixLength is the shortest query word that also matches longer
	// index terms by prefix.
	minPrefixLength = 3
	// nameBoost is added when the query text appears in the name or the
	// scientific name.
	nameBoost = 1.0
)

type SearchResult struct {
	ID    string
	Score float64
}

// Search ranks entities against free text with TF-IDF over the search index
// and returns at most the configured number of hydrated entities. A blank
// query returns no results.
func (e *Engine) Search(ctx context.Context, text string) ([]storage.Entity, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []storage.Entity{}, nil
	}

	var entities []storage.Entity
	err := e.store.ReadTx(ctx, func(tx *sql.Tx) error {
		results, err := e.rank(ctx, tx, text)
		if err != nil {
			return err
		}

		ids := make([]string, len(results))
		for i, r := range results {
			ids[i] = r.ID
		}
		entities, err = storage.Hydrate(ctx, tx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Debug("search", "query", text, "results", len(entities))
	return entities, nil
}

func (e *Engine) rank(ctx context.Context, q storage.Queryer, text string) ([]SearchResult, error) {
	var exact, prefixes []string
	for _, term := range e.tp.QueryTerms(text) {
		exact = append(exact, term.Stem)
		if len([]rune(term.Raw)) >= minPrefixLength {
			prefixes = append(prefixes, term.Raw)
		}
	}

	totalDocs, err := storage.MirrorCount(ctx, q)
	if err != nil {
		return nil, err
	}
	if totalDocs == 0 {
		return []SearchResult{}, nil
	}

	postings, err := storage.SearchPostings(ctx, q, exact, prefixes)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64)
	for _, p := range postings {
		if p.DocLength == 0 || p.DocumentFrequency == 0 {
			continue
		}
		tf := float64(p.TermFrequency) / float64(p.DocLength)
		idf := math.Log(1 + float64(totalDocs)/float64(p.DocumentFrequency))
		scores[p.EntityID] += tf * idf
	}

	matches, err := storage.SearchMirrorMatches(ctx, q, text)
	if err != nil {
		return nil, err
	}
	for _, id := range matches {
		scores[id] += nameBoost
	}

	results := make([]SearchResult, 0, len(scores))
	for id, score := range scores {
		results = append(results, SearchResult{ID: id, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > e.searchLimit {
		results = results[:e.searchLimit]
	}
	return results, nil
}
