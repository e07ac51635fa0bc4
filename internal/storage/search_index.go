package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/deidaraiorek/botanica/internal/catalog"
	"github.com/deidaraiorek/botanica/internal/textprocessor"
)

// Field weights used when indexing a record.
const (
	WeightName         = 3
	WeightScientific   = 3
	WeightDescription  = 2
	WeightDetailedInfo = 1
	WeightRegion       = 1
)

type searchIndexer struct {
	tp *textprocessor.TextProcessor
}

// indexRecord writes the search mirror row and the postings of one record
// using statements bound to the record's transaction. It returns the number
// of postings written.
func (si *searchIndexer) indexRecord(ctx context.Context, st *loadStatements, r catalog.Record) (int, error) {
	doc := si.tp.ProcessFields(
		textprocessor.Field{Text: r.Name, Weight: WeightName},
		textprocessor.Field{Text: r.ScientificName, Weight: WeightScientific},
		textprocessor.Field{Text: r.Description, Weight: WeightDescription},
		textprocessor.Field{Text: r.DetailedInfo, Weight: WeightDetailedInfo},
		textprocessor.Field{Text: r.Region, Weight: WeightRegion},
	)

	_, err := st.mirror.ExecContext(ctx,
		r.ID, r.Name, nullString(r.ScientificName),
		nullString(r.Description), nullString(r.DetailedInfo), nullString(r.Region),
		doc.TotalTerms,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert search mirror: %w", err)
	}

	terms := make([]string, 0, len(doc.TermFrequencies))
	for term := range doc.TermFrequencies {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	for _, term := range terms {
		var termID int64

		err := st.getTerm.QueryRowContext(ctx, term).Scan(&termID)
		if errors.Is(err, sql.ErrNoRows) {
			result, err := st.insertTerm.ExecContext(ctx, term)
			if err != nil {
				return 0, fmt.Errorf("failed to insert term %q: %w", term, err)
			}
			termID, err = result.LastInsertId()
			if err != nil {
				return 0, err
			}
		} else if err != nil {
			return 0, fmt.Errorf("failed to query term %q: %w", term, err)
		} else {
			if _, err := st.updateDF.ExecContext(ctx, termID); err != nil {
				return 0, fmt.Errorf("failed to update document frequency for term %q: %w", term, err)
			}
		}

		if _, err := st.posting.ExecContext(ctx, termID, r.ID, doc.TermFrequencies[term]); err != nil {
			return 0, fmt.Errorf("failed to insert posting for term %q: %w", term, err)
		}
	}

	return len(terms), nil
}

// Posting is one entity's occurrence of an index term.
type Posting struct {
	EntityID          string
	Term              string
	TermFrequency     int
	DocumentFrequency int
	DocLength         int
}

// SearchPostings returns the postings of the given exact terms and of every
// index term starting with one of the prefixes.
func SearchPostings(ctx context.Context, q Queryer, exact, prefixes []string) ([]Posting, error) {
	var (
		clauses []string
		args    []any
	)
	if len(exact) > 0 {
		placeholders, exactArgs := inClause(exact)
		clauses = append(clauses, "t.term IN ("+placeholders+")")
		args = append(args, exactArgs...)
	}
	for _, p := range prefixes {
		clauses = append(clauses, `t.term LIKE ? ESCAPE '\'`)
		args = append(args, EscapeLike(p)+"%")
	}
	if len(clauses) == 0 {
		return nil, nil
	}

	rows, err := q.QueryContext(ctx, `
		SELECT p.entity_id, t.term, p.term_frequency, t.document_frequency, s.doc_length
		FROM search_terms t
		JOIN search_postings p ON p.term_id = t.term_id
		JOIN entity_search s ON s.entity_id = p.entity_id
		WHERE `+strings.Join(clauses, " OR "),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query postings: %w", err)
	}
	defer rows.Close()

	var postings []Posting
	for rows.Next() {
		var p Posting
		if err := rows.Scan(&p.EntityID, &p.Term, &p.TermFrequency, &p.DocumentFrequency, &p.DocLength); err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

// SearchMirrorMatches returns the ids of mirror rows whose name or scientific
// name contains the given text, ignoring case.
func SearchMirrorMatches(ctx context.Context, q Queryer, text string) ([]string, error) {
	pattern := "%" + EscapeLike(strings.ToLower(text)) + "%"
	rows, err := q.QueryContext(ctx, `
		SELECT entity_id FROM entity_search
		WHERE lower(name) LIKE ? ESCAPE '\'
		   OR lower(COALESCE(scientific_name, '')) LIKE ? ESCAPE '\'`,
		pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query search mirror: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MirrorCount returns the number of documents in the search mirror.
func MirrorCount(ctx context.Context, q Queryer) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM entity_search").Scan(&count)
	return count, err
}

// EscapeLike escapes LIKE wildcards so text matches literally under
// ESCAPE '\'.
func EscapeLike(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(text)
}
