package textprocessor

import (
	"github.com/deidaraiorek/botanica/internal/tokenizer"
)

type TextProcessor struct {
	tokenizer *tokenizer.Tokenizer
	stemmer   *Stemmer
}

func NewTextProcessor(language string) (*TextProcessor, error) {
	stemmer, err := NewStemmer(language)
	if err != nil {
		return nil, err
	}
	return &TextProcessor{
		tokenizer: tokenizer.NewTokenizer(),
		stemmer:   stemmer,
	}, nil
}

func (tp *TextProcessor) Process(text string) []string {
	return tp.stemmer.StemBatch(tp.tokenizer.Tokenize(text))
}

func (tp *TextProcessor) ProcessToFrequency(text string) map[string]int {
	freq := make(map[string]int)
	for _, token := range tp.Process(text) {
		freq[token]++
	}
	return freq
}

// Field is one piece of text indexed with a weight; a term found in a field
// counts Weight times.
type Field struct {
	Text   string
	Weight int
}

type ProcessedDocument struct {
	TermFrequencies map[string]int
	TotalTerms      int
	UniqueTerms     int
}

func (tp *TextProcessor) ProcessFields(fields ...Field) ProcessedDocument {
	termFreq := make(map[string]int)

	for _, field := range fields {
		if field.Text == "" || field.Weight <= 0 {
			continue
		}
		for term, freq := range tp.ProcessToFrequency(field.Text) {
			termFreq[term] += freq * field.Weight
		}
	}

	totalTerms := 0
	for _, freq := range termFreq {
		totalTerms += freq
	}

	return ProcessedDocument{
		TermFrequencies: termFreq,
		TotalTerms:      totalTerms,
		UniqueTerms:     len(termFreq),
	}
}

// QueryTerm pairs a query word with its stem. Raw is kept for prefix lookups.
type QueryTerm struct {
	Raw  string
	Stem string
}

// QueryTerms returns the distinct terms of a search query in query order.
func (tp *TextProcessor) QueryTerms(query string) []QueryTerm {
	seen := make(map[string]bool)
	var terms []QueryTerm

	for _, raw := range tp.tokenizer.Tokenize(query) {
		if seen[raw] {
			continue
		}
		seen[raw] = true
		terms = append(terms, QueryTerm{Raw: raw, Stem: tp.stemmer.Stem(raw)})
	}
	return terms
}
