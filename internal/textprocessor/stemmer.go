package textprocessor

import (
	"fmt"

	"github.com/kljensen/snowball"
)

var supportedLanguages = map[string]bool{
	"english":   true,
	"spanish":   true,
	"french":    true,
	"russian":   true,
	"swedish":   true,
	"norwegian": true,
	"hungarian": true,
}

type Stemmer struct {
	language string
}

func NewStemmer(language string) (*Stemmer, error) {
	if !supportedLanguages[language] {
		return nil, fmt.Errorf("unsupported stemmer language %q", language)
	}
	return &Stemmer{language: language}, nil
}

// Stem falls back to the word itself when snowball cannot stem it.
func (s *Stemmer) Stem(word string) string {
	stemmed, err := snowball.Stem(word, s.language, true)
	if err != nil || stemmed == "" {
		return word
	}
	return stemmed
}

func (s *Stemmer) StemBatch(words []string) []string {
	stemmed := make([]string, len(words))
	for i, word := range words {
		stemmed[i] = s.Stem(word)
	}
	return stemmed
}
