package tokenizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

type Tokenizer struct {
	StopWords map[string]bool
	minLength int
	maxLength int
}

func NewTokenizer() *Tokenizer {
	return &Tokenizer{
		StopWords: defaultStopWords(),
		minLength: 2,
		maxLength: 50,
	}
}

// Tokenize lowercases text and returns the words that survive the stop word,
// length and validity filters, in order of appearance.
func (t *Tokenizer) Tokenize(text string) []string {
	words := wordPattern.FindAllString(t.normalize(text), -1)

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if t.StopWords[word] {
			continue
		}

		n := utf8.RuneCountInString(word)
		if n < t.minLength || n > t.maxLength {
			continue
		}

		if !t.IsValidToken(word) {
			continue
		}

		tokens = append(tokens, word)
	}
	return tokens
}

func (t *Tokenizer) TokenizeToFrequency(text string) map[string]int {
	result := make(map[string]int)
	for _, token := range t.Tokenize(text) {
		result[token]++
	}
	return result
}

func (t *Tokenizer) normalize(text string) string {
	text = strings.ToLower(text)

	text = strings.ReplaceAll(text, "-", " ")
	text = strings.ReplaceAll(text, "_", " ")
	text = strings.ReplaceAll(text, "'", "")

	return text
}

// IsValidToken rejects purely numeric words and words that are mostly digits.
func (t *Tokenizer) IsValidToken(word string) bool {
	alphaCount := 0
	digitCount := 0

	for _, r := range word {
		if unicode.IsLetter(r) {
			alphaCount++
		} else if unicode.IsDigit(r) {
			digitCount++
		}
	}
	if alphaCount == 0 {
		return false
	}
	return digitCount <= alphaCount
}

func defaultStopWords() map[string]bool {
	words := []string{
		// Articles
		"a", "an", "the",

		// Pronouns
		"i", "me", "my", "we", "our", "you", "your", "he", "him", "his",
		"she", "her", "it", "its", "they", "them", "their",

		// Prepositions
		"of", "at", "by", "for", "with", "about", "between", "into", "through",
		"during", "before", "after", "to", "from", "in", "out", "on", "off", "over", "under",

		// Conjunctions
		"and", "or", "but", "if", "while", "because", "as", "than", "so", "nor",

		// Common verbs
		"is", "am", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did",
		"will", "would", "should", "could", "can", "may", "might", "must",

		// Other common words
		"this", "that", "these", "those", "which", "who", "whom", "when", "where",
		"all", "each", "both", "more", "most", "other", "some", "such",
		"no", "not", "only", "same", "then", "there", "too", "very",

		// Portuguese function words common in catalog descriptions
		"da", "das", "de", "do", "dos", "e", "em", "na", "nas", "no", "nos",
		"o", "os", "as", "um", "uma", "para", "por", "com", "que", "se",
	}

	stopWords := make(map[string]bool, len(words))
	for _, word := range words {
		stopWords[word] = true
	}
	return stopWords
}
