package tokenizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deidaraiorek/botanica/internal/tokenizer"
)

func TestTokenize(t *testing.T) {
	tok := tokenizer.NewTokenizer()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "basic text",
			input:    "The sweet fruit of the Amazon rainforest",
			expected: []string{"sweet", "fruit", "amazon", "rainforest"},
		},
		{
			name:     "with punctuation",
			input:    "Leaves, bark; roots!",
			expected: []string{"leaves", "bark", "roots"},
		},
		{
			name:     "accented words stay whole",
			input:    "Açaí da Amazônia",
			expected: []string{"açaí", "amazônia"},
		},
		{
			name:     "hyphenated words",
			input:    "semi-arid sub_tropical",
			expected: []string{"semi", "arid", "sub", "tropical"},
		},
		{
			name:     "numbers are dropped",
			input:    "Grows 3 meters in 2020",
			expected: []string{"grows", "meters"},
		},
		{
			name:     "single character removal",
			input:    "x marks a spot",
			expected: []string{"marks", "spot"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: []string{},
		},
		{
			name:     "only stop words",
			input:    "the and or de da",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tok.Tokenize(tt.input))
		})
	}
}

func TestTokenizeToFrequency(t *testing.T) {
	tok := tokenizer.NewTokenizer()

	result := tok.TokenizeToFrequency("mango tree, mango fruit and mango juice")

	assert.Equal(t, map[string]int{"mango": 3, "tree": 1, "fruit": 1, "juice": 1}, result)
}

func TestIsValidToken(t *testing.T) {
	tok := tokenizer.NewTokenizer()

	assert.True(t, tok.IsValidToken("b12"))
	assert.True(t, tok.IsValidToken("ipê"))
	assert.False(t, tok.IsValidToken("2020"))
	assert.False(t, tok.IsValidToken("a123"))
}
