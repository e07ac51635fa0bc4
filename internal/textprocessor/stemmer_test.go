package textprocessor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deidaraiorek/botanica/internal/textprocessor"
)

func TestStem(t *testing.T) {
	stemmer, err := textprocessor.NewStemmer("english")
	require.NoError(t, err)

	tests := []struct {
		input    string
		expected string
	}{
		{"running", "run"},
		{"walked", "walk"},
		{"berries", "berri"},
		{"seeds", "seed"},
		{"flowers", "flower"},
		{"roots", "root"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, stemmer.Stem(tt.input))
		})
	}
}

func TestStemBatch(t *testing.T) {
	stemmer, err := textprocessor.NewStemmer("english")
	require.NoError(t, err)

	assert.Equal(t, []string{"seed", "root"}, stemmer.StemBatch([]string{"seeds", "roots"}))
}

func TestNewStemmerRejectsUnknownLanguage(t *testing.T) {
	_, err := textprocessor.NewStemmer("klingon")
	assert.Error(t, err)
}
