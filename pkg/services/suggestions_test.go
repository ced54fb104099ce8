package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEntities(t *testing.T) {
	tests := []struct {
		question string
		expected []string
	}{
		{"what is the weather", nil},
		{"how many citizens", []string{"citizens"}},
		{"Officer list", []string{"officers"}},
		{"payments to beneficiaries in each district", []string{"disbursements", "citizens", "districts"}},
		{"citizens and citizen details", []string{"citizens"}},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectEntities(tt.question))
		})
	}
}

func TestSuggestions(t *testing.T) {
	t.Run("no entity falls back to static suggestions", func(t *testing.T) {
		assert.Equal(t, StaticSuggestions[:maxSuggestions], Suggestions("tell me something"))
	})

	t.Run("entity suggestions come first", func(t *testing.T) {
		assert.Equal(t, []string{
			"Show all officers",
			"How many officers",
			"Officers by designation",
			"Show all citizens",
			"How many citizens",
			"List officers",
		}, Suggestions("which staff work here"))
	})

	t.Run("duplicates are dropped case-insensitively", func(t *testing.T) {
		assert.Equal(t, []string{
			"Show all citizens",
			"How many citizens",
			"Citizens by gender",
			"Show citizens above age 60",
			"List officers",
			"How many schemes",
		}, Suggestions("residents please"))
	})
}

func TestSuggestions_AreAnswerable(t *testing.T) {
	questions := append([]string{}, StaticSuggestions...)
	for _, e := range entities {
		questions = append(questions, Suggestions(e.Table)...)
	}

	for _, q := range questions {
		_, ok := MatchFallback(q)
		require.True(t, ok, "suggestion %q is not answerable by the fallback", q)
	}
}
