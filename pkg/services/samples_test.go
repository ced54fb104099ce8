package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleQuestions_AnswerableWithoutModel(t *testing.T) {
	categories := SampleQuestions()
	require.NotEmpty(t, categories)

	for _, c := range categories {
		assert.NotEmpty(t, c.Category)
		require.NotEmpty(t, c.Questions, "category %s", c.Category)
		for _, q := range c.Questions {
			_, ok := MatchFallback(q)
			assert.True(t, ok, "sample %q is not answerable by the fallback", q)
		}
	}
}
