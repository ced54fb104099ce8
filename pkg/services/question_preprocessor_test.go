package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestionPreprocessor_Process(t *testing.T) {
	p := NewQuestionPreprocessor(fixedClock)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"whitespace is collapsed", "  how   many\tcitizens ", "how many citizens"},
		{"plain question is unchanged", "Citizens by gender", "Citizens by gender"},
		{"last n years", "enrollments in the last 3 years", "enrollments since 2023"},
		{"past n years", "disbursements in the past 2 years", "disbursements since 2024"},
		{"this year", "disbursements this year", "disbursements in 2026"},
		{"in this year does not double the preposition", "enrolled in this year", "enrolled in 2026"},
		{"last year", "payments last year", "payments in 2025"},
		{"next year", "schemes ending next year", "schemes ending in 2027"},
		{"abbreviation", "PMAY beneficiaries", "Pradhan Mantri Awas Yojana (PMAY) beneficiaries"},
		{"abbreviation in lower case keeps canonical form", "pmay beneficiaries", "Pradhan Mantri Awas Yojana (PMAY) beneficiaries"},
		{"hyphenated abbreviation", "PM-KISAN payments", "Pradhan Mantri Kisan Samman Nidhi (PM-KISAN) payments"},
		{"rural", "citizens in rural areas", "citizens in rural (villages whose name contains 'Rural') areas"},
		{"urban", "urban citizens", "urban (villages whose name does not contain 'Rural') citizens"},
		{
			"expanded scheme name is not annotated",
			"MGNREGA workers",
			"Mahatma Gandhi National Rural Employment Guarantee Act (MGNREGA) workers",
		},
		{
			"combined",
			"PMAY disbursements last year in rural areas",
			"Pradhan Mantri Awas Yojana (PMAY) disbursements in 2025 in rural (villages whose name contains 'Rural') areas",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.Process(tt.input))
		})
	}
}

func TestQuestionPreprocessor_Deterministic(t *testing.T) {
	p := NewQuestionPreprocessor(fixedClock)
	q := "PMJAY enrollments in the last 5 years in urban villages"
	assert.Equal(t, p.Process(q), p.Process(q))
}

func TestNewQuestionPreprocessor_NilClock(t *testing.T) {
	p := NewQuestionPreprocessor(nil)
	assert.NotPanics(t, func() { p.Process("payments this year") })
}
