package services

import (
	"regexp"
	"strings"

	"github.com/jinzhu/inflection"
)

// maxSuggestions caps the rephrasings returned with a failed translation.
const maxSuggestions = 6

// StaticSuggestions are questions the pattern fallback always understands.
var StaticSuggestions = []string{
	"Show all citizens",
	"How many citizens",
	"List officers",
	"How many schemes",
	"Show citizens above age 30",
	"Citizens by gender",
	"Total disbursement by scheme",
	"Citizens enrolled in multiple schemes",
}

// entity is a table the question can be about, with the singular words that
// refer to it.
type entity struct {
	Table    string
	Synonyms []string
}

var entities = []entity{
	{Table: "citizens", Synonyms: []string{"citizen", "person", "resident", "beneficiary", "individual"}},
	{Table: "officers", Synonyms: []string{"officer", "official", "staff", "employee"}},
	{Table: "schemes", Synonyms: []string{"scheme", "program", "programme", "initiative", "benefit", "yojana"}},
	{Table: "disbursements", Synonyms: []string{"disbursement", "payment", "payout", "transfer"}},
	{Table: "enrollments", Synonyms: []string{"enrollment", "enrolment", "registration"}},
	{Table: "villages", Synonyms: []string{"village"}},
	{Table: "districts", Synonyms: []string{"district"}},
	{Table: "states", Synonyms: []string{"state"}},
}

// entitySpecificSuggestions are appended after the generic ones for an entity.
var entitySpecificSuggestions = map[string][]string{
	"citizens":      {"Citizens by gender", "Show citizens above age 60"},
	"officers":      {"Officers by designation"},
	"schemes":       {"Schemes by sector", "Total disbursement by scheme"},
	"disbursements": {"Total disbursement by scheme", "Disbursements by payment mode"},
	"enrollments":   {"Enrollments by scheme", "Citizens enrolled in multiple schemes"},
	"districts":     {"Citizens by district"},
	"states":        {"Citizens by state"},
}

var wordPattern = regexp.MustCompile(`[A-Za-z]+`)

// DetectEntities returns the tables a question mentions, in the order they
// first appear. Plural and singular forms both match.
func DetectEntities(question string) []string {
	bySynonym := make(map[string]string)
	for _, e := range entities {
		for _, s := range e.Synonyms {
			bySynonym[s] = e.Table
		}
	}

	var found []string
	seen := make(map[string]bool)
	for _, word := range wordPattern.FindAllString(strings.ToLower(question), -1) {
		table, ok := bySynonym[word]
		if !ok {
			table, ok = bySynonym[inflection.Singular(word)]
		}
		if ok && !seen[table] {
			seen[table] = true
			found = append(found, table)
		}
	}
	return found
}

// Suggestions builds rephrasings for a question that could not be translated:
// entity-aware suggestions first, then the static examples, without
// duplicates and capped at six.
func Suggestions(question string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		key := strings.ToLower(s)
		if len(out) >= maxSuggestions || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, s)
	}

	for _, table := range DetectEntities(question) {
		add("Show all " + table)
		add("How many " + table)
		for _, s := range entitySpecificSuggestions[table] {
			add(s)
		}
	}
	for _, s := range StaticSuggestions {
		add(s)
	}
	return out
}
