package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// QuestionPreprocessor applies deterministic substitutions to a question
// before it is sent to the model. Case is preserved. The output depends only
// on the input and the injected clock.
type QuestionPreprocessor struct {
	now func() time.Time
}

// NewQuestionPreprocessor creates a preprocessor. Pass nil to use time.Now.
func NewQuestionPreprocessor(now func() time.Time) *QuestionPreprocessor {
	if now == nil {
		now = time.Now
	}
	return &QuestionPreprocessor{now: now}
}

// SchemeAbbreviations maps common scheme acronyms to their full names.
var SchemeAbbreviations = []struct {
	Abbreviation string
	FullName     string
}{
	{"PM-KISAN", "Pradhan Mantri Kisan Samman Nidhi"},
	{"MGNREGA", "Mahatma Gandhi National Rural Employment Guarantee Act"},
	{"PMAY", "Pradhan Mantri Awas Yojana"},
	{"NSAP", "National Social Assistance Programme"},
	{"PMJDY", "Pradhan Mantri Jan Dhan Yojana"},
	{"PMUY", "Pradhan Mantri Ujjwala Yojana"},
	{"PMJAY", "Ayushman Bharat Pradhan Mantri Jan Arogya Yojana"},
}

var (
	lastNYearsPattern   = regexp.MustCompile(`(?i)\b(?:in\s+the\s+)?(?:last|past)\s+(\d{1,2})\s+years\b`)
	thisYearPattern     = regexp.MustCompile(`(?i)\b(?:this|current)\s+year\b`)
	lastYearPattern     = regexp.MustCompile(`(?i)\b(?:last|previous)\s+year\b`)
	nextYearPattern     = regexp.MustCompile(`(?i)\bnext\s+year\b`)
	ruralPattern        = regexp.MustCompile(`(?i)\brural\b`)
	urbanPattern        = regexp.MustCompile(`(?i)\burban\b`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
	abbreviationPattern = buildAbbreviationPattern()
)

func buildAbbreviationPattern() *regexp.Regexp {
	alts := make([]string, 0, len(SchemeAbbreviations))
	for _, s := range SchemeAbbreviations {
		alts = append(alts, regexp.QuoteMeta(s.Abbreviation))
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(alts, "|") + `)\b`)
}

// Process returns the question with relative years resolved, scheme
// abbreviations expanded and rural/urban mapped to the village naming rule.
//
// Example, with the clock in 2026:
//
//	"PMAY disbursements last year in rural areas"
//	=> "Pradhan Mantri Awas Yojana (PMAY) disbursements in 2025 in rural (villages whose name contains 'Rural') areas"
func (p *QuestionPreprocessor) Process(question string) string {
	q := strings.TrimSpace(whitespacePattern.ReplaceAllString(question, " "))
	if q == "" {
		return q
	}
	year := p.now().Year()

	q = lastNYearsPattern.ReplaceAllStringFunc(q, func(m string) string {
		n, err := strconv.Atoi(lastNYearsPattern.FindStringSubmatch(m)[1])
		if err != nil || n <= 0 {
			return m
		}
		return "since " + strconv.Itoa(year-n)
	})
	q = thisYearPattern.ReplaceAllString(q, "in "+strconv.Itoa(year))
	q = lastYearPattern.ReplaceAllString(q, "in "+strconv.Itoa(year-1))
	q = nextYearPattern.ReplaceAllString(q, "in "+strconv.Itoa(year+1))
	q = strings.ReplaceAll(q, "in in ", "in ")

	// Area words are annotated before expansion: some full scheme names
	// contain "Rural".
	q = ruralPattern.ReplaceAllStringFunc(q, func(m string) string {
		return m + " (villages whose name contains 'Rural')"
	})
	q = urbanPattern.ReplaceAllStringFunc(q, func(m string) string {
		return m + " (villages whose name does not contain 'Rural')"
	})

	q = abbreviationPattern.ReplaceAllStringFunc(q, func(m string) string {
		for _, s := range SchemeAbbreviations {
			if strings.EqualFold(s.Abbreviation, m) {
				return s.FullName + " (" + s.Abbreviation + ")"
			}
		}
		return m
	})

	return q
}
