package sql

import (
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
)

// QuestionScreen is the result of inspecting a natural-language question for
// embedded SQL before it is translated.
type QuestionScreen struct {
	// Verdict is unsafe when the question smuggles a write statement.
	Verdict models.ValidationVerdict
	// Fingerprint is the libinjection fingerprint when the question looks
	// like an injection payload, empty otherwise.
	Fingerprint string
}

// Rejected reports whether the question must not be translated.
func (q QuestionScreen) Rejected() bool {
	return !q.Verdict.Safe
}

// ScreenQuestion looks for SQL smuggled into a question. A question that
// carries a statement separator followed by a write verb, or that libinjection
// flags and that contains a write verb, is rejected with contains-write-verb.
// A libinjection hit without a write verb is only reported.
//
// Example:
//
//	ScreenQuestion("show all officers; DROP TABLE officers")
//	// Verdict == Unsafe(contains-write-verb)
//
//	ScreenQuestion("how many citizens")
//	// Verdict == Safe, Fingerprint == ""
func ScreenQuestion(question string) QuestionScreen {
	screen := QuestionScreen{Verdict: models.SafeVerdict()}

	isSQLi, fingerprint := libinjection.IsSQLi(question)
	if isSQLi {
		screen.Fingerprint = string(fingerprint)
	}

	if idx := strings.Index(question, ";"); idx >= 0 && ContainsWriteVerb(question[idx+1:]) {
		screen.Verdict = models.UnsafeVerdict(models.ReasonWriteVerb)
		return screen
	}

	if isSQLi && ContainsWriteVerb(question) {
		screen.Verdict = models.UnsafeVerdict(models.ReasonWriteVerb)
	}

	return screen
}
