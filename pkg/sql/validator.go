// Package sql provides SQL lexing, safety validation and select-list parsing.
package sql

import (
	"regexp"
	"strings"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
)

// writeVerbPattern matches the denylisted write and DDL verbs as whole words.
var writeVerbPattern = regexp.MustCompile(`\b(CREATE|DROP|DELETE|INSERT|UPDATE|ALTER|TRUNCATE|EXEC|EXECUTE)\b`)

// SafetyValidator gates statements before execution. It never modifies the
// statement it inspects and holds no state.
type SafetyValidator struct{}

// NewSafetyValidator returns a validator.
func NewSafetyValidator() *SafetyValidator {
	return &SafetyValidator{}
}

// Validate checks the rules in order and reports the first violation:
//  1. a write or DDL verb appears as a whole word (any case)
//  2. a statement separator is followed by more content, or a comment marker appears
//  3. the first keyword is not SELECT, or SELECT ... INTO creates a table
//  4. no row-limiting clause covers the whole result
func (v *SafetyValidator) Validate(query string) models.ValidationVerdict {
	return Validate(query)
}

// Validate is the function form of SafetyValidator.Validate.
func Validate(query string) models.ValidationVerdict {
	if ContainsWriteVerb(query) {
		return models.UnsafeVerdict(models.ReasonWriteVerb)
	}

	stmt := ParseStatement(StripTrailingSemicolon(strings.TrimSpace(query)))
	if hasSeparatorOrComment(stmt) {
		return models.UnsafeVerdict(models.ReasonStatementSeparator)
	}

	if stmt.FirstKeyword() != "SELECT" || stmt.HasTopLevel("INTO") {
		return models.UnsafeVerdict(models.ReasonNotRead)
	}

	if !IsBounded(stmt) {
		return models.UnsafeVerdict(models.ReasonMissingBound)
	}

	return models.SafeVerdict()
}

// ContainsWriteVerb reports whether text contains a denylisted verb as a
// whole word, ignoring case.
func ContainsWriteVerb(text string) bool {
	return writeVerbPattern.MatchString(strings.ToUpper(text))
}

// hasSeparatorOrComment reports a statement separator outside string literals
// (the trailing one has already been stripped) or any comment.
func hasSeparatorOrComment(stmt *Statement) bool {
	for _, t := range stmt.Tokens {
		if t.Kind == TokenComment {
			return true
		}
		if t.Kind == TokenSymbol && t.Text == ";" {
			return true
		}
	}
	return false
}

// IsBounded reports whether the statement limits its result: a top-level TOP
// clause, an OFFSET ... FETCH clause, or a scalar aggregate that yields exactly
// one row. TOP only bounds the first branch of a compound statement, so those
// need OFFSET ... FETCH.
func IsBounded(stmt *Statement) bool {
	if _, ok := stmt.TopClause(); ok && !IsCompound(stmt) {
		return true
	}
	if stmt.HasTopLevel("FETCH", "NEXT") || stmt.HasTopLevel("FETCH", "FIRST") {
		return true
	}
	return IsScalarAggregate(stmt)
}

// IsCompound reports whether result sets are combined at the top level.
func IsCompound(stmt *Statement) bool {
	for _, kw := range []string{"UNION", "INTERSECT", "EXCEPT"} {
		if stmt.HasTopLevel(kw) {
			return true
		}
	}
	return false
}

// IsScalarAggregate reports whether every top-level select item is an
// aggregate and nothing groups or combines result sets.
func IsScalarAggregate(stmt *Statement) bool {
	if stmt.HasTopLevel("GROUP") || IsCompound(stmt) {
		return false
	}
	list, ok := stmt.SelectListSpan()
	if !ok || list.Empty() {
		return false
	}
	for _, item := range stmt.SplitTopLevel(list) {
		if item.Empty() || !stmt.ContainsAggregate(item) || stmt.ContainsWord(item, "OVER") {
			return false
		}
	}
	return true
}

// StripTrailingSemicolon removes one trailing semicolon and surrounding
// trailing whitespace.
func StripTrailingSemicolon(query string) string {
	query = strings.TrimRight(query, " \t\n\r")
	if strings.HasSuffix(query, ";") {
		query = strings.TrimSuffix(query, ";")
		query = strings.TrimRight(query, " \t\n\r")
	}
	return query
}
