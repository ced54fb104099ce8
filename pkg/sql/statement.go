package sql

import "strings"

// Span is a half-open range of token indexes.
type Span struct {
	Start, End int
}

// Empty reports whether the span covers no tokens.
func (s Span) Empty() bool {
	return s.End <= s.Start
}

// clauseKeywords end a clause when they appear at the top level.
var clauseKeywords = map[string]bool{
	"FROM": true, "WHERE": true, "GROUP": true, "HAVING": true, "ORDER": true,
	"UNION": true, "INTERSECT": true, "EXCEPT": true, "OFFSET": true, "FETCH": true,
	"LIMIT": true, "OPTION": true, "FOR": true, "INTO": true,
}

// aggregateFunctions are the functions that collapse rows.
var aggregateFunctions = map[string]bool{
	"COUNT": true, "COUNT_BIG": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
}

// Statement is a tokenized SQL statement with clause lookup helpers. It does
// not build a syntax tree; clauses are found by top-level keywords.
type Statement struct {
	Tokens []Token
}

// ParseStatement tokenizes query.
func ParseStatement(query string) *Statement {
	return &Statement{Tokens: Tokenize(query)}
}

// String reassembles the statement text.
func (s *Statement) String() string {
	return Join(s.Tokens)
}

// Text returns the source text covered by span.
func (s *Statement) Text(sp Span) string {
	if sp.Empty() {
		return ""
	}
	return Join(s.Tokens[sp.Start:sp.End])
}

// significant reports whether a token carries meaning (not whitespace or comment).
func significant(t Token) bool {
	return t.Kind != TokenSpace && t.Kind != TokenComment
}

// NextSignificant returns the index of the first significant token at or
// after i, or len(Tokens).
func (s *Statement) NextSignificant(i int) int {
	for i < len(s.Tokens) && !significant(s.Tokens[i]) {
		i++
	}
	return i
}

// PrevSignificant returns the index of the last significant token before i,
// or -1.
func (s *Statement) PrevSignificant(i int) int {
	i--
	for i >= 0 && !significant(s.Tokens[i]) {
		i--
	}
	return i
}

// FirstKeyword returns the first significant token in upper case.
func (s *Statement) FirstKeyword() string {
	i := s.NextSignificant(0)
	if i >= len(s.Tokens) {
		return ""
	}
	return s.Tokens[i].Upper()
}

// FindTopLevel returns the index of the first top-level occurrence of the
// keyword sequence at or after start, or -1. Whitespace between the words of
// the sequence is ignored.
func (s *Statement) FindTopLevel(start int, words ...string) int {
	for i := start; i < len(s.Tokens); i++ {
		if s.Tokens[i].Depth == 0 && s.matchesAt(i, words) {
			return i
		}
	}
	return -1
}

// HasTopLevel reports whether the keyword sequence appears at the top level.
func (s *Statement) HasTopLevel(words ...string) bool {
	return s.FindTopLevel(0, words...) >= 0
}

// matchesAt reports whether words appear in sequence starting at token i and
// returns false for an empty sequence.
func (s *Statement) matchesAt(i int, words []string) bool {
	if len(words) == 0 {
		return false
	}
	for k, w := range words {
		if k > 0 {
			i = s.NextSignificant(i + 1)
		}
		if i >= len(s.Tokens) || !s.Tokens[i].Is(w) {
			return false
		}
	}
	return true
}

// skipWords returns the index of the token after the keyword sequence that
// starts at i.
func (s *Statement) skipWords(i int, n int) int {
	for k := 1; k < n; k++ {
		i = s.NextSignificant(i + 1)
	}
	return i + 1
}

// clauseEnd returns the index of the next top-level clause keyword or
// statement separator at or after start.
func (s *Statement) clauseEnd(start int, stop map[string]bool) int {
	for i := start; i < len(s.Tokens); i++ {
		t := s.Tokens[i]
		if t.Depth != 0 {
			continue
		}
		if t.Kind == TokenSymbol && t.Text == ";" {
			return i
		}
		if t.Kind == TokenWord && stop[t.Upper()] {
			return i
		}
	}
	return len(s.Tokens)
}

// SelectListSpan returns the span of the top-level select list, excluding
// DISTINCT/ALL and any TOP clause.
func (s *Statement) SelectListSpan() (Span, bool) {
	sel := s.FindTopLevel(0, "SELECT")
	if sel < 0 {
		return Span{}, false
	}
	i := s.NextSignificant(sel + 1)
	if i < len(s.Tokens) && (s.Tokens[i].Is("DISTINCT") || s.Tokens[i].Is("ALL")) {
		i = s.NextSignificant(i + 1)
	}
	if top, ok := s.TopClause(); ok && top.Start == i {
		i = s.NextSignificant(top.End)
	}
	end := s.clauseEnd(i, clauseKeywords)
	return Span{Start: i, End: end}, true
}

// TopClause returns the span of a top-level TOP clause: TOP n or TOP (n),
// optionally followed by PERCENT and WITH TIES.
func (s *Statement) TopClause() (Span, bool) {
	sel := s.FindTopLevel(0, "SELECT")
	if sel < 0 {
		return Span{}, false
	}
	i := s.NextSignificant(sel + 1)
	if i < len(s.Tokens) && (s.Tokens[i].Is("DISTINCT") || s.Tokens[i].Is("ALL")) {
		i = s.NextSignificant(i + 1)
	}
	if i >= len(s.Tokens) || !s.Tokens[i].Is("TOP") {
		return Span{}, false
	}
	start := i
	i = s.NextSignificant(i + 1)
	switch {
	case i < len(s.Tokens) && s.Tokens[i].Kind == TokenNumber:
		i++
	case i < len(s.Tokens) && s.Tokens[i].Text == "(":
		j := i + 1
		for j < len(s.Tokens) && !(s.Tokens[j].Text == ")" && s.Tokens[j].Depth == s.Tokens[i].Depth) {
			j++
		}
		if j >= len(s.Tokens) {
			return Span{}, false
		}
		i = j + 1
	default:
		return Span{}, false
	}
	if n := s.NextSignificant(i); n < len(s.Tokens) && s.Tokens[n].Is("PERCENT") {
		i = n + 1
	}
	if n := s.NextSignificant(i); s.matchesAt(n, []string{"WITH", "TIES"}) {
		i = s.skipWords(n, 2)
	}
	return Span{Start: start, End: i}, true
}

// ClauseSpan returns the body of the top-level clause introduced by the
// keyword sequence (for example "GROUP", "BY"), up to the next clause.
func (s *Statement) ClauseSpan(words ...string) (Span, bool) {
	i := s.FindTopLevel(0, words...)
	if i < 0 {
		return Span{}, false
	}
	start := s.skipWords(i, len(words))
	stop := clauseKeywords
	if len(words) > 0 && strings.EqualFold(words[0], "FROM") {
		stop = fromClauseStop
	}
	return Span{Start: start, End: s.clauseEnd(start, stop)}, true
}

var fromClauseStop = map[string]bool{
	"WHERE": true, "GROUP": true, "HAVING": true, "ORDER": true, "UNION": true,
	"INTERSECT": true, "EXCEPT": true, "OFFSET": true, "FETCH": true, "LIMIT": true,
	"OPTION": true, "FOR": true,
}

// SplitTopLevel splits span on commas at the span's own depth, trimming
// surrounding whitespace from each part.
func (s *Statement) SplitTopLevel(sp Span) []Span {
	if sp.Empty() {
		return nil
	}
	depth := s.Tokens[sp.Start].Depth
	var parts []Span
	start := sp.Start
	for i := sp.Start; i < sp.End; i++ {
		t := s.Tokens[i]
		if t.Kind == TokenSymbol && t.Text == "," && t.Depth == depth {
			parts = append(parts, s.trim(Span{Start: start, End: i}))
			start = i + 1
		}
	}
	parts = append(parts, s.trim(Span{Start: start, End: sp.End}))
	return parts
}

func (s *Statement) trim(sp Span) Span {
	for sp.Start < sp.End && !significant(s.Tokens[sp.Start]) {
		sp.Start++
	}
	for sp.End > sp.Start && !significant(s.Tokens[sp.End-1]) {
		sp.End--
	}
	return sp
}

// ContainsAggregate reports whether span calls an aggregate function.
func (s *Statement) ContainsAggregate(sp Span) bool {
	for i := sp.Start; i < sp.End; i++ {
		t := s.Tokens[i]
		if t.Kind != TokenWord || !aggregateFunctions[t.Upper()] {
			continue
		}
		if n := s.NextSignificant(i + 1); n < sp.End && s.Tokens[n].Text == "(" {
			return true
		}
	}
	return false
}

// ContainsWord reports whether span contains the keyword at any depth.
func (s *Statement) ContainsWord(sp Span, word string) bool {
	for i := sp.Start; i < sp.End; i++ {
		if s.Tokens[i].Is(word) {
			return true
		}
	}
	return false
}
