package sql

import (
	"strings"
	"unicode"
)

// TokenKind classifies a lexical token.
type TokenKind int

const (
	TokenSpace TokenKind = iota
	TokenWord
	TokenNumber
	TokenString
	TokenQuotedIdent
	TokenComment
	TokenSymbol
)

// Token is a lexical unit of a SQL statement. Depth is the parenthesis depth
// the token sits at; both parentheses of a pair carry the outer depth.
type Token struct {
	Kind  TokenKind
	Text  string
	Pos   int
	Depth int
}

// Is reports whether t is the word kw, ignoring case.
func (t Token) Is(kw string) bool {
	return t.Kind == TokenWord && strings.EqualFold(t.Text, kw)
}

// Upper returns the token text in upper case.
func (t Token) Upper() string {
	return strings.ToUpper(t.Text)
}

// Tokenize splits a statement into tokens. Concatenating the token texts
// reproduces the input exactly. Unterminated strings and comments run to the
// end of the input.
func Tokenize(query string) []Token {
	var tokens []Token
	runes := []rune(query)
	depth := 0
	offset := 0

	emit := func(kind TokenKind, start, end int, d int) {
		text := string(runes[start:end])
		tokens = append(tokens, Token{Kind: kind, Text: text, Pos: offset, Depth: d})
		offset += len(text)
	}

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			j := i
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			emit(TokenSpace, i, j, depth)
			i = j

		case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			j := i
			for j < len(runes) && runes[j] != '\n' {
				j++
			}
			emit(TokenComment, i, j, depth)
			i = j

		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			j := i + 2
			for j < len(runes) && !(runes[j] == '*' && j+1 < len(runes) && runes[j+1] == '/') {
				j++
			}
			if j < len(runes) {
				j += 2
			}
			emit(TokenComment, i, j, depth)
			i = j

		case r == '\'':
			j := scanQuoted(runes, i, '\'')
			emit(TokenString, i, j, depth)
			i = j

		case r == '"':
			j := scanQuoted(runes, i, '"')
			emit(TokenQuotedIdent, i, j, depth)
			i = j

		case r == '[':
			j := i + 1
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if j < len(runes) {
				j++
			}
			emit(TokenQuotedIdent, i, j, depth)
			i = j

		case isWordStart(r):
			j := i + 1
			for j < len(runes) && isWordPart(runes[j]) {
				j++
			}
			emit(TokenWord, i, j, depth)
			i = j

		case unicode.IsDigit(r):
			j := i + 1
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			emit(TokenNumber, i, j, depth)
			i = j

		case r == '(':
			emit(TokenSymbol, i, i+1, depth)
			depth++
			i++

		case r == ')':
			if depth > 0 {
				depth--
			}
			emit(TokenSymbol, i, i+1, depth)
			i++

		default:
			j := i + 1
			if j < len(runes) && isCompoundOperator(r, runes[j]) {
				j++
			}
			emit(TokenSymbol, i, j, depth)
			i = j
		}
	}

	return tokens
}

// scanQuoted returns the index just past the closing quote. A doubled quote
// stays inside the literal; T-SQL has no backslash escape, so '\' is a
// complete literal.
func scanQuoted(runes []rune, start int, quote rune) int {
	j := start + 1
	for j < len(runes) {
		switch {
		case runes[j] == quote && j+1 < len(runes) && runes[j+1] == quote:
			j += 2
		case runes[j] == quote:
			return j + 1
		default:
			j++
		}
	}
	return j
}

func isWordStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '@' || r == '#'
}

func isWordPart(r rune) bool {
	return isWordStart(r) || unicode.IsDigit(r) || r == '$'
}

func isCompoundOperator(a, b rune) bool {
	switch string([]rune{a, b}) {
	case "<=", ">=", "<>", "!=":
		return true
	}
	return false
}

// Join concatenates token texts.
func Join(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Text)
	}
	return sb.String()
}
