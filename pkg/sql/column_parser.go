package sql

import (
	"regexp"
	"strings"
)

// ParsedColumn represents a column extracted from a SELECT statement.
type ParsedColumn struct {
	Name      string // The column name or alias, lower case
	Expr      string // The expression without its alias (e.g., "SUM(d.amount)")
	Alias     string // Explicit or implicit alias as written, empty if none
	Aggregate bool   // Expression calls COUNT/SUM/AVG/MIN/MAX
}

// ParseSelectColumns extracts the top-level select list of a statement.
// It handles:
// - Simple columns: SELECT id, name
// - Aliased columns: SELECT name AS customer_name, COUNT(*) AS total
// - Functions: SELECT SUM(amount), MAX(price)
// - Table-qualified columns: SELECT u.name, o.total
// - TOP and DISTINCT prefixes
//
// SELECT * yields no columns since names cannot be known without a schema.
func ParseSelectColumns(query string) []ParsedColumn {
	stmt := ParseStatement(query)
	return stmt.SelectColumns()
}

// SelectColumns parses the statement's top-level select list.
func (s *Statement) SelectColumns() []ParsedColumn {
	list, ok := s.SelectListSpan()
	if !ok || list.Empty() {
		return nil
	}

	var result []ParsedColumn
	for _, item := range s.SplitTopLevel(list) {
		if item.Empty() {
			continue
		}
		if strings.TrimSpace(s.Text(item)) == "*" {
			return nil
		}
		result = append(result, s.parseColumnExpression(item))
	}
	return result
}

// parseColumnExpression parses a single select item to extract the name/alias.
// Examples:
//   - "name" → name
//   - "u.name" → name
//   - "name AS customer_name" → customer_name
//   - "COUNT(*)" → count
//   - "SUM(amount) AS total" → total
//   - "COUNT(*) total" → total
func (s *Statement) parseColumnExpression(item Span) ParsedColumn {
	col := ParsedColumn{Aggregate: s.ContainsAggregate(item)}

	last := s.PrevSignificant(item.End)
	if last > item.Start && isAliasToken(s.Tokens[last]) {
		before := s.PrevSignificant(last)
		switch {
		case before >= item.Start && s.Tokens[before].Is("AS"):
			col.Alias = unquoteIdent(s.Tokens[last].Text)
			col.Expr = strings.TrimSpace(s.Text(Span{Start: item.Start, End: before}))
		case before >= item.Start && impliesAlias(s.Tokens[before]):
			col.Alias = unquoteIdent(s.Tokens[last].Text)
			col.Expr = strings.TrimSpace(s.Text(Span{Start: item.Start, End: last}))
		}
	}
	if col.Alias != "" {
		col.Name = strings.ToLower(col.Alias)
		return col
	}

	col.Expr = strings.TrimSpace(s.Text(item))
	col.Name = extractColumnName(col.Expr)
	return col
}

func isAliasToken(t Token) bool {
	if t.Kind == TokenQuotedIdent {
		return true
	}
	return t.Kind == TokenWord && !reservedAfterExpression[t.Upper()]
}

// impliesAlias reports whether a word following tok is an implicit alias
// ("COUNT(*) total", "c.name citizen") rather than part of the expression.
func impliesAlias(tok Token) bool {
	if tok.Kind == TokenSymbol {
		return tok.Text == ")"
	}
	return tok.Kind == TokenWord || tok.Kind == TokenQuotedIdent
}

// reservedAfterExpression are words that end an expression rather than alias it.
var reservedAfterExpression = map[string]bool{
	"END": true, "NULL": true, "AND": true, "OR": true, "AS": true, "ASC": true, "DESC": true,
	"FROM": true, "WHERE": true, "THEN": true, "ELSE": true,
}

func unquoteIdent(s string) string {
	return strings.Trim(s, "`\"[]")
}

var (
	funcNamePattern = regexp.MustCompile(`^(\w+)\s*\(`)
	nonWordPattern  = regexp.MustCompile(`[^\w]`)
)

// extractColumnName extracts a column name from an expression.
func extractColumnName(expr string) string {
	expr = strings.TrimSpace(expr)

	// Handle function calls - extract function name
	// Example: "COUNT(*)" → "count", "SUM(amount)" → "sum"
	if matches := funcNamePattern.FindStringSubmatch(expr); matches != nil {
		return strings.ToLower(matches[1])
	}

	// Remove table qualifiers (e.g., "users.name" → "name")
	if dotIdx := strings.LastIndex(expr, "."); dotIdx != -1 {
		expr = expr[dotIdx+1:]
	}

	if strings.HasPrefix(strings.ToLower(expr), "case") {
		return "case_result"
	}

	name := strings.TrimSpace(unquoteIdent(expr))
	name = nonWordPattern.ReplaceAllString(name, "")

	return strings.ToLower(name)
}
