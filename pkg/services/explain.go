package services

import (
	"strings"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
	sqlparse "github.com/ekaya-inc/welfare-nl2sql/pkg/sql"
)

var aggregateOperations = []struct {
	Function  string
	Operation string
}{
	{"COUNT", "Count records"},
	{"SUM", "Calculate totals"},
	{"AVG", "Calculate averages"},
	{"MIN", "Find minimum values"},
	{"MAX", "Find maximum values"},
}

// Explain describes a SELECT statement in plain English.
//
// Example:
//
//	Explain("SELECT TOP 10 c.name FROM citizens c WHERE c.age > 60 ORDER BY c.age DESC").Summary
//	// "This query retrieves data from citizens where c.age > 60, sorted by c.age DESC, limited to 10 records."
func Explain(query string) models.Explanation {
	stmt := sqlparse.ParseStatement(sqlparse.StripTrailingSemicolon(strings.TrimSpace(query)))
	exp := models.Explanation{Tables: tablesOf(stmt)}
	if exp.Tables == nil {
		exp.Tables = []string{}
	}

	if list, ok := stmt.SelectListSpan(); ok {
		for _, agg := range aggregateOperations {
			if containsCall(stmt, list, agg.Function) {
				exp.Operations = append(exp.Operations, agg.Operation)
			}
		}
		if sel := stmt.FindTopLevel(0, "SELECT"); sel >= 0 {
			if n := stmt.NextSignificant(sel + 1); n < len(stmt.Tokens) && stmt.Tokens[n].Is("DISTINCT") {
				exp.Operations = append(exp.Operations, "Remove duplicate rows")
			}
		}
	}
	if len(exp.Tables) > 1 {
		exp.Operations = append(exp.Operations, "Join "+strings.Join(exp.Tables, ", "))
	}
	if sp, ok := stmt.ClauseSpan("GROUP", "BY"); ok {
		exp.Operations = append(exp.Operations, "Group results by "+clauseText(stmt, sp))
	}
	if sp, ok := stmt.ClauseSpan("HAVING"); ok {
		exp.Operations = append(exp.Operations, "Keep groups where "+clauseText(stmt, sp))
	}

	if sp, ok := stmt.ClauseSpan("WHERE"); ok {
		exp.Filters = clauseText(stmt, sp)
	}
	if sp, ok := stmt.ClauseSpan("ORDER", "BY"); ok {
		exp.Ordering = clauseText(stmt, sp)
	}
	exp.Limit = limitOf(stmt)

	exp.Summary = explanationSummary(exp)
	return exp
}

func containsCall(stmt *sqlparse.Statement, sp sqlparse.Span, function string) bool {
	for i := sp.Start; i < sp.End; i++ {
		if !stmt.Tokens[i].Is(function) {
			continue
		}
		if n := stmt.NextSignificant(i + 1); n < sp.End && stmt.Tokens[n].Text == "(" {
			return true
		}
	}
	return false
}

func clauseText(stmt *sqlparse.Statement, sp sqlparse.Span) string {
	return strings.Join(strings.Fields(stmt.Text(sp)), " ")
}

// limitOf returns the row count of a TOP or FETCH clause.
func limitOf(stmt *sqlparse.Statement) string {
	if sp, ok := stmt.TopClause(); ok {
		text := strings.TrimSpace(stmt.Text(sp))
		text = strings.TrimSpace(text[len("TOP"):])
		return strings.Trim(strings.Fields(text)[0], "()")
	}
	if sp, ok := stmt.ClauseSpan("FETCH"); ok {
		for i := sp.Start; i < sp.End; i++ {
			if stmt.Tokens[i].Kind == sqlparse.TokenNumber {
				return stmt.Tokens[i].Text
			}
		}
	}
	return ""
}

func explanationSummary(exp models.Explanation) string {
	var b strings.Builder
	b.WriteString("This query ")

	verb := "retrieves data"
	for _, op := range exp.Operations {
		if op == "Count records" {
			verb = "counts records"
			break
		}
		if strings.HasPrefix(op, "Calculate") {
			verb = "calculates " + strings.ToLower(strings.TrimPrefix(op, "Calculate "))
			break
		}
	}
	b.WriteString(verb)

	if len(exp.Tables) > 0 {
		b.WriteString(" from ")
		b.WriteString(strings.Join(exp.Tables, ", "))
	}
	if exp.Filters != "" {
		b.WriteString(" where ")
		b.WriteString(exp.Filters)
	}
	if exp.Ordering != "" {
		b.WriteString(", sorted by ")
		b.WriteString(exp.Ordering)
	}
	if exp.Limit != "" {
		b.WriteString(", limited to ")
		b.WriteString(exp.Limit)
		b.WriteString(" records")
	}
	b.WriteString(".")
	return b.String()
}
