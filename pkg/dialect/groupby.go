package dialect

import (
	"strings"

	sqlparse "github.com/ekaya-inc/welfare-nl2sql/pkg/sql"
)

// repairGroupBy makes an existing GROUP BY clause complete for SQL Server:
// every non-aggregate select expression not already present (by substring
// match) is appended, and GROUP BY references to select-list aliases are
// replaced with the aliased expression. A statement without GROUP BY is left
// alone.
func repairGroupBy(query string) string {
	stmt := sqlparse.ParseStatement(query)
	group, ok := stmt.ClauseSpan("GROUP", "BY")
	if !ok || group.Empty() {
		return query
	}

	columns := stmt.SelectColumns()
	if len(columns) == 0 {
		return query
	}

	aliased := make(map[string]string)
	for _, col := range columns {
		if col.Alias == "" || col.Aggregate {
			continue
		}
		alias := strings.ToLower(col.Alias)
		if alias == strings.ToLower(bareName(col.Expr)) {
			continue
		}
		aliased[alias] = col.Expr
	}

	var items []string
	changed := false
	for _, sp := range stmt.SplitTopLevel(group) {
		text := stmt.Text(sp)
		if expr, ok := aliased[strings.ToLower(strings.Trim(text, "[]\""))]; ok {
			text = expr
			changed = true
		}
		if text != "" {
			items = append(items, text)
		}
	}

	for _, col := range columns {
		if !needsGrouping(col) {
			continue
		}
		current := strings.ToLower(strings.Join(items, ", "))
		if strings.Contains(current, strings.ToLower(col.Expr)) {
			continue
		}
		items = append(items, col.Expr)
		changed = true
	}

	if !changed {
		return query
	}

	// Keep the whitespace around the clause body as written.
	body := stmt.Text(group)
	lead := body[:len(body)-len(strings.TrimLeft(body, " \t\r\n"))]
	trail := body[len(strings.TrimRight(body, " \t\r\n")):]
	if lead == "" {
		lead = " "
	}
	return applyEdits(stmt, []edit{{
		start: group.Start,
		end:   group.End,
		text:  lead + strings.Join(items, ", ") + trail,
	}})
}

// needsGrouping reports whether a select expression must appear in GROUP BY.
func needsGrouping(col sqlparse.ParsedColumn) bool {
	if col.Aggregate {
		return false
	}
	expr := strings.TrimSpace(col.Expr)
	if expr == "" || expr == "*" || strings.HasSuffix(expr, ".*") {
		return false
	}
	upper := strings.ToUpper(expr)
	switch {
	case strings.HasPrefix(expr, "'") || strings.HasPrefix(upper, "N'"):
		return false
	case upper == "NULL":
		return false
	case isNumeric(expr):
		return false
	case strings.HasPrefix(expr, "(") && strings.Contains(upper, "SELECT"):
		return false
	case strings.Contains(upper, " OVER"):
		return false
	}
	return true
}

func isNumeric(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != '-' {
			return false
		}
	}
	return s != ""
}

// bareName strips a table qualifier: "c.gender" -> "gender".
func bareName(expr string) string {
	if i := strings.LastIndex(expr, "."); i >= 0 {
		return expr[i+1:]
	}
	return expr
}
