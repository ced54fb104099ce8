package dialect

import (
	"strings"

	sqlparse "github.com/ekaya-inc/welfare-nl2sql/pkg/sql"
)

// ambiguousColumns are column names shared by several welfare tables. A bare
// reference is qualified only when more than one joined table has the column.
var ambiguousColumns = map[string]bool{
	"name": true, "citizen_id": true, "scheme_id": true, "village_id": true,
	"district_id": true, "state_id": true, "email": true, "status": true, "gender": true,
}

// legacyColumns are bare names from older schema versions and where their
// data lives now.
var legacyColumns = map[string]columnTarget{
	"scheme_name":       {"schemes", "name"},
	"citizen_name":      {"citizens", "name"},
	"village_name":      {"villages", "name"},
	"district_name":     {"districts", "name"},
	"state_name":        {"states", "name"},
	"officer_name":      {"officers", "name"},
	"disbursement_date": {"disbursements", "disbursed_on"},
	"enrolled_on":       {"enrollments", "enrollment_date"},
}

// qualifyColumns prefixes ambiguous and legacy bare column names with the
// alias of the joined table that owns them. Aliases defined in the select
// list are never touched.
func (n *Normalizer) qualifyColumns(query string) string {
	stmt := sqlparse.ParseStatement(query)
	refs := collectRefs(stmt)
	tables := refs.topLevelTables()
	if len(tables) == 0 {
		return query
	}

	selectAliases := make(map[string]bool)
	for _, col := range stmt.SelectColumns() {
		if col.Alias != "" {
			selectAliases[strings.ToLower(col.Alias)] = true
		}
	}

	var edits []edit
	for i, t := range stmt.Tokens {
		if t.Kind != sqlparse.TokenWord || !n.isBareColumn(stmt, i) {
			continue
		}
		word := strings.ToLower(t.Text)
		if selectAliases[word] || refs.defined(word) {
			continue
		}

		if target, ok := legacyColumns[word]; ok {
			if alias, joined := refs.aliasFor(target.table); joined {
				edits = append(edits, edit{start: i, end: i + 1, text: alias + "." + target.column})
			}
			continue
		}

		if !ambiguousColumns[word] || len(tables) < 2 {
			continue
		}
		var owners []tableRef
		for _, r := range tables {
			if n.catalog.HasColumn(r.table, word) {
				owners = append(owners, r)
			}
		}
		if len(owners) < 2 {
			continue
		}
		edits = append(edits, edit{start: i, end: i + 1, text: owners[0].alias + "." + t.Text})
	}
	return applyEdits(stmt, edits)
}

// isBareColumn reports whether the word at i is used as an unqualified column:
// not part of a dotted name, not a function call, not an alias definition and
// not a table reference.
func (n *Normalizer) isBareColumn(stmt *sqlparse.Statement, i int) bool {
	toks := stmt.Tokens
	if i > 0 && toks[i-1].Text == "." {
		return false
	}
	if i+1 < len(toks) && toks[i+1].Text == "." {
		return false
	}
	if next := stmt.NextSignificant(i + 1); next < len(toks) && toks[next].Text == "(" {
		return false
	}
	if prev := stmt.PrevSignificant(i); prev >= 0 {
		p := toks[prev]
		if p.Is("AS") || p.Is("FROM") || p.Is("JOIN") {
			return false
		}
	}
	return true
}
