package dialect

import (
	"strings"

	sqlparse "github.com/ekaya-inc/welfare-nl2sql/pkg/sql"
)

// tableRef is a table (or derived table) named in a FROM or JOIN clause.
type tableRef struct {
	table    string // lower-case table name without schema, empty for derived tables
	alias    string // alias as written, or the table name when no alias is given
	depth    int
	joinIdx  int // index of the JOIN keyword (or first join-type word); -1 for FROM items
	nameIdx  int // index of the table name token
	endIdx   int // index just past the reference (after the alias, if any)
	topLevel bool
}

// refSet indexes the table references of one statement.
type refSet struct {
	refs    []tableRef
	byAlias map[string]string
}

// notAliases are words that may follow a table name without being its alias.
var notAliases = map[string]bool{
	"ON": true, "JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true, "FULL": true,
	"OUTER": true, "CROSS": true, "WHERE": true, "GROUP": true, "HAVING": true, "ORDER": true,
	"UNION": true, "INTERSECT": true, "EXCEPT": true, "OFFSET": true, "FETCH": true,
	"LIMIT": true, "OPTION": true, "FOR": true, "WITH": true, "APPLY": true,
}

// joinTypeWords may precede JOIN.
var joinTypeWords = map[string]bool{
	"INNER": true, "LEFT": true, "RIGHT": true, "FULL": true, "OUTER": true, "CROSS": true,
}

func collectRefs(stmt *sqlparse.Statement) *refSet {
	rs := &refSet{byAlias: make(map[string]string)}
	toks := stmt.Tokens

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch {
		case t.Is("FROM"):
			next := stmt.NextSignificant(i + 1)
			for {
				ref, end, ok := parseRef(stmt, next, -1, t.Depth)
				if !ok {
					break
				}
				rs.add(ref)
				comma := stmt.NextSignificant(end)
				if comma >= len(toks) || toks[comma].Text != "," || toks[comma].Depth != t.Depth {
					break
				}
				next = stmt.NextSignificant(comma + 1)
			}
		case t.Is("JOIN"):
			joinIdx := i
			for p := stmt.PrevSignificant(i); p >= 0 && joinTypeWords[toks[p].Upper()]; p = stmt.PrevSignificant(p) {
				joinIdx = p
			}
			if ref, _, ok := parseRef(stmt, stmt.NextSignificant(i+1), joinIdx, t.Depth); ok {
				rs.add(ref)
			}
		}
	}
	return rs
}

// parseRef reads "[schema.]table [[AS] alias]" or "(subquery) [AS] alias"
// starting at token i.
func parseRef(stmt *sqlparse.Statement, i, joinIdx, depth int) (tableRef, int, bool) {
	toks := stmt.Tokens
	if i >= len(toks) {
		return tableRef{}, i, false
	}

	ref := tableRef{depth: depth, joinIdx: joinIdx, nameIdx: i, topLevel: depth == 0}
	end := i + 1

	switch {
	case toks[i].Text == "(":
		j := i + 1
		for j < len(toks) && !(toks[j].Text == ")" && toks[j].Depth == toks[i].Depth) {
			j++
		}
		if j >= len(toks) {
			return tableRef{}, i, false
		}
		end = j + 1
	case isIdent(toks[i]):
		ref.table = identName(toks[i])
		// schema-qualified: dbo.citizens
		for {
			dot := end
			if dot+1 < len(toks) && toks[dot].Text == "." && isIdent(toks[dot+1]) {
				ref.table = identName(toks[dot+1])
				ref.nameIdx = dot + 1
				end = dot + 2
				continue
			}
			break
		}
		ref.alias = ref.table
	default:
		return tableRef{}, i, false
	}

	n := stmt.NextSignificant(end)
	if n < len(toks) && toks[n].Is("AS") {
		n = stmt.NextSignificant(n + 1)
	}
	if n < len(toks) && isIdent(toks[n]) && !notAliases[toks[n].Upper()] {
		ref.alias = identName(toks[n])
		end = n + 1
	}
	ref.endIdx = end

	if ref.table == "" && ref.alias == "" {
		return tableRef{}, i, false
	}
	return ref, end, true
}

func isIdent(t sqlparse.Token) bool {
	return t.Kind == sqlparse.TokenWord || t.Kind == sqlparse.TokenQuotedIdent
}

func identName(t sqlparse.Token) string {
	return strings.ToLower(strings.Trim(t.Text, "\"[]`"))
}

func (rs *refSet) add(ref tableRef) {
	rs.refs = append(rs.refs, ref)
	if _, exists := rs.byAlias[ref.alias]; !exists {
		rs.byAlias[ref.alias] = ref.table
	}
	// The bare table name of an aliased table still identifies it, even
	// though SQL Server rejects that spelling.
	if ref.table != "" && ref.table != ref.alias {
		if _, exists := rs.byAlias[ref.table]; !exists {
			rs.byAlias[ref.table] = ref.table
		}
	}
}

// resolve maps a qualifier to the table it names in this statement. Derived
// tables resolve to an empty name.
func (rs *refSet) resolve(qualifier string) (string, bool) {
	table, ok := rs.byAlias[strings.ToLower(qualifier)]
	return table, ok
}

// defined reports whether qualifier is an alias or table name in the statement.
func (rs *refSet) defined(qualifier string) bool {
	_, ok := rs.byAlias[strings.ToLower(qualifier)]
	return ok
}

// aliasFor returns the alias of the first top-level reference to table.
func (rs *refSet) aliasFor(table string) (string, bool) {
	for _, r := range rs.refs {
		if r.topLevel && r.table == table {
			return r.alias, true
		}
	}
	return "", false
}

// topLevelTables lists the distinct known tables of the outer query in FROM order.
func (rs *refSet) topLevelTables() []tableRef {
	var out []tableRef
	seen := make(map[string]bool)
	for _, r := range rs.refs {
		if !r.topLevel || r.table == "" || seen[r.table] {
			continue
		}
		seen[r.table] = true
		out = append(out, r)
	}
	return out
}
