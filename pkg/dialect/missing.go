package dialect

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
	sqlparse "github.com/ekaya-inc/welfare-nl2sql/pkg/sql"
)

// insertMissingJoins adds joins for tables that are referenced through their
// catalog alias (or name) but never joined, e.g. "st.name" in a query that
// only reads citizens. Joins follow the shortest catalog relationship path
// from a table already in the query and are appended to the outer FROM
// clause. A reference that uses a catalog alias for a table joined under
// another alias is renamed instead.
func (n *Normalizer) insertMissingJoins(query string) string {
	stmt := sqlparse.ParseStatement(query)
	refs := collectRefs(stmt)

	present := refs.topLevelTables()
	if len(present) == 0 {
		return query
	}
	from, ok := stmt.ClauseSpan("FROM")
	if !ok {
		return query
	}

	joined := make([]joinedTable, 0, len(present))
	for _, r := range present {
		joined = append(joined, joinedTable{table: r.table, alias: r.alias})
	}

	var edits []edit
	var joins []string
	for _, ref := range qualifiedRefs(stmt) {
		if refs.defined(ref.qualifier) {
			continue
		}
		table, ok := n.tableForQualifier(ref.qualifier)
		if !ok {
			continue
		}

		if existing, ok := aliasOf(joined, table); ok {
			if !strings.EqualFold(existing, ref.qualifier) {
				edits = append(edits, edit{start: ref.qualIdx, end: ref.qualIdx + 1, text: existing})
			}
			continue
		}

		clauses, added, ok := n.joinPath(refs, joined, table, ref.qualifier)
		if !ok {
			continue
		}
		joined = append(joined, added...)
		joins = append(joins, clauses...)
	}

	if len(joins) > 0 {
		at := from.End
		for at > from.Start && stmt.Tokens[at-1].Kind == sqlparse.TokenSpace {
			at--
		}
		edits = append(edits, edit{start: at, end: at, text: " " + strings.Join(joins, " ")})
	}
	return applyEdits(stmt, edits)
}

type joinedTable struct {
	table, alias string
}

func aliasOf(joined []joinedTable, table string) (string, bool) {
	for _, j := range joined {
		if j.table == table {
			return j.alias, true
		}
	}
	return "", false
}

func aliasInUse(joined []joinedTable, alias string) bool {
	for _, j := range joined {
		if strings.EqualFold(j.alias, alias) {
			return true
		}
	}
	return false
}

// tableForQualifier maps an undeclared qualifier to a catalog table by alias
// or by table name.
func (n *Normalizer) tableForQualifier(qualifier string) (string, bool) {
	if t, ok := n.catalog.TableByAlias(qualifier); ok {
		return t.Table, true
	}
	if t, ok := n.catalog.Table(qualifier); ok {
		return t.Table, true
	}
	return "", false
}

// joinPath builds the JOIN clauses connecting target, under alias, to the
// nearest joined table. The first joined table wins ties.
func (n *Normalizer) joinPath(refs *refSet, joined []joinedTable, target, alias string) ([]string, []joinedTable, bool) {
	var best []models.JoinStep
	for _, j := range joined {
		path, err := n.catalog.RelationshipPath(j.table, target)
		if err != nil || len(path) == 0 {
			continue
		}
		if best == nil || len(path) < len(best) {
			best = path
		}
	}
	if best == nil {
		return nil, nil, false
	}

	var clauses []string
	var added []joinedTable
	all := append([]joinedTable(nil), joined...)
	for k, step := range best {
		if _, ok := aliasOf(all, step.ToTable); ok {
			continue
		}
		next := n.catalog.AliasOf(step.ToTable)
		if k == len(best)-1 {
			next = alias
		}
		if refs.defined(next) || aliasInUse(all, next) {
			return nil, nil, false
		}
		fromAlias, _ := aliasOf(all, step.FromTable)
		clauses = append(clauses, fmt.Sprintf("JOIN %s %s ON %s.%s = %s.%s",
			step.ToTable, next, fromAlias, step.FromColumn, next, step.ToColumn))
		all = append(all, joinedTable{table: step.ToTable, alias: next})
		added = append(added, joinedTable{table: step.ToTable, alias: next})
	}
	return clauses, added, true
}
