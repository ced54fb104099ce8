package dialect

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
	sqlparse "github.com/ekaya-inc/welfare-nl2sql/pkg/sql"
)

// compositeJoinCorrection fixes a join on an invented key between two tables
// that actually share a composite key.
type compositeJoinCorrection struct {
	left, right string
	pairs       [][2]string
}

// Disbursements have no enrollment_id; they match an enrollment on
// (citizen_id, scheme_id).
var compositeJoinCorrections = []compositeJoinCorrection{
	{
		left:  "disbursements",
		right: "enrollments",
		pairs: [][2]string{{"citizen_id", "citizen_id"}, {"scheme_id", "scheme_id"}},
	},
}

// predicate is "a.x = b.y" spanning tokens [start, end).
type predicate struct {
	left, right columnRef
	start, end  int
}

func equalityPredicates(stmt *sqlparse.Statement) []predicate {
	refs := qualifiedRefs(stmt)
	var preds []predicate
	for k := 0; k+1 < len(refs); k++ {
		l, r := refs[k], refs[k+1]
		eq := stmt.NextSignificant(l.colIdx + 1)
		if eq >= len(stmt.Tokens) || stmt.Tokens[eq].Text != "=" {
			continue
		}
		if stmt.NextSignificant(eq+1) != r.qualIdx {
			continue
		}
		preds = append(preds, predicate{left: l, right: r, start: l.qualIdx, end: r.colIdx + 1})
		k++
	}
	return preds
}

// correctJoins rewrites equality predicates that join two tables through a
// column one of them does not have:
//   - tables with a known composite key get the composite predicate
//   - directly related tables get their foreign-key predicate
//   - a JOIN ... ON whose tables are only related through others is routed
//     through the catalog relationship path, adding the intermediate joins
func (n *Normalizer) correctJoins(query string) string {
	stmt := sqlparse.ParseStatement(query)
	refs := collectRefs(stmt)

	var edits []edit
	for _, p := range equalityPredicates(stmt) {
		lt, lok := refs.resolve(p.left.qualifier)
		rt, rok := refs.resolve(p.right.qualifier)
		if !lok || !rok || lt == "" || rt == "" || lt == rt {
			continue
		}
		if n.catalog.HasColumn(lt, p.left.column) && n.catalog.HasColumn(rt, p.right.column) {
			continue
		}

		lq := stmt.Tokens[p.left.qualIdx].Text
		rq := stmt.Tokens[p.right.qualIdx].Text

		if text, ok := compositePredicate(lt, lq, rt, rq); ok {
			edits = append(edits, edit{start: p.start, end: p.end, text: text})
			continue
		}

		path, err := n.catalog.RelationshipPath(lt, rt)
		if err != nil {
			continue
		}
		if len(path) == 1 {
			step := path[0]
			edits = append(edits, edit{
				start: p.start,
				end:   p.end,
				text:  fmt.Sprintf("%s.%s = %s.%s", lq, step.FromColumn, rq, step.ToColumn),
			})
			continue
		}

		if e, ok := n.routeJoin(stmt, refs, p, lt, lq, rt, rq, path); ok {
			edits = append(edits, e...)
		}
	}
	return applyEdits(stmt, edits)
}

func compositePredicate(lt, lq, rt, rq string) (string, bool) {
	for _, jc := range compositeJoinCorrections {
		var conds []string
		switch {
		case jc.left == lt && jc.right == rt:
			for _, pair := range jc.pairs {
				conds = append(conds, fmt.Sprintf("%s.%s = %s.%s", lq, pair[0], rq, pair[1]))
			}
		case jc.left == rt && jc.right == lt:
			for _, pair := range jc.pairs {
				conds = append(conds, fmt.Sprintf("%s.%s = %s.%s", lq, pair[1], rq, pair[0]))
			}
		default:
			continue
		}
		return strings.Join(conds, " AND "), true
	}
	return "", false
}

// routeJoin handles "JOIN <joined> ON <pred>" where the joined table is only
// reachable through intermediate tables. The intermediate joins are inserted
// in front of the JOIN keyword and the predicate is rewritten to the last hop.
func (n *Normalizer) routeJoin(stmt *sqlparse.Statement, refs *refSet, p predicate,
	lt, lq, rt, rq string, path []models.JoinStep) ([]edit, bool) {

	on := stmt.PrevSignificant(p.start)
	if on < 0 || !stmt.Tokens[on].Is("ON") {
		return nil, false
	}
	if after := stmt.NextSignificant(p.end); after < len(stmt.Tokens) {
		if t := stmt.Tokens[after]; t.Is("AND") || t.Is("OR") {
			return nil, false
		}
	}

	// Find the JOIN whose ON clause this is.
	var joined *tableRef
	for i := range refs.refs {
		r := &refs.refs[i]
		if r.joinIdx >= 0 && stmt.NextSignificant(r.endIdx) == on {
			joined = r
			break
		}
	}
	if joined == nil {
		return nil, false
	}

	// Orient the path so it ends at the joined table.
	fromAlias := lq
	if joined.table == lt {
		reversed, err := n.catalog.RelationshipPath(rt, lt)
		if err != nil {
			return nil, false
		}
		path = reversed
		fromAlias = rq
	} else if joined.table != rt {
		return nil, false
	}

	joinKeyword := keywordText(stmt, joined.joinIdx)

	var inserted []string
	alias := fromAlias
	for _, step := range path[:len(path)-1] {
		if existing, ok := refs.aliasFor(step.ToTable); ok {
			alias = existing
			continue
		}
		next := n.catalog.AliasOf(step.ToTable)
		if refs.defined(next) {
			return nil, false
		}
		inserted = append(inserted, fmt.Sprintf("%s %s %s ON %s.%s = %s.%s",
			joinKeyword, step.ToTable, next, alias, step.FromColumn, next, step.ToColumn))
		alias = next
	}

	last := path[len(path)-1]
	edits := []edit{{
		start: p.start,
		end:   p.end,
		text:  fmt.Sprintf("%s.%s = %s.%s", alias, last.FromColumn, joined.alias, last.ToColumn),
	}}
	if len(inserted) > 0 {
		edits = append(edits, edit{
			start: joined.joinIdx,
			end:   joined.joinIdx,
			text:  strings.Join(inserted, " ") + " ",
		})
	}
	return edits, true
}

// keywordText returns the join keyword run ("LEFT OUTER JOIN") starting at i,
// normalized to single spaces.
func keywordText(stmt *sqlparse.Statement, i int) string {
	var words []string
	for i < len(stmt.Tokens) {
		t := stmt.Tokens[i]
		words = append(words, t.Text)
		if t.Is("JOIN") {
			break
		}
		i = stmt.NextSignificant(i + 1)
	}
	return strings.Join(words, " ")
}
