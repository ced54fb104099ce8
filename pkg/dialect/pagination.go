package dialect

import (
	"fmt"
	"strconv"
	"strings"

	sqlparse "github.com/ekaya-inc/welfare-nl2sql/pkg/sql"
)

// rewritePagination turns a trailing LIMIT clause into SQL Server syntax:
//
//	LIMIT n            -> SELECT TOP n ...
//	LIMIT n OFFSET m   -> ... ORDER BY ... OFFSET m ROWS FETCH NEXT n ROWS ONLY
//	LIMIT m, n         -> same as LIMIT n OFFSET m
//
// An existing TOP clause wins over LIMIT n. On UNION, INTERSECT or EXCEPT the
// limit applies to the combined result, so it always becomes OFFSET/FETCH and
// a TOP on the first branch is kept as part of that branch. Anything after the
// LIMIT clause other than whitespace leaves the statement unchanged.
func rewritePagination(query string) string {
	stmt := sqlparse.ParseStatement(query)
	toks := stmt.Tokens

	limitIdx := stmt.FindTopLevel(0, "LIMIT")
	if limitIdx < 0 {
		return query
	}

	var nums []int
	var seps []string
	i := stmt.NextSignificant(limitIdx + 1)
	for i < len(toks) {
		t := toks[i]
		switch {
		case t.Kind == sqlparse.TokenNumber && len(nums) == len(seps):
			v, err := strconv.Atoi(t.Text)
			if err != nil {
				return query
			}
			nums = append(nums, v)
		case (t.Text == "," || t.Is("OFFSET")) && len(nums) == 1 && len(seps) == 0:
			seps = append(seps, t.Upper())
		default:
			return query
		}
		i = stmt.NextSignificant(i + 1)
	}
	if len(nums) == 0 || len(nums) != len(seps)+1 {
		return query
	}

	count, offset := nums[0], 0
	if len(seps) == 1 {
		if seps[0] == "," {
			offset, count = nums[0], nums[1]
		} else {
			offset = nums[1]
		}
	}

	// Drop the LIMIT clause and the whitespace in front of it.
	cut := limitIdx
	for cut > 0 && toks[cut-1].Kind == sqlparse.TokenSpace {
		cut--
	}
	head := &sqlparse.Statement{Tokens: toks[:cut]}

	compound := sqlparse.IsCompound(head)
	if offset == 0 && !compound {
		if _, ok := head.TopClause(); ok {
			return head.String()
		}
		return insertTop(head, count)
	}

	var edits []edit
	if top, ok := head.TopClause(); ok && !compound {
		end := top.End
		for end < len(head.Tokens) && head.Tokens[end].Kind == sqlparse.TokenSpace {
			end++
		}
		edits = append(edits, edit{start: top.Start, end: end})
	}
	out := applyEdits(head, edits)
	if !head.HasTopLevel("ORDER", "BY") {
		out += " ORDER BY (SELECT NULL)"
	}
	return out + fmt.Sprintf(" OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", offset, count)
}

// insertTop adds "TOP n" after SELECT [DISTINCT|ALL].
func insertTop(stmt *sqlparse.Statement, n int) string {
	sel := stmt.FindTopLevel(0, "SELECT")
	if sel < 0 {
		return stmt.String()
	}
	at := sel
	if next := stmt.NextSignificant(sel + 1); next < len(stmt.Tokens) {
		if w := strings.ToUpper(stmt.Tokens[next].Text); w == "DISTINCT" || w == "ALL" {
			at = next
		}
	}
	return applyEdits(stmt, []edit{{start: at + 1, end: at + 1, text: fmt.Sprintf(" TOP %d", n)}})
}
