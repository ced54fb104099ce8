// Package dialect rewrites model-generated SQL into SQL Server syntax and
// repairs the schema mistakes models make most often against the welfare
// schema. Rewrites are targeted token-level patches, not a full parse.
package dialect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/catalog"
	sqlparse "github.com/ekaya-inc/welfare-nl2sql/pkg/sql"
)

// Normalizer applies the correction rules in a fixed order. It is stateless
// after construction and safe for concurrent use.
type Normalizer struct {
	catalog       *catalog.Catalog
	substitutions map[columnKey]columnTarget
	rules         []rule
}

type rule struct {
	name  string
	apply func(string) string
}

// New builds a normalizer for the catalog. It fails if a built-in correction
// points at a column the catalog does not have.
func New(cat *catalog.Catalog) (*Normalizer, error) {
	n := &Normalizer{catalog: cat}

	subs, err := buildSubstitutions(cat)
	if err != nil {
		return nil, err
	}
	n.substitutions = subs

	for _, jc := range compositeJoinCorrections {
		for _, pair := range jc.pairs {
			if !cat.HasColumn(jc.left, pair[0]) || !cat.HasColumn(jc.right, pair[1]) {
				return nil, fmt.Errorf("join correction %s/%s: unknown key pair %v", jc.left, jc.right, pair)
			}
		}
	}

	// Order matters for idempotence: later rules never create work for
	// earlier ones.
	n.rules = []rule{
		{"pagination", rewritePagination},
		{"column-substitution", n.substituteColumns},
		{"join-correction", n.correctJoins},
		{"missing-join", n.insertMissingJoins},
		{"qualification", n.qualifyColumns},
		{"group-by", repairGroupBy},
	}
	return n, nil
}

// Normalize returns the corrected statement. It never fails: a rule that
// cannot make sense of its input leaves it unchanged.
func (n *Normalizer) Normalize(query string) string {
	out := sqlparse.StripTrailingSemicolon(strings.TrimSpace(query))
	for _, r := range n.rules {
		out = applyRule(r, out)
	}
	return out
}

// Rules lists rule names in application order.
func (n *Normalizer) Rules() []string {
	names := make([]string, len(n.rules))
	for i, r := range n.rules {
		names[i] = r.name
	}
	return names
}

func applyRule(r rule, query string) (out string) {
	defer func() {
		if recover() != nil {
			out = query
		}
	}()
	return r.apply(query)
}

// edit replaces tokens [start, end) with text.
type edit struct {
	start, end int
	text       string
}

// applyEdits rebuilds the statement with non-overlapping edits applied.
func applyEdits(stmt *sqlparse.Statement, edits []edit) string {
	if len(edits) == 0 {
		return stmt.String()
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var sb strings.Builder
	pos := 0
	for _, e := range edits {
		if e.start < pos {
			continue
		}
		sb.WriteString(sqlparse.Join(stmt.Tokens[pos:e.start]))
		sb.WriteString(e.text)
		pos = e.end
	}
	sb.WriteString(sqlparse.Join(stmt.Tokens[pos:]))
	return sb.String()
}

// columnRef is a qualified reference "qualifier.column" at token positions
// [qualIdx, colIdx].
type columnRef struct {
	qualifier string
	column    string
	qualIdx   int
	colIdx    int
}

// qualifiedRefs finds two-part column references. Three-part names and
// schema-qualified function calls are skipped.
func qualifiedRefs(stmt *sqlparse.Statement) []columnRef {
	toks := stmt.Tokens
	var refs []columnRef
	for i := 0; i+2 < len(toks); i++ {
		if !isIdent(toks[i]) || toks[i+1].Text != "." || !isIdent(toks[i+2]) {
			continue
		}
		if i > 0 && toks[i-1].Text == "." {
			continue
		}
		if i+3 < len(toks) && toks[i+3].Text == "." {
			i += 3
			continue
		}
		if next := stmt.NextSignificant(i + 3); next < len(toks) && toks[next].Text == "(" {
			continue
		}
		refs = append(refs, columnRef{
			qualifier: identName(toks[i]),
			column:    identName(toks[i+2]),
			qualIdx:   i,
			colIdx:    i + 2,
		})
		i += 2
	}
	return refs
}
