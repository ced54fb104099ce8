package dialect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/catalog"
	sqlparse "github.com/ekaya-inc/welfare-nl2sql/pkg/sql"
)

type columnKey struct {
	table, column string
}

type columnTarget struct {
	table, column string
}

// hallucinatedColumns maps columns models invent for the welfare schema to
// the column that actually holds the value. Location and health attributes
// are asked about as if they lived on citizens.
var hallucinatedColumns = []struct {
	from columnKey
	to   columnTarget
}{
	{columnKey{"citizens", "state"}, columnTarget{"states", "name"}},
	{columnKey{"citizens", "state_name"}, columnTarget{"states", "name"}},
	{columnKey{"citizens", "district"}, columnTarget{"districts", "name"}},
	{columnKey{"citizens", "district_name"}, columnTarget{"districts", "name"}},
	{columnKey{"citizens", "village"}, columnTarget{"villages", "name"}},
	{columnKey{"citizens", "village_name"}, columnTarget{"villages", "name"}},
	{columnKey{"citizens", "disability"}, columnTarget{"health_details", "disability_status"}},
	{columnKey{"citizens", "disability_status"}, columnTarget{"health_details", "disability_status"}},
	{columnKey{"citizens", "disability_percentage"}, columnTarget{"health_details", "disability_status"}},
	{columnKey{"citizens", "chronic_conditions"}, columnTarget{"health_details", "chronic_conditions"}},
	{columnKey{"citizens", "bank_account"}, columnTarget{"bank_accounts", "account_no"}},
	{columnKey{"citizens", "account_no"}, columnTarget{"bank_accounts", "account_no"}},
	{columnKey{"citizens", "bank_name"}, columnTarget{"bank_accounts", "bank_name"}},
	{columnKey{"citizens", "phone"}, columnTarget{"citizens", "mobile_no"}},
	{columnKey{"citizens", "phone_no"}, columnTarget{"citizens", "mobile_no"}},
	{columnKey{"citizens", "mobile"}, columnTarget{"citizens", "mobile_no"}},
	{columnKey{"citizens", "citizen_name"}, columnTarget{"citizens", "name"}},
	{columnKey{"health_details", "disability_percentage"}, columnTarget{"health_details", "disability_status"}},
	{columnKey{"schemes", "scheme_name"}, columnTarget{"schemes", "name"}},
	{columnKey{"villages", "village_name"}, columnTarget{"villages", "name"}},
	{columnKey{"districts", "district_name"}, columnTarget{"districts", "name"}},
	{columnKey{"states", "state_name"}, columnTarget{"states", "name"}},
	{columnKey{"officers", "officer_name"}, columnTarget{"officers", "name"}},
	{columnKey{"officers", "department"}, columnTarget{"officers", "designation"}},
	{columnKey{"disbursements", "disbursement_date"}, columnTarget{"disbursements", "disbursed_on"}},
	{columnKey{"disbursements", "payment_date"}, columnTarget{"disbursements", "disbursed_on"}},
	{columnKey{"enrollments", "enrolled_on"}, columnTarget{"enrollments", "enrollment_date"}},
}

func buildSubstitutions(cat *catalog.Catalog) (map[columnKey]columnTarget, error) {
	subs := make(map[columnKey]columnTarget, len(hallucinatedColumns))
	for _, h := range hallucinatedColumns {
		if cat.HasColumn(h.from.table, h.from.column) {
			return nil, fmt.Errorf("column substitution %s.%s: column exists", h.from.table, h.from.column)
		}
		if !cat.HasColumn(h.to.table, h.to.column) {
			return nil, fmt.Errorf("column substitution %s.%s: target %s.%s does not exist",
				h.from.table, h.from.column, h.to.table, h.to.column)
		}
		subs[h.from] = h.to
	}
	return subs, nil
}

var (
	// DATEDIFF(YEAR, c.date_of_birth, GETDATE()): citizens store age directly.
	ageFromBirthDatePattern = regexp.MustCompile(`(?i)DATEDIFF\s*\(\s*(?:YEAR|YYYY|YY)\s*,\s*(\w+)\.date_of_birth\s*,\s*GETDATE\s*\(\s*\)\s*\)`)

	// There is no area-type column; rural villages carry "Rural" in their name.
	areaTypePattern = regexp.MustCompile(`(?i)\b\w+\.(?:type|area_type|rural_urban|location_type|village_type)\s*(?:=|LIKE)\s*'%?(rural|urban)%?'`)
)

// substituteColumns rewrites references to hallucinated columns. The
// replacement is qualified with the alias of the owning table when the
// statement already joins it, otherwise with the catalog alias so that
// missing-join insertion can add the table.
func (n *Normalizer) substituteColumns(query string) string {
	query = n.rewriteAreaType(query)
	query = ageFromBirthDatePattern.ReplaceAllString(query, "$1.age")

	stmt := sqlparse.ParseStatement(query)
	refs := collectRefs(stmt)

	var edits []edit
	for _, ref := range qualifiedRefs(stmt) {
		table, ok := refs.resolve(ref.qualifier)
		if !ok {
			t, known := n.catalog.TableByAlias(ref.qualifier)
			if !known {
				continue
			}
			table = t.Table
		}
		target, ok := n.substitutions[columnKey{table, ref.column}]
		if !ok {
			continue
		}

		qualifier := stmt.Tokens[ref.qualIdx].Text
		if target.table != table {
			qualifier = n.aliasInStatement(refs, target.table)
		}
		edits = append(edits, edit{
			start: ref.qualIdx,
			end:   ref.colIdx + 1,
			text:  qualifier + "." + target.column,
		})
	}
	return applyEdits(stmt, edits)
}

func (n *Normalizer) rewriteAreaType(query string) string {
	if !areaTypePattern.MatchString(query) {
		return query
	}
	refs := collectRefs(sqlparse.ParseStatement(query))
	village := n.aliasInStatement(refs, "villages")
	return areaTypePattern.ReplaceAllStringFunc(query, func(m string) string {
		sub := areaTypePattern.FindStringSubmatch(m)
		if strings.EqualFold(sub[1], "urban") {
			return village + ".name NOT LIKE '%Rural%'"
		}
		return village + ".name LIKE '%Rural%'"
	})
}

// aliasInStatement returns the alias table already has in the statement, or
// its catalog alias.
func (n *Normalizer) aliasInStatement(refs *refSet, table string) string {
	if alias, ok := refs.aliasFor(table); ok {
		return alias
	}
	return n.catalog.AliasOf(table)
}
