package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
)

// fallbackPattern maps a recognizable question shape to a fixed T-SQL
// template. Templates with an int parameter take exactly one %d verb filled
// from the first numeric capture; no other question text reaches the SQL.
type fallbackPattern struct {
	Name     string
	Pattern  *regexp.Regexp
	Template string
	// Chart overrides the shape-derived chart type when set.
	Chart models.ChartType
}

// FallbackMatch is the template chosen for a question.
type FallbackMatch struct {
	Name      string
	SQL       string
	ChartType models.ChartType
}

const (
	citizenWords = `(?:citizens?|people|persons?|residents?|beneficiar(?:y|ies)|individuals?)`
	officerWords = `(?:officers?|officials?|staff|employees?)`
	schemeWords  = `(?:schemes?|programs?|programmes?|initiatives?|yojanas?)`
	countWords   = `(?:how many|count|number of|total number of|no\. of)`
	aboveWords   = `(?:above|over|older than|greater than|more than)`
	belowWords   = `(?:below|under|younger than|less than)`
	countPrefix  = `\s+(?:the\s+|all\s+|total\s+|registered\s+)?`
)

func mustPattern(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

// fallbackPatterns are tried in order; the first match wins. Dimension
// breakdowns come first so that "total disbursement by scheme" is not taken
// by the plain total.
var fallbackPatterns = []fallbackPattern{
	{
		Name:    "disbursement_by_scheme",
		Pattern: mustPattern(`\b(?:disburse\w*|payments?|amount)\b.*\b(?:by|per|for each|across)\s+` + schemeWords + `\b|\bscheme[- ]wise\s+(?:disburse\w*|payments?)`),
		Template: "SELECT TOP 100 s.name AS scheme_name, SUM(d.amount) AS total_amount FROM disbursements d " +
			"JOIN schemes s ON d.scheme_id = s.scheme_id GROUP BY s.name ORDER BY total_amount DESC",
	},
	{
		Name:    "disbursement_by_state",
		Pattern: mustPattern(`\b(?:disburse\w*|payments?|amount)\b.*\b(?:by|per|for each|across)\s+states?\b|\bstate[- ]wise\s+(?:disburse\w*|payments?)`),
		Template: "SELECT TOP 100 st.name AS state_name, SUM(d.amount) AS total_amount FROM disbursements d " +
			"JOIN citizens c ON d.citizen_id = c.citizen_id " +
			"JOIN villages v ON c.village_id = v.village_id " +
			"JOIN districts dt ON v.district_id = dt.district_id " +
			"JOIN states st ON dt.state_id = st.state_id " +
			"GROUP BY st.name ORDER BY total_amount DESC",
	},
	{
		Name:    "disbursement_by_payment_mode",
		Pattern: mustPattern(`\bpayment\s+modes?\b|\bmodes?\s+of\s+payment\b`),
		Template: "SELECT TOP 10 d.payment_mode, COUNT(*) AS disbursement_count, SUM(d.amount) AS total_amount " +
			"FROM disbursements d GROUP BY d.payment_mode ORDER BY total_amount DESC",
		Chart: models.ChartPie,
	},
	{
		Name:    "citizens_in_multiple_schemes",
		Pattern: mustPattern(`\b(?:multiple|more than one|several|two or more)\s+` + schemeWords + `\b`),
		Template: "SELECT TOP 100 c.citizen_id, c.name, COUNT(DISTINCT e.scheme_id) AS scheme_count FROM citizens c " +
			"JOIN enrollments e ON c.citizen_id = e.citizen_id GROUP BY c.citizen_id, c.name " +
			"HAVING COUNT(DISTINCT e.scheme_id) > 1 ORDER BY scheme_count DESC",
	},
	{
		Name:    "enrollments_by_scheme",
		Pattern: mustPattern(`\benrol+(?:ment|ments|ed)?\b.*\b(?:by|per|in each|for each)\s+` + schemeWords + `\b|\b` + citizenWords + `\s+per\s+` + schemeWords + `\b`),
		Template: "SELECT TOP 100 s.name AS scheme_name, COUNT(e.enrollment_id) AS enrollment_count FROM enrollments e " +
			"JOIN schemes s ON e.scheme_id = s.scheme_id GROUP BY s.name ORDER BY enrollment_count DESC",
	},
	{
		Name:    "citizens_by_gender",
		Pattern: mustPattern(`\b(?:by|per)\s+gender\b|\bgender\s*(?:-?wise|breakdown|distribution|split|ratio)\b|\b(?:male|men)\b.*\b(?:female|women)\b`),
		Template: "SELECT TOP 10 c.gender, COUNT(*) AS citizen_count FROM citizens c " +
			"GROUP BY c.gender ORDER BY citizen_count DESC",
		Chart: models.ChartPie,
	},
	{
		Name:    "citizens_by_age_group",
		Pattern: mustPattern(`\bage\s*(?:groups?|bands?|brackets?|distribution|-?wise)\b`),
		Template: "SELECT TOP 10 CASE WHEN c.age < 18 THEN 'Under 18' WHEN c.age < 40 THEN '18-39' " +
			"WHEN c.age < 60 THEN '40-59' ELSE '60 and above' END AS age_group, COUNT(*) AS citizen_count " +
			"FROM citizens c GROUP BY CASE WHEN c.age < 18 THEN 'Under 18' WHEN c.age < 40 THEN '18-39' " +
			"WHEN c.age < 60 THEN '40-59' ELSE '60 and above' END",
	},
	{
		Name:    "citizens_by_state",
		Pattern: mustPattern(`\b` + citizenWords + `\b.*\b(?:by|per|in each|across)\s+states?\b|\bstate[- ]wise\b`),
		Template: "SELECT TOP 100 st.name AS state_name, COUNT(c.citizen_id) AS citizen_count FROM citizens c " +
			"JOIN villages v ON c.village_id = v.village_id " +
			"JOIN districts dt ON v.district_id = dt.district_id " +
			"JOIN states st ON dt.state_id = st.state_id " +
			"GROUP BY st.name ORDER BY citizen_count DESC",
	},
	{
		Name:    "citizens_by_district",
		Pattern: mustPattern(`\b` + citizenWords + `\b.*\b(?:by|per|in each|across)\s+districts?\b|\bdistrict[- ]wise\b`),
		Template: "SELECT TOP 100 dt.name AS district_name, COUNT(c.citizen_id) AS citizen_count FROM citizens c " +
			"JOIN villages v ON c.village_id = v.village_id " +
			"JOIN districts dt ON v.district_id = dt.district_id " +
			"GROUP BY dt.name ORDER BY citizen_count DESC",
	},
	{
		Name:    "officers_by_designation",
		Pattern: mustPattern(`\b` + officerWords + `\b.*\b(?:by|per)\s+(?:designation|department|role)s?\b`),
		Template: "SELECT TOP 100 o.designation, COUNT(*) AS officer_count FROM officers o " +
			"GROUP BY o.designation ORDER BY officer_count DESC",
	},
	{
		Name:    "schemes_by_sector",
		Pattern: mustPattern(`\b` + schemeWords + `\b.*\b(?:by|per)\s+sectors?\b|\bsector[- ]wise\b`),
		Template: "SELECT TOP 100 s.sector, COUNT(*) AS scheme_count FROM schemes s " +
			"GROUP BY s.sector ORDER BY scheme_count DESC",
	},
	{
		Name:     "count_citizens_above_age",
		Pattern:  mustPattern(`\b` + countWords + `\b.*\b` + citizenWords + `\b.*\b` + aboveWords + `\s+(?:the\s+)?(?:age\s+(?:of\s+)?)?(\d{1,3})\b`),
		Template: "SELECT COUNT(*) AS citizen_count FROM citizens c WHERE c.age > %d",
	},
	{
		Name:     "count_citizens_below_age",
		Pattern:  mustPattern(`\b` + countWords + `\b.*\b` + citizenWords + `\b.*\b` + belowWords + `\s+(?:the\s+)?(?:age\s+(?:of\s+)?)?(\d{1,3})\b`),
		Template: "SELECT COUNT(*) AS citizen_count FROM citizens c WHERE c.age < %d",
	},
	{
		Name:     "count_citizens",
		Pattern:  mustPattern(`\b` + countWords + countPrefix + citizenWords + `\b`),
		Template: "SELECT COUNT(*) AS total_citizens FROM citizens",
	},
	{
		Name:     "count_officers",
		Pattern:  mustPattern(`\b` + countWords + countPrefix + officerWords + `\b`),
		Template: "SELECT COUNT(*) AS total_officers FROM officers",
	},
	{
		Name:     "count_schemes",
		Pattern:  mustPattern(`\b` + countWords + countPrefix + schemeWords + `\b`),
		Template: "SELECT COUNT(*) AS total_schemes FROM schemes",
	},
	{
		Name:     "count_enrollments",
		Pattern:  mustPattern(`\b` + countWords + countPrefix + `enrol+(?:ment|ments)\b`),
		Template: "SELECT COUNT(*) AS total_enrollments FROM enrollments",
	},
	{
		Name:     "count_villages",
		Pattern:  mustPattern(`\b` + countWords + `\s+villages?\b`),
		Template: "SELECT COUNT(*) AS total_villages FROM villages",
	},
	{
		Name:     "count_districts",
		Pattern:  mustPattern(`\b` + countWords + `\s+districts?\b`),
		Template: "SELECT COUNT(*) AS total_districts FROM districts",
	},
	{
		Name:     "count_states",
		Pattern:  mustPattern(`\b` + countWords + `\s+states?\b`),
		Template: "SELECT COUNT(*) AS total_states FROM states",
	},
	{
		Name:     "count_disbursements",
		Pattern:  mustPattern(`\b` + countWords + countPrefix + `(?:disbursements?|payments?)\b`),
		Template: "SELECT COUNT(*) AS total_disbursements FROM disbursements",
	},
	{
		Name:     "total_disbursed",
		Pattern:  mustPattern(`\b(?:total|sum of|how much)\b.*\b(?:disburse\w*|paid out)\b`),
		Template: "SELECT SUM(d.amount) AS total_disbursed FROM disbursements d",
	},
	{
		Name:     "average_age",
		Pattern:  mustPattern(`\b(?:average|avg|mean)\s+age\b`),
		Template: "SELECT AVG(c.age) AS average_age FROM citizens c",
	},
	{
		Name:     "average_disbursement",
		Pattern:  mustPattern(`\b(?:average|avg|mean)\s+(?:disbursement|payment|amount)\b`),
		Template: "SELECT AVG(d.amount) AS average_amount FROM disbursements d",
	},
	{
		Name:    "citizens_above_age",
		Pattern: mustPattern(`\bage[ds]?\s+(?:is\s+)?` + aboveWords + `\s+(\d{1,3})\b|\b` + aboveWords + `\s+(?:the\s+)?age\s+(?:of\s+)?(\d{1,3})\b|\b` + citizenWords + `\s+` + aboveWords + `\s+(\d{1,3})\b`),
		Template: "SELECT TOP 100 c.citizen_id, c.name, c.age, c.gender FROM citizens c " +
			"WHERE c.age > %d ORDER BY c.age DESC",
	},
	{
		Name:    "citizens_below_age",
		Pattern: mustPattern(`\bage[ds]?\s+(?:is\s+)?` + belowWords + `\s+(\d{1,3})\b|\b` + belowWords + `\s+(?:the\s+)?age\s+(?:of\s+)?(\d{1,3})\b|\b` + citizenWords + `\s+` + belowWords + `\s+(\d{1,3})\b`),
		Template: "SELECT TOP 100 c.citizen_id, c.name, c.age, c.gender FROM citizens c " +
			"WHERE c.age < %d ORDER BY c.age ASC",
	},
	{
		Name:    "citizens_with_disability",
		Pattern: mustPattern(`\b(?:disab\w*|handicap\w*|divyang\w*)\b`),
		Template: "SELECT TOP 100 c.citizen_id, c.name, c.age, hd.disability_status FROM citizens c " +
			"JOIN health_details hd ON c.citizen_id = hd.citizen_id " +
			"WHERE hd.disability_status IS NOT NULL AND hd.disability_status <> 'None'",
	},
	{
		Name:    "citizens_in_rural_villages",
		Pattern: mustPattern(`\brural\b`),
		Template: "SELECT TOP 100 c.citizen_id, c.name, v.name AS village_name FROM citizens c " +
			"JOIN villages v ON c.village_id = v.village_id WHERE v.name LIKE '%Rural%'",
	},
	{
		Name:    "list_citizens",
		Pattern: mustPattern(`\b(?:show|list|display|get|give me|find|all)\b.*\b` + citizenWords + `\b`),
		Template: "SELECT TOP 100 c.citizen_id, c.name, c.gender, c.age FROM citizens c",
	},
	{
		Name:    "list_officers",
		Pattern: mustPattern(`\b(?:show|list|display|get|give me|find|all)\b.*\b` + officerWords + `\b`),
		Template: "SELECT TOP 100 o.officer_id, o.name, o.designation, o.email FROM officers o",
	},
	{
		Name:    "list_schemes",
		Pattern: mustPattern(`\b(?:show|list|display|get|give me|find|all|which)\b.*\b` + schemeWords + `\b`),
		Template: "SELECT TOP 100 s.scheme_id, s.name, s.sector, s.benefit_type, s.frequency FROM schemes s",
	},
	{
		Name:    "recent_disbursements",
		Pattern: mustPattern(`\b(?:show|list|display|get|give me|recent|latest)\b.*\b(?:disbursements?|payments?)\b`),
		Template: "SELECT TOP 100 d.disbursement_id, d.citizen_id, d.scheme_id, d.amount, d.status, d.disbursed_on " +
			"FROM disbursements d ORDER BY d.disbursed_on DESC",
	},
	{
		Name:    "list_enrollments",
		Pattern: mustPattern(`\b(?:show|list|display|get|give me|recent|latest)\b.*\benrol+(?:ment|ments)\b`),
		Template: "SELECT TOP 100 e.enrollment_id, e.citizen_id, e.scheme_id, e.enrollment_date, e.status " +
			"FROM enrollments e ORDER BY e.enrollment_date DESC",
	},
	{
		Name:     "list_villages",
		Pattern:  mustPattern(`\b(?:show|list|display|get|give me|all)\b.*\bvillages?\b`),
		Template: "SELECT TOP 100 v.village_id, v.name, v.district_id FROM villages v",
	},
	{
		Name:     "list_districts",
		Pattern:  mustPattern(`\b(?:show|list|display|get|give me|all)\b.*\bdistricts?\b`),
		Template: "SELECT TOP 100 dt.district_id, dt.name, dt.state_id FROM districts dt",
	},
	{
		Name:     "list_states",
		Pattern:  mustPattern(`\b(?:show|list|display|get|give me|all)\b.*\bstates?\b`),
		Template: "SELECT TOP 100 st.state_id, st.name FROM states st",
	},
}

// MatchFallback returns the first template whose pattern matches question.
// Matching is case-insensitive and runs on the question as the caller asked
// it.
//
// Example:
//
//	m, _ := MatchFallback("how many citizens")
//	// m.SQL == "SELECT COUNT(*) AS total_citizens FROM citizens", m.ChartType == metric
func MatchFallback(question string) (FallbackMatch, bool) {
	q := strings.TrimSpace(question)
	if q == "" {
		return FallbackMatch{}, false
	}

	for _, p := range fallbackPatterns {
		m := p.Pattern.FindStringSubmatch(q)
		if m == nil {
			continue
		}

		sql := p.Template
		if strings.Contains(p.Template, "%d") {
			n, ok := firstInt(m[1:])
			if !ok {
				continue
			}
			sql = fmt.Sprintf(p.Template, n)
		}

		chart := p.Chart
		if chart == "" {
			chart = SuggestChartType(sql)
		}
		return FallbackMatch{Name: p.Name, SQL: sql, ChartType: chart}, true
	}
	return FallbackMatch{}, false
}

// FallbackPatternNames lists the fallback shapes in match order.
func FallbackPatternNames() []string {
	names := make([]string, len(fallbackPatterns))
	for i, p := range fallbackPatterns {
		names[i] = p.Name
	}
	return names
}

func firstInt(groups []string) (int, bool) {
	for _, g := range groups {
		if g == "" {
			continue
		}
		n, err := strconv.Atoi(g)
		if err != nil || n < 0 || n > 150 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
