package prompts

import (
	"fmt"
	"strings"
)

// NL2SQLSystemMessage is the system instruction for every translation call.
const NL2SQLSystemMessage = "You are a SQL Server (T-SQL) expert for a government welfare database. " +
	"Convert the user's question into exactly one read-only SELECT statement. " +
	"Respond with the SQL only: no explanation, no markdown, no JSON."

// DialectRules are stated to the model and also enforced after the fact by
// the dialect normalizer.
var DialectRules = []string{
	"Use T-SQL. Limit rows with SELECT TOP n (default TOP 100). Never use LIMIT.",
	"Return a single SELECT statement. No semicolons, no comments, no INSERT/UPDATE/DELETE/DDL.",
	"Every non-aggregated column in the SELECT list must appear in GROUP BY. Do not use select aliases in GROUP BY.",
	"Use the table aliases shown in the schema (c, v, dt, st, s, e, d, o, hd, ba, se) and qualify columns with them.",
	"citizens has no state, district, village, disability_percentage or bank_account column.",
	"To get a citizen's state or district join citizens -> villages -> districts -> states: JOIN villages v ON c.village_id = v.village_id JOIN districts dt ON v.district_id = dt.district_id JOIN states st ON dt.state_id = st.state_id.",
	"disbursements has no enrollment_id. Join it to enrollments with d.citizen_id = e.citizen_id AND d.scheme_id = e.scheme_id.",
	"Disability information is health_details.disability_status (text such as 'Physical' or 'None'): JOIN health_details hd ON c.citizen_id = hd.citizen_id.",
	"Bank details are in bank_accounts: JOIN bank_accounts ba ON c.citizen_id = ba.citizen_id.",
	"There is no rural/urban or type column. Rural villages have 'Rural' in their name: v.name LIKE '%Rural%'.",
	"Use c.age for age filters. Dates: disbursements.disbursed_on, enrollments.enrollment_date.",
	"Match text with LIKE and wildcards, e.g. s.name LIKE '%Awas%'.",
}

// Example pairs a question with the SQL the model should produce.
type Example struct {
	Question string
	SQL      string
}

// NL2SQLExamples are the worked examples included in every prompt.
var NL2SQLExamples = []Example{
	{
		Question: "Citizens from Mumbai district",
		SQL: "SELECT TOP 100 c.name, c.age FROM citizens c " +
			"JOIN villages v ON c.village_id = v.village_id " +
			"JOIN districts dt ON v.district_id = dt.district_id " +
			"WHERE dt.name LIKE '%Mumbai%'",
	},
	{
		Question: "Total disbursement amount by scheme",
		SQL: "SELECT TOP 100 s.name AS scheme_name, SUM(d.amount) AS total_amount FROM disbursements d " +
			"JOIN schemes s ON d.scheme_id = s.scheme_id " +
			"GROUP BY s.name ORDER BY total_amount DESC",
	},
}

// BuildNL2SQLPrompt creates the user prompt: schema grounding, rules,
// examples, then the question.
func BuildNL2SQLPrompt(schemaText string, question string) string {
	var prompt strings.Builder

	prompt.WriteString(strings.TrimRight(schemaText, "\n"))
	prompt.WriteString("\n\n## Rules\n\n")
	for i, rule := range DialectRules {
		prompt.WriteString(fmt.Sprintf("%d. %s\n", i+1, rule))
	}

	prompt.WriteString("\n## Examples\n\n")
	for _, ex := range NL2SQLExamples {
		prompt.WriteString(fmt.Sprintf("Question: %s\nSQL: %s\n\n", ex.Question, ex.SQL))
	}

	prompt.WriteString("## Question\n\n")
	prompt.WriteString(strings.TrimSpace(question))
	prompt.WriteString("\n\nSQL:")

	return prompt.String()
}
