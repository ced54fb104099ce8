package services

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/adapters/datasource"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
	sqlparse "github.com/ekaya-inc/welfare-nl2sql/pkg/sql"
)

// ResultFormatter shapes executed rows into the caller-facing response.
type ResultFormatter struct {
	printer *message.Printer
}

func NewResultFormatter() *ResultFormatter {
	return &ResultFormatter{printer: message.NewPrinter(language.English)}
}

// Format builds the response for rows produced by the validated translation vt.
func (f *ResultFormatter) Format(result *datasource.QueryExecutionResult, vt *models.ValidatedTranslation) *models.QueryResponse {
	resp := &models.QueryResponse{
		Question:   vt.Meta.OriginalQuestion,
		SQL:        vt.SQL,
		Columns:    []string{},
		Rows:       []map[string]any{},
		ChartType:  vt.Meta.ChartType,
		Method:     vt.Meta.Method,
		Confidence: vt.Meta.Confidence,
		RequestID:  vt.Meta.RequestID,
	}
	if resp.ChartType == "" {
		resp.ChartType = SuggestChartType(vt.SQL)
	}

	if result != nil {
		for _, c := range result.Columns {
			resp.Columns = append(resp.Columns, c.Name)
		}
		if result.Rows != nil {
			resp.Rows = result.Rows
		}
		resp.Truncated = result.Truncated
	}
	resp.RowCount = len(resp.Rows)
	resp.Summary = f.Summary(vt.SQL, resp.Rows)

	explanation := Explain(vt.SQL)
	resp.Explanation = &explanation

	return resp
}

// Summary describes a result in one line: the first aggregate alias of the
// first row when the statement aggregates, otherwise the row count. An
// unaliased scalar aggregate comes back as a single unnamed column and is
// labelled with its expression.
//
//	"total_citizens: 1,234"
//	"COUNT(*): 1,234"
//	"42 rows returned"
func (f *ResultFormatter) Summary(query string, rows []map[string]any) string {
	if len(rows) > 0 {
		cols := sqlparse.ParseSelectColumns(query)
		for _, col := range cols {
			if !col.Aggregate {
				continue
			}
			key, value, ok := lookupColumn(rows[0], col.Name)
			if !ok || key == "" {
				continue
			}
			return key + ": " + f.formatValue(value)
		}

		if len(rows) == 1 && len(rows[0]) == 1 && isScalarAggregate(query) {
			for key, value := range rows[0] {
				if key == "" && len(cols) > 0 {
					key = cols[0].Expr
				}
				return key + ": " + f.formatValue(value)
			}
		}
	}

	switch len(rows) {
	case 0:
		return "No rows returned"
	case 1:
		return "1 row returned"
	default:
		return f.printer.Sprintf("%d rows returned", len(rows))
	}
}

func isScalarAggregate(query string) bool {
	return sqlparse.IsScalarAggregate(sqlparse.ParseStatement(sqlparse.StripTrailingSemicolon(strings.TrimSpace(query))))
}

func lookupColumn(row map[string]any, name string) (string, any, bool) {
	if v, ok := row[name]; ok {
		return name, v, true
	}
	for k, v := range row {
		if strings.EqualFold(k, name) {
			return k, v, true
		}
	}
	return "", nil, false
}

func (f *ResultFormatter) formatValue(v any) string {
	switch n := v.(type) {
	case nil:
		return "0"
	case int:
		return f.printer.Sprintf("%d", n)
	case int32:
		return f.printer.Sprintf("%d", n)
	case int64:
		return f.printer.Sprintf("%d", n)
	case float32:
		return f.formatFloat(float64(n))
	case float64:
		return f.formatFloat(n)
	case []byte:
		return f.formatNumericString(string(n))
	case string:
		return f.formatNumericString(n)
	default:
		return f.printer.Sprintf("%v", n)
	}
}

func (f *ResultFormatter) formatFloat(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return f.printer.Sprintf("%d", int64(n))
	}
	return f.printer.Sprintf("%.2f", n)
}

// formatNumericString handles DECIMAL values, which the SQL Server driver
// returns as text.
func (f *ResultFormatter) formatNumericString(s string) string {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return f.printer.Sprintf("%d", n)
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return f.formatFloat(n)
	}
	return s
}
