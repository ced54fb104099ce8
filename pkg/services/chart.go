package services

import (
	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
	sqlparse "github.com/ekaya-inc/welfare-nl2sql/pkg/sql"
)

var metricAggregates = map[string]bool{"COUNT": true, "COUNT_BIG": true, "SUM": true, "AVG": true}

// SuggestChartType derives a visualization from the statement shape:
// GROUP BY => bar, COUNT/SUM/AVG without GROUP BY => metric, otherwise table.
func SuggestChartType(query string) models.ChartType {
	stmt := sqlparse.ParseStatement(query)
	if stmt.HasTopLevel("GROUP", "BY") {
		return models.ChartBar
	}

	list, ok := stmt.SelectListSpan()
	if !ok {
		return models.ChartTable
	}
	for i := list.Start; i < list.End; i++ {
		t := stmt.Tokens[i]
		if t.Kind != sqlparse.TokenWord || !metricAggregates[t.Upper()] {
			continue
		}
		if n := stmt.NextSignificant(i + 1); n < list.End && stmt.Tokens[n].Text == "(" {
			return models.ChartMetric
		}
	}
	return models.ChartTable
}
