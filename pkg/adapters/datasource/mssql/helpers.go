package mssql

import (
	"strings"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/adapters/datasource"
)

// columnType returns the SQL Server type name in upper case, the spelling the
// welfare catalog uses for its column types.
func columnType(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// convertValue turns driver byte slices into strings for text and exact
// numeric columns. The driver returns DECIMAL and MONEY values as text, with
// their full scale.
func convertValue(val any, dbType string) any {
	b, ok := val.([]byte)
	if !ok {
		return val
	}
	switch datasource.TypeFamily(dbType) {
	case datasource.FamilyText, datasource.FamilyDecimal:
		return string(b)
	default:
		return val
	}
}
