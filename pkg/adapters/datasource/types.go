package datasource

import "strings"

// Type families group column types that hold the same kind of value. Width
// and unicode variants of a type (VARCHAR and NVARCHAR) share a family.
const (
	FamilyText     = "text"
	FamilyInteger  = "integer"
	FamilyDecimal  = "decimal"
	FamilyFloat    = "float"
	FamilyDate     = "date"
	FamilyDateTime = "datetime"
	FamilyBoolean  = "boolean"
	FamilyOther    = "other"
)

// TypeFamily classifies a SQL Server type name, case-insensitively. Length,
// precision and scale ("NVARCHAR(100)", "DECIMAL(12,2)") are ignored.
func TypeFamily(typeName string) string {
	base, _, _ := strings.Cut(typeName, "(")
	switch strings.ToUpper(strings.TrimSpace(base)) {
	case "CHAR", "NCHAR", "VARCHAR", "NVARCHAR", "TEXT", "NTEXT", "SYSNAME":
		return FamilyText
	case "TINYINT", "SMALLINT", "INT", "INTEGER", "BIGINT":
		return FamilyInteger
	case "DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY":
		return FamilyDecimal
	case "FLOAT", "REAL":
		return FamilyFloat
	case "DATE":
		return FamilyDate
	case "DATETIME", "DATETIME2", "SMALLDATETIME", "DATETIMEOFFSET":
		return FamilyDateTime
	case "BIT":
		return FamilyBoolean
	default:
		return FamilyOther
	}
}
