package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/adapters/datasource"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/catalog"
)

// SchemaDrift is a catalog table or column missing from the live database,
// or a column whose live type belongs to a different type family.
type SchemaDrift struct {
	Table  string `json:"table"`
	Column string `json:"column,omitempty"`

	// Want and Got are set for type mismatches only.
	Want string `json:"want,omitempty"`
	Got  string `json:"got,omitempty"`
}

func (d SchemaDrift) String() string {
	switch {
	case d.Column == "":
		return "missing table " + d.Table
	case d.Got != "":
		return fmt.Sprintf("column %s.%s is %s, catalog expects %s", d.Table, d.Column, d.Got, d.Want)
	default:
		return fmt.Sprintf("missing column %s.%s", d.Table, d.Column)
	}
}

// CheckSchema compares the catalog with the columns the database reports.
// Names are compared case-insensitively, matching SQL Server's default
// collation. Types are compared by family, so NVARCHAR satisfies VARCHAR.
// Extra database tables and columns are not reported.
func CheckSchema(ctx context.Context, cat *catalog.Catalog, inspector datasource.SchemaInspector) ([]SchemaDrift, error) {
	live, err := inspector.Columns(ctx)
	if err != nil {
		return nil, fmt.Errorf("read database schema: %w", err)
	}

	drift := []SchemaDrift{}
	for _, table := range cat.Describe() {
		cols, ok := live[strings.ToLower(table.Table)]
		if !ok {
			drift = append(drift, SchemaDrift{Table: table.Table})
			continue
		}
		present := make(map[string]string, len(cols))
		for _, c := range cols {
			present[strings.ToLower(c.Name)] = c.Type
		}
		for _, col := range table.Columns {
			liveType, ok := present[strings.ToLower(col.Name)]
			switch {
			case !ok:
				drift = append(drift, SchemaDrift{Table: table.Table, Column: col.Name})
			case liveType != "" && datasource.TypeFamily(liveType) != datasource.TypeFamily(col.DataType):
				drift = append(drift, SchemaDrift{Table: table.Table, Column: col.Name, Want: col.DataType, Got: liveType})
			}
		}
	}
	return drift, nil
}
