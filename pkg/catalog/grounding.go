package catalog

import (
	"fmt"
	"strings"
)

// GroundingText renders the catalog for inclusion in a model prompt.
func (c *Catalog) GroundingText() string {
	var sb strings.Builder

	sb.WriteString("## Database Schema\n\n")
	for _, t := range c.tables {
		if t.Alias != "" {
			sb.WriteString(fmt.Sprintf("### %s (alias %s)\n", t.Table, t.Alias))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n", t.Table))
		}
		if t.Description != "" {
			sb.WriteString(t.Description)
			sb.WriteString("\n")
		}
		for _, col := range t.Columns {
			sb.WriteString(fmt.Sprintf("- %s: %s", col.Name, col.DataType))
			if col.IsPrimaryKey {
				sb.WriteString(" [PK]")
			}
			if rel, ok := t.ForeignKey(col.Name); ok {
				sb.WriteString(fmt.Sprintf(" [FK→%s.%s]", rel.RefTable, rel.RefColumn))
			}
			if col.Description != "" {
				sb.WriteString(" -- ")
				sb.WriteString(col.Description)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Relationships\n\n")
	for _, t := range c.tables {
		for _, rel := range t.Relationships {
			sb.WriteString(fmt.Sprintf("- %s.%s -> %s.%s\n", t.Table, rel.Column, rel.RefTable, rel.RefColumn))
		}
	}

	return sb.String()
}
