package models

// ColumnDescriptor describes one column of a catalog table.
type ColumnDescriptor struct {
	Name         string `json:"name" yaml:"name"`
	DataType     string `json:"data_type" yaml:"type"`
	IsPrimaryKey bool   `json:"is_primary_key,omitempty" yaml:"primary_key"`
	Description  string `json:"description,omitempty" yaml:"description"`
}

// Relationship is a foreign-key edge from a column of the owning table to a
// column of another table.
type Relationship struct {
	Column    string `json:"column" yaml:"column"`
	RefTable  string `json:"ref_table" yaml:"ref_table"`
	RefColumn string `json:"ref_column" yaml:"ref_column"`
}

// SchemaDescriptor is the static description of a single table.
type SchemaDescriptor struct {
	Table         string             `json:"table" yaml:"table"`
	Alias         string             `json:"alias" yaml:"alias"`
	Description   string             `json:"description" yaml:"description"`
	Columns       []ColumnDescriptor `json:"columns" yaml:"columns"`
	Relationships []Relationship     `json:"relationships,omitempty" yaml:"relationships"`
}

// Column returns the named column, or false if the table has no such column.
func (s SchemaDescriptor) Column(name string) (ColumnDescriptor, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}

// ForeignKey returns the relationship declared on column, if any.
func (s SchemaDescriptor) ForeignKey(column string) (Relationship, bool) {
	for _, r := range s.Relationships {
		if r.Column == column {
			return r, true
		}
	}
	return Relationship{}, false
}

// JoinStep is one hop of a relationship path: FromTable.FromColumn = ToTable.ToColumn.
type JoinStep struct {
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
}
