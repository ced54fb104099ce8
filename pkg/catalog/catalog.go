// Package catalog holds the static description of the welfare database used to
// ground translation and to repair joins.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/yourbasic/graph"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/apperrors"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
)

//go:embed welfare_schema.yaml
var welfareSchema []byte

// Catalog is an immutable schema description. It is safe for concurrent use.
type Catalog struct {
	tables  []models.SchemaDescriptor
	byName  map[string]int
	byAlias map[string]int
	graph   *graph.Immutable
	edges   map[edgeKey]edge
}

type edgeKey struct{ a, b int }

// edge is a foreign key: from.fromColumn references to.toColumn.
type edge struct {
	from, to             int
	fromColumn, toColumn string
}

type document struct {
	Tables []models.SchemaDescriptor `yaml:"tables"`
}

// Welfare returns the catalog for the welfare benefits database.
func Welfare() (*Catalog, error) {
	return Load(welfareSchema)
}

// Load parses a YAML schema document and builds a catalog from it.
func Load(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}
	return New(doc.Tables)
}

// New validates the descriptors and builds the relationship graph. Every
// relationship must reference columns that exist on both tables.
func New(tables []models.SchemaDescriptor) (*Catalog, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("catalog has no tables")
	}

	c := &Catalog{
		tables:  make([]models.SchemaDescriptor, len(tables)),
		byName:  make(map[string]int, len(tables)),
		byAlias: make(map[string]int, len(tables)),
		edges:   make(map[edgeKey]edge),
	}

	for i, t := range tables {
		name := strings.ToLower(t.Table)
		if name == "" {
			return nil, fmt.Errorf("table %d has no name", i)
		}
		if _, dup := c.byName[name]; dup {
			return nil, fmt.Errorf("duplicate table %q", t.Table)
		}
		if t.Alias != "" {
			alias := strings.ToLower(t.Alias)
			if _, dup := c.byAlias[alias]; dup {
				return nil, fmt.Errorf("duplicate alias %q on table %q", t.Alias, t.Table)
			}
			c.byAlias[alias] = i
		}
		if len(t.Columns) == 0 {
			return nil, fmt.Errorf("table %q has no columns", t.Table)
		}
		c.byName[name] = i
		c.tables[i] = copyDescriptor(t)
	}

	g := graph.New(len(tables))
	for i, t := range c.tables {
		for _, rel := range t.Relationships {
			if _, ok := t.Column(rel.Column); !ok {
				return nil, fmt.Errorf("relationship %s.%s: column does not exist", t.Table, rel.Column)
			}
			j, ok := c.byName[strings.ToLower(rel.RefTable)]
			if !ok {
				return nil, fmt.Errorf("relationship %s.%s: unknown table %q", t.Table, rel.Column, rel.RefTable)
			}
			if _, ok := c.tables[j].Column(rel.RefColumn); !ok {
				return nil, fmt.Errorf("relationship %s.%s: column %s.%s does not exist",
					t.Table, rel.Column, rel.RefTable, rel.RefColumn)
			}
			if i == j {
				continue
			}
			key := newEdgeKey(i, j)
			if _, exists := c.edges[key]; exists {
				// First declared edge between a pair is the join key.
				continue
			}
			c.edges[key] = edge{from: i, to: j, fromColumn: rel.Column, toColumn: rel.RefColumn}
			g.AddBothCost(i, j, 1)
		}
	}
	c.graph = graph.Sort(g)

	return c, nil
}

func newEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a: a, b: b}
}

func copyDescriptor(t models.SchemaDescriptor) models.SchemaDescriptor {
	out := t
	out.Columns = append([]models.ColumnDescriptor(nil), t.Columns...)
	out.Relationships = append([]models.Relationship(nil), t.Relationships...)
	return out
}

// Describe returns every table in declaration order. The returned slice is a
// copy; callers may not mutate the catalog through it.
func (c *Catalog) Describe() []models.SchemaDescriptor {
	out := make([]models.SchemaDescriptor, len(c.tables))
	for i, t := range c.tables {
		out[i] = copyDescriptor(t)
	}
	return out
}

// Table looks a table up by name (case-insensitive).
func (c *Catalog) Table(name string) (models.SchemaDescriptor, bool) {
	i, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return models.SchemaDescriptor{}, false
	}
	return copyDescriptor(c.tables[i]), true
}

// TableByAlias looks a table up by its canonical alias (case-insensitive).
func (c *Catalog) TableByAlias(alias string) (models.SchemaDescriptor, bool) {
	i, ok := c.byAlias[strings.ToLower(alias)]
	if !ok {
		return models.SchemaDescriptor{}, false
	}
	return copyDescriptor(c.tables[i]), true
}

// AliasOf returns the canonical alias of table, or the table name itself when
// none is declared.
func (c *Catalog) AliasOf(table string) string {
	i, ok := c.byName[strings.ToLower(table)]
	if !ok {
		return table
	}
	if c.tables[i].Alias == "" {
		return c.tables[i].Table
	}
	return c.tables[i].Alias
}

// HasColumn reports whether table has column (both case-insensitive).
func (c *Catalog) HasColumn(table, column string) bool {
	i, ok := c.byName[strings.ToLower(table)]
	if !ok {
		return false
	}
	for _, col := range c.tables[i].Columns {
		if strings.EqualFold(col.Name, column) {
			return true
		}
	}
	return false
}

// TablesWithColumn lists, in declaration order, the tables that have column.
func (c *Catalog) TablesWithColumn(column string) []string {
	var out []string
	for _, t := range c.tables {
		if c.HasColumn(t.Table, column) {
			out = append(out, t.Table)
		}
	}
	return out
}

// RelationshipPath returns the shortest chain of joins from one table to
// another. The path for a table to itself is empty. ErrNotFound is returned
// for unknown tables and for tables with no connecting relationships.
func (c *Catalog) RelationshipPath(from, to string) ([]models.JoinStep, error) {
	src, ok := c.byName[strings.ToLower(from)]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", from, apperrors.ErrNotFound)
	}
	dst, ok := c.byName[strings.ToLower(to)]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", to, apperrors.ErrNotFound)
	}
	if src == dst {
		return []models.JoinStep{}, nil
	}

	path, dist := graph.ShortestPath(c.graph, src, dst)
	if dist < 0 {
		return nil, fmt.Errorf("no relationship path from %s to %s: %w", from, to, apperrors.ErrNotFound)
	}

	steps := make([]models.JoinStep, 0, len(path)-1)
	for k := 1; k < len(path); k++ {
		steps = append(steps, c.step(path[k-1], path[k]))
	}
	return steps, nil
}

// step orients the stored edge between a and b so that it reads from a to b.
func (c *Catalog) step(a, b int) models.JoinStep {
	e := c.edges[newEdgeKey(a, b)]
	if e.from == a {
		return models.JoinStep{
			FromTable:  c.tables[a].Table,
			FromColumn: e.fromColumn,
			ToTable:    c.tables[b].Table,
			ToColumn:   e.toColumn,
		}
	}
	return models.JoinStep{
		FromTable:  c.tables[a].Table,
		FromColumn: e.toColumn,
		ToTable:    c.tables[b].Table,
		ToColumn:   e.fromColumn,
	}
}
