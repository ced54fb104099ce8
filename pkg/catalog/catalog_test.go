package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/apperrors"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
)

func mustWelfare(t *testing.T) *Catalog {
	t.Helper()
	c, err := Welfare()
	require.NoError(t, err)
	return c
}

func TestWelfare_DescribeOrder(t *testing.T) {
	c := mustWelfare(t)

	var names []string
	for _, d := range c.Describe() {
		names = append(names, d.Table)
	}
	assert.Equal(t, []string{
		"citizens", "villages", "districts", "states", "schemes", "enrollments",
		"disbursements", "officers", "health_details", "bank_accounts", "scheme_eligibility",
	}, names)
}

func TestDescribe_ReturnsCopy(t *testing.T) {
	c := mustWelfare(t)

	tables := c.Describe()
	tables[0].Columns[0].Name = "mutated"

	citizens, ok := c.Table("citizens")
	require.True(t, ok)
	assert.Equal(t, "citizen_id", citizens.Columns[0].Name)
}

func TestNew_RejectsDanglingRelationship(t *testing.T) {
	tests := []struct {
		name    string
		tables  []models.SchemaDescriptor
		wantErr string
	}{
		{
			name: "missing source column",
			tables: []models.SchemaDescriptor{
				{Table: "a", Columns: []models.ColumnDescriptor{{Name: "id"}},
					Relationships: []models.Relationship{{Column: "b_id", RefTable: "b", RefColumn: "id"}}},
				{Table: "b", Columns: []models.ColumnDescriptor{{Name: "id"}}},
			},
			wantErr: "a.b_id: column does not exist",
		},
		{
			name: "missing referenced column",
			tables: []models.SchemaDescriptor{
				{Table: "a", Columns: []models.ColumnDescriptor{{Name: "id"}, {Name: "b_id"}},
					Relationships: []models.Relationship{{Column: "b_id", RefTable: "b", RefColumn: "b_id"}}},
				{Table: "b", Columns: []models.ColumnDescriptor{{Name: "id"}}},
			},
			wantErr: "column b.b_id does not exist",
		},
		{
			name: "unknown table",
			tables: []models.SchemaDescriptor{
				{Table: "a", Columns: []models.ColumnDescriptor{{Name: "id"}, {Name: "z_id"}},
					Relationships: []models.Relationship{{Column: "z_id", RefTable: "z", RefColumn: "id"}}},
			},
			wantErr: `unknown table "z"`,
		},
		{
			name: "duplicate alias",
			tables: []models.SchemaDescriptor{
				{Table: "a", Alias: "x", Columns: []models.ColumnDescriptor{{Name: "id"}}},
				{Table: "b", Alias: "x", Columns: []models.ColumnDescriptor{{Name: "id"}}},
			},
			wantErr: `duplicate alias "x"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.tables)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRelationshipPath_CitizensToStates(t *testing.T) {
	c := mustWelfare(t)

	path, err := c.RelationshipPath("citizens", "states")
	require.NoError(t, err)
	assert.Equal(t, []models.JoinStep{
		{FromTable: "citizens", FromColumn: "village_id", ToTable: "villages", ToColumn: "village_id"},
		{FromTable: "villages", FromColumn: "district_id", ToTable: "districts", ToColumn: "district_id"},
		{FromTable: "districts", FromColumn: "state_id", ToTable: "states", ToColumn: "state_id"},
	}, path)
}

func TestRelationshipPath_ReverseDirection(t *testing.T) {
	c := mustWelfare(t)

	path, err := c.RelationshipPath("citizens", "health_details")
	require.NoError(t, err)
	require.Len(t, path, 1)
	assert.Equal(t, models.JoinStep{
		FromTable: "citizens", FromColumn: "citizen_id", ToTable: "health_details", ToColumn: "citizen_id",
	}, path[0])
}

func TestRelationshipPath_Deterministic(t *testing.T) {
	c := mustWelfare(t)

	first, err := c.RelationshipPath("citizens", "schemes")
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "citizens", first[0].FromTable)
	assert.Equal(t, "schemes", first[1].ToTable)

	for i := 0; i < 20; i++ {
		again, err := c.RelationshipPath("citizens", "schemes")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRelationshipPath_SameTableAndUnknown(t *testing.T) {
	c := mustWelfare(t)

	path, err := c.RelationshipPath("citizens", "CITIZENS")
	require.NoError(t, err)
	assert.Empty(t, path)

	_, err = c.RelationshipPath("citizens", "payments")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestRelationshipPath_Disconnected(t *testing.T) {
	c, err := New([]models.SchemaDescriptor{
		{Table: "a", Columns: []models.ColumnDescriptor{{Name: "id"}}},
		{Table: "b", Columns: []models.ColumnDescriptor{{Name: "id"}}},
	})
	require.NoError(t, err)

	_, err = c.RelationshipPath("a", "b")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestLookups(t *testing.T) {
	c := mustWelfare(t)

	d, ok := c.TableByAlias("DT")
	require.True(t, ok)
	assert.Equal(t, "districts", d.Table)

	assert.Equal(t, "hd", c.AliasOf("health_details"))
	assert.True(t, c.HasColumn("Disbursements", "PAYMENT_MODE"))
	assert.False(t, c.HasColumn("disbursements", "enrollment_id"))
	assert.Equal(t, []string{"enrollments", "disbursements"}, c.TablesWithColumn("status"))
}

func TestGroundingText(t *testing.T) {
	c := mustWelfare(t)

	text := c.GroundingText()
	assert.Contains(t, text, "### citizens (alias c)")
	assert.Contains(t, text, "- village_id: INT [FK→villages.village_id]")
	assert.Contains(t, text, "- disbursements.scheme_id -> schemes.scheme_id")
	assert.Equal(t, 11, strings.Count(text, "### "))
}
