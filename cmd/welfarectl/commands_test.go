package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNormalizeCmd(t *testing.T) {
	out, err := runCmd(t, "normalize", "SELECT name FROM officers ORDER BY name LIMIT 5")
	require.NoError(t, err)
	assert.Equal(t, "SELECT TOP 5 name FROM officers ORDER BY name\n", out)
}

func TestNormalizeCmd_Rules(t *testing.T) {
	out, err := runCmd(t, "normalize", "--rules")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestNormalizeCmd_RequiresSQL(t *testing.T) {
	_, err := runCmd(t, "normalize")
	require.Error(t, err)
}

func TestValidateCmd(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		safe   bool
		reason models.UnsafeReason
	}{
		{"limit rewritten to top", "SELECT name FROM officers ORDER BY name LIMIT 5", true, models.ReasonNone},
		{"scalar aggregate", "SELECT COUNT(*) FROM citizens", true, models.ReasonNone},
		{"write verb", "DELETE FROM citizens", false, models.ReasonWriteVerb},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCmd(t, "validate", tt.sql)
			require.NoError(t, err)

			var got models.SQLValidation
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, tt.sql, got.OriginalSQL)
			assert.Equal(t, tt.safe, got.Safe)
			assert.Equal(t, tt.reason, got.Reason)
			assert.Equal(t, tt.reason.Message(), got.Message)
		})
	}
}

func TestExplainCmd(t *testing.T) {
	out, err := runCmd(t, "explain", "SELECT COUNT(*) FROM citizens")
	require.NoError(t, err)

	var got models.Explanation
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "This query counts records from citizens.", got.Summary)
	assert.Equal(t, []string{"citizens"}, got.Tables)
}

func TestSchemaCmd(t *testing.T) {
	out, err := runCmd(t, "schema")
	require.NoError(t, err)

	var got []models.SchemaDescriptor
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	tables := make([]string, 0, len(got))
	for _, d := range got {
		tables = append(tables, d.Table)
	}
	assert.Contains(t, tables, "citizens")
	assert.Contains(t, tables, "disbursements")
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}
