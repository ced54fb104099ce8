package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorResult(t *testing.T) {
	result := NewErrorResultWithDetails("invalid_parameters", "question is required", map[string]any{"field": "question"})

	require.True(t, result.IsError)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(text.Text), &resp))
	assert.True(t, resp.Error)
	assert.Equal(t, "invalid_parameters", resp.Code)
	assert.Equal(t, "question is required", resp.Message)
	assert.NotNil(t, resp.Details)
}

func TestSQLUserErrorCode(t *testing.T) {
	tests := []struct {
		number int32
		want   string
	}{
		{102, "syntax_error"},
		{207, "undefined_column"},
		{208, "undefined_table"},
		{229, "permission_denied"},
		{245, "invalid_input"},
		{8134, "division_by_zero"},
		{50000, "sql_error"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			err := fmt.Errorf("failed to execute query: %w", mssql.Error{Number: tt.number, Class: 16})
			assert.Equal(t, tt.want, SQLUserErrorCode(err))
		})
	}

	assert.Empty(t, SQLUserErrorCode(errors.New("plain")))
}

func TestIsSQLUserError(t *testing.T) {
	assert.True(t, IsSQLUserError(mssql.Error{Number: 207, Class: 16}))
	assert.False(t, IsSQLUserError(mssql.Error{Number: 4060, Class: 20}))
	assert.False(t, IsSQLUserError(errors.New("dial tcp: timeout")))
	assert.False(t, IsSQLUserError(nil))

	assert.Nil(t, NewSQLErrorResult(errors.New("dial tcp: timeout")))
	assert.NotNil(t, NewSQLErrorResult(mssql.Error{Number: 208, Class: 16, Message: "Invalid object name 'x'."}))
}
