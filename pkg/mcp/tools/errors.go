package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	mssql "github.com/microsoft/go-mssqldb"
)

// ErrorResponse represents a structured error in tool results.
// It is returned as a successful tool result so the error details reach the
// model instead of being swallowed by the MCP client.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for errors the caller can act on (empty question, unsafe SQL,
// bad column). System failures still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// SQL Server severity classes 11-16 are errors the user can correct.
const (
	minUserErrorClass = 11
	maxUserErrorClass = 16
)

// IsSQLUserError reports whether err is a SQL Server error caused by the
// statement (bad column, conversion failure, permission) rather than the
// connection or the server.
func IsSQLUserError(err error) bool {
	var sqlErr mssql.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	return sqlErr.Class >= minUserErrorClass && sqlErr.Class <= maxUserErrorClass
}

// SQLUserErrorCode maps a SQL Server error number to a stable error code.
// Returns empty string if err is not a SQL Server error.
func SQLUserErrorCode(err error) string {
	var sqlErr mssql.Error
	if !errors.As(err, &sqlErr) {
		return ""
	}

	switch sqlErr.Number {
	case 102, 156:
		return "syntax_error"
	case 207:
		return "undefined_column"
	case 208:
		return "undefined_table"
	case 209:
		return "ambiguous_column"
	case 229, 230:
		return "permission_denied"
	case 241, 242, 245, 8114:
		return "invalid_input"
	case 8120:
		return "grouping_error"
	case 8134:
		return "division_by_zero"
	}
	return "sql_error"
}

// NewSQLErrorResult creates an error result from a SQL Server user error,
// keeping the server's message as-is. Returns nil for any other error.
func NewSQLErrorResult(err error) *mcp.CallToolResult {
	if !IsSQLUserError(err) {
		return nil
	}
	var sqlErr mssql.Error
	errors.As(err, &sqlErr)
	return NewErrorResult(SQLUserErrorCode(err), sqlErr.Message)
}
