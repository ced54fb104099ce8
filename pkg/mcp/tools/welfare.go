package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/apperrors"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/catalog"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/services"
)

// WelfareToolDeps contains dependencies for the welfare data tools.
type WelfareToolDeps struct {
	Service services.NL2SQLService
	Catalog *catalog.Catalog
	Logger  *zap.Logger
}

// RegisterWelfareTools registers the question, validation and schema tools.
func RegisterWelfareTools(s *server.MCPServer, deps *WelfareToolDeps) {
	registerQueryWelfareDataTool(s, deps)
	registerValidateSQLTool(s, deps)
	registerGetSchemaTool(s, deps)
}

func registerQueryWelfareDataTool(s *server.MCPServer, deps *WelfareToolDeps) {
	tool := mcp.NewTool(
		"query_welfare_data",
		mcp.WithDescription(
			"Translate a plain-English question about welfare beneficiaries, schemes, enrollments "+
				"and payments into a read-only SQL Server query. The query is safety-checked before it "+
				"is returned. Set execute=true to also run it and get rows back.",
		),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("Question in English, e.g. 'How many citizens are enrolled in each scheme?'"),
		),
		mcp.WithBoolean(
			"execute",
			mcp.Description("Run the query when it validates as safe (default: false)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return NewErrorResult("invalid_parameters", "question is required"), nil
		}
		execute := req.GetBool("execute", false)

		resp, err := deps.Service.Ask(ctx, models.TranslationRequest{Question: question, Execute: execute})
		if err != nil {
			return serviceErrorResult(deps.Logger, "query_welfare_data", err)
		}
		return jsonResult(resp)
	})
}

func registerValidateSQLTool(s *server.MCPServer, deps *WelfareToolDeps) {
	tool := mcp.NewTool(
		"validate_sql",
		mcp.WithDescription(
			"Normalize a T-SQL statement against the welfare schema and report whether it is safe "+
				"to run: a single bounded SELECT with no write keywords, separators or comments.",
		),
		mcp.WithString(
			"sql",
			mcp.Required(),
			mcp.Description("SQL statement to check"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, err := req.RequireString("sql")
		if err != nil {
			return NewErrorResult("invalid_parameters", "sql is required"), nil
		}

		result, err := deps.Service.ValidateSQL(ctx, sql)
		if err != nil {
			return serviceErrorResult(deps.Logger, "validate_sql", err)
		}
		return jsonResult(result)
	})
}

func registerGetSchemaTool(s *server.MCPServer, deps *WelfareToolDeps) {
	tool := mcp.NewTool(
		"get_welfare_schema",
		mcp.WithDescription("List the welfare tables, their columns and foreign-key relationships."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(map[string]any{
			"dialect": "tsql",
			"tables":  deps.Catalog.Describe(),
		})
	})
}

// serviceErrorResult turns pipeline errors the caller can act on into tool
// error results. Anything else is returned as a Go error.
func serviceErrorResult(logger *zap.Logger, toolName string, err error) (*mcp.CallToolResult, error) {
	var execErr *apperrors.ExecutorError
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return NewErrorResult("invalid_parameters", err.Error()), nil
	case errors.Is(err, apperrors.ErrExecutorUnavailable):
		return NewErrorResult("executor_unavailable", "query execution is not configured; call again with execute=false"), nil
	case errors.As(err, &execErr):
		if result := NewSQLErrorResult(execErr.Err); result != nil {
			return result, nil
		}
		return NewErrorResult("query_failed", execErr.Error()), nil
	}

	logger.Error("Tool call failed", zap.String("tool", toolName), zap.Error(err))
	return nil, fmt.Errorf("%s failed: %w", toolName, err)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
