package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/adapters/datasource"
)

// Executor states reported by the health tool.
const (
	ExecutorDisabled    = "disabled"
	ExecutorReachable   = "reachable"
	ExecutorUnreachable = "unreachable"
)

const executorPingTimeout = 3 * time.Second

// HealthToolDeps describes the pipeline components the health tool reports on.
// Executor is nil when query execution is not configured.
type HealthToolDeps struct {
	Version  string
	Model    string // "provider/model", empty when only the pattern fallback is available
	Executor datasource.ConnectionTester
	Cache    bool
	History  bool
}

type healthResult struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Model    string `json:"model"`
	Executor string `json:"executor"`
	Cache    bool   `json:"cache"`
	History  bool   `json:"history"`
}

// RegisterHealthTool adds the health tool. Status is "degraded" when the
// executor is configured but does not answer a ping.
func RegisterHealthTool(s *server.MCPServer, deps *HealthToolDeps) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Reports server version, the translation model in use and whether queries can be executed"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := healthResult{
			Status:   "ok",
			Version:  deps.Version,
			Model:    deps.Model,
			Executor: ExecutorDisabled,
			Cache:    deps.Cache,
			History:  deps.History,
		}
		if res.Model == "" {
			res.Model = "pattern_fallback"
		}

		if deps.Executor != nil {
			pingCtx, cancel := context.WithTimeout(ctx, executorPingTimeout)
			defer cancel()
			if err := deps.Executor.TestConnection(pingCtx); err != nil {
				res.Status = "degraded"
				res.Executor = ExecutorUnreachable
			} else {
				res.Executor = ExecutorReachable
			}
		}

		body, err := json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal health result: %w", err)
		}
		return mcp.NewToolResultText(string(body)), nil
	})
}
