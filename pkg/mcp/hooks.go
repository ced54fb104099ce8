package mcp

import (
	"context"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/llm"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/metrics"
)

// ToolCallObserver logs every tool call with its duration and outcome and
// counts it in metrics.
type ToolCallObserver struct {
	metrics *metrics.Metrics
	logger  *zap.Logger

	// startTimes tracks when tool calls begin, keyed by JSON-RPC id.
	startTimes sync.Map
}

// NewToolCallObserver creates a ToolCallObserver. m may be nil.
func NewToolCallObserver(m *metrics.Metrics, logger *zap.Logger) *ToolCallObserver {
	return &ToolCallObserver{
		metrics: m,
		logger:  logger.Named("mcp-tools"),
	}
}

// Hooks returns the server hooks to install with server.WithHooks.
func (o *ToolCallObserver) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(o.beforeCallTool)
	hooks.AddAfterCallTool(o.afterCallTool)
	hooks.AddOnError(o.onError)
	return hooks
}

func (o *ToolCallObserver) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	o.startTimes.Store(id, time.Now())
}

func (o *ToolCallObserver) afterCallTool(ctx context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	duration := o.elapsed(id)

	outcome := metrics.OutcomeSuccess
	if result != nil && result.IsError {
		outcome = metrics.OutcomeFailure
	}
	o.metrics.ObserveToolCall(req.Params.Name, outcome)

	o.logger.Info("Tool call",
		zap.String("tool", req.Params.Name),
		zap.String("outcome", outcome),
		zap.String("request_id", llm.RequestIDFromContext(ctx)),
		zap.Duration("duration", duration))
}

func (o *ToolCallObserver) onError(ctx context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	duration := o.elapsed(id)
	o.metrics.ObserveToolCall(req.Params.Name, metrics.OutcomeFailure)
	o.logger.Warn("Tool call failed",
		zap.String("tool", req.Params.Name),
		zap.String("request_id", llm.RequestIDFromContext(ctx)),
		zap.Duration("duration", duration),
		zap.Error(err))
}

func (o *ToolCallObserver) elapsed(id any) time.Duration {
	if v, ok := o.startTimes.LoadAndDelete(id); ok {
		return time.Since(v.(time.Time))
	}
	return 0
}
