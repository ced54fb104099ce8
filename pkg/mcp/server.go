package mcp

import (
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/metrics"
)

// ServerName is advertised to MCP clients during initialization.
const ServerName = "welfare-nl2sql"

const instructions = `Answers questions about welfare beneficiaries, schemes, enrollments and disbursements.
Use query_welfare_data with a plain English question. Set execute to true to run the
generated SQL; results are capped and marked truncated when the cap is hit.
Use get_welfare_schema to see tables and columns, and validate_sql to check your own T-SQL.
Only read-only single SELECT statements are ever executed.`

// Server is the MCP surface of the translation service. Every tool call is
// logged and counted.
type Server struct {
	mcp      *server.MCPServer
	observer *ToolCallObserver
	logger   *zap.Logger
}

// NewServer creates the MCP server. m may be nil.
func NewServer(version string, m *metrics.Metrics, logger *zap.Logger) *Server {
	observer := NewToolCallObserver(m, logger)
	return &Server{
		mcp: server.NewMCPServer(
			ServerName,
			version,
			server.WithToolCapabilities(true),
			server.WithInstructions(instructions),
			server.WithHooks(observer.Hooks()),
			server.WithRecovery(),
		),
		observer: observer,
		logger:   logger.Named("mcp"),
	}
}

// MCP returns the underlying MCPServer for tool registration.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Handler serves the streamable HTTP transport. Sessions are not kept: each
// tool call is independent. The caller mounts it at /mcp.
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp, server.WithStateLess(true))
}

// RegisterTool adds a single tool outside the welfare tool set.
func (s *Server) RegisterTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.logger.Debug("Registering tool", zap.String("tool", tool.Name))
	s.mcp.AddTool(tool, handler)
}
