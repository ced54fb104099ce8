package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/llm"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/logging"
)

// Outcomes of an MCP exchange as logged by MCPRequestLogger.
const (
	MCPOutcomeSuccess   = "success"
	MCPOutcomeToolError = "tool_error"
	MCPOutcomeRPCError  = "rpc_error"
	MCPOutcomeStreamed  = "streamed"
)

// maxMCPBody bounds the request body buffered for logging. Tool arguments are
// a question or a single statement.
const maxMCPBody = 1 << 20

// MCPRequestLogger returns middleware that writes one entry per JSON-RPC
// exchange on /mcp: method, tool, masked arguments, outcome and duration.
// Successful calls log at DEBUG, tool errors at INFO and protocol errors at
// WARN. Pass nil logger to disable logging.
func MCPRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMCPBody))
			if err != nil {
				status := http.StatusBadRequest
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					status = http.StatusRequestEntityTooLarge
				}
				logger.Warn("Failed to read MCP request body", zap.Error(err))
				http.Error(w, http.StatusText(status), status)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			var rpcReq jsonRPCRequest
			if err := json.Unmarshal(body, &rpcReq); err != nil || rpcReq.Method == "" {
				// SSE GETs, session DELETEs and probes carry no JSON-RPC call.
				logger.Debug("MCP transport request",
					zap.String("http_method", r.Method),
					zap.Int("body_bytes", len(body)))
				next.ServeHTTP(w, r)
				return
			}

			recorder := &mcpResponseRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(recorder, r)

			fields := []zap.Field{
				zap.String("method", rpcReq.Method),
				zap.Duration("duration", time.Since(start)),
			}
			if rpcReq.Params.Name != "" {
				fields = append(fields,
					zap.String("tool", rpcReq.Params.Name),
					zap.Any("arguments", sanitizeArguments(rpcReq.Params.Arguments)))
			}
			if id := llm.RequestIDFromContext(r.Context()); id != "" {
				fields = append(fields, zap.String("request_id", id))
			}

			level := zapcore.DebugLevel
			outcome := MCPOutcomeSuccess
			var rpcResp jsonRPCResponse
			switch {
			case recorder.body.Len() == 0:
				// Notifications are acknowledged without a body.
			case json.Unmarshal(recorder.body.Bytes(), &rpcResp) != nil:
				outcome = MCPOutcomeStreamed
			case rpcResp.Error != nil:
				level = zapcore.WarnLevel
				outcome = MCPOutcomeRPCError
				fields = append(fields,
					zap.Int("error_code", rpcResp.Error.Code),
					zap.String("error_message", rpcResp.Error.Message))
			case rpcResp.Result.IsError:
				level = zapcore.InfoLevel
				outcome = MCPOutcomeToolError
			}
			fields = append(fields, zap.String("outcome", outcome))

			if ce := logger.Check(level, "MCP call"); ce != nil {
				ce.Write(fields...)
			}
		})
	}
}

type jsonRPCRequest struct {
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

type jsonRPCResponse struct {
	Result struct {
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *jsonRPCError `json:"error"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// mcpResponseRecorder tees the response body. Flush is forwarded so
// streamed responses still reach the client as they are written.
type mcpResponseRecorder struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (r *mcpResponseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *mcpResponseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

var sensitiveKeywords = []string{"password", "secret", "token", "key", "credential"}

func isSensitiveArgument(name string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// sanitizeArguments redacts credential-like arguments. Strings are PII-masked
// and truncated since questions may name citizens.
func sanitizeArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}

	result := make(map[string]any, len(args))
	for k, v := range args {
		if isSensitiveArgument(k) {
			result[k] = logging.RedactedText
			continue
		}
		if str, ok := v.(string); ok {
			result[k] = logging.SanitizeQuery(str)
			continue
		}
		result[k] = v
	}
	return result
}
