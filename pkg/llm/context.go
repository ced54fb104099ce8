package llm

import (
	"context"
	"net/http"
)

type contextKey string

const requestIDKey contextKey = "llm_request_id"

// requestIDHeader carries the pipeline request id to the provider so provider
// side logs can be correlated with query history.
const requestIDHeader = "X-Request-Id"

// WithRequestID attaches the pipeline request id to ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// requestIDTransport copies the request id from the request context into an
// outgoing header.
type requestIDTransport struct {
	base http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if id := RequestIDFromContext(req.Context()); id != "" {
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, id)
	}
	return t.base.RoundTrip(req)
}

// newHTTPClient returns the HTTP client shared by provider SDKs.
func newHTTPClient() *http.Client {
	return &http.Client{Transport: &requestIDTransport{base: http.DefaultTransport}}
}
