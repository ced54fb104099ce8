package audit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
)

// setupTestAuditor creates an auditor whose log entries are captured.
func setupTestAuditor(t *testing.T) (*SecurityAuditor, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	auditor := NewSecurityAuditor(zap.New(core))
	auditor.now = func() time.Time { return time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC) }
	return auditor, recorded
}

func decodeEvent(t *testing.T, entry observer.LoggedEntry) map[string]any {
	t.Helper()
	raw, ok := entry.ContextMap()["event_json"].(string)
	require.True(t, ok, "event_json field missing")

	var event map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &event))
	return event
}

func TestLogQuestionRejected(t *testing.T) {
	auditor, recorded := setupTestAuditor(t)

	auditor.LogQuestionRejected("req-1", QuestionDetails{
		Question:    "citizens with aadhaar 2345 6789 0123; DROP TABLE citizens",
		Reason:      models.ReasonWriteVerb,
		Fingerprint: "s;T",
	})

	logs := recorded.All()
	require.Len(t, logs, 1)
	entry := logs[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "security_audit", entry.LoggerName)
	assert.Equal(t, "Question rejected before translation", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "critical", fields["severity"])
	assert.Equal(t, string(EventQuestionRejected), fields["event_type"])
	assert.Equal(t, "s;T", fields["fingerprint"])

	event := decodeEvent(t, entry)
	assert.Equal(t, "2026-03-01T10:00:00Z", event["timestamp"])
	details := event["details"].(map[string]any)
	assert.NotContains(t, details["question"], "2345 6789 0123", "Aadhaar numbers are masked")
	assert.Contains(t, details["question"], "[AADHAAR]")
	assert.Equal(t, string(models.ReasonWriteVerb), details["reason"])
}

func TestLogUnsafeSQL(t *testing.T) {
	auditor, recorded := setupTestAuditor(t)

	auditor.LogUnsafeSQL("req-2", SQLDetails{
		SQL:    "DELETE FROM citizens WHERE age > 100",
		Method: models.MethodModel,
		Reason: models.ReasonWriteVerb,
	})

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	assert.Equal(t, "warning", logs[0].ContextMap()["severity"])
	assert.Equal(t, "model", logs[0].ContextMap()["method"])

	details := decodeEvent(t, logs[0])["details"].(map[string]any)
	assert.Equal(t, "DELETE FROM citizens WHERE age > 100", details["sql"])
	assert.NotContains(t, details, "row_count")
}

func TestLogQueryExecution(t *testing.T) {
	auditor, recorded := setupTestAuditor(t)

	rows := 12
	auditor.LogQueryExecution("req-3", SQLDetails{
		SQL:      "SELECT TOP 100 c.name FROM citizens c",
		Method:   models.MethodPatternFallback,
		RowCount: &rows,
	})

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.InfoLevel, logs[0].Level)

	event := decodeEvent(t, logs[0])
	assert.Equal(t, string(EventQueryExecution), event["event_type"])
	assert.Equal(t, "req-3", event["request_id"])
	details := event["details"].(map[string]any)
	assert.Equal(t, float64(12), details["row_count"])
	assert.NotContains(t, details, "reason")
}

func TestSecurityAuditor_RespectsLevel(t *testing.T) {
	core, recorded := observer.New(zapcore.WarnLevel)
	auditor := NewSecurityAuditor(zap.New(core))

	auditor.LogQueryExecution("req-4", SQLDetails{SQL: "SELECT COUNT(*) FROM citizens"})
	assert.Zero(t, recorded.Len(), "info events are dropped below the configured level")

	auditor.LogUnsafeSQL("req-4", SQLDetails{SQL: "SELECT * FROM citizens", Reason: models.ReasonMissingBound})
	assert.Equal(t, 1, recorded.Len())
}
