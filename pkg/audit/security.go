// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/logging"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventQuestionRejected is logged when a question smuggles a statement
	// separator followed by a write keyword.
	EventQuestionRejected SecurityEventType = "question_rejected"
	// EventUnsafeSQLBlocked is logged when translated SQL fails the safety check.
	EventUnsafeSQLBlocked SecurityEventType = "unsafe_sql_blocked"
	// EventQueryExecution is logged for every executed query (can be high volume).
	EventQueryExecution SecurityEventType = "query_execution"
)

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	RequestID string            `json:"request_id"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// QuestionDetails describe a rejected question.
type QuestionDetails struct {
	Question    string              `json:"question"`
	Reason      models.UnsafeReason `json:"reason"`
	Fingerprint string              `json:"fingerprint,omitempty"` // libinjection fingerprint for pattern analysis
}

// SQLDetails describe a blocked or executed statement.
type SQLDetails struct {
	SQL      string                   `json:"sql"`
	Method   models.TranslationMethod `json:"method,omitempty"`
	Reason   models.UnsafeReason      `json:"reason,omitempty"`
	RowCount *int                     `json:"row_count,omitempty"`
}

// SecurityAuditor logs security events for SIEM consumption.
// Events are logged in structured JSON format with appropriate severity levels.
type SecurityAuditor struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger namespace.
// The "security_audit" namespace allows filtering in SIEM systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{
		logger: logger.Named("security_audit"),
		now:    time.Now,
	}
}

// LogQuestionRejected records a question rejected before translation. Logged
// at ERROR level with "critical" severity: these are injection attempts.
func (a *SecurityAuditor) LogQuestionRejected(requestID string, details QuestionDetails) {
	details.Question = logging.SanitizeQuery(details.Question)
	a.log(zap.ErrorLevel, "Question rejected before translation", SecurityEvent{
		EventType: EventQuestionRejected,
		RequestID: requestID,
		Details:   details,
		Severity:  "critical",
	}, zap.String("reason", string(details.Reason)),
		zap.String("fingerprint", details.Fingerprint))
}

// LogUnsafeSQL records translated SQL that was refused by the safety check.
// The model can be coaxed into writes, so these are warnings rather than
// user errors.
func (a *SecurityAuditor) LogUnsafeSQL(requestID string, details SQLDetails) {
	details.SQL = logging.SanitizeQuery(details.SQL)
	a.log(zap.WarnLevel, "Translated SQL blocked", SecurityEvent{
		EventType: EventUnsafeSQLBlocked,
		RequestID: requestID,
		Details:   details,
		Severity:  "warning",
	}, zap.String("reason", string(details.Reason)),
		zap.String("method", string(details.Method)))
}

// LogQueryExecution records an executed query for the audit trail.
func (a *SecurityAuditor) LogQueryExecution(requestID string, details SQLDetails) {
	details.SQL = logging.SanitizeQuery(details.SQL)
	a.log(zap.InfoLevel, "Query executed", SecurityEvent{
		EventType: EventQueryExecution,
		RequestID: requestID,
		Details:   details,
		Severity:  "info",
	}, zap.String("method", string(details.Method)))
}

func (a *SecurityAuditor) log(level zapcore.Level, msg string, event SecurityEvent, fields ...zap.Field) {
	event.Timestamp = a.now().UTC()

	// Marshaling known types cannot fail.
	eventJSON, _ := json.Marshal(event)

	fields = append([]zap.Field{
		zap.String("event_json", string(eventJSON)),
		zap.String("event_type", string(event.EventType)),
		zap.String("request_id", event.RequestID),
		zap.String("severity", event.Severity),
	}, fields...)

	if ce := a.logger.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}
