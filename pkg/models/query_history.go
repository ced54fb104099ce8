package models

import (
	"time"

	"github.com/google/uuid"
)

// QueryHistoryEntry records one question asked through the service, whether
// or not it produced an executable query.
type QueryHistoryEntry struct {
	ID                uuid.UUID         `json:"id"`
	RequestID         string            `json:"request_id"`
	Question          string            `json:"question"`
	ProcessedQuestion string            `json:"processed_question,omitempty"`
	SQL               string            `json:"sql,omitempty"`
	Method            TranslationMethod `json:"method,omitempty"`
	Confidence        float64           `json:"confidence"`
	Safe              bool              `json:"safe"`
	UnsafeReason      UnsafeReason      `json:"unsafe_reason,omitempty"`
	QueryType         string            `json:"query_type,omitempty"`
	TablesUsed        []string          `json:"tables_used,omitempty"`
	RowCount          *int              `json:"row_count,omitempty"`
	ErrorMessage      *string           `json:"error_message,omitempty"`
	DurationMs        int64             `json:"duration_ms"`
	CreatedAt         time.Time         `json:"created_at"`
}
