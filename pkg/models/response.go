package models

// TranslationMeta carries provenance and diagnostics for a validated translation.
type TranslationMeta struct {
	RequestID            string            `json:"request_id"`
	OriginalQuestion     string            `json:"original_question"`
	ProcessedQuestion    string            `json:"processed_question,omitempty"`
	Method               TranslationMethod `json:"method,omitempty"`
	Confidence           float64           `json:"confidence,omitempty"`
	ChartType            ChartType         `json:"chart_type,omitempty"`
	Message              string            `json:"message,omitempty"`
	Suggestions          []string          `json:"suggestions,omitempty"`
	InjectionFingerprint string            `json:"injection_fingerprint,omitempty"`
	DurationMs           int64             `json:"duration_ms"`
}

// ValidatedTranslation is the result of the translate-and-validate entry point.
// SQL is empty when translation failed or the question was rejected outright.
type ValidatedTranslation struct {
	SQL    string          `json:"sql"`
	Safe   bool            `json:"safe"`
	Reason UnsafeReason    `json:"reason,omitempty"`
	Meta   TranslationMeta `json:"meta"`
}

// Explanation is a plain-English breakdown of a SELECT statement.
type Explanation struct {
	Tables     []string `json:"tables"`
	Operations []string `json:"operations,omitempty"`
	Filters    string   `json:"filters,omitempty"`
	Ordering   string   `json:"ordering,omitempty"`
	Limit      string   `json:"limit,omitempty"`
	Summary    string   `json:"summary"`
}

// QueryResponse is the formatted result returned to callers after execution.
type QueryResponse struct {
	Question    string            `json:"question"`
	SQL         string            `json:"sql"`
	Columns     []string          `json:"columns"`
	Rows        []map[string]any  `json:"rows"`
	RowCount    int               `json:"row_count"`
	Truncated   bool              `json:"truncated,omitempty"`
	ChartType   ChartType         `json:"chart_type"`
	Summary     string            `json:"summary"`
	Method      TranslationMethod `json:"method"`
	Confidence  float64           `json:"confidence"`
	Explanation *Explanation      `json:"explanation,omitempty"`
	RequestID   string            `json:"request_id"`
}

// AskResponse is the caller-facing outcome of an ask: the validated
// translation and, when executed, the formatted result.
type AskResponse struct {
	Translation *ValidatedTranslation `json:"translation"`
	Result      *QueryResponse        `json:"result,omitempty"`
}

// SampleCategory groups example questions for the UI and the samples endpoint.
type SampleCategory struct {
	Category  string   `json:"category"`
	Questions []string `json:"questions"`
}

// SQLValidation is the result of normalizing and validating caller-supplied SQL.
type SQLValidation struct {
	OriginalSQL   string       `json:"original_sql"`
	NormalizedSQL string       `json:"normalized_sql"`
	Safe          bool         `json:"safe"`
	Reason        UnsafeReason `json:"reason,omitempty"`
	Message       string       `json:"message,omitempty"`
}
