package models

// TranslationMethod records which path produced a translated query.
type TranslationMethod string

const (
	MethodModel           TranslationMethod = "model"
	MethodPatternFallback TranslationMethod = "pattern-fallback"
)

// Confidence values are provenance tags, not calibrated probabilities.
// A model translation always reports ModelConfidence and a pattern
// translation always reports PatternConfidence.
const (
	ModelConfidence   = 0.8
	PatternConfidence = 0.6
)

// ChartType is the visualization suggested for a result set.
type ChartType string

const (
	ChartTable  ChartType = "table"
	ChartBar    ChartType = "bar"
	ChartPie    ChartType = "pie"
	ChartMetric ChartType = "metric"
)

// TranslationRequest is a single natural-language question. Execute asks the
// caller-facing service to run the query when it validates as safe.
type TranslationRequest struct {
	Question string `json:"question"`
	Execute  bool   `json:"execute"`
}

// TranslationSuccess is a candidate SQL statement. It is not safe to execute
// until it has passed the safety validator.
type TranslationSuccess struct {
	SQL        string            `json:"sql"`
	Method     TranslationMethod `json:"method"`
	Confidence float64           `json:"confidence"`
	ChartType  ChartType         `json:"chart_type"`
}

// TranslationFailure explains why no SQL could be produced.
type TranslationFailure struct {
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions"`
}

// TranslationResult holds exactly one of Success or Failure.
type TranslationResult struct {
	Success *TranslationSuccess `json:"success,omitempty"`
	Failure *TranslationFailure `json:"failure,omitempty"`
}

// Succeeded reports whether the translation produced SQL.
func (r TranslationResult) Succeeded() bool {
	return r.Success != nil
}

// NewTranslationSuccess builds a success whose confidence follows from method.
func NewTranslationSuccess(sql string, method TranslationMethod, chart ChartType) TranslationResult {
	confidence := ModelConfidence
	if method == MethodPatternFallback {
		confidence = PatternConfidence
	}
	return TranslationResult{Success: &TranslationSuccess{
		SQL:        sql,
		Method:     method,
		Confidence: confidence,
		ChartType:  chart,
	}}
}

// NewTranslationFailure builds a failure result.
func NewTranslationFailure(message string, suggestions []string) TranslationResult {
	return TranslationResult{Failure: &TranslationFailure{
		Message:     message,
		Suggestions: suggestions,
	}}
}
