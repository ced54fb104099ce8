package models

// UnsafeReason names the rule that rejected a statement.
type UnsafeReason string

const (
	ReasonNone               UnsafeReason = ""
	ReasonWriteVerb          UnsafeReason = "contains-write-verb"
	ReasonStatementSeparator UnsafeReason = "contains-statement-separator"
	ReasonMissingBound       UnsafeReason = "missing-bound-clause"
	ReasonNotRead            UnsafeReason = "not-a-read-statement"
)

// Message returns a human-readable explanation of the reason.
func (r UnsafeReason) Message() string {
	switch r {
	case ReasonWriteVerb:
		return "query contains a write or DDL keyword"
	case ReasonStatementSeparator:
		return "query contains a statement separator or comment marker"
	case ReasonMissingBound:
		return "query has no row-limiting clause (use TOP n)"
	case ReasonNotRead:
		return "only SELECT statements are allowed"
	default:
		return ""
	}
}

// ValidationVerdict is the outcome of safety validation. A safe verdict has
// an empty Reason.
type ValidationVerdict struct {
	Safe   bool         `json:"safe"`
	Reason UnsafeReason `json:"reason,omitempty"`
}

// SafeVerdict is the verdict for an executable statement.
func SafeVerdict() ValidationVerdict {
	return ValidationVerdict{Safe: true}
}

// UnsafeVerdict rejects a statement for reason.
func UnsafeVerdict(reason UnsafeReason) ValidationVerdict {
	return ValidationVerdict{Safe: false, Reason: reason}
}
