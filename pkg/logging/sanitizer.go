package logging

import (
	"regexp"
	"unicode/utf8"
)

const (
	// MaxQueryLogLength caps, in bytes, a question or SQL statement in logs.
	MaxQueryLogLength = 100
	// RedactedText replaces credentials.
	RedactedText = "[REDACTED]"
)

// redaction rewrites every match of pattern with replacement, which may refer
// to capture groups.
type redaction struct {
	pattern     *regexp.Regexp
	replacement string
}

var (
	// password=, pwd=, pass= up to the next delimiter
	redactPassword = redaction{regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`), "${1}=" + RedactedText}

	// Azure AD credentials in SQL Server DSNs and driver errors
	redactAzureSecret = redaction{regexp.MustCompile(`(?i)(client[_ ]?secret|access[_ ]?token)=[^;&\s]+`), "${1}=" + RedactedText}

	redactBearer = redaction{regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*`), "Bearer " + RedactedText}

	redactAPIKey = redaction{regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`), "${1}=" + RedactedText}

	// user:pass@host
	redactURLCredentials = redaction{regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`), "://" + RedactedText + "@" + RedactedText}

	// Aadhaar: 12 digits, optionally grouped 4-4-4, never starting with 0 or 1
	maskAadhaar = redaction{regexp.MustCompile(`\b[2-9]\d{3}\s?\d{4}\s?\d{4}\b`), "[AADHAAR]"}

	// Indian mobile numbers: 10 digits starting with 6-9
	maskMobile = redaction{regexp.MustCompile(`\b[6-9]\d{9}\b`), "[MOBILE]"}
)

var (
	connectionRules = []redaction{redactPassword, redactAzureSecret, redactURLCredentials}
	errorRules      = []redaction{redactPassword, redactAzureSecret, redactBearer, redactAPIKey, redactURLCredentials}
	piiRules        = []redaction{maskAadhaar, maskMobile}
	// PII goes first so truncation never leaves a partial identifier behind.
	queryRules = []redaction{maskAadhaar, maskMobile, redactPassword, redactAPIKey}
)

func apply(s string, rules []redaction) string {
	for _, r := range rules {
		s = r.pattern.ReplaceAllString(s, r.replacement)
	}
	return s
}

// SanitizeConnectionString removes credentials from a DSN or URL before it
// is logged.
func SanitizeConnectionString(connStr string) string {
	return apply(connStr, connectionRules)
}

// SanitizeError renders err with credentials removed. Driver and model
// errors can echo DSNs, headers and keys.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return apply(err.Error(), errorRules)
}

// SanitizeQuery masks citizen identifiers and credentials in a question or
// SQL statement, then truncates it.
func SanitizeQuery(query string) string {
	return TruncateString(apply(query, queryRules), MaxQueryLogLength)
}

// MaskPII replaces Aadhaar and mobile numbers.
func MaskPII(s string) string {
	return apply(s, piiRules)
}

// TruncateString cuts s to at most maxLen bytes, backing off to a rune
// boundary, and appends an ellipsis when anything was removed.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := max(maxLen, 0)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
