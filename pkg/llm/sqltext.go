package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoSQL is returned when a model response carries nothing SQL-shaped.
var ErrNoSQL = errors.New("no SQL statement in model response")

// thinkTagPattern matches <think>...</think> blocks emitted by reasoning models.
var thinkTagPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

// fencePattern captures the body of the first markdown code fence.
var fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\\r?\\n?(.*?)```")

// statementStartPattern finds a statement keyword at the start of a line.
// Write verbs are included so that the validator, not extraction, rejects them.
var statementStartPattern = regexp.MustCompile(`(?im)^[ \t]*(SELECT|WITH|INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|TRUNCATE|EXEC|EXECUTE|MERGE|EXPLAIN)\b`)

// ExtractSQL pulls the SQL statement out of a model response that may contain
// <think> tags, a JSON envelope, markdown fences, or surrounding prose.
//
// Accepted shapes, in order:
//
//	{"sql_query": "SELECT ..."}   or {"sql": "SELECT ..."}
//	```sql\nSELECT ...\n```
//	Here you go:\nSELECT ...
func ExtractSQL(response string) (string, error) {
	cleaned := strings.TrimSpace(thinkTagPattern.ReplaceAllString(response, ""))
	if cleaned == "" {
		return "", ErrNoSQL
	}

	if sql, ok := sqlFromJSON(cleaned); ok {
		return sqlStatement(sql)
	}

	if m := fencePattern.FindStringSubmatch(cleaned); m != nil {
		body := strings.TrimSpace(m[1])
		if sql, ok := sqlFromJSON(body); ok {
			return sqlStatement(sql)
		}
		return sqlStatement(body)
	}

	// A fence that was opened but never closed.
	if idx := strings.Index(cleaned, "```"); idx >= 0 {
		rest := cleaned[idx+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		cleaned = rest
	}

	return sqlStatement(cleaned)
}

// sqlStatement returns text from the first line-leading statement keyword up
// to the first blank line.
func sqlStatement(text string) (string, error) {
	loc := statementStartPattern.FindStringIndex(text)
	if loc == nil {
		return "", ErrNoSQL
	}
	stmt := text[loc[0]:]
	if end := strings.Index(stmt, "\n\n"); end >= 0 {
		stmt = stmt[:end]
	}
	stmt = strings.TrimSpace(stmt)
	if stmt == "" {
		return "", ErrNoSQL
	}
	return stmt, nil
}

func sqlFromJSON(text string) (string, bool) {
	if !strings.Contains(text, "{") {
		return "", false
	}
	raw, ok := extractBalancedJSON(text, '{', '}')
	if !ok {
		return "", false
	}
	var envelope map[string]any
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return "", false
	}
	for _, key := range []string{"sql_query", "sql", "query"} {
		if s, ok := envelope[key].(string); ok && strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}

// extractBalancedJSON finds the first balanced structure starting with openChar.
// It handles nested structures and brackets inside JSON strings.
func extractBalancedJSON(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case openChar:
			depth++
		case closeChar:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
