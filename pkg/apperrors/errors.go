package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrTranslationUnavailable = errors.New("could not convert query to SQL")
	ErrUnsafeQuery            = errors.New("unsafe query")
	ErrExecutorUnavailable    = errors.New("query executor not configured")
)

// UnsafeQueryError reports the validator rule that rejected a statement.
type UnsafeQueryError struct {
	Reason string
}

func (e *UnsafeQueryError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsafeQuery.Error(), e.Reason)
}

func (e *UnsafeQueryError) Unwrap() error {
	return ErrUnsafeQuery
}

// ExecutorError wraps a failure from the SQL executor. The native message is
// preserved as-is.
type ExecutorError struct {
	Err error
}

func (e *ExecutorError) Error() string {
	return e.Err.Error()
}

func (e *ExecutorError) Unwrap() error {
	return e.Err
}
