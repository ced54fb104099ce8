// Package retry retries transient failures with exponential backoff. It is
// used when the service connects to SQL Server and the history database at
// startup, where containers often come up in parallel.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
)

// Config defines retry behavior with exponential backoff
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0.0-1.0
}

// DefaultConfig returns the startup connection policy: 5 retries from 500ms,
// capped at 10s, doubling each time, with 10% jitter.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:   5,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// applyJitter returns delay +/- (delay * jitterFactor * random(-1 to +1)).
func applyJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	jitter := float64(delay) * jitterFactor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + jitter)
}

// Do executes fn until it succeeds, returns a permanent error, or retries are
// exhausted. Respects context cancellation during wait periods.
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult is Do for functions that return a value, such as
// database.NewConnection. Errors that IsRetryable rejects are returned
// immediately.
func DoWithResult[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var zero T
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		r, err := fn()
		if err == nil {
			return r, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}

		if attempt < cfg.MaxRetries {
			select {
			case <-time.After(applyJitter(delay, cfg.JitterFactor)):
				delay = time.Duration(float64(delay) * cfg.Multiplier)
				if delay > cfg.MaxDelay {
					delay = cfg.MaxDelay
				}
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}

	return zero, lastErr
}

// RetryableError is implemented by errors that declare their retryability,
// such as llm.Error.
type RetryableError interface {
	error
	IsRetryable() bool
}

// SQL Server error numbers for conditions that clear on their own.
var transientSQLServerErrors = map[int32]bool{
	1205:  true, // deadlock victim
	4060:  true, // cannot open database (still recovering)
	40197: true, // Azure SQL service error processing request
	40501: true, // Azure SQL service busy
	40613: true, // Azure SQL database not currently available
	49918: true, // not enough resources
}

var retryablePatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"timeout",
	"timed out",
	"temporary failure",
	"too many connections",
	"the database system is starting up",
	"network is unreachable",
	"i/o timeout",
	"eof",
}

// IsRetryable determines if an error is transient and worth retrying.
// Authentication failures, bad configuration and context cancellation are
// permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var r RetryableError
	if errors.As(err, &r) {
		return r.IsRetryable()
	}

	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) {
		return transientSQLServerErrors[sqlErr.Number]
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
