package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() *Config {
	return &Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

var errTransient = errors.New("dial tcp 10.0.0.5:1433: connect: connection refused")

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, 10*time.Second, cfg.MaxDelay)
	assert.Equal(t, 2.0, cfg.Multiplier)
}

func TestDo_Success(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), fastConfig(), func() error {
		callCount++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, callCount)
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), fastConfig(), func() error {
		callCount++
		if callCount < 3 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, callCount)
}

func TestDo_MaxRetriesExhausted(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), fastConfig(), func() error {
		callCount++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 4, callCount) // initial + 3 retries
}

func TestDo_PermanentErrorNotRetried(t *testing.T) {
	permanent := mssql.Error{Number: 18456, Class: 14, Message: "Login failed for user 'welfare'."}
	callCount := 0
	err := Do(context.Background(), fastConfig(), func() error {
		callCount++
		return fmt.Errorf("failed to ping database: %w", permanent)
	})

	require.Error(t, err)
	assert.Equal(t, 1, callCount)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{MaxRetries: 10, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}

	callCount := 0
	err := Do(ctx, cfg, func() error {
		callCount++
		cancel()
		return errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, callCount)
}

func TestDoWithResult(t *testing.T) {
	callCount := 0
	got, err := DoWithResult(context.Background(), fastConfig(), func() (string, error) {
		callCount++
		if callCount == 1 {
			return "", errTransient
		}
		return "connected", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "connected", got)
	assert.Equal(t, 2, callCount)
}

func TestDoWithResult_ReturnsZeroOnFailure(t *testing.T) {
	got, err := DoWithResult(context.Background(), fastConfig(), func() (*int, error) {
		v := 1
		return &v, errors.New("invalid port")
	})

	require.Error(t, err)
	assert.Nil(t, got)
}

func TestDo_NilConfig(t *testing.T) {
	err := Do(context.Background(), nil, func() error { return nil })
	assert.NoError(t, err)
}

type declaredError struct{ retryable bool }

func (e declaredError) Error() string     { return "upstream 503" }
func (e declaredError) IsRetryable() bool { return e.retryable }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errTransient, true},
		{"Connection Reset (uppercase)", errors.New("Connection Reset by peer"), true},
		{"i/o timeout", errors.New("read tcp: i/o timeout"), true},
		{"no such host", errors.New("lookup mssql: no such host"), true},
		{"postgres starting", errors.New("FATAL: the database system is starting up"), true},
		{"deadlock victim", mssql.Error{Number: 1205, Class: 13}, true},
		{"azure db unavailable", fmt.Errorf("ping: %w", mssql.Error{Number: 40613, Class: 17}), true},
		{"login failed", mssql.Error{Number: 18456, Class: 14}, false},
		{"invalid object", mssql.Error{Number: 208, Class: 16}, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", fmt.Errorf("connect: %w", context.DeadlineExceeded), false},
		{"declared retryable", declaredError{retryable: true}, true},
		{"declared permanent", declaredError{retryable: false}, false},
		{"auth error", errors.New("authentication failed"), false},
		{"syntax error", errors.New("syntax error at position 10"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestApplyJitter(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, applyJitter(100*time.Millisecond, 0))

	for i := 0; i < 50; i++ {
		d := applyJitter(100*time.Millisecond, 0.1)
		assert.GreaterOrEqual(t, d, 90*time.Millisecond)
		assert.LessOrEqual(t, d, 110*time.Millisecond)
	}
}
