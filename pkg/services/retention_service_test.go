package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
)

type pruneRecorder struct {
	mu      sync.Mutex
	cutoffs []time.Time
	deleted int64
	err     error
}

func (p *pruneRecorder) Record(context.Context, *models.QueryHistoryEntry) error { return nil }

func (p *pruneRecorder) ListRecent(context.Context, int) ([]*models.QueryHistoryEntry, error) {
	return nil, nil
}

func (p *pruneRecorder) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cutoffs = append(p.cutoffs, cutoff)
	return p.deleted, p.err
}

func (p *pruneRecorder) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cutoffs)
}

func newTestRetentionService(history QueryHistoryService, days int) *retentionService {
	svc := NewRetentionService(history, days, zap.NewNop()).(*retentionService)
	svc.now = fixedClock
	return svc
}

func TestRetentionService_Prune(t *testing.T) {
	history := &pruneRecorder{deleted: 3}
	svc := newTestRetentionService(history, 30)

	n, err := svc.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.Len(t, history.cutoffs, 1)
	assert.Equal(t, time.Date(2026, time.January, 30, 10, 0, 0, 0, time.UTC), history.cutoffs[0])
}

func TestRetentionService_DefaultDays(t *testing.T) {
	history := &pruneRecorder{}
	svc := newTestRetentionService(history, 0)

	_, err := svc.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixedClock().AddDate(0, 0, -DefaultRetentionDays), history.cutoffs[0])
}

func TestRetentionService_PruneError(t *testing.T) {
	history := &pruneRecorder{err: errors.New("history database down")}
	svc := newTestRetentionService(history, 30)

	_, err := svc.Prune(context.Background())
	require.Error(t, err)
}

func TestRetentionService_RunScheduler(t *testing.T) {
	history := &pruneRecorder{}
	svc := NewRetentionService(history, 30, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.RunScheduler(ctx, 10*time.Millisecond)

	require.Eventually(t, func() bool { return history.calls() >= 2 }, time.Second, 5*time.Millisecond,
		"scheduler should prune on start and then on each tick")
	cancel()
}
