package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	"github.com/narayanprabad/InvestWise/pkg/metrics"
)

type recordingProc struct {
	mu       sync.Mutex
	failures int
	calls    int
	got      []*models.ConditionSnapshot
}

func (r *recordingProc) ProcessBatch(_ context.Context, snaps []*models.ConditionSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.calls <= r.failures {
		return errors.New("broker unavailable")
	}
	r.got = append(r.got, snaps...)
	return nil
}

func (r *recordingProc) symbols() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.got))
	for i, s := range r.got {
		out[i] = s.Symbol
	}
	return out
}

var base = time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)

func snap(symbol string, at time.Duration) *models.ConditionSnapshot {
	return &models.ConditionSnapshot{Symbol: symbol, Timestamp: base.Add(at), Condition: models.Neutral, Mode: models.ModeWeighted}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &recordingProc{}
	p := NewSnapshotPipeline(proc, metrics.Nop{}, WithThrottle(30*time.Second), WithBatch(100, time.Hour))
	p.Start(context.Background())

	require.NoError(t, p.Submit(snap("SPY", 0)))
	require.NoError(t, p.Submit(snap("SPY", 10*time.Second)))
	require.NoError(t, p.Submit(snap("QQQ", 10*time.Second)))
	require.NoError(t, p.Submit(snap("SPY", 31*time.Second)))

	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, []string{"SPY", "QQQ", "SPY"}, proc.symbols())
}

func TestPipelineFlushesFullBatches(t *testing.T) {
	proc := &recordingProc{}
	p := NewSnapshotPipeline(proc, metrics.Nop{}, WithThrottle(0), WithBatch(2, time.Hour))
	p.Start(context.Background())
	defer func() { _ = p.Stop(context.Background()) }()

	require.NoError(t, p.Submit(snap("SPY", 0)))
	require.NoError(t, p.Submit(snap("QQQ", 0)))
	assert.Eventually(t, func() bool { return len(proc.symbols()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestPipelineRetriesFailedBatches(t *testing.T) {
	proc := &recordingProc{failures: 1}
	p := NewSnapshotPipeline(proc, metrics.Nop{}, WithThrottle(0), WithBatch(1, 10*time.Millisecond))
	p.Start(context.Background())
	defer func() { _ = p.Stop(context.Background()) }()

	require.NoError(t, p.Submit(snap("SPY", 0)))
	assert.Eventually(t, func() bool { return len(proc.symbols()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestPipelineRejectsInvalidSnapshots(t *testing.T) {
	p := NewSnapshotPipeline(&recordingProc{}, metrics.Nop{})

	assert.Error(t, p.Submit(nil))
	assert.Error(t, p.Submit(&models.ConditionSnapshot{Timestamp: base, Condition: models.Bullish}))
	assert.Error(t, p.Submit(&models.ConditionSnapshot{Symbol: "SPY", Condition: models.Bullish}))
	assert.ErrorIs(t, p.Submit(&models.ConditionSnapshot{Symbol: "SPY", Timestamp: base, Condition: "sideways"}), models.ErrInvalidMarketCondition)
}

func TestPipelineReportsFullQueue(t *testing.T) {
	p := NewSnapshotPipeline(&recordingProc{}, metrics.Nop{}, WithThrottle(0), WithBufferSize(1))

	require.NoError(t, p.Submit(snap("SPY", 0)))
	assert.ErrorIs(t, p.Submit(snap("QQQ", 0)), ErrPipelineFull)
}
