package warmup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/hcb-donation-proxy/pkg/donation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	mu       sync.Mutex
	calls    map[string]int
	failures map[string]error
	delay    time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newMockSource() *mockSource {
	return &mockSource{
		calls:    make(map[string]int),
		failures: make(map[string]error),
	}
}

func (m *mockSource) Snapshot(ctx context.Context, orgID string) (donation.Snapshot, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		cur := m.maxInFlight.Load()
		if n <= cur || m.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	m.mu.Lock()
	m.calls[orgID]++
	err := m.failures[orgID]
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return donation.Snapshot{}, ctx.Err()
		}
	}
	if err != nil {
		return donation.Snapshot{}, err
	}
	return donation.Snapshot{RaisedText: "$1", GoalText: "$2"}, nil
}

func (m *mockSource) callsFor(orgID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[orgID]
}

func TestRun_AllSucceed(t *testing.T) {
	source := newMockSource()
	w := NewWarmer(source, DefaultConfig())

	orgs := []string{"hq", "bank-demo", "club-1"}
	result, err := w.Run(context.Background(), orgs)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Warmed)
	assert.Empty(t, result.Failed)
	for _, org := range orgs {
		assert.Equal(t, 1, source.callsFor(org), "org %s", org)
	}
}

func TestRun_FailuresDoNotAbort(t *testing.T) {
	source := newMockSource()
	boom := errors.New("upstream down")
	source.failures["broken"] = boom

	w := NewWarmer(source, Config{MaxConcurrency: 1})
	result, err := w.Run(context.Background(), []string{"hq", "broken", "club-1"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Warmed)
	require.Len(t, result.Failed, 1)
	assert.ErrorIs(t, result.Failed["broken"], boom)
	assert.Equal(t, 1, source.callsFor("club-1"))
}

func TestRun_RespectsConcurrencyLimit(t *testing.T) {
	source := newMockSource()
	source.delay = 20 * time.Millisecond

	w := NewWarmer(source, Config{MaxConcurrency: 2, Timeout: time.Second})
	orgs := []string{"a", "b", "c", "d", "e", "f"}
	result, err := w.Run(context.Background(), orgs)
	require.NoError(t, err)

	assert.Equal(t, len(orgs), result.Warmed)
	assert.LessOrEqual(t, source.maxInFlight.Load(), int32(2))
}

func TestRun_Empty(t *testing.T) {
	w := NewWarmer(newMockSource(), DefaultConfig())

	result, err := w.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, result.Warmed)
}

func TestRun_Cancelled(t *testing.T) {
	source := newMockSource()
	source.delay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWarmer(source, Config{MaxConcurrency: 1, Timeout: time.Second})
	_, err := w.Run(ctx, []string{"hq", "club-1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_PerLookupTimeout(t *testing.T) {
	source := newMockSource()
	source.delay = time.Second

	w := NewWarmer(source, Config{MaxConcurrency: 1, Timeout: 10 * time.Millisecond})
	result, err := w.Run(context.Background(), []string{"slow"})
	require.NoError(t, err)

	require.Contains(t, result.Failed, "slow")
	assert.ErrorIs(t, result.Failed["slow"], context.DeadlineExceeded)
}

func TestNewWarmer_Defaults(t *testing.T) {
	w := NewWarmer(newMockSource(), Config{})

	assert.Equal(t, 4, w.config.MaxConcurrency)
	assert.Equal(t, 15*time.Second, w.config.Timeout)
}

func TestNewWarmer_NilSourcePanics(t *testing.T) {
	assert.Panics(t, func() { NewWarmer(nil, DefaultConfig()) })
}
