package monitoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakePruner struct {
	mu        sync.Mutex
	calls     int
	retention time.Duration
	err       error
}

func (p *fakePruner) Prune(_ context.Context, retention time.Duration) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.retention = retention
	if p.err != nil {
		return 0, p.err
	}
	return 2, nil
}

func TestNewScheduler_RejectsBadSchedule(t *testing.T) {
	_, err := NewScheduler(&fakePruner{}, "whenever", time.Hour)
	assert.Error(t, err)
}

func TestScheduler_RunOnce(t *testing.T) {
	p := &fakePruner{}
	s, err := NewScheduler(p, "0 3 * * *", 720*time.Hour)
	require.NoError(t, err)

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 720*time.Hour, p.retention)

	p.err = errors.New("db down")
	_, err = s.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestScheduler_RunsOnScheduleAndStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := &fakePruner{}
	s, err := NewScheduler(p, "@every 1s", time.Hour)
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return s.Runs() >= 1 }, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.GreaterOrEqual(t, p.calls, 1)
}
