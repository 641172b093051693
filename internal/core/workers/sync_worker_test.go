package workers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"
	"github.com/comitanigiacomo/duo-sync-engine/internal/core/services"
)

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	err     error
	calls   int
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan struct{}, 10),
		release: make(chan struct{}),
	}
}

func (r *blockingRunner) Run(ctx context.Context) (*services.SyncResult, error) {
	r.calls++
	r.started <- struct{}{}
	select {
	case <-r.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if r.err != nil {
		return nil, r.err
	}
	return &services.SyncResult{RunID: "run-1", Changed: true, Total: 3}, nil
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the worker")
	}
}

func TestSyncWorker_Enqueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := newBlockingRunner()
	w := NewSyncWorker(runner, 0)
	w.Start(ctx)

	require.True(t, w.Enqueue("api"), "First request runs")
	waitFor(t, runner.started)

	assert.True(t, w.Status().Running)
	assert.True(t, w.Enqueue("api"), "Second request waits in the queue")
	assert.False(t, w.Enqueue("api"), "Third request is refused while one is pending")
	assert.True(t, w.Status().Pending)

	runner.release <- struct{}{}
	waitFor(t, runner.started)
	runner.release <- struct{}{}

	assert.Eventually(t, func() bool {
		st := w.Status()
		return !st.Running && !st.Pending && st.LastRunID == "run-1"
	}, 2*time.Second, 10*time.Millisecond)

	st := w.Status()
	assert.True(t, st.LastChanged)
	assert.Equal(t, "api", st.LastTrigger)
	assert.Empty(t, st.LastError)
	assert.Equal(t, 2, runner.calls)
}

func TestSyncWorker_RecordsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := newBlockingRunner()
	runner.err = domain.ErrUnauthorized
	w := NewSyncWorker(runner, 0)
	w.Start(ctx)

	require.True(t, w.Enqueue("api"))
	waitFor(t, runner.started)
	runner.release <- struct{}{}

	assert.Eventually(t, func() bool {
		return w.Status().LastError != ""
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, w.Status().LastRunID)
}

func TestSyncWorker_Schedule(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := newBlockingRunner()
	w := NewSyncWorker(runner, 20*time.Millisecond)
	w.Start(ctx)

	waitFor(t, runner.started)
	runner.release <- struct{}{}

	assert.Eventually(t, func() bool {
		return w.Status().LastTrigger == "schedule"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSyncWorker_Shutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	w := NewSyncWorker(newBlockingRunner(), 0)
	w.Start(ctx)
	cancel()

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
