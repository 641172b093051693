package workers

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"
	"github.com/comitanigiacomo/duo-sync-engine/internal/core/services"
)

type SyncRunner interface {
	Run(ctx context.Context) (*services.SyncResult, error)
}

type SyncJob struct {
	Trigger string
}

// SyncStatus is a snapshot of the worker for the read API.
type SyncStatus struct {
	Running     bool      `json:"running"`
	Pending     bool      `json:"pending"`
	LastRunID   string    `json:"last_run_id,omitempty"`
	LastTrigger string    `json:"last_trigger,omitempty"`
	LastRunAt   time.Time `json:"last_run_at"`
	LastChanged bool      `json:"last_changed"`
	LastError   string    `json:"last_error,omitempty"`
}

// SyncWorker runs at most one sync at a time. One more request may wait in
// the queue; further requests are refused until it drains.
type SyncWorker struct {
	runner   SyncRunner
	interval time.Duration
	jobs     chan SyncJob
	done     chan struct{}
	now      func() time.Time

	mu     sync.RWMutex
	status SyncStatus
}

func NewSyncWorker(runner SyncRunner, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		runner:   runner,
		interval: interval,
		jobs:     make(chan SyncJob, 1),
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

func (w *SyncWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)

		var tick <-chan time.Time
		if w.interval > 0 {
			ticker := time.NewTicker(w.interval)
			defer ticker.Stop()
			tick = ticker.C
			log.Printf("[WORKER] Sync Worker started, scheduled every %s", w.interval)
		} else {
			log.Println("[WORKER] Sync Worker started, on-demand only")
		}

		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-tick:
				w.Enqueue("schedule")
			case <-ctx.Done():
				log.Println("[WORKER] Sync Worker shutting down...")
				return
			}
		}
	}()
}

// Done is closed once the worker loop has returned.
func (w *SyncWorker) Done() <-chan struct{} {
	return w.done
}

// Enqueue queues a run and reports whether it was accepted.
func (w *SyncWorker) Enqueue(trigger string) bool {
	select {
	case w.jobs <- SyncJob{Trigger: trigger}:
		return true
	default:
		log.Printf("[WORKER] Sync already pending, dropping %s request", trigger)
		return false
	}
}

func (w *SyncWorker) Status() SyncStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	st := w.status
	st.Pending = len(w.jobs) > 0
	return st
}

func (w *SyncWorker) processJob(ctx context.Context, job SyncJob) {
	w.mu.Lock()
	w.status.Running = true
	w.mu.Unlock()

	result, err := w.runner.Run(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.status.Running = false
	w.status.LastTrigger = job.Trigger
	w.status.LastRunAt = w.now()

	if err != nil {
		w.status.LastError = err.Error()
		w.status.LastRunID = ""
		w.status.LastChanged = false
		if kind := domain.RemoteErrorKind(err); kind != "" {
			log.Printf("[WORKER] Sync (%s) failed with %s: %v", job.Trigger, kind, err)
		} else {
			log.Printf("[WORKER] Sync (%s) failed: %v", job.Trigger, err)
		}
		return
	}

	w.status.LastError = ""
	w.status.LastRunID = result.RunID
	w.status.LastChanged = result.Changed
	log.Printf("[WORKER] Sync %s (%s) done: changed=%t total=%d", result.RunID, job.Trigger, result.Changed, result.Total)
}
