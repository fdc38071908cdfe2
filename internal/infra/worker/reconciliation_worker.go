package worker

import (
	"context"
	"log"
	"time"

	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/infra/lock"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type Sweeper interface {
	Sweep(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// ReconciliationWorker periodically looks for ownership records left
// inconsistent by failed compensations. Only the replica holding the lock
// sweeps on a given tick.
type ReconciliationWorker struct {
	sweeper      Sweeper
	lock         lock.Lock
	tickInterval time.Duration
}

func NewReconciliationWorker(sweeper Sweeper, l lock.Lock, interval time.Duration) *ReconciliationWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ReconciliationWorker{
		sweeper:      sweeper,
		lock:         l,
		tickInterval: interval,
	}
}

func (w *ReconciliationWorker) Start(ctx context.Context) {
	log.Printf("[reconcile] worker started (every %s)", w.tickInterval)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("[reconcile] worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce reports whether this replica performed the sweep.
func (w *ReconciliationWorker) RunOnce(ctx context.Context) bool {
	acquired, err := w.lock.Acquire(ctx)
	if err != nil {
		log.Printf("[reconcile] lock error: %v", err)
		middleware.RecordReconciliation("lock_error", 0, 0)
		return false
	}
	if !acquired {
		middleware.RecordReconciliation("skipped", 0, 0)
		return false
	}
	defer func() {
		if err := w.lock.Release(context.WithoutCancel(ctx)); err != nil {
			log.Printf("[reconcile] lock release failed: %v", err)
		}
	}()

	report, err := w.sweeper.Sweep(ctx)
	if err != nil {
		log.Printf("[reconcile] sweep failed: %v", err)
		middleware.RecordReconciliation("error", 0, 0)
		return true
	}

	middleware.RecordReconciliation("ok", len(report.OrphanedClaims), len(report.MismatchedCustomer))
	if !report.Empty() {
		log.Printf("[reconcile] orphaned=%d mismatched=%d repaired=%d",
			len(report.OrphanedClaims), len(report.MismatchedCustomer), len(report.Repaired))
	}
	return true
}
