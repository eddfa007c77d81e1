package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Nitish-kumar777/storage-app/internal/repository"
	"github.com/Nitish-kumar777/storage-app/internal/storage"
)

// Reconciler removes objects left behind by uploads that never committed and
// whose compensating delete also failed.
type Reconciler struct {
	intents repository.UploadIntentRepository
	files   repository.FileRepository
	host    storage.ObjectHost
	metrics *Metrics
	log     *slog.Logger
	grace   time.Duration
	batch   int
	timeout time.Duration
	now     func() time.Time
}

// NewReconciler constructs a Reconciler. Intents younger than grace are never touched.
func NewReconciler(
	intents repository.UploadIntentRepository,
	files repository.FileRepository,
	host storage.ObjectHost,
	metrics *Metrics,
	logger *slog.Logger,
	grace time.Duration,
	batch int,
	timeout time.Duration,
) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	if batch <= 0 {
		batch = 100
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Reconciler{
		intents: intents,
		files:   files,
		host:    host,
		metrics: metrics,
		log:     logger,
		grace:   grace,
		batch:   batch,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce sweeps one batch of stale intents and returns how many orphans were removed.
// A failing intent is logged and skipped; it is retried on the next sweep.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "Reconciler.RunOnce")
	defer span.End()

	lctx, cancel := context.WithTimeout(ctx, r.timeout)
	stale, err := r.intents.ListStale(lctx, r.now().Add(-r.grace), r.batch)
	cancel()
	if err != nil {
		failSpan(span, err)
		return 0, fmt.Errorf("list stale intents: %w", err)
	}

	removed := 0
	for _, in := range stale {
		if ctx.Err() != nil {
			break
		}

		cctx, cancel := context.WithTimeout(ctx, r.timeout)
		referenced, err := r.files.ExistsByObjectKey(cctx, in.ObjectKey)
		cancel()
		if err != nil {
			r.log.WarnContext(ctx, "reconcile reference check failed", "intent_id", in.ID, "error", err)
			continue
		}

		if !referenced {
			hctx, cancel := context.WithTimeout(ctx, r.timeout)
			err := r.host.Delete(hctx, in.ObjectKey)
			cancel()
			if err != nil {
				r.log.WarnContext(ctx, "reconcile object delete failed",
					"intent_id", in.ID,
					"object_key", in.ObjectKey,
					"error", err,
				)
				continue
			}
			removed++
		}

		actx, cancel := context.WithTimeout(ctx, r.timeout)
		err = r.intents.Abandon(actx, in.ID)
		cancel()
		if err != nil {
			r.log.WarnContext(ctx, "reconcile abandon intent failed", "intent_id", in.ID, "error", err)
		}
	}

	r.metrics.reconciled(removed)
	return removed, nil
}

// Run sweeps on every tick until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	r.log.Info("reconcile task initialized", "interval", every, "grace", r.grace)

	for {
		select {
		case <-ticker.C:
			removed, err := r.RunOnce(ctx)
			if err != nil {
				r.log.Error("reconcile sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				r.log.Info("reconcile sweep completed", "orphans_removed", removed)
			}
		case <-ctx.Done():
			r.log.Info("reconcile task stopped")
			return
		}
	}
}
