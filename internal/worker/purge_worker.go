package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/exam-access-service/internal/repository"
)

// PurgeWorker periodically deletes expired token rows. Only the postgres
// store needs it; redis evicts natively. Purging is redundant with the
// validator's expiry check, which stays authoritative either way.
type PurgeWorker struct {
	store    *repository.PostgresTokenStore
	interval time.Duration
	logger   *zap.Logger
	stop     chan struct{}
	done     chan struct{}
}

// StartPurgeWorker launches the purge loop. Returns nil when no store is
// provided.
func StartPurgeWorker(store *repository.PostgresTokenStore, interval time.Duration, logger *zap.Logger) *PurgeWorker {
	if store == nil {
		return nil
	}
	w := &PurgeWorker{
		store:    store,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *PurgeWorker) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.purgeOnce()
		}
	}
}

func (w *PurgeWorker) purgeOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := w.store.Purge(ctx)
	if err != nil {
		w.logger.Warn("token purge failed", zap.Error(err))
		return
	}
	if removed > 0 {
		w.logger.Info("purged expired tokens", zap.Int64("count", removed))
	}
}

// Stop terminates the loop and waits for the in-flight purge to finish.
func (w *PurgeWorker) Stop() {
	if w == nil {
		return
	}
	close(w.stop)
	<-w.done
}
