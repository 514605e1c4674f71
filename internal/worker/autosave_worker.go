package worker

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/prepdeck/session-engine/internal/logger"
	"github.com/prepdeck/session-engine/internal/service"
)

// AutosaveWorker flushes recovery snapshots of every live attempt on a fixed
// interval. It is decoupled from any display refresh: the schedule runs on
// its own goroutine and writes are fire-and-forget relative to navigation.
// A failed write is logged and retried on the next interval, never surfaced
// to the interactive path.
type AutosaveWorker struct {
	attempts  *service.AttemptService
	scheduler *gocron.Scheduler
	interval  time.Duration
	log       zerolog.Logger
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(attempts *service.AttemptService, interval time.Duration, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		attempts:  attempts,
		scheduler: gocron.NewScheduler(time.UTC),
		interval:  interval,
		log:       logger.Component(log, "autosave_worker"),
	}
}

// Start schedules the interval flush. Non-blocking.
func (w *AutosaveWorker) Start(ctx context.Context) error {
	_, err := w.scheduler.Every(w.interval).Do(func() {
		w.attempts.SnapshotAll(ctx)
	})
	if err != nil {
		return err
	}

	w.scheduler.StartAsync()
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")
	return nil
}

// Stop halts the schedule and performs one last flush so no progress newer
// than the final interval is lost.
func (w *AutosaveWorker) Stop(ctx context.Context) {
	w.scheduler.Stop()
	w.attempts.SnapshotAll(ctx)
	w.log.Info().Msg("Worker stopped")
}
