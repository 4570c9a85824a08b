package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hireflow/assess-backend/internal/model"
	"github.com/hireflow/assess-backend/internal/repository"
	"github.com/hireflow/assess-backend/internal/service"
)

const (
	SweepBatch = 200
	// SweepGraceMinutes is how long a CREATED session may sit un-begun
	// before the sweep retires it.
	SweepGraceMinutes = 120
)

// SweepWorker periodically force-submits overdue sessions. Correctness does
// not depend on it: every mutating operation checks the deadline lazily. The
// sweep exists so abandoned sessions get evaluated and their candidates
// unblocked without waiting for the next request that will never come.
type SweepWorker struct {
	sessionRepo *repository.SessionRepository
	sessions    *service.SessionService
	interval    time.Duration
	log         zerolog.Logger
}

func NewSweepWorker(
	sessionRepo *repository.SessionRepository,
	sessions *service.SessionService,
	interval time.Duration,
	log zerolog.Logger,
) *SweepWorker {
	return &SweepWorker{
		sessionRepo: sessionRepo,
		sessions:    sessions,
		interval:    interval,
		log:         log.With().Str("component", "sweep_worker").Logger(),
	}
}

func (w *SweepWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.log.Info().Msg("SweepWorker disabled")
		return
	}
	w.log.Info().Dur("interval", w.interval).Msg("SweepWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SweepWorker) sweep(ctx context.Context) {
	ids, err := w.sessionRepo.ListOverdue(ctx, time.Now(), SweepGraceMinutes, SweepBatch)
	if err != nil {
		w.log.Error().Err(err).Msg("overdue scan failed")
		return
	}
	if len(ids) == 0 {
		return
	}

	swept := 0
	for _, id := range ids {
		// ForceSubmit re-checks state under the row lock, so a session that
		// submitted between the scan and here is a clean no-op.
		if err := w.sessions.ForceSubmit(ctx, id, model.EndReasonTimeout); err != nil {
			w.log.Error().Err(err).Str("session_id", id).Msg("force submit failed")
			continue
		}
		swept++
	}
	w.log.Info().Int("swept", swept).Int("scanned", len(ids)).Msg("sweep pass complete")
}
