package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hireflow/assess-backend/internal/config"
	"github.com/hireflow/assess-backend/internal/model"
	"github.com/hireflow/assess-backend/internal/repository"
)

const (
	ResultPollTimeout   = 1 * time.Second
	ResultRecoveryEvery = 5 * time.Minute
	ResultRecoveryBatch = 100
)

// ResultWorker is the retry path for the attempt-aggregate fold: the session
// service folds results in-line on evaluation, and queues a payload here only
// when that fold fails. The session row's result_applied flag makes the fold
// exactly-once regardless of which path wins.
//
// A periodic recovery scan re-enqueues evaluated sessions whose fold never
// happened, covering queue loss across a Redis restart.
type ResultWorker struct {
	candidateRepo *repository.CandidateRepository
	sessionRepo   *repository.SessionRepository
	rdb           *redis.Client
	log           zerolog.Logger
}

func NewResultWorker(
	candidateRepo *repository.CandidateRepository,
	sessionRepo *repository.SessionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ResultWorker {
	return &ResultWorker{
		candidateRepo: candidateRepo,
		sessionRepo:   sessionRepo,
		rdb:           rdb,
		log:           log.With().Str("component", "result_worker").Logger(),
	}
}

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	lastRecovery := time.Now()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return
		default:
		}

		if time.Since(lastRecovery) >= ResultRecoveryEvery {
			w.recover(ctx)
			lastRecovery = time.Now()
		}

		item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("BLPop error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(item) < 2 {
			continue
		}

		var p model.ResultPayload
		if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
			w.log.Error().Err(err).Msg("Discarding malformed result payload")
			continue
		}

		if err := w.apply(ctx, &p); err != nil {
			w.log.Error().Err(err).Str("session_id", p.SessionID).Msg("Apply failed, requeueing")
			raw, _ := json.Marshal(p)
			w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			time.Sleep(2 * time.Second)
		}
	}
}

// apply folds one result into the candidate aggregate. The flag flip comes
// first; a payload that lost the flip race was already applied.
func (w *ResultWorker) apply(ctx context.Context, p *model.ResultPayload) error {
	first, err := w.sessionRepo.MarkResultApplied(ctx, p.SessionID)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	candidateID, err := uuid.Parse(p.CandidateID)
	if err != nil {
		w.log.Error().Str("candidate_id", p.CandidateID).Msg("Dropping result with invalid candidate id")
		return nil
	}

	if err := w.candidateRepo.ApplyResult(ctx, candidateID, p.Percentage, p.Passed, p.EndedAt); err != nil {
		return err
	}

	w.notify(ctx, p)

	w.log.Info().
		Str("session_id", p.SessionID).
		Int("percentage", p.Percentage).
		Bool("passed", p.Passed).
		Msg("result applied")
	return nil
}

func (w *ResultWorker) notify(ctx context.Context, p *model.ResultPayload) {
	kind := model.NotificationResultReady
	if p.EndReason == model.EndReasonViolations {
		kind = model.NotificationTerminated
	}
	raw, _ := json.Marshal(model.NotificationPayload{
		Kind:        kind,
		SessionID:   p.SessionID,
		CandidateID: p.CandidateID,
		Percentage:  p.Percentage,
		Passed:      p.Passed,
		EndReason:   p.EndReason,
		At:          time.Now(),
	})
	if err := w.rdb.RPush(ctx, config.WorkerKey.NotificationsQueue, raw).Err(); err != nil {
		// Notifications are best effort.
		w.log.Warn().Err(err).Str("session_id", p.SessionID).Msg("notification enqueue failed")
	}
}

// recover re-enqueues evaluated sessions that were never folded. Harmless to
// race with in-flight payloads; apply dedupes on the flag.
func (w *ResultWorker) recover(ctx context.Context) {
	ids, err := w.sessionRepo.ListUnappliedResults(ctx, ResultRecoveryBatch)
	if err != nil {
		w.log.Error().Err(err).Msg("recovery scan failed")
		return
	}
	for _, id := range ids {
		session, err := w.sessionRepo.GetByID(ctx, id)
		if err != nil || session.Score == nil || session.EndedAt == nil {
			continue
		}
		raw, _ := json.Marshal(model.ResultPayload{
			SessionID:   session.ID,
			CandidateID: session.CandidateID.String(),
			Percentage:  session.Score.Percentage,
			Passed:      session.Score.IsPassed,
			EndReason:   session.EndReason,
			EndedAt:     *session.EndedAt,
		})
		w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
	}
	if len(ids) > 0 {
		w.log.Info().Int("count", len(ids)).Msg("re-enqueued unapplied results")
	}
}
