package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hireflow/assess-backend/internal/config"
	"github.com/hireflow/assess-backend/internal/exam"
	"github.com/hireflow/assess-backend/internal/model"
	"github.com/hireflow/assess-backend/internal/repository"
)

// ErrNotSessionOwner rejects a request against somebody else's session.
var ErrNotSessionOwner = errors.New("session does not belong to this candidate")

// SessionService orchestrates the test session lifecycle: the eligibility
// gate, question selection, the state machine operations and their queue and
// pub/sub side effects. All session mutation funnels through the repository's
// Mutate, which serializes concurrent requests per session.
type SessionService struct {
	cfg           *config.Config
	candidateRepo *repository.CandidateRepository
	questionRepo  *repository.QuestionRepository
	sessionRepo   *repository.SessionRepository
	rdb           *redis.Client
	log           zerolog.Logger

	clock exam.Clock

	// rng feeds the question selector. rand.Rand is not goroutine safe.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	cfg *config.Config,
	candidateRepo *repository.CandidateRepository,
	questionRepo *repository.QuestionRepository,
	sessionRepo *repository.SessionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		cfg:           cfg,
		candidateRepo: candidateRepo,
		questionRepo:  questionRepo,
		sessionRepo:   sessionRepo,
		rdb:           rdb,
		log:           log.With().Str("component", "session_service").Logger(),
		clock:         exam.SystemClock,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Now reports the service clock. Handlers derive wire-visible timing from
// it so the whole pipeline follows one time source.
func (s *SessionService) Now() time.Time {
	return s.clock()
}

// Create runs the eligibility gate and, if it passes, freezes a new session
// from the current question bank and policy config. The session starts in
// CREATED with the timer not running.
func (s *SessionService) Create(ctx context.Context, candidateID uuid.UUID) (*model.TestSession, error) {
	now := s.clock()

	candidate, err := s.candidateRepo.GetByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}

	active, err := s.sessionRepo.GetActiveByCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("check active session: %w", err)
	}
	activeID := ""
	if active != nil {
		// A stale CREATED or overdue IN_PROGRESS row should not block a new
		// attempt; retire it first, then re-check.
		if s.reapIfOverdue(ctx, active, now) {
			activeID = ""
		} else {
			activeID = active.ID
		}
	}

	policy := exam.EligibilityPolicy{
		MaxAttempts:   s.cfg.MaxAttempts,
		CooldownHours: s.cfg.CooldownHours,
	}
	if gateErr := exam.CheckEligibility(candidate.AttemptRecord, activeID, policy, now); gateErr != nil {
		return nil, gateErr
	}

	pool, err := s.questionRepo.ListApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}
	exclude, err := s.sessionRepo.UsedQuestionIDs(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("load used questions: %w", err)
	}

	split := model.DifficultySplit{
		Easy:     s.cfg.EasyPercentage,
		Moderate: s.cfg.ModeratePercentage,
		Hard:     s.cfg.HardPercentage,
	}

	s.rngMu.Lock()
	slots, err := exam.SelectQuestions(s.rng, pool, s.cfg.TotalQuestions, split, exclude)
	s.rngMu.Unlock()
	if errors.Is(err, exam.ErrInsufficientPool) {
		// Retake exhausted the unseen pool: allow repeats rather than
		// locking the candidate out of an attempt they are entitled to.
		s.rngMu.Lock()
		slots, err = exam.SelectQuestions(s.rng, pool, s.cfg.TotalQuestions, split, nil)
		s.rngMu.Unlock()
	}
	if err != nil {
		return nil, err
	}

	attempts, err := s.sessionRepo.CountAttempts(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}

	session := &model.TestSession{
		ID:            model.NewSessionCode(),
		CandidateID:   candidateID,
		AttemptNumber: attempts + 1,
		Status:        model.SessionStatusCreated,
		CreatedAt:     now,
		Slots:         slots,
		Config: model.SessionConfig{
			TotalQuestions:     s.cfg.TotalQuestions,
			DurationMinutes:    s.cfg.DurationMinutes,
			PassingPercentage:  s.cfg.PassingPercentage,
			NegativeMarking:    s.cfg.NegativeMarking,
			ViolationThreshold: s.cfg.ViolationThreshold,
			DifficultySplit:    split,
		},
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.rdb.Set(ctx, config.CacheKey.CandidateActiveSessionKey(candidateID.String()), session.ID,
		time.Duration(s.cfg.DurationMinutes+60)*time.Minute)
	s.publish(ctx, session, model.MonitorEventCreated, "")

	s.log.Info().
		Str("session_id", session.ID).
		Str("candidate_id", candidateID.String()).
		Int("attempt", session.AttemptNumber).
		Msg("session created")

	return session, nil
}

// Begin starts the session timer.
func (s *SessionService) Begin(ctx context.Context, candidateID uuid.UUID, sessionID string) (*model.TestSession, error) {
	now := s.clock()
	session, err := s.mutateOwned(ctx, candidateID, sessionID, func(t *model.TestSession) error {
		return exam.Begin(t, now)
	})
	if err != nil {
		return nil, err
	}

	// Deadline cache lets status reads answer remaining-time without a DB
	// round trip; the DB row stays the source of truth.
	s.rdb.Set(ctx, config.CacheKey.SessionDeadlineKey(sessionID),
		session.Deadline().Unix(),
		time.Duration(session.Config.DurationMinutes+10)*time.Minute)
	s.publish(ctx, session, model.MonitorEventBegan, "")

	return session, nil
}

// Answer records or overwrites one answer.
func (s *SessionService) Answer(ctx context.Context, candidateID uuid.UUID, sessionID string, req model.AnswerRequest) (*model.TestSession, error) {
	now := s.clock()
	session, err := s.mutateOwned(ctx, candidateID, sessionID, func(t *model.TestSession) error {
		return exam.RecordAnswer(t, req.QuestionNumber, req.Answer, req.TimeSpentSeconds, now)
	})
	if session != nil {
		s.afterMutation(ctx, session, model.MonitorEventAnswered, "")
	}
	return session, err
}

// Flag toggles the review marker on one question.
func (s *SessionService) Flag(ctx context.Context, candidateID uuid.UUID, sessionID string, req model.FlagRequest) (*model.TestSession, error) {
	now := s.clock()
	session, err := s.mutateOwned(ctx, candidateID, sessionID, func(t *model.TestSession) error {
		return exam.SetFlag(t, req.QuestionNumber, *req.Flagged, now)
	})
	if session != nil && session.IsTerminal() {
		s.afterMutation(ctx, session, "", "")
	}
	return session, err
}

// ReportViolation records a proctoring event. The event itself is persisted
// asynchronously through the violations queue; only the counters live on the
// session row. When the monitor decides to terminate, the session comes back
// already evaluated.
func (s *SessionService) ReportViolation(ctx context.Context, candidateID uuid.UUID, sessionID string, req model.ViolationRequest) (*model.TestSession, *exam.ProctorDecision, error) {
	now := s.clock()
	var event model.ViolationEvent
	var decision exam.ProctorDecision

	session, err := s.mutateOwned(ctx, candidateID, sessionID, func(t *model.TestSession) error {
		var ferr error
		event, decision, ferr = exam.RecordViolation(t, model.ViolationType(req.Type), req.Detail, now)
		return ferr
	})
	if err != nil {
		if session != nil && session.IsTerminal() {
			s.afterMutation(ctx, session, "", "")
		}
		return session, nil, err
	}

	s.enqueue(ctx, config.WorkerKey.PersistViolationsQueue, event)
	s.publish(ctx, session, model.MonitorEventViolation, event.Severity)

	if decision.ShouldTerminate {
		s.log.Warn().
			Str("session_id", sessionID).
			Int("total_violations", decision.TotalViolations).
			Msg("session terminated by proctoring monitor")
		s.afterTerminal(ctx, session)
	}

	return session, &decision, nil
}

// Submit ends the session by candidate action and returns the score report.
func (s *SessionService) Submit(ctx context.Context, candidateID uuid.UUID, sessionID string) (*model.TestSession, error) {
	now := s.clock()
	session, err := s.mutateOwned(ctx, candidateID, sessionID, func(t *model.TestSession) error {
		_, ferr := exam.Submit(t, now)
		return ferr
	})
	if session != nil && session.IsTerminal() {
		s.afterMutation(ctx, session, "", "")
	}
	return session, err
}

// Status returns the current session state. Read-only unless the deadline
// has passed, in which case the read triggers the lazy timeout path first so
// the caller never sees a running session with no time left.
func (s *SessionService) Status(ctx context.Context, candidateID uuid.UUID, sessionID string) (*model.TestSession, error) {
	now := s.clock()

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CandidateID != candidateID {
		return nil, ErrNotSessionOwner
	}

	if session.Status == model.SessionStatusInProgress && now.After(session.Deadline()) {
		session, err = s.sessionRepo.Mutate(ctx, sessionID, func(t *model.TestSession) error {
			exam.ForceSubmit(t, model.EndReasonTimeout, now)
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.afterMutation(ctx, session, "", "")
	}

	return session, nil
}

// Cancel withdraws a session on behalf of an administrator. Legal from any
// non-terminal state; a CREATED session is simply voided, a running one is
// closed without evaluation.
func (s *SessionService) Cancel(ctx context.Context, sessionID string) (*model.TestSession, error) {
	now := s.clock()
	session, err := s.sessionRepo.Mutate(ctx, sessionID, func(t *model.TestSession) error {
		if t.IsTerminal() {
			return exam.ErrInvalidState
		}
		ended := now
		t.EndedAt = &ended
		t.EndReason = model.EndReasonCancelled
		t.Status = model.SessionStatusCancelled
		return nil
	})
	if err != nil {
		return session, err
	}

	s.clearCaches(ctx, session)
	s.publish(ctx, session, model.MonitorEventEnded, "")
	s.log.Info().Str("session_id", sessionID).Msg("session cancelled")
	return session, nil
}

// ForceSubmit terminates an overdue session through the same evaluation path
// as an explicit submit. Used by the sweep worker; safe to call on sessions
// that turned terminal in the meantime.
func (s *SessionService) ForceSubmit(ctx context.Context, sessionID string, reason model.EndReason) error {
	now := s.clock()
	wasTerminal := false
	session, err := s.sessionRepo.Mutate(ctx, sessionID, func(t *model.TestSession) error {
		wasTerminal = t.IsTerminal()
		exam.ForceSubmit(t, reason, now)
		return nil
	})
	if err != nil {
		return err
	}
	if !wasTerminal {
		s.afterMutation(ctx, session, "", "")
	}
	return nil
}

// mutateOwned wraps repository.Mutate with the ownership check. The check
// runs inside the lock so it costs nothing extra.
func (s *SessionService) mutateOwned(ctx context.Context, candidateID uuid.UUID, sessionID string, fn func(*model.TestSession) error) (*model.TestSession, error) {
	return s.sessionRepo.Mutate(ctx, sessionID, func(t *model.TestSession) error {
		if t.CandidateID != candidateID {
			return ErrNotSessionOwner
		}
		return fn(t)
	})
}

// reapIfOverdue retires a stale active session found during the eligibility
// check. Returns true when the session is terminal afterwards.
func (s *SessionService) reapIfOverdue(ctx context.Context, active *model.TestSession, now time.Time) bool {
	overdue := (active.Status == model.SessionStatusInProgress && now.After(active.Deadline())) ||
		(active.Status == model.SessionStatusCreated &&
			now.Sub(active.CreatedAt) > time.Duration(active.Config.DurationMinutes+60)*time.Minute)
	if !overdue {
		return false
	}
	if err := s.ForceSubmit(ctx, active.ID, model.EndReasonTimeout); err != nil {
		s.log.Error().Err(err).Str("session_id", active.ID).Msg("failed to reap overdue session")
		return false
	}
	return true
}

// afterMutation fires the side effects owed after a persisted mutation:
// terminal transitions enqueue the result and clear caches, non-terminal
// ones just publish the monitor event.
func (s *SessionService) afterMutation(ctx context.Context, session *model.TestSession, event string, severity model.Severity) {
	if session.IsTerminal() {
		s.afterTerminal(ctx, session)
		return
	}
	if event != "" {
		s.publish(ctx, session, event, severity)
	}
}

// afterTerminal drops the session's cache entries and folds the evaluated
// result into the candidate's attempt aggregate in-line, so the eligibility
// gate reads current counters on the very next request. The results queue is
// the retry path when the fold cannot run; either way the fold is deduped by
// the result_applied flag.
func (s *SessionService) afterTerminal(ctx context.Context, session *model.TestSession) {
	s.clearCaches(ctx, session)
	s.publish(ctx, session, model.MonitorEventEnded, "")

	if session.Status != model.SessionStatusEvaluated || session.Score == nil {
		return
	}

	if err := s.applyResult(ctx, session); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID).Msg("inline result fold failed, queueing")
		s.enqueue(ctx, config.WorkerKey.PersistResultsQueue, model.ResultPayload{
			SessionID:   session.ID,
			CandidateID: session.CandidateID.String(),
			Percentage:  session.Score.Percentage,
			Passed:      session.Score.IsPassed,
			EndReason:   session.EndReason,
			EndedAt:     *session.EndedAt,
		})
		return
	}

	kind := model.NotificationResultReady
	if session.EndReason == model.EndReasonViolations {
		kind = model.NotificationTerminated
	}
	s.enqueue(ctx, config.WorkerKey.NotificationsQueue, model.NotificationPayload{
		Kind:        kind,
		SessionID:   session.ID,
		CandidateID: session.CandidateID.String(),
		Percentage:  session.Score.Percentage,
		Passed:      session.Score.IsPassed,
		EndReason:   session.EndReason,
		At:          s.clock(),
	})
}

// applyResult folds one evaluated session into the candidate aggregate. The
// flag flip comes first; a session that lost the flip race was already
// folded elsewhere.
func (s *SessionService) applyResult(ctx context.Context, session *model.TestSession) error {
	first, err := s.sessionRepo.MarkResultApplied(ctx, session.ID)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}
	return s.candidateRepo.ApplyResult(ctx, session.CandidateID,
		session.Score.Percentage, session.Score.IsPassed, *session.EndedAt)
}

func (s *SessionService) clearCaches(ctx context.Context, session *model.TestSession) {
	s.rdb.Del(ctx,
		config.CacheKey.SessionDeadlineKey(session.ID),
		config.CacheKey.CandidateActiveSessionKey(session.CandidateID.String()),
	)
}

// enqueue pushes a JSON payload onto a worker queue. Queue failures are
// logged, not returned: the request that produced the payload already
// succeeded, and the workers' DB-side recovery scans pick up the slack.
func (s *SessionService) enqueue(ctx context.Context, queue string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("queue", queue).Msg("marshal queue payload")
		return
	}
	if err := s.rdb.RPush(ctx, queue, raw).Err(); err != nil {
		s.log.Error().Err(err).Str("queue", queue).Msg("enqueue failed")
	}
}

// publish emits a monitor event on the session's pub/sub channel. Best
// effort; nobody listening is the normal case.
func (s *SessionService) publish(ctx context.Context, session *model.TestSession, event string, severity model.Severity) {
	payload := model.MonitorEvent{
		SessionID:        session.ID,
		Event:            event,
		Status:           session.Status,
		RemainingSeconds: session.RemainingSeconds(s.clock()),
		AnsweredCount:    session.AnsweredCount(),
		TotalViolations:  session.TotalViolations(),
		Severity:         severity,
		At:               s.clock(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	s.rdb.Publish(ctx, config.CacheKey.SessionMonitorChannel(session.ID), raw)
}
