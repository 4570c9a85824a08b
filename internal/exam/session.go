package exam

import (
	"time"

	"github.com/hireflow/assess-backend/internal/model"
)

// The session state machine. Every function mutates the session in memory
// only; persistence is the store's job (callers run these under the store's
// per-session lock, see repository.SessionRepository.Mutate).
//
// Time enforcement is lazy: each mutating operation first checks the
// deadline against the injected clock reading, and an overdue session is
// force-submitted before the operation is rejected with ErrSessionExpired.
// No background timer is required for correctness; the sweep worker is an
// adjunct.

// Begin starts the timer. Legal only from CREATED.
func Begin(s *model.TestSession, now time.Time) error {
	if s.Status != model.SessionStatusCreated {
		return ErrInvalidState
	}
	started := now
	s.StartedAt = &started
	s.Status = model.SessionStatusInProgress
	return nil
}

// RecordAnswer stores or overwrites the answer for one question. Idempotent
// per question: re-answering replaces the previous response, it never
// duplicates.
func RecordAnswer(s *model.TestSession, questionNumber int, answer string, timeSpentSeconds int, now time.Time) error {
	if err := guardMutable(s, now); err != nil {
		return err
	}
	slot, err := slotAt(s, questionNumber)
	if err != nil {
		return err
	}

	answeredAt := now
	slot.SelectedAnswer = &answer
	slot.TimeSpentSeconds = timeSpentSeconds
	slot.Answered = true
	slot.AnsweredAt = &answeredAt
	return nil
}

// SetFlag toggles the flagged-for-review marker on one question.
func SetFlag(s *model.TestSession, questionNumber int, flagged bool, now time.Time) error {
	if err := guardMutable(s, now); err != nil {
		return err
	}
	slot, err := slotAt(s, questionNumber)
	if err != nil {
		return err
	}
	slot.Flagged = flagged
	return nil
}

// RecordViolation appends a proctoring event, updates the severity counters
// and returns the monitor's decision. When the decision is termination the
// session is force-submitted here, in the same step, so the caller observes
// a consistent terminal state.
func RecordViolation(s *model.TestSession, vtype model.ViolationType, detail string, now time.Time) (model.ViolationEvent, ProctorDecision, error) {
	if err := guardMutable(s, now); err != nil {
		return model.ViolationEvent{}, ProctorDecision{}, err
	}

	severity := ClassifySeverity(vtype)
	switch severity {
	case model.SeverityCritical:
		s.CriticalViolations++
	case model.SeverityMajor:
		s.MajorViolations++
	default:
		s.MinorViolations++
	}

	event := model.ViolationEvent{
		SessionID:  s.ID,
		Type:       vtype,
		Severity:   severity,
		Detail:     detail,
		OccurredAt: now,
	}

	decision := ProctorDecision{
		Severity:        severity,
		TotalViolations: s.TotalViolations(),
		ShouldTerminate: ShouldTerminate(s.CriticalViolations, s.MajorViolations, s.Config.ViolationThreshold),
	}

	if decision.ShouldTerminate {
		finalize(s, model.EndReasonViolations, now)
	}

	return event, decision, nil
}

// Submit ends the session by explicit candidate action and evaluates it.
// Legal only from IN_PROGRESS; submitting with zero answers is allowed and
// yields a zero score. A second submit returns ErrAlreadyEvaluated and
// leaves the stored score untouched.
func Submit(s *model.TestSession, now time.Time) (*model.ScoreReport, error) {
	if s.Status == model.SessionStatusEvaluated {
		return nil, ErrAlreadyEvaluated
	}
	if s.Status != model.SessionStatusInProgress {
		return nil, ErrInvalidState
	}
	if deadlinePassed(s, now) {
		finalize(s, model.EndReasonTimeout, now)
		return nil, ErrSessionExpired
	}

	finalize(s, model.EndReasonSubmitted, now)
	return s.Score, nil
}

// ForceSubmit terminates an overdue or sanctioned session through the same
// path as an explicit submit, producing an identical score block shape.
// No-ops on sessions already in a terminal state (safe for the at-least-once
// sweep).
func ForceSubmit(s *model.TestSession, reason model.EndReason, now time.Time) *model.ScoreReport {
	if s.IsTerminal() {
		return s.Score
	}
	if s.Status != model.SessionStatusInProgress {
		// Never begun: nothing to score, the session just expires.
		s.Status = model.SessionStatusExpired
		ended := now
		s.EndedAt = &ended
		return nil
	}
	finalize(s, reason, now)
	return s.Score
}

// guardMutable rejects operations outside IN_PROGRESS and performs the lazy
// expiry check: an overdue session is terminated and scored before the
// triggering operation is rejected.
func guardMutable(s *model.TestSession, now time.Time) error {
	if s.Status != model.SessionStatusInProgress {
		return ErrInvalidState
	}
	if deadlinePassed(s, now) {
		finalize(s, model.EndReasonTimeout, now)
		return ErrSessionExpired
	}
	return nil
}

func deadlinePassed(s *model.TestSession, now time.Time) bool {
	return s.StartedAt != nil && now.After(s.Deadline())
}

// finalize is the single path from IN_PROGRESS to EVALUATED. The status
// flips only after the score block is fully computed, so a panic mid-scoring
// leaves the stored session resumable rather than half-evaluated.
func finalize(s *model.TestSession, reason model.EndReason, now time.Time) {
	score := Evaluate(s.Slots, s.Config.NegativeMarking, s.Config.PassingPercentage)

	ended := now
	s.EndedAt = &ended
	if reason == model.EndReasonSubmitted {
		submitted := now
		s.SubmittedAt = &submitted
	}
	s.EndReason = reason
	s.Score = score
	s.Status = model.SessionStatusEvaluated
}

func slotAt(s *model.TestSession, questionNumber int) (*model.QuestionSlot, error) {
	if questionNumber < 1 || questionNumber > len(s.Slots) {
		return nil, ErrQuestionOutOfRange
	}
	return &s.Slots[questionNumber-1], nil
}
