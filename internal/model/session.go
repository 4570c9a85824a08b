package model

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates test session states.
type SessionStatus string

const (
	// SessionStatusCreated: question set frozen, timer not running.
	SessionStatusCreated SessionStatus = "CREATED"
	// SessionStatusInProgress: begin was called, server clock running.
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	// SessionStatusEvaluated: terminal; score block written exactly once.
	SessionStatusEvaluated SessionStatus = "EVALUATED"
	// SessionStatusExpired: terminal; created but never begun before the
	// sweep retired it.
	SessionStatusExpired SessionStatus = "EXPIRED"
	// SessionStatusCancelled: terminal; withdrawn by an administrator.
	SessionStatusCancelled SessionStatus = "CANCELLED"
)

// EndReason records what terminated a session.
type EndReason string

const (
	EndReasonSubmitted  EndReason = "SUBMITTED"
	EndReasonTimeout    EndReason = "TIMEOUT"
	EndReasonViolations EndReason = "VIOLATIONS"
	EndReasonCancelled  EndReason = "CANCELLED"
)

// DifficultySplit is the per-difficulty percentage target for question
// selection, snapshotted into the session config.
type DifficultySplit struct {
	Easy     int `json:"easy"`
	Moderate int `json:"moderate"`
	Hard     int `json:"hard"`
}

// SessionConfig is the policy snapshot taken at session creation.
// Immutable afterwards; later changes to global config never affect a
// session already issued.
type SessionConfig struct {
	TotalQuestions     int             `json:"total_questions"`
	DurationMinutes    int             `json:"duration_minutes"`
	PassingPercentage  float64         `json:"passing_percentage"`
	NegativeMarking    bool            `json:"negative_marking"`
	ViolationThreshold int             `json:"violation_threshold"`
	DifficultySplit    DifficultySplit `json:"difficulty_split"`
}

// QuestionSlot is one question instance frozen into a session, with its own
// response and evaluation state. Slots are never shared across sessions;
// edits to the source bank question after creation have no effect here.
type QuestionSlot struct {
	Number         int          `json:"number"`
	QuestionID     uuid.UUID    `json:"question_id"`
	Text           string       `json:"text"`
	Type           QuestionType `json:"type"`
	Category       string       `json:"category"`
	Difficulty     Difficulty   `json:"difficulty"`
	Options        []Option     `json:"options,omitempty"`
	CorrectAnswer  string       `json:"correct_answer"`
	Points         float64      `json:"points"`
	NegativePoints float64      `json:"negative_points"`

	SelectedAnswer   *string    `json:"selected_answer,omitempty"`
	TimeSpentSeconds int        `json:"time_spent_seconds"`
	Answered         bool       `json:"answered"`
	AnsweredAt       *time.Time `json:"answered_at,omitempty"`
	Flagged          bool       `json:"flagged"`

	// Evaluation outcome; nil/zero until the session is evaluated, then
	// immutable.
	IsCorrect    *bool   `json:"is_correct,omitempty"`
	PointsEarned float64 `json:"points_earned"`
}

// TestSession is the aggregate root for one timed attempt. All mutation goes
// through the exam package's state machine under the store's per-session
// lock.
type TestSession struct {
	ID            string        `json:"id"`
	CandidateID   uuid.UUID     `json:"candidate_id"`
	AttemptNumber int           `json:"attempt_number"`
	Config        SessionConfig `json:"config"`
	Slots         []QuestionSlot `json:"slots"`
	Status        SessionStatus `json:"status"`
	EndReason     EndReason     `json:"end_reason,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	MinorViolations    int `json:"minor_violations"`
	MajorViolations    int `json:"major_violations"`
	CriticalViolations int `json:"critical_violations"`

	Score *ScoreReport `json:"score,omitempty"`
}

// TotalViolations is the sum of all severity counters.
func (s *TestSession) TotalViolations() int {
	return s.MinorViolations + s.MajorViolations + s.CriticalViolations
}

// IsTerminal reports whether the session can no longer be mutated.
func (s *TestSession) IsTerminal() bool {
	return s.Status == SessionStatusEvaluated ||
		s.Status == SessionStatusExpired ||
		s.Status == SessionStatusCancelled
}

// Deadline returns the absolute instant the session's time runs out.
// Zero time if the session has not begun.
func (s *TestSession) Deadline() time.Time {
	if s.StartedAt == nil {
		return time.Time{}
	}
	return s.StartedAt.Add(time.Duration(s.Config.DurationMinutes) * time.Minute)
}

// RemainingSeconds recomputes remaining time from the server clock. Never
// trusted from the client; floors at zero.
func (s *TestSession) RemainingSeconds(now time.Time) int {
	if s.StartedAt == nil || s.IsTerminal() {
		return 0
	}
	remaining := s.Deadline().Sub(now)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}

// AnsweredCount returns how many slots currently hold an answer.
func (s *TestSession) AnsweredCount() int {
	n := 0
	for i := range s.Slots {
		if s.Slots[i].Answered {
			n++
		}
	}
	return n
}

// FlaggedCount returns how many slots are flagged for review.
func (s *TestSession) FlaggedCount() int {
	n := 0
	for i := range s.Slots {
		if s.Slots[i].Flagged {
			n++
		}
	}
	return n
}

// sessionCodeAlphabet omits ambiguous glyphs (0/O, 1/I/L) so codes can be
// read over the phone.
const sessionCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const sessionCodeLength = 12

// NewSessionCode generates a human-shareable session id, e.g. "K7PMQ2WXN4RT".
// Uniqueness is enforced by the sessions table constraint.
func NewSessionCode() string {
	buf := make([]byte, sessionCodeLength)
	max := big.NewInt(int64(len(sessionCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken.
			panic(err)
		}
		buf[i] = sessionCodeAlphabet[n.Int64()]
	}
	return string(buf)
}

// ─── Wire payloads ──────────────────────────────────────────────────

// PaperQuestion is a slot as exposed to the candidate: no correctness flags,
// no correct answer.
type PaperQuestion struct {
	Number     int          `json:"number"`
	Text       string       `json:"text"`
	Type       QuestionType `json:"type"`
	Category   string       `json:"category"`
	Difficulty Difficulty   `json:"difficulty"`
	Points     float64      `json:"points"`
	Options    []string     `json:"options,omitempty"`
}

// Paper strips the slot down to candidate-safe fields.
func (q *QuestionSlot) Paper() PaperQuestion {
	p := PaperQuestion{
		Number:     q.Number,
		Text:       q.Text,
		Type:       q.Type,
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Points:     q.Points,
	}
	for _, opt := range q.Options {
		p.Options = append(p.Options, opt.Text)
	}
	return p
}

// AnswerRequest records or overwrites the answer for one question.
type AnswerRequest struct {
	QuestionNumber   int    `json:"question_number" binding:"required,min=1"`
	Answer           string `json:"answer" binding:"required,max=2000"`
	TimeSpentSeconds int    `json:"time_spent_seconds" binding:"min=0"`
}

// FlagRequest toggles the flagged-for-review marker on one question.
type FlagRequest struct {
	QuestionNumber int   `json:"question_number" binding:"required,min=1"`
	Flagged        *bool `json:"flagged" binding:"required"`
}
