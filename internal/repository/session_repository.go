package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hireflow/assess-backend/internal/model"
)

const sessionColumns = `id, candidate_id, attempt_number, status, end_reason,
	config, slots, score, minor_violations, major_violations, critical_violations,
	created_at, started_at, ended_at, submitted_at`

// SessionRepository handles test session persistence. Sessions are stored as
// one row each, with the frozen question slots and the score block as jsonb;
// slots are only ever read and written as a whole under the session's row
// lock, so relational decomposition buys nothing.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func scanSession(row rowScanner) (*model.TestSession, error) {
	s := &model.TestSession{}
	var endReason *string
	var config, slots, score []byte
	err := row.Scan(
		&s.ID, &s.CandidateID, &s.AttemptNumber, &s.Status, &endReason,
		&config, &slots, &score,
		&s.MinorViolations, &s.MajorViolations, &s.CriticalViolations,
		&s.CreatedAt, &s.StartedAt, &s.EndedAt, &s.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	if endReason != nil {
		s.EndReason = model.EndReason(*endReason)
	}
	if err := json.Unmarshal(config, &s.Config); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(slots, &s.Slots); err != nil {
		return nil, err
	}
	if len(score) > 0 {
		s.Score = &model.ScoreReport{}
		if err := json.Unmarshal(score, s.Score); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func sessionWriteArgs(s *model.TestSession) ([]any, error) {
	config, err := json.Marshal(s.Config)
	if err != nil {
		return nil, err
	}
	slots, err := json.Marshal(s.Slots)
	if err != nil {
		return nil, err
	}
	var score []byte
	if s.Score != nil {
		if score, err = json.Marshal(s.Score); err != nil {
			return nil, err
		}
	}
	var endReason *string
	if s.EndReason != "" {
		v := string(s.EndReason)
		endReason = &v
	}
	// The deadline column is denormalized from started_at + duration so the
	// sweep can find overdue rows with a plain index scan.
	var deadline *time.Time
	if s.StartedAt != nil {
		d := s.Deadline()
		deadline = &d
	}
	return []any{
		s.ID, s.CandidateID, s.AttemptNumber, s.Status, endReason,
		config, slots, score,
		s.MinorViolations, s.MajorViolations, s.CriticalViolations,
		s.CreatedAt, s.StartedAt, s.EndedAt, s.SubmittedAt, deadline,
	}, nil
}

// Create inserts a new session row.
func (r *SessionRepository) Create(ctx context.Context, s *model.TestSession) error {
	args, err := sessionWriteArgs(s)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO test_sessions (`+sessionColumns+`, deadline)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		args...,
	)
	return err
}

// GetByID retrieves a session by its code.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*model.TestSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM test_sessions WHERE id = $1`, id,
	))
}

// GetActiveByCandidate returns the candidate's session in a non-terminal
// state, or nil when there is none. The partial unique index guarantees at
// most one exists.
func (r *SessionRepository) GetActiveByCandidate(ctx context.Context, candidateID uuid.UUID) (*model.TestSession, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM test_sessions
		 WHERE candidate_id = $1 AND status IN ($2, $3)`,
		candidateID, model.SessionStatusCreated, model.SessionStatusInProgress,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Mutate runs fn on the session under its row lock and writes the result
// back. This is the sole mutation path after creation; concurrent requests
// for the same session serialize on SELECT ... FOR UPDATE, so fn always sees
// the latest persisted state.
//
// The write-back happens even when fn returns exam.ErrSessionExpired: the
// lazy expiry check inside the state machine terminates and scores the
// session as a side effect of the failing operation, and that termination
// must not be lost.
func (r *SessionRepository) Mutate(ctx context.Context, id string, fn func(*model.TestSession) error) (*model.TestSession, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	s, err := scanSession(tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM test_sessions WHERE id = $1 FOR UPDATE`, id,
	))
	if err != nil {
		return nil, err
	}

	fnErr := fn(s)

	args, err := sessionWriteArgs(s)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx,
		`UPDATE test_sessions SET
			status = $4, end_reason = $5, config = $6, slots = $7, score = $8,
			minor_violations = $9, major_violations = $10, critical_violations = $11,
			started_at = $13, ended_at = $14, submitted_at = $15, deadline = $16
		 WHERE id = $1`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return s, fnErr
}

// ListOverdue returns ids of running sessions whose deadline passed, plus
// sessions created but never begun within graceMinutes. The sweep worker
// force-submits each through Mutate, which re-checks under the lock, so a
// stale read here is harmless.
func (r *SessionRepository) ListOverdue(ctx context.Context, now time.Time, graceMinutes int, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM test_sessions
		 WHERE (status = $1 AND deadline < $3)
		    OR (status = $2 AND created_at < $3 - make_interval(mins => $4))
		 LIMIT $5`,
		model.SessionStatusInProgress, model.SessionStatusCreated, now, graceMinutes, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListUnappliedResults returns evaluated sessions whose score has not yet
// been folded into the candidate aggregate, for result worker recovery after
// a queue loss.
func (r *SessionRepository) ListUnappliedResults(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM test_sessions
		 WHERE status = $1 AND result_applied = FALSE
		 ORDER BY ended_at LIMIT $2`,
		model.SessionStatusEvaluated, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkResultApplied flips the result_applied flag; returns true when this
// call did the flip. Gives the result worker exactly-once application on top
// of the queue's at-least-once delivery.
func (r *SessionRepository) MarkResultApplied(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE test_sessions SET result_applied = TRUE
		 WHERE id = $1 AND result_applied = FALSE`, id,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListByCandidate retrieves a candidate's session history, newest first.
func (r *SessionRepository) ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]model.TestSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM test_sessions
		 WHERE candidate_id = $1 ORDER BY created_at DESC`, candidateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.TestSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// UsedQuestionIDs returns ids of every question that appeared in any of the
// candidate's previous sessions, so retakes avoid repeats where the pool
// allows.
func (r *SessionRepository) UsedQuestionIDs(ctx context.Context, candidateID uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT (slot->>'question_id')::uuid
		 FROM test_sessions, jsonb_array_elements(slots) AS slot
		 WHERE candidate_id = $1`, candidateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	used := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		used[id] = true
	}
	return used, rows.Err()
}

// CountAttempts returns how many sessions the candidate has ever had,
// terminal or not, used to number the next attempt.
func (r *SessionRepository) CountAttempts(ctx context.Context, candidateID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM test_sessions WHERE candidate_id = $1`, candidateID,
	).Scan(&n)
	return n, err
}
