package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hireflow/assess-backend/internal/model"
)

var ErrDuplicateEmail = errors.New("candidate with this email already exists")

const candidateColumns = `id, name, email, access_code_hash,
	total_attempts, last_attempt_at, best_percentage,
	has_qualified, qualified_at, blocked_until, block_reason, created_at`

// CandidateRepository handles candidate data access.
type CandidateRepository struct {
	pool *pgxpool.Pool
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(pool *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{pool: pool}
}

func scanCandidate(row rowScanner) (*model.Candidate, error) {
	c := &model.Candidate{}
	var blockReason *string
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.AccessCodeHash,
		&c.TotalAttempts, &c.LastAttemptAt, &c.BestPercentage,
		&c.HasQualified, &c.QualifiedAt, &c.BlockedUntil, &blockReason, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if blockReason != nil {
		c.BlockReason = *blockReason
	}
	return c, nil
}

// GetByID retrieves a candidate by ID.
func (r *CandidateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error) {
	return scanCandidate(r.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id,
	))
}

// GetByEmail retrieves a candidate by their unique email.
func (r *CandidateRepository) GetByEmail(ctx context.Context, email string) (*model.Candidate, error) {
	return scanCandidate(r.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE email = $1`, email,
	))
}

// ListPaginated retrieves candidates ordered by creation, newest first.
func (r *CandidateRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Candidate, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM candidates`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+candidateColumns+` FROM candidates
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var candidates []model.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, 0, err
		}
		candidates = append(candidates, *c)
	}
	return candidates, total, rows.Err()
}

// Create inserts a new candidate.
func (r *CandidateRepository) Create(ctx context.Context, c *model.Candidate) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO candidates (name, email, access_code_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		c.Name, c.Email, c.AccessCodeHash,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// ApplyResult folds one evaluated session into the candidate's attempt
// aggregate. Safe to re-run for the same candidate only once per session;
// the result worker dedupes via the session's result_applied flag.
func (r *CandidateRepository) ApplyResult(ctx context.Context, candidateID uuid.UUID, percentage int, passed bool, endedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE candidates SET
			total_attempts = total_attempts + 1,
			last_attempt_at = $2,
			best_percentage = GREATEST(best_percentage, $3),
			qualified_at = CASE WHEN $4 AND NOT has_qualified THEN $2 ELSE qualified_at END,
			has_qualified = has_qualified OR $4
		 WHERE id = $1`,
		candidateID, endedAt, percentage, passed,
	)
	return err
}

// SetBlock blocks a candidate until the given instant, or lifts the block
// when until is nil.
func (r *CandidateRepository) SetBlock(ctx context.Context, id uuid.UUID, until *time.Time, reason string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE candidates SET blocked_until = $2, block_reason = NULLIF($3, '') WHERE id = $1`,
		id, until, reason,
	)
	return err
}

// UpdateAccessCode rotates the candidate's access code hash.
func (r *CandidateRepository) UpdateAccessCode(ctx context.Context, id uuid.UUID, accessCodeHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE candidates SET access_code_hash = $2 WHERE id = $1`,
		id, accessCodeHash,
	)
	return err
}

// rowScanner is the scan surface shared by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
