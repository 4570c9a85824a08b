package repository

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hireflow/assess-backend/internal/model"
)

const questionColumns = `id, question_text, question_type, category, difficulty,
	options, correct_answer, points, negative_points, status, created_at, updated_at`

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func scanQuestion(row rowScanner) (*model.Question, error) {
	q := &model.Question{}
	var options []byte
	err := row.Scan(
		&q.ID, &q.Text, &q.Type, &q.Category, &q.Difficulty,
		&options, &q.CorrectAnswer, &q.Points, &q.NegativePoints,
		&q.Status, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// GetByID retrieves a question by ID.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id,
	))
}

// ListApproved retrieves the full selectable pool. The selector draws from
// this in memory; the bank is small enough that per-difficulty queries are
// not worth it.
func (r *QuestionRepository) ListApproved(ctx context.Context) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE status = $1`,
		model.QuestionStatusApproved,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// ListPaginated retrieves questions with optional category, difficulty and
// status filters.
func (r *QuestionRepository) ListPaginated(ctx context.Context, category, difficulty, status string, limit, offset int) ([]model.Question, int, error) {
	where := ` WHERE 1=1`
	var args []any
	if category != "" {
		args = append(args, category)
		where += ` AND category = $` + strconv.Itoa(len(args))
	}
	if difficulty != "" {
		args = append(args, difficulty)
		where += ` AND difficulty = $` + strconv.Itoa(len(args))
	}
	if status != "" {
		args = append(args, status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + questionColumns + ` FROM questions` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, err
		}
		questions = append(questions, *q)
	}
	return questions, total, rows.Err()
}

// CountApprovedByDifficulty returns the approved pool size per difficulty,
// used by the admin bank-health endpoint.
func (r *QuestionRepository) CountApprovedByDifficulty(ctx context.Context) (map[model.Difficulty]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT difficulty, COUNT(*) FROM questions WHERE status = $1 GROUP BY difficulty`,
		model.QuestionStatusApproved,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.Difficulty]int)
	for rows.Next() {
		var diff model.Difficulty
		var n int
		if err := rows.Scan(&diff, &n); err != nil {
			return nil, err
		}
		counts[diff] = n
	}
	return counts, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (question_text, question_type, category, difficulty, options, correct_answer, points, negative_points, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		q.Text, q.Type, q.Category, q.Difficulty, options, q.CorrectAnswer, q.Points, q.NegativePoints, q.Status,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// Update modifies a question's content. Sessions already issued keep their
// frozen copy.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE questions SET question_text = $1, question_type = $2, category = $3, difficulty = $4,
			options = $5, correct_answer = $6, points = $7, negative_points = $8, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $9`,
		q.Text, q.Type, q.Category, q.Difficulty, options, q.CorrectAnswer, q.Points, q.NegativePoints, q.ID,
	)
	return err
}

// UpdateStatus moves a question between lifecycle states.
func (r *QuestionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.QuestionStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE questions SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		status, id,
	)
	return err
}

// Delete removes a question by ID.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}
