package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hireflow/assess-backend/internal/model"
	"github.com/hireflow/assess-backend/internal/repository"
)

// Question validation errors.
var (
	ErrOptionsRequired     = errors.New("multiple choice questions need at least two options, exactly one correct")
	ErrOptionsForbidden    = errors.New("options are only valid on multiple choice questions")
	ErrQuestionNotApproved = errors.New("only approved questions can be retired")
)

// QuestionService handles question bank business logic.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo}
}

// Create validates and inserts a new bank question. New questions always
// start in DRAFT; approval is a separate step.
func (s *QuestionService) Create(ctx context.Context, req model.CreateQuestionRequest) (*model.Question, error) {
	q := &model.Question{
		Text:           req.Text,
		Type:           model.QuestionType(req.Type),
		Category:       req.Category,
		Difficulty:     model.Difficulty(req.Difficulty),
		Options:        req.Options,
		CorrectAnswer:  req.CorrectAnswer,
		Points:         req.Points,
		NegativePoints: req.NegativePoints,
		Status:         model.QuestionStatusDraft,
	}
	if err := validateOptions(q); err != nil {
		return nil, err
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// Update modifies a question's content. Issued sessions are unaffected; they
// carry frozen copies.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req model.CreateQuestionRequest) (*model.Question, error) {
	q, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	q.Text = req.Text
	q.Type = model.QuestionType(req.Type)
	q.Category = req.Category
	q.Difficulty = model.Difficulty(req.Difficulty)
	q.Options = req.Options
	q.CorrectAnswer = req.CorrectAnswer
	q.Points = req.Points
	q.NegativePoints = req.NegativePoints

	if err := validateOptions(q); err != nil {
		return nil, err
	}
	if err := s.questionRepo.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	return q, nil
}

// UpdateStatus moves a question between lifecycle states. Only approved
// questions can be retired; a draft that never entered circulation is
// deleted instead.
func (s *QuestionService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.QuestionStatus) error {
	q, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !model.ValidStatusChange(q.Status, status) {
		return ErrQuestionNotApproved
	}
	return s.questionRepo.UpdateStatus(ctx, id, status)
}

// GetByID retrieves a single question.
func (s *QuestionService) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

// List retrieves questions with optional filters.
func (s *QuestionService) List(ctx context.Context, category, difficulty, status string, limit, offset int) ([]model.Question, int, error) {
	return s.questionRepo.ListPaginated(ctx, category, difficulty, status, limit, offset)
}

// Delete removes a question from the bank.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.questionRepo.Delete(ctx, id)
}

// PoolHealth reports the approved pool size per difficulty so recruiters can
// see when the bank is running thin before candidates hit selection errors.
func (s *QuestionService) PoolHealth(ctx context.Context) (map[model.Difficulty]int, error) {
	return s.questionRepo.CountApprovedByDifficulty(ctx)
}

func validateOptions(q *model.Question) error {
	if q.Type != model.QuestionTypeMultipleChoice {
		if len(q.Options) > 0 {
			return ErrOptionsForbidden
		}
		return nil
	}
	if len(q.Options) < 2 {
		return ErrOptionsRequired
	}
	correct := 0
	for _, opt := range q.Options {
		if opt.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return ErrOptionsRequired
	}
	return nil
}
