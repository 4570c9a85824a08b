package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates supported question formats.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionTypeShortAnswer    QuestionType = "SHORT_ANSWER"
)

// Difficulty enumerates question difficulty buckets.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "EASY"
	DifficultyModerate Difficulty = "MODERATE"
	DifficultyHard     Difficulty = "HARD"
)

// QuestionStatus enumerates question lifecycle states. Only APPROVED
// questions are eligible for selection into a test session.
type QuestionStatus string

const (
	QuestionStatusDraft    QuestionStatus = "DRAFT"
	QuestionStatusApproved QuestionStatus = "APPROVED"
	QuestionStatusRetired  QuestionStatus = "RETIRED"
)

// ValidStatusChange reports whether a lifecycle transition is allowed.
// Retirement is reserved for questions that entered circulation; a draft
// that never shipped is deleted, not retired.
func ValidStatusChange(from, to QuestionStatus) bool {
	if to == QuestionStatusRetired {
		return from == QuestionStatusApproved || from == QuestionStatusRetired
	}
	return true
}

// Option is a single answer choice for a multiple-choice question.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is a bank question. Sessions never reference it live; its content
// is copied into a QuestionSlot at session creation.
type Question struct {
	ID             uuid.UUID      `json:"id"`
	Text           string         `json:"text"`
	Type           QuestionType   `json:"type"`
	Category       string         `json:"category"`
	Difficulty     Difficulty     `json:"difficulty"`
	Options        []Option       `json:"options,omitempty"`
	CorrectAnswer  string         `json:"correct_answer"`
	Points         float64        `json:"points"`
	NegativePoints float64        `json:"negative_points"`
	Status         QuestionStatus `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// CreateQuestionRequest is the admin payload for adding a bank question.
type CreateQuestionRequest struct {
	Text           string     `json:"text" binding:"required,min=1,max=2000"`
	Type           string     `json:"type" binding:"required,oneof=MULTIPLE_CHOICE TRUE_FALSE SHORT_ANSWER"`
	Category       string     `json:"category" binding:"required,min=1,max=100"`
	Difficulty     string     `json:"difficulty" binding:"required,oneof=EASY MODERATE HARD"`
	Options        []Option   `json:"options" binding:"omitempty,dive"`
	CorrectAnswer  string     `json:"correct_answer" binding:"required,max=500"`
	Points         float64    `json:"points" binding:"required,gt=0"`
	NegativePoints float64    `json:"negative_points" binding:"min=0"`
}

// UpdateQuestionStatusRequest moves a question between lifecycle states.
type UpdateQuestionStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=DRAFT APPROVED RETIRED"`
}
