package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptRecord is the per-candidate testing history consulted by the
// eligibility gate and updated after each evaluation.
type AttemptRecord struct {
	TotalAttempts  int        `json:"total_attempts"`
	LastAttemptAt  *time.Time `json:"last_attempt_at,omitempty"`
	BestPercentage int        `json:"best_percentage"`
	HasQualified   bool       `json:"has_qualified"`
	QualifiedAt    *time.Time `json:"qualified_at,omitempty"`
	BlockedUntil   *time.Time `json:"blocked_until,omitempty"`
	BlockReason    string     `json:"block_reason,omitempty"`
}

// Candidate is a person in the hiring pipeline. Registration and OTP
// verification happen upstream; this service only reads the record and
// maintains the attempt aggregate.
type Candidate struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	AccessCodeHash string    `json:"-"`
	AttemptRecord
	CreatedAt time.Time `json:"created_at"`
}

// CandidateLoginRequest authenticates a candidate with their emailed access code.
type CandidateLoginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	AccessCode string `json:"access_code" binding:"required,min=6,max=64"`
}
