package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hireflow/assess-backend/internal/model"
	"github.com/hireflow/assess-backend/internal/repository"
)

// CandidateService handles candidate management for the admin surface.
// Candidate self-registration happens upstream of this service.
type CandidateService struct {
	candidateRepo *repository.CandidateRepository
	sessionRepo   *repository.SessionRepository
	violationRepo *repository.ViolationRepository
	auth          *AuthService
}

// NewCandidateService creates a new CandidateService.
func NewCandidateService(
	candidateRepo *repository.CandidateRepository,
	sessionRepo *repository.SessionRepository,
	violationRepo *repository.ViolationRepository,
	auth *AuthService,
) *CandidateService {
	return &CandidateService{
		candidateRepo: candidateRepo,
		sessionRepo:   sessionRepo,
		violationRepo: violationRepo,
		auth:          auth,
	}
}

// CreateCandidateRequest is the admin payload for onboarding a candidate.
type CreateCandidateRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=200"`
	Email      string `json:"email" binding:"required,email"`
	AccessCode string `json:"access_code" binding:"required,min=6,max=64"`
}

// BlockCandidateRequest blocks a candidate for a number of hours, or lifts
// the block when hours is zero.
type BlockCandidateRequest struct {
	Hours  int    `json:"hours" binding:"min=0,max=8760"`
	Reason string `json:"reason" binding:"max=500"`
}

// Create onboards a candidate with a hashed access code.
func (s *CandidateService) Create(ctx context.Context, req CreateCandidateRequest) (*model.Candidate, error) {
	hash, err := s.auth.HashSecret(req.AccessCode)
	if err != nil {
		return nil, fmt.Errorf("hash access code: %w", err)
	}
	c := &model.Candidate{
		Name:           req.Name,
		Email:          req.Email,
		AccessCodeHash: hash,
	}
	if err := s.candidateRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID retrieves a candidate.
func (s *CandidateService) GetByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error) {
	return s.candidateRepo.GetByID(ctx, id)
}

// GetByEmail retrieves a candidate by email, used by login.
func (s *CandidateService) GetByEmail(ctx context.Context, email string) (*model.Candidate, error) {
	return s.candidateRepo.GetByEmail(ctx, email)
}

// List retrieves candidates, newest first.
func (s *CandidateService) List(ctx context.Context, limit, offset int) ([]model.Candidate, int, error) {
	return s.candidateRepo.ListPaginated(ctx, limit, offset)
}

// SetBlock blocks a candidate until now+hours, or lifts the block.
func (s *CandidateService) SetBlock(ctx context.Context, id uuid.UUID, req BlockCandidateRequest) error {
	var until *time.Time
	if req.Hours > 0 {
		t := time.Now().Add(time.Duration(req.Hours) * time.Hour)
		until = &t
	}
	return s.candidateRepo.SetBlock(ctx, id, until, req.Reason)
}

// Sessions retrieves a candidate's full session history.
func (s *CandidateService) Sessions(ctx context.Context, id uuid.UUID) ([]model.TestSession, error) {
	return s.sessionRepo.ListByCandidate(ctx, id)
}

// SessionDetail retrieves one session together with its violation log, for
// recruiter review of a terminated attempt.
func (s *CandidateService) SessionDetail(ctx context.Context, sessionID string) (*model.TestSession, []model.ViolationEvent, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	events, err := s.violationRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return session, events, nil
}

// ResetLogin clears the candidate's single-device login registration.
func (s *CandidateService) ResetLogin(ctx context.Context, id uuid.UUID) error {
	return s.auth.ResetCandidateLogin(ctx, id.String())
}

// ResetAccessCodeRequest rotates a candidate's access code.
type ResetAccessCodeRequest struct {
	AccessCode string `json:"access_code" binding:"required,min=6,max=64"`
}

// ResetAccessCode rehashes and stores a new access code, then clears any
// registered login so the old credential cannot keep an open device alive.
func (s *CandidateService) ResetAccessCode(ctx context.Context, id uuid.UUID, req ResetAccessCodeRequest) error {
	hash, err := s.auth.HashSecret(req.AccessCode)
	if err != nil {
		return fmt.Errorf("hash access code: %w", err)
	}
	if err := s.candidateRepo.UpdateAccessCode(ctx, id, hash); err != nil {
		return err
	}
	return s.auth.ResetCandidateLogin(ctx, id.String())
}
