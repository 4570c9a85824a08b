package service

import (
	"context"
	"fmt"

	"github.com/hireflow/assess-backend/internal/model"
	"github.com/hireflow/assess-backend/internal/repository"
)

// AdminService handles back-office user management.
type AdminService struct {
	adminRepo *repository.AdminRepository
	auth      *AuthService
}

// NewAdminService creates a new AdminService.
func NewAdminService(adminRepo *repository.AdminRepository, auth *AuthService) *AdminService {
	return &AdminService{adminRepo: adminRepo, auth: auth}
}

// GetByID retrieves an admin.
func (s *AdminService) GetByID(ctx context.Context, id int) (*model.Admin, error) {
	return s.adminRepo.GetByID(ctx, id)
}

// GetByEmail retrieves an admin by email.
func (s *AdminService) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return s.adminRepo.GetByEmail(ctx, email)
}

// Create inserts a new admin with a hashed password. Used by the
// create-admin command; there is no self-service admin signup.
func (s *AdminService) Create(ctx context.Context, name, email, password string) (*model.Admin, error) {
	hash, err := s.auth.HashSecret(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	a := &model.Admin{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.adminRepo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
