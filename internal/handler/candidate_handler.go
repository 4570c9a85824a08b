package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hireflow/assess-backend/internal/repository"
	"github.com/hireflow/assess-backend/internal/response"
	"github.com/hireflow/assess-backend/internal/service"
	"github.com/hireflow/assess-backend/internal/validator"
)

// CandidateHandler handles the admin candidate management endpoints.
type CandidateHandler struct {
	candidateService *service.CandidateService
	sessionService   *service.SessionService
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(candidateService *service.CandidateService, sessionService *service.SessionService) *CandidateHandler {
	return &CandidateHandler{
		candidateService: candidateService,
		sessionService:   sessionService,
	}
}

func parseCandidateID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("candidate_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// CreateCandidate godoc
// POST /api/v1/admin/candidates
func (h *CandidateHandler) CreateCandidate(c *gin.Context) {
	var req service.CreateCandidateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	candidate, err := h.candidateService.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"candidate": candidate})
}

// ListCandidates godoc
// GET /api/v1/admin/candidates?page=&per_page=
func (h *CandidateHandler) ListCandidates(c *gin.Context) {
	page, perPage := parsePagination(c)

	candidates, total, err := h.candidateService.List(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"candidates": candidates}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// GetCandidate godoc
// GET /api/v1/admin/candidates/:candidate_id
func (h *CandidateHandler) GetCandidate(c *gin.Context) {
	id, ok := parseCandidateID(c)
	if !ok {
		return
	}

	candidate, err := h.candidateService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"candidate": candidate})
}

// BlockCandidate godoc
// PUT /api/v1/admin/candidates/:candidate_id/block
// Blocks for N hours; hours=0 lifts the block.
func (h *CandidateHandler) BlockCandidate(c *gin.Context) {
	id, ok := parseCandidateID(c)
	if !ok {
		return
	}

	var req service.BlockCandidateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.candidateService.SetBlock(c.Request.Context(), id, req); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ResetCandidateLogin godoc
// POST /api/v1/admin/candidates/:candidate_id/reset-login
// Clears the single-device login so the candidate can sign in again.
func (h *CandidateHandler) ResetCandidateLogin(c *gin.Context) {
	id, ok := parseCandidateID(c)
	if !ok {
		return
	}

	if err := h.candidateService.ResetLogin(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ResetAccessCode godoc
// PUT /api/v1/admin/candidates/:candidate_id/access-code
// Rotates the access code and invalidates any active login.
func (h *CandidateHandler) ResetAccessCode(c *gin.Context) {
	id, ok := parseCandidateID(c)
	if !ok {
		return
	}

	var req service.ResetAccessCodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.candidateService.ResetAccessCode(c.Request.Context(), id, req); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ListCandidateSessions godoc
// GET /api/v1/admin/candidates/:candidate_id/sessions
func (h *CandidateHandler) ListCandidateSessions(c *gin.Context) {
	id, ok := parseCandidateID(c)
	if !ok {
		return
	}

	sessions, err := h.candidateService.Sessions(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

// GetSessionDetail godoc
// GET /api/v1/admin/sessions/:session_id
// Full session state (including slots with correctness) plus violation log.
func (h *CandidateHandler) GetSessionDetail(c *gin.Context) {
	session, events, err := h.candidateService.SessionDetail(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session":    session,
		"violations": events,
	})
}

// CancelSession godoc
// POST /api/v1/admin/sessions/:session_id/cancel
func (h *CandidateHandler) CancelSession(c *gin.Context) {
	session, err := h.sessionService.Cancel(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": gin.H{
		"id":     session.ID,
		"status": session.Status,
	}})
}
