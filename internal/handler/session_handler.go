package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hireflow/assess-backend/internal/exam"
	"github.com/hireflow/assess-backend/internal/middleware"
	"github.com/hireflow/assess-backend/internal/model"
	"github.com/hireflow/assess-backend/internal/response"
	"github.com/hireflow/assess-backend/internal/service"
	"github.com/hireflow/assess-backend/internal/validator"
)

// SessionHandler handles the candidate-facing test session endpoints.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// sessionView is the candidate-safe projection of a session. Slots are
// reduced to paper questions; correct answers and per-question correctness
// never leave the server while the session runs.
func sessionView(s *model.TestSession, includePaper bool, now time.Time) gin.H {
	view := gin.H{
		"id":                 s.ID,
		"attempt_number":     s.AttemptNumber,
		"status":             s.Status,
		"total_questions":    s.Config.TotalQuestions,
		"duration_minutes":   s.Config.DurationMinutes,
		"passing_percentage": s.Config.PassingPercentage,
		"remaining_seconds":  s.RemainingSeconds(now),
		"answered_count":     s.AnsweredCount(),
		"flagged_count":      s.FlaggedCount(),
		"total_violations":   s.TotalViolations(),
		"created_at":         s.CreatedAt,
	}
	if s.StartedAt != nil {
		view["started_at"] = s.StartedAt
	}
	if s.EndedAt != nil {
		view["ended_at"] = s.EndedAt
	}
	if s.EndReason != "" {
		view["end_reason"] = s.EndReason
	}
	if s.Status == model.SessionStatusEvaluated && s.Score != nil {
		view["score"] = s.Score
	}
	if includePaper && !s.IsTerminal() {
		paper := make([]model.PaperQuestion, 0, len(s.Slots))
		for i := range s.Slots {
			paper = append(paper, s.Slots[i].Paper())
		}
		view["questions"] = paper
	}
	return view
}

// failSession maps session pipeline errors onto the wire taxonomy.
func failSession(c *gin.Context, err error) {
	var gateErr *exam.EligibilityError
	switch {
	case errors.As(err, &gateErr):
		fields := map[string]string{"reason": gateErr.Reason}
		if gateErr.ActiveSessionID != "" {
			fields["active_session_id"] = gateErr.ActiveSessionID
		}
		response.FailWithFields(c, http.StatusForbidden, response.ErrNotEligible, fields)
	case errors.Is(err, exam.ErrInsufficientPool):
		response.Fail(c, http.StatusConflict, response.ErrInsufficientPool)
	case errors.Is(err, exam.ErrAlreadyEvaluated):
		response.Fail(c, http.StatusConflict, response.ErrAnswerAfterEvaluated)
	case errors.Is(err, exam.ErrInvalidState):
		response.Fail(c, http.StatusConflict, response.ErrInvalidSessionState)
	case errors.Is(err, exam.ErrSessionExpired):
		response.Fail(c, http.StatusGone, response.ErrSessionExpired)
	case errors.Is(err, exam.ErrQuestionOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrQuestionOutOfRange)
	case errors.Is(err, service.ErrNotSessionOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func (h *SessionHandler) candidateID(c *gin.Context) (uuid.UUID, bool) {
	id := middleware.CandidateID(c)
	if id == uuid.Nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return uuid.Nil, false
	}
	return id, true
}

// CreateSession godoc
// POST /api/v1/candidate/sessions
// Runs the eligibility gate and freezes a new test session.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	candidateID, ok := h.candidateID(c)
	if !ok {
		return
	}

	session, err := h.sessionService.Create(c.Request.Context(), candidateID)
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": sessionView(session, true, h.sessionService.Now())})
}

// BeginSession godoc
// POST /api/v1/candidate/sessions/:session_id/begin
// Starts the timer and returns the question paper.
func (h *SessionHandler) BeginSession(c *gin.Context) {
	candidateID, ok := h.candidateID(c)
	if !ok {
		return
	}

	session, err := h.sessionService.Begin(c.Request.Context(), candidateID, c.Param("session_id"))
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": sessionView(session, true, h.sessionService.Now())})
}

// SubmitAnswer godoc
// PUT /api/v1/candidate/sessions/:session_id/answers
// Records or overwrites the answer for one question.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	candidateID, ok := h.candidateID(c)
	if !ok {
		return
	}

	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.Answer(c.Request.Context(), candidateID, c.Param("session_id"), req)
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"answered_count":    session.AnsweredCount(),
		"remaining_seconds": session.RemainingSeconds(h.sessionService.Now()),
	})
}

// FlagQuestion godoc
// PUT /api/v1/candidate/sessions/:session_id/flags
// Toggles the flagged-for-review marker on one question.
func (h *SessionHandler) FlagQuestion(c *gin.Context) {
	candidateID, ok := h.candidateID(c)
	if !ok {
		return
	}

	var req model.FlagRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.Flag(c.Request.Context(), candidateID, c.Param("session_id"), req)
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"question_number": req.QuestionNumber,
		"flagged":         *req.Flagged,
		"flagged_count":   session.FlaggedCount(),
	})
}

// ReportViolation godoc
// POST /api/v1/candidate/sessions/:session_id/violations
// Records a proctoring anomaly; may terminate the session.
func (h *SessionHandler) ReportViolation(c *gin.Context) {
	candidateID, ok := h.candidateID(c)
	if !ok {
		return
	}

	var req model.ViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, decision, err := h.sessionService.ReportViolation(c.Request.Context(), candidateID, c.Param("session_id"), req)
	if err != nil {
		failSession(c, err)
		return
	}

	data := gin.H{
		"severity":         decision.Severity,
		"total_violations": decision.TotalViolations,
		"terminated":       decision.ShouldTerminate,
	}
	if decision.ShouldTerminate {
		data["session"] = sessionView(session, false, h.sessionService.Now())
	}
	response.Success(c, http.StatusOK, data)
}

// SubmitSession godoc
// POST /api/v1/candidate/sessions/:session_id/submit
// Ends the session and returns the score report.
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	candidateID, ok := h.candidateID(c)
	if !ok {
		return
	}

	session, err := h.sessionService.Submit(c.Request.Context(), candidateID, c.Param("session_id"))
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": sessionView(session, false, h.sessionService.Now())})
}

// GetSessionStatus godoc
// GET /api/v1/candidate/sessions/:session_id
// Returns the current session state, including the paper while running.
func (h *SessionHandler) GetSessionStatus(c *gin.Context) {
	candidateID, ok := h.candidateID(c)
	if !ok {
		return
	}

	session, err := h.sessionService.Status(c.Request.Context(), candidateID, c.Param("session_id"))
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": sessionView(session, true, h.sessionService.Now())})
}
