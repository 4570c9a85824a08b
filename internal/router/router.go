package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hireflow/assess-backend/internal/config"
	"github.com/hireflow/assess-backend/internal/handler"
	"github.com/hireflow/assess-backend/internal/middleware"
	"github.com/hireflow/assess-backend/internal/response"
	"github.com/hireflow/assess-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Session   *handler.SessionHandler
	Question  *handler.QuestionHandler
	Candidate *handler.CandidateHandler
	WS        *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP); access
	// codes are short enough to be worth brute-forcing.
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/candidate/login", handlers.Auth.CandidateLogin)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)

		// Authenticated profile routes
		auth.POST("/candidate/logout", middleware.RequireCandidateJWT(authService), handlers.Auth.CandidateLogout)
		auth.GET("/candidate/me", middleware.RequireCandidateJWT(authService), handlers.Auth.GetCandidateProfile)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.GetAdminProfile)
	}

	// ─── 2. Candidate Group (JWT + Single Device) ──────────────────────
	candidateAPI := router.Group("/api/v1/candidate")
	candidateAPI.Use(
		middleware.RequireCandidateJWT(authService),
		middleware.CheckSingleDeviceLogin(authService),
	)
	{
		candidateAPI.POST("/sessions", handlers.Session.CreateSession)
		candidateAPI.GET("/sessions/:session_id", handlers.Session.GetSessionStatus)
		candidateAPI.POST("/sessions/:session_id/begin", handlers.Session.BeginSession)
		candidateAPI.PUT("/sessions/:session_id/answers", handlers.Session.SubmitAnswer)
		candidateAPI.PUT("/sessions/:session_id/flags", handlers.Session.FlagQuestion)
		candidateAPI.POST("/sessions/:session_id/violations", handlers.Session.ReportViolation)
		candidateAPI.POST("/sessions/:session_id/submit", handlers.Session.SubmitSession)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/candidate/sessions/:session_id/stream",
			middleware.RequireCandidateWSAuth(authService),
			handlers.WS.SessionStream,
		)
		ws.GET("/admin/sessions/:session_id/monitor",
			middleware.RequireAdminWSAuth(authService),
			handlers.WS.MonitorStream,
		)
	}

	// ─── 4. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Question bank
		adminAPI.GET("/questions", handlers.Question.ListQuestions)
		adminAPI.GET("/questions/pool-health", handlers.Question.GetPoolHealth)
		adminAPI.POST("/questions", handlers.Question.CreateQuestion)
		adminAPI.GET("/questions/:question_id", handlers.Question.GetQuestion)
		adminAPI.PUT("/questions/:question_id", handlers.Question.UpdateQuestion)
		adminAPI.PATCH("/questions/:question_id/status", handlers.Question.UpdateQuestionStatus)
		adminAPI.DELETE("/questions/:question_id", handlers.Question.DeleteQuestion)

		// Candidates
		adminAPI.GET("/candidates", handlers.Candidate.ListCandidates)
		adminAPI.POST("/candidates", handlers.Candidate.CreateCandidate)
		adminAPI.GET("/candidates/:candidate_id", handlers.Candidate.GetCandidate)
		adminAPI.PUT("/candidates/:candidate_id/block", handlers.Candidate.BlockCandidate)
		adminAPI.POST("/candidates/:candidate_id/reset-login", handlers.Candidate.ResetCandidateLogin)
		adminAPI.PUT("/candidates/:candidate_id/access-code", handlers.Candidate.ResetAccessCode)
		adminAPI.GET("/candidates/:candidate_id/sessions", handlers.Candidate.ListCandidateSessions)

		// Sessions
		adminAPI.GET("/sessions/:session_id", handlers.Candidate.GetSessionDetail)
		adminAPI.POST("/sessions/:session_id/cancel", handlers.Candidate.CancelSession)
	}

	return router
}
