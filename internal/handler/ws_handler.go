package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hireflow/assess-backend/internal/config"
	"github.com/hireflow/assess-backend/internal/middleware"
	"github.com/hireflow/assess-backend/internal/model"
	"github.com/hireflow/assess-backend/internal/service"
	ws "github.com/hireflow/assess-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles the WebSocket test stream and the recruiter monitor
// feed. The stream is an alternative transport over the same session service
// the REST endpoints use; the state machine neither knows nor cares which
// one delivered the operation.
type WSHandler struct {
	rdb            *redis.Client
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:            rdb,
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/candidate/sessions/:session_id/stream?token=...
// Real-time answer, flag, violation and submit channel for a running test.
func (h *WSHandler) SessionStream(c *gin.Context) {
	candidateID := middleware.CandidateID(c)
	if candidateID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	sessionID := c.Param("session_id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("candidate_id", candidateID.String()).
		Str("session_id", sessionID).
		Logger()

	// Ownership and state are checked here once for a fast close, and again
	// inside every operation under the session lock.
	if _, err := h.sessionService.Status(c.Request.Context(), candidateID, sessionID); err != nil {
		ws.WriteError(conn, "session not available")
		return
	}

	wsLog.Info().Msg("Candidate connected")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		ctx := context.Background()
		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAnswer(ctx, conn, candidateID, sessionID, &msg)
		case ws.ActionFlag:
			h.handleFlag(ctx, conn, candidateID, sessionID, &msg)
		case ws.ActionViolation:
			h.handleViolation(ctx, conn, candidateID, sessionID, &msg)
		case ws.ActionSubmit:
			if done := h.handleSubmit(ctx, conn, wsLog, candidateID, sessionID); done {
				return
			}
		case ws.ActionStatus:
			h.handleStatus(ctx, conn, candidateID, sessionID)
		case ws.ActionPing:
			ws.WriteEvent(conn, ws.EventPong, nil)
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

func (h *WSHandler) handleAnswer(ctx context.Context, conn *websocket.Conn, candidateID uuid.UUID, sessionID string, msg *ws.RequestPayload) {
	session, err := h.sessionService.Answer(ctx, candidateID, sessionID, model.AnswerRequest{
		QuestionNumber:   msg.QuestionNumber,
		Answer:           msg.Answer,
		TimeSpentSeconds: msg.TimeSpent,
	})
	if err != nil {
		h.writeOpError(conn, session, err)
		return
	}
	ws.WriteEvent(conn, ws.EventSaved, gin.H{
		"question_number": msg.QuestionNumber,
		"answered_count":  session.AnsweredCount(),
	})
}

func (h *WSHandler) handleFlag(ctx context.Context, conn *websocket.Conn, candidateID uuid.UUID, sessionID string, msg *ws.RequestPayload) {
	if msg.Flagged == nil {
		ws.WriteError(conn, "flagged is required")
		return
	}
	session, err := h.sessionService.Flag(ctx, candidateID, sessionID, model.FlagRequest{
		QuestionNumber: msg.QuestionNumber,
		Flagged:        msg.Flagged,
	})
	if err != nil {
		h.writeOpError(conn, session, err)
		return
	}
	ws.WriteEvent(conn, ws.EventFlagged, gin.H{
		"question_number": msg.QuestionNumber,
		"flagged":         *msg.Flagged,
		"flagged_count":   session.FlaggedCount(),
	})
}

func (h *WSHandler) handleViolation(ctx context.Context, conn *websocket.Conn, candidateID uuid.UUID, sessionID string, msg *ws.RequestPayload) {
	session, decision, err := h.sessionService.ReportViolation(ctx, candidateID, sessionID, model.ViolationRequest{
		Type:   msg.ViolationType,
		Detail: msg.Detail,
	})
	if err != nil {
		h.writeOpError(conn, session, err)
		return
	}

	ws.WriteEvent(conn, ws.EventViolation, gin.H{
		"severity":         decision.Severity,
		"total_violations": decision.TotalViolations,
		"terminated":       decision.ShouldTerminate,
	})
	if decision.ShouldTerminate {
		ws.WriteEvent(conn, ws.EventEvaluated, gin.H{
			"end_reason": session.EndReason,
			"score":      session.Score,
		})
	}
}

func (h *WSHandler) handleSubmit(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, candidateID uuid.UUID, sessionID string) bool {
	session, err := h.sessionService.Submit(ctx, candidateID, sessionID)
	if err != nil {
		h.writeOpError(conn, session, err)
		return false
	}

	wsLog.Info().
		Int("percentage", session.Score.Percentage).
		Str("grade", session.Score.Grade).
		Msg("Session submitted over WebSocket")

	ws.WriteEvent(conn, ws.EventEvaluated, gin.H{
		"end_reason": session.EndReason,
		"score":      session.Score,
	})
	return true
}

func (h *WSHandler) handleStatus(ctx context.Context, conn *websocket.Conn, candidateID uuid.UUID, sessionID string) {
	session, err := h.sessionService.Status(ctx, candidateID, sessionID)
	if err != nil {
		ws.WriteError(conn, "status unavailable")
		return
	}
	ws.WriteEvent(conn, ws.EventStatus, sessionView(session, false, h.sessionService.Now()))
}

// writeOpError translates an operation failure into a stream event. Expiry
// gets its own event carrying the final score, since the session just got
// evaluated underneath the client.
func (h *WSHandler) writeOpError(conn *websocket.Conn, session *model.TestSession, err error) {
	if session != nil && session.Status == model.SessionStatusEvaluated && session.EndReason == model.EndReasonTimeout {
		ws.WriteEvent(conn, ws.EventExpired, gin.H{"score": session.Score})
		return
	}
	ws.WriteError(conn, err.Error())
}

// MonitorStream godoc
// WS /ws/v1/admin/sessions/:session_id/monitor?token=...
// Relays the session's live pub/sub feed to a recruiter dashboard.
func (h *WSHandler) MonitorStream(c *gin.Context) {
	sessionID := c.Param("session_id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := h.rdb.Subscribe(context.Background(), config.CacheKey.SessionMonitorChannel(sessionID))
	defer sub.Close()

	h.log.Info().Str("session_id", sessionID).Msg("Monitor connected")

	// Reader goroutine only to detect the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case <-done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event model.MonitorEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			if err := ws.WriteEvent(conn, ws.EventStatus, event); err != nil {
				return
			}
		}
	}
}
