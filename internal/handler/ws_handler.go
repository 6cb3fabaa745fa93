package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/quizgate/quizgate-backend/internal/middleware"
	"github.com/quizgate/quizgate-backend/internal/model"
	"github.com/quizgate/quizgate-backend/internal/service"
	ws "github.com/quizgate/quizgate-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
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

// WSHandler handles the WebSocket proctoring stream.
type WSHandler struct {
	proctorService *service.ProctorService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(proctorService *service.ProctorService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		proctorService: proctorService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// ProctorStream godoc
// WS /ws/v1/quiz/stream
// Upgrades to WebSocket for low-latency violation reporting. Each violation
// message is answered with a warning or, once the threshold is crossed, a
// terminated event; the connection then closes.
func (h *WSHandler) ProctorStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("user_id", claims.UserID.String()).Logger()
	wsLog.Info().Msg("Participant connected to proctor stream")

	for {
		var msg ws.ViolationMessage
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		case ws.ActionViolation:
			if done := h.handleViolation(c.Request.Context(), conn, wsLog, claims, &msg); done {
				return
			}
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

// handleViolation runs one violation report through the tracker and returns
// true when the session was terminated and the stream should end.
func (h *WSHandler) handleViolation(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, claims *service.Claims, msg *ws.ViolationMessage) bool {
	kind := model.ViolationKind(msg.Kind)
	if kind != model.ViolationFullscreenExit && kind != model.ViolationVisibilityLoss {
		ws.WriteError(conn, "unknown violation kind: "+msg.Kind)
		return false
	}

	outcome, err := h.proctorService.Report(ctx, claims.UserID, kind)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveSession):
			ws.WriteError(conn, "no quiz session in progress")
			return true
		default:
			wsLog.Error().Err(err).Msg("Violation report failed")
			ws.WriteError(conn, "violation could not be recorded")
			return false
		}
	}

	if outcome.Terminated {
		wsLog.Info().Int("violation_count", outcome.ViolationCount).Msg("Session terminated over proctor stream")
		ws.WriteTyped(conn, ws.TerminatedResponse{
			Event:          ws.EventTerminated,
			ViolationCount: outcome.ViolationCount,
		})
		return true
	}

	ws.WriteTyped(conn, ws.WarningResponse{
		Event:          ws.EventWarning,
		ViolationCount: outcome.ViolationCount,
		Remaining:      outcome.Remaining,
	})
	return false
}
