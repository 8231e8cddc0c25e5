package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/campora/taskgate-backend/internal/middleware"
	"github.com/campora/taskgate-backend/internal/service"
	"github.com/campora/taskgate-backend/internal/session"
	ws "github.com/campora/taskgate-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// warningThreshold is the remaining time at which the one-shot
// low-time warning is pushed.
const warningThreshold = 5 * time.Minute

// resyncInterval bounds local drift: the stream recomputes from the
// cached start time every tick but re-reads the store this often.
const resyncInterval = 30 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow list permits all origins (development mode).
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

// WSHandler streams exam timer state over WebSocket.
type WSHandler struct {
	timerService *service.TimerService
	log          zerolog.Logger
	upgrader     websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(timerService *service.TimerService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		timerService: timerService,
		log:          log.With().Str("component", "ws_handler").Logger(),
		upgrader:     buildUpgrader(allowedOrigins),
	}
}

// TimerStream godoc
// WS /ws/v1/student/tasks/:task_id/timer/stream
// Pushes a tick event with the remaining HH:MM:SS once per second,
// a single warning event when five minutes remain, and an expired
// event before closing the stream.
func (h *WSHandler) TimerStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	studentID := claims.UserID

	timer, err := h.timerService.Get(c.Request.Context(), taskID, studentID)
	if err != nil {
		if errors.Is(err, service.ErrTimerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "timer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "timer lookup failed"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("student_id", studentID.String()).
		Str("task_id", taskID.String()).
		Logger()

	wsLog.Info().Msg("Timer stream connected")

	// Reader goroutine: answers pings and detects client close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	resync := time.NewTicker(resyncInterval)
	defer resync.Stop()

	warned := false
	for {
		select {
		case <-closed:
			wsLog.Debug().Msg("Timer stream closed by client")
			return

		case <-resync.C:
			// Re-read the store so cache self-heal and clock drift
			// never diverge the stream from the authoritative time.
			fresh, err := h.timerService.Get(c.Request.Context(), taskID, studentID)
			if err == nil {
				timer = fresh
			}

		case now := <-ticker.C:
			remaining := timer.Remaining(now)

			if remaining <= 0 {
				ws.WriteTyped(conn, ws.ExpiredResponse{Event: ws.EventExpired})
				wsLog.Info().Msg("Timer expired, closing stream")
				return
			}

			if !warned && remaining <= warningThreshold {
				warned = true
				ws.WriteTyped(conn, ws.WarningResponse{
					Event:     ws.EventWarning,
					Remaining: session.FormatRemaining(remaining),
				})
			}

			if err := ws.WriteTyped(conn, ws.TickResponse{
				Event:     ws.EventTick,
				Remaining: session.FormatRemaining(remaining),
			}); err != nil {
				wsLog.Debug().Msg("Timer stream write failed, closing")
				return
			}
		}
	}
}
