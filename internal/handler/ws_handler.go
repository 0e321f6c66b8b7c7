package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/examgate/backend/internal/middleware"
	"github.com/examgate/backend/internal/service"
	sess "github.com/examgate/backend/internal/session"
	ws "github.com/examgate/backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
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

// WSHandler streams live attempt events and accepts attempt actions over a
// single WebSocket, replacing the per-action HTTP round trips during an exam.
type WSHandler struct {
	portalService *service.PortalService
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(portalService *service.PortalService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		portalService: portalService,
		log:           log.With().Str("component", "ws_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/exams/:id/stream
// Upgrades to WebSocket. Server pushes tick, palette, proctor_alert, and
// submitted events; client sends answer, navigate, finish, and ping actions.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	attempt, err := h.portalService.Attempt(claims.UserID)
	if err != nil || attempt.Exam.ID != examID {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active attempt for this exam"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("student_id", claims.UserID).
		Str("exam_id", examID.String()).
		Logger()

	wsLog.Info().Msg("Student connected")

	events := attempt.Subscribe()
	defer attempt.Unsubscribe(events)

	// Writer pump: attempt events → client. The read loop below owns the
	// connection lifetime; the pump exits with it.
	pumpCtx, cancelPump := context.WithCancel(context.Background())
	defer cancelPump()
	go h.pumpEvents(pumpCtx, conn, events)

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAnswer(conn, attempt, &msg)
		case ws.ActionNavigate:
			h.handleNavigate(conn, attempt, &msg)
		case ws.ActionFinish:
			h.handleFinish(conn, wsLog, attempt, &msg)
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

// pumpEvents forwards attempt events until the subscription or context ends.
func (h *WSHandler) pumpEvents(ctx context.Context, conn *websocket.Conn, events chan sess.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			var err error
			switch ev.Type {
			case sess.EventTick:
				err = ws.WriteTyped(conn, ws.TickResponse{
					Event:            ws.EventTick,
					RemainingSeconds: ev.RemainingSeconds,
					RemainingDisplay: ev.RemainingDisplay,
				})
			case sess.EventProctor:
				err = ws.WriteTyped(conn, ws.ProctorResponse{
					Event:   ws.EventProctor,
					Status:  string(ev.ProctorStatus),
					Alert:   ev.ProctorAlert,
					Message: ev.ProctorMessage,
				})
			case sess.EventSubmitted:
				err = ws.WriteTyped(conn, ws.SubmittedResponse{Event: ws.EventSubmitted})
			}
			if err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) handleAnswer(conn *websocket.Conn, attempt *sess.Attempt, msg *ws.RequestPayload) {
	if msg.QID == "" || msg.Answer == "" {
		ws.WriteError(conn, "q_id and ans are required")
		return
	}

	// Validate QID is a well-formed UUID to prevent Redis key injection.
	if _, err := uuid.Parse(msg.QID); err != nil {
		ws.WriteError(conn, "invalid q_id format")
		return
	}

	attempt.Select(msg.QID, msg.Answer)
	h.writePalette(conn, attempt)
}

func (h *WSHandler) handleNavigate(conn *websocket.Conn, attempt *sess.Attempt, msg *ws.RequestPayload) {
	if err := attempt.Navigate(msg.Position); err != nil {
		ws.WriteError(conn, "position out of range")
		return
	}
	h.writePalette(conn, attempt)
}

func (h *WSHandler) handleFinish(conn *websocket.Conn, wsLog zerolog.Logger, attempt *sess.Attempt, msg *ws.RequestPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := attempt.Finish(ctx, msg.Confirmed); err != nil {
		switch {
		case errors.Is(err, sess.ErrConfirmationRequired):
			ws.WriteError(conn, "confirmation required")
		case errors.Is(err, sess.ErrAlreadySubmitted):
			ws.WriteError(conn, "already submitted")
		default:
			wsLog.Error().Err(err).Msg("Submit failed")
			ws.WriteError(conn, "submission failed, try again")
		}
		return
	}
	// The submitted event reaches the client through the pump.
}

func (h *WSHandler) writePalette(conn *websocket.Conn, attempt *sess.Attempt) {
	states := attempt.Palette()
	palette := make([]string, len(states))
	for i, s := range states {
		palette[i] = string(s)
	}
	ws.WriteTyped(conn, ws.PaletteResponse{
		Event:    ws.EventPalette,
		Current:  attempt.CurrentPosition(),
		Palette:  palette,
		Answered: attempt.AnsweredCount(),
	})
}
