package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/examgate/backend/internal/middleware"
	"github.com/examgate/backend/internal/model"
	"github.com/examgate/backend/internal/proctor"
	"github.com/examgate/backend/internal/response"
	"github.com/examgate/backend/internal/service"
	sess "github.com/examgate/backend/internal/session"
	"github.com/examgate/backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const lobbyRefreshInterval = time.Second

// PortalHandler handles the student-facing exam flow.
type PortalHandler struct {
	portalService *service.PortalService
	proctorClient *proctor.Client
	log           zerolog.Logger
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(portalService *service.PortalService, proctorClient *proctor.Client, log zerolog.Logger) *PortalHandler {
	return &PortalHandler{
		portalService: portalService,
		proctorClient: proctorClient,
		log:           log.With().Str("component", "portal_handler").Logger(),
	}
}

// GetLobby godoc
// GET /api/v1/student/lobby
// Returns every visible exam with its availability verdict.
func (h *PortalHandler) GetLobby(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	lobby, err := h.portalService.Lobby(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": lobby})
}

// LobbyStream godoc
// GET /api/v1/student/lobby/stream
// SSE stream that re-classifies the lobby every second, so a countdown to an
// exam's opening flips to "Start Exam" without a page reload. Frames are only
// written when a verdict actually changed.
func (h *PortalHandler) LobbyStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	var last []byte
	send := func() bool {
		lobby, err := h.portalService.Lobby(reqCtx, claims.UserID)
		if err != nil {
			return reqCtx.Err() == nil
		}
		payload, err := json.Marshal(gin.H{"exams": lobby})
		if err != nil {
			return false
		}
		if bytes.Equal(payload, last) {
			return true
		}
		last = payload
		c.Writer.Write([]byte("data: "))
		c.Writer.Write(payload)
		c.Writer.Write([]byte("\n\n"))
		c.Writer.Flush()
		return true
	}

	if !send() {
		return
	}

	ticker := time.NewTicker(lobbyRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-reqCtx.Done():
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}

// StartAttempt godoc
// POST /api/v1/student/exams/:id/start
// Admits the student and launches (or resumes) a live attempt.
func (h *PortalHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.StartAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.portalService.StartAttempt(c.Request.Context(), examID, claims.UserID, req.EntryPassword)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrExamNotAvailable):
			response.Fail(c, http.StatusBadRequest, response.ErrExamNotAvailable)
		case errors.Is(err, service.ErrInvalidEntryPassword):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidEntryPassword)
		case errors.Is(err, service.ErrAlreadyCompleted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
		case errors.Is(err, service.ErrNoQuestions):
			response.Fail(c, http.StatusBadRequest, response.ErrNoQuestions)
		case errors.Is(err, sess.ErrAttemptActive):
			response.Fail(c, http.StatusConflict, response.ErrAttemptActive)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"paper":   model.ExamPaper{ExamID: attempt.Exam.ID, Title: attempt.Exam.Title, DurationMinutes: attempt.Exam.DurationMinutes, Questions: attempt.Questions},
		"state":   attempt.Snapshot(),
		"proctor": gin.H{"video_url": h.proctorClient.VideoFeedURL()},
	})
}

// GetAttempt godoc
// GET /api/v1/student/attempt
// Returns the full snapshot of the live attempt (page reload path).
func (h *PortalHandler) GetAttempt(c *gin.Context) {
	attempt, ok := h.liveAttempt(c)
	if !ok {
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": attempt.Snapshot()})
}

// SelectAnswer godoc
// POST /api/v1/student/attempt/answer
// Records an option selection. Later selections overwrite earlier ones.
func (h *PortalHandler) SelectAnswer(c *gin.Context) {
	attempt, ok := h.liveAttempt(c)
	if !ok {
		return
	}

	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt.Select(req.QuestionID, req.Option)

	response.Success(c, http.StatusOK, gin.H{
		"palette":  attempt.Palette(),
		"answered": attempt.AnsweredCount(),
	})
}

// Navigate godoc
// POST /api/v1/student/attempt/navigate
// Moves the current question; forward, backward, or a palette jump.
func (h *PortalHandler) Navigate(c *gin.Context) {
	attempt, ok := h.liveAttempt(c)
	if !ok {
		return
	}

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := attempt.Navigate(req.Position); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrPositionOutOfRange)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"current": attempt.CurrentPosition(),
		"palette": attempt.Palette(),
	})
}

// Finish godoc
// POST /api/v1/student/attempt/finish
// Manual submission. Requires confirmed=true; races the countdown safely.
func (h *PortalHandler) Finish(c *gin.Context) {
	attempt, ok := h.liveAttempt(c)
	if !ok {
		return
	}

	var req model.FinishAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrConfirmRequired, fields)
		return
	}

	if err := attempt.Finish(c.Request.Context(), req.Confirmed); err != nil {
		switch {
		case errors.Is(err, sess.ErrConfirmationRequired):
			response.Fail(c, http.StatusBadRequest, response.ErrConfirmRequired)
		case errors.Is(err, sess.ErrAlreadySubmitted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
		default:
			response.Fail(c, http.StatusBadGateway, response.ErrSubmissionFailed)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "submitted"})
}

// Abandon godoc
// POST /api/v1/student/attempt/abandon
// Finalizes the live attempt on navigation away; answers to date are graded.
func (h *PortalHandler) Abandon(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.portalService.Abandon(c.Request.Context(), claims.UserID); err != nil {
		if errors.Is(err, sess.ErrNoActiveAttempt) {
			response.Fail(c, http.StatusNotFound, response.ErrNoActiveAttempt)
			return
		}
		response.Fail(c, http.StatusBadGateway, response.ErrSubmissionFailed)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "submitted"})
}

// MyAttempts godoc
// GET /api/v1/student/attempts
// Lists the student's persisted attempts with scores.
func (h *PortalHandler) MyAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attempts, err := h.portalService.MyAttempts(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// ProctorStatus godoc
// GET /api/v1/student/proctor/status
// Returns the proctor verdict. A live attempt answers from its monitor (last
// known state on poll failure); otherwise the proctor service is asked directly.
func (h *PortalHandler) ProctorStatus(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if attempt, err := h.portalService.Attempt(claims.UserID); err == nil {
		status, alert := attempt.Proctor()
		response.Success(c, http.StatusOK, gin.H{
			"status":  status,
			"alert":   alert,
			"message": status.Message(),
		})
		return
	}

	status, err := h.proctorClient.Status(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusBadGateway, response.ErrProctorUnavailable)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"status":  status,
		"alert":   status.Alert(),
		"message": status.Message(),
	})
}

// ProctorVideoURL godoc
// GET /api/v1/student/proctor/video-url
// Hands the client the opaque video feed URL for display.
func (h *PortalHandler) ProctorVideoURL(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"video_url": h.proctorClient.VideoFeedURL()})
}

// liveAttempt resolves the caller's live attempt or writes the error response.
func (h *PortalHandler) liveAttempt(c *gin.Context) (*sess.Attempt, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}

	attempt, err := h.portalService.Attempt(claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveAttempt)
		return nil, false
	}
	return attempt, true
}
