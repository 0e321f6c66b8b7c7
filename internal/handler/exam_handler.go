package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/examgate/backend/internal/middleware"
	"github.com/examgate/backend/internal/model"
	"github.com/examgate/backend/internal/response"
	"github.com/examgate/backend/internal/service"
	"github.com/examgate/backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ExamHandler handles teacher-facing exam management endpoints.
type ExamHandler struct {
	examService   *service.ExamService
	portalService *service.PortalService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, portalService *service.PortalService) *ExamHandler {
	return &ExamHandler{examService: examService, portalService: portalService}
}

// creatorScope returns the creator filter for the caller: teachers see only
// their own exams, admins see everything.
func creatorScope(c *gin.Context) int {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return -1
	}
	if claims.Role == model.RoleAdmin {
		return 0
	}
	return claims.UserID
}

// List godoc
// GET /api/v1/teacher/exams?page=1&per_page=10
func (h *ExamHandler) List(c *gin.Context) {
	creatorID := creatorScope(c)
	if creatorID < 0 {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	exams, pagination, err := h.examService.ListByCreator(c.Request.Context(), creatorID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, pagination)
}

// Get godoc
// GET /api/v1/teacher/exams/:id
func (h *ExamHandler) Get(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if creatorID := creatorScope(c); creatorID != 0 && exam.CreatorID != creatorID {
		response.Fail(c, http.StatusForbidden, response.ErrNotExamAuthor)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// Create godoc
// POST /api/v1/teacher/exams
func (h *ExamHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam := &model.Exam{
		Title:           req.Title,
		CreatorID:       claims.UserID,
		DurationMinutes: req.DurationMinutes,
		StartAt:         req.StartAt,
		EndAt:           req.EndAt,
		EntryPassword:   req.EntryPassword,
	}

	if err := h.examService.Create(c.Request.Context(), exam); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// Update godoc
// PUT /api/v1/teacher/exams/:id
func (h *ExamHandler) Update(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if req.Title != "" {
		exam.Title = req.Title
	}
	if req.DurationMinutes > 0 {
		exam.DurationMinutes = req.DurationMinutes
	}
	if req.StartAt != nil {
		exam.StartAt = req.StartAt
	}
	if req.EndAt != nil {
		exam.EndAt = req.EndAt
	}
	if req.EntryPassword != "" {
		exam.EntryPassword = req.EntryPassword
	}
	if req.IsVisible != nil {
		exam.IsVisible = *req.IsVisible
	}

	if err := h.examService.Update(c.Request.Context(), creatorScope(c), exam); err != nil {
		if errors.Is(err, service.ErrNotExamAuthor) {
			response.Fail(c, http.StatusForbidden, response.ErrNotExamAuthor)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// Delete godoc
// DELETE /api/v1/teacher/exams/:id
func (h *ExamHandler) Delete(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.examService.Delete(c.Request.Context(), examID, creatorScope(c)); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNotExamAuthor):
			response.Fail(c, http.StatusForbidden, response.ErrNotExamAuthor)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Results godoc
// GET /api/v1/teacher/exams/:id/results?page=1&per_page=25
func (h *ExamHandler) Results(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "25"))

	results, total, err := h.portalService.Results(c.Request.Context(), examID, creatorScope(c), page, perPage)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNotExamAuthor):
			response.Fail(c, http.StatusForbidden, response.ErrNotExamAuthor)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: int((total + int64(perPage) - 1) / int64(perPage)),
	})
}

// DeleteResult godoc
// DELETE /api/v1/teacher/exams/:id/results/:student_id
// Removes a student's attempt so they can retake the exam.
func (h *ExamHandler) DeleteResult(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	studentID, err := strconv.Atoi(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.portalService.DeleteResult(c.Request.Context(), examID, creatorScope(c), studentID); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNotExamAuthor):
			response.Fail(c, http.StatusForbidden, response.ErrNotExamAuthor)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
