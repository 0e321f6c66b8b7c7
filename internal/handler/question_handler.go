package handler

import (
	"errors"
	"net/http"

	"github.com/examgate/backend/internal/model"
	"github.com/examgate/backend/internal/response"
	"github.com/examgate/backend/internal/service"
	"github.com/examgate/backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// QuestionHandler handles question authoring endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// List godoc
// GET /api/v1/teacher/exams/:id/questions
// Returns questions with their answer keys; creator or admin only.
func (h *QuestionHandler) List(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questions, err := h.questionService.ListByExam(c.Request.Context(), examID, creatorScope(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Add godoc
// POST /api/v1/teacher/exams/:id/questions
func (h *QuestionHandler) Add(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q := &model.Question{
		ExamID:        examID,
		Text:          req.Text,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectOption: req.CorrectOption,
	}

	if err := h.questionService.Add(c.Request.Context(), creatorScope(c), q); err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": q})
}

// Update godoc
// PUT /api/v1/teacher/exams/:id/questions/:question_id
func (h *QuestionHandler) Update(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.questionService.ListByExam(c.Request.Context(), examID, creatorScope(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	var q *model.Question
	for i := range questions {
		if questions[i].ID == questionID {
			q = &questions[i]
			break
		}
	}
	if q == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if req.Text != "" {
		q.Text = req.Text
	}
	if req.OptionA != "" {
		q.OptionA = req.OptionA
	}
	if req.OptionB != "" {
		q.OptionB = req.OptionB
	}
	if req.OptionC != "" {
		q.OptionC = req.OptionC
	}
	if req.OptionD != "" {
		q.OptionD = req.OptionD
	}
	if req.CorrectOption != "" {
		q.CorrectOption = req.CorrectOption
	}

	if err := h.questionService.Update(c.Request.Context(), creatorScope(c), q); err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// Delete godoc
// DELETE /api/v1/teacher/exams/:id/questions/:question_id
func (h *QuestionHandler) Delete(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), creatorScope(c), examID, questionID); err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

func (h *QuestionHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotExamAuthor):
		response.Fail(c, http.StatusForbidden, response.ErrNotExamAuthor)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
