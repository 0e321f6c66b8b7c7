package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam represents an exam entity. EndAt may be absent on historical records;
// the session engine derives an effective close instant from StartAt + duration.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	CreatorID       int        `json:"creator_id"`
	DurationMinutes int        `json:"duration_minutes"`
	StartAt         *time.Time `json:"start_at,omitempty"`
	EndAt           *time.Time `json:"end_at,omitempty"`
	EntryPassword   string     `json:"entry_password,omitempty"`
	IsVisible       bool       `json:"is_visible"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string     `json:"title" binding:"required,min=3,max=255"`
	DurationMinutes int        `json:"duration_minutes" binding:"required,min=1,max=480"`
	StartAt         *time.Time `json:"start_at" binding:"omitempty"`
	EndAt           *time.Time `json:"end_at" binding:"omitempty,gtfield=StartAt"`
	EntryPassword   string     `json:"entry_password" binding:"omitempty,min=4,max=50"`
}

// UpdateExamRequest is the payload for updating an existing exam.
type UpdateExamRequest struct {
	Title           string     `json:"title" binding:"omitempty,min=3,max=255"`
	DurationMinutes int        `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	StartAt         *time.Time `json:"start_at" binding:"omitempty"`
	EndAt           *time.Time `json:"end_at" binding:"omitempty,gtfield=StartAt"`
	EntryPassword   string     `json:"entry_password" binding:"omitempty,min=4,max=50"`
	IsVisible       *bool      `json:"is_visible" binding:"omitempty"`
}

// ExamPaper is the student-facing exam payload cached in Redis.
// Correct options are stripped; question order defines palette order.
type ExamPaper struct {
	ExamID          uuid.UUID            `json:"exam_id"`
	Title           string               `json:"title"`
	DurationMinutes int                  `json:"duration_minutes"`
	Questions       []QuestionForStudent `json:"questions"`
}

// QuestionForStudent is a question without the correct answer.
type QuestionForStudent struct {
	ID      uuid.UUID         `json:"id"`
	Text    string            `json:"text"`
	Options map[string]string `json:"options"` // keyed "A".."D"
}
