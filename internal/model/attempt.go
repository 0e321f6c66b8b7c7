package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates attempt states as persisted.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
)

// Attempt represents a student's pass at an exam.
type Attempt struct {
	ID             uuid.UUID     `json:"id"`
	ExamID         uuid.UUID     `json:"exam_id"`
	StudentID      int           `json:"student_id"`
	Score          *int          `json:"score,omitempty"`
	TotalQuestions int           `json:"total_questions"`
	Status         AttemptStatus `json:"status"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     *time.Time    `json:"finished_at,omitempty"`
}

// StartAttemptRequest is the payload for starting an exam attempt.
type StartAttemptRequest struct {
	EntryPassword string `json:"entry_password" binding:"omitempty,max=50"`
}

// SelectAnswerRequest records a single option selection.
type SelectAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required,uuid"`
	Option     string `json:"option" binding:"required,min=1,max=10"`
}

// NavigateRequest moves the attempt's current question.
type NavigateRequest struct {
	Position int `json:"position" binding:"min=0"`
}

// FinishAttemptRequest is the payload for a manual submission.
// Confirmed must be true; the timeout path bypasses this request entirely.
type FinishAttemptRequest struct {
	Confirmed bool `json:"confirmed" binding:"required"`
}
