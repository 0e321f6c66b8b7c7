package model

import "github.com/google/uuid"

// Question represents a single exam question with four labeled options.
type Question struct {
	ID            uuid.UUID `json:"id"`
	ExamID        uuid.UUID `json:"exam_id"`
	Text          string    `json:"text"`
	OptionA       string    `json:"option_a"`
	OptionB       string    `json:"option_b"`
	OptionC       string    `json:"option_c"`
	OptionD       string    `json:"option_d"`
	CorrectOption string    `json:"correct_option,omitempty"`
}

// Options returns the labeled options as a map keyed "A".."D".
func (q *Question) OptionsMap() map[string]string {
	return map[string]string{
		"A": q.OptionA,
		"B": q.OptionB,
		"C": q.OptionC,
		"D": q.OptionD,
	}
}

// ForStudent strips the correct option for student delivery.
func (q *Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:      q.ID,
		Text:    q.Text,
		Options: q.OptionsMap(),
	}
}

// AddQuestionRequest is the payload for adding a question to an exam.
type AddQuestionRequest struct {
	Text          string `json:"text" binding:"required,min=1,max=2000"`
	OptionA       string `json:"option_a" binding:"required,max=500"`
	OptionB       string `json:"option_b" binding:"required,max=500"`
	OptionC       string `json:"option_c" binding:"required,max=500"`
	OptionD       string `json:"option_d" binding:"required,max=500"`
	CorrectOption string `json:"correct_option" binding:"required,oneof=A B C D"`
}

// UpdateQuestionRequest is the payload for updating an existing question.
// Empty fields keep their previous value.
type UpdateQuestionRequest struct {
	Text          string `json:"text" binding:"omitempty,min=1,max=2000"`
	OptionA       string `json:"option_a" binding:"omitempty,max=500"`
	OptionB       string `json:"option_b" binding:"omitempty,max=500"`
	OptionC       string `json:"option_c" binding:"omitempty,max=500"`
	OptionD       string `json:"option_d" binding:"omitempty,max=500"`
	CorrectOption string `json:"correct_option" binding:"omitempty,oneof=A B C D"`
}
