package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/examgate/backend/internal/model"
	"github.com/examgate/backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// QuestionService handles question authoring for exam creators.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	examRepo     *repository.ExamRepository
	examService  *ExamService
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(
	questionRepo *repository.QuestionRepository,
	examRepo *repository.ExamRepository,
	examService *ExamService,
	log zerolog.Logger,
) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		examRepo:     examRepo,
		examService:  examService,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// ListByExam retrieves all questions for an exam, answer keys included.
// Only the creator (or an admin, creatorID=0) may see them.
func (s *QuestionService) ListByExam(ctx context.Context, examID uuid.UUID, creatorID int) ([]model.Question, error) {
	if err := s.checkOwnership(ctx, examID, creatorID); err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

// Add inserts a question and refreshes the exam's cached paper.
func (s *QuestionService) Add(ctx context.Context, creatorID int, q *model.Question) error {
	if err := s.checkOwnership(ctx, q.ExamID, creatorID); err != nil {
		return err
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return err
	}
	s.refreshCache(ctx, q.ExamID)
	return nil
}

// Update modifies a question and refreshes the exam's cached paper.
func (s *QuestionService) Update(ctx context.Context, creatorID int, q *model.Question) error {
	if err := s.checkOwnership(ctx, q.ExamID, creatorID); err != nil {
		return err
	}
	if err := s.questionRepo.Update(ctx, q); err != nil {
		return err
	}
	s.refreshCache(ctx, q.ExamID)
	return nil
}

// Delete removes a question and refreshes the exam's cached paper.
func (s *QuestionService) Delete(ctx context.Context, creatorID int, examID, questionID uuid.UUID) error {
	if err := s.checkOwnership(ctx, examID, creatorID); err != nil {
		return err
	}
	if err := s.questionRepo.Delete(ctx, questionID); err != nil {
		return err
	}
	s.refreshCache(ctx, examID)
	return nil
}

func (s *QuestionService) checkOwnership(ctx context.Context, examID uuid.UUID, creatorID int) error {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if creatorID != 0 && exam.CreatorID != creatorID {
		return ErrNotExamAuthor
	}
	return nil
}

func (s *QuestionService) refreshCache(ctx context.Context, examID uuid.UUID) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Cache refresh skipped")
		return
	}
	if err := s.examService.WarmExamCache(ctx, exam); err != nil && !errors.Is(err, ErrNoQuestions) {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Cache refresh failed")
	}
}
