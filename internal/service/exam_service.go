package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/examgate/backend/internal/config"
	"github.com/examgate/backend/internal/model"
	"github.com/examgate/backend/internal/repository"
	"github.com/examgate/backend/internal/response"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain Errors
var (
	ErrNotExamAuthor = errors.New("not the creator of this exam")
	ErrNoQuestions   = errors.New("exam has no questions")
)

// ExamService handles exam business logic and Redis caching. Student-facing
// papers and answer keys live in Redis so the attempt start path and grading
// never touch PostgreSQL.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves an exam by its UUID.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// ListByCreator retrieves exams, filtered by creator unless admin (creatorID=0).
func (s *ExamService) ListByCreator(ctx context.Context, creatorID, page, perPage int) ([]model.Exam, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	exams, total, err := s.examRepo.ListByCreatorPaginated(ctx, creatorID, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if exams == nil {
		exams = []model.Exam{}
	}

	totalPages := (total + perPage - 1) / perPage

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return exams, pagination, nil
}

// Create inserts a new exam.
func (s *ExamService) Create(ctx context.Context, exam *model.Exam) error {
	return s.examRepo.Create(ctx, exam)
}

// Update modifies an exam. creatorID=0 skips the ownership check (admin).
func (s *ExamService) Update(ctx context.Context, creatorID int, exam *model.Exam) error {
	existing, err := s.examRepo.GetByID(ctx, exam.ID)
	if err != nil {
		return err
	}
	if creatorID != 0 && existing.CreatorID != creatorID {
		return ErrNotExamAuthor
	}
	if err := s.examRepo.Update(ctx, exam); err != nil {
		return err
	}

	// Schedule or duration changed: the cached paper is stale.
	if err := s.WarmExamCache(ctx, exam); err != nil && !errors.Is(err, ErrNoQuestions) {
		s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Cache refresh failed after update")
	}
	return nil
}

// Delete removes an exam and drops its cached paper and answer key.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID, creatorID int) error {
	existing, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if creatorID != 0 && existing.CreatorID != creatorID {
		return ErrNotExamAuthor
	}
	if err := s.examRepo.Delete(ctx, id); err != nil {
		return err
	}

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.ExamPaperKey(id.String()))
	pipe.Del(ctx, config.CacheKey.ExamAnswerKeyKey(id.String()))
	_, _ = pipe.Exec(ctx)
	return nil
}

// WarmExamCache loads an exam's paper and answer key from PostgreSQL into Redis.
func (s *ExamService) WarmExamCache(ctx context.Context, exam *model.Exam) error {
	questions, err := s.questionRepo.ListByExam(ctx, exam.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	studentQuestions := make([]model.QuestionForStudent, len(questions))
	for i, q := range questions {
		studentQuestions[i] = q.ForStudent()
	}

	paper := model.ExamPaper{
		ExamID:          exam.ID,
		Title:           exam.Title,
		DurationMinutes: exam.DurationMinutes,
		Questions:       studentQuestions,
	}

	paperJSON, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}

	answerKey := make(map[string]interface{}, len(questions))
	for _, q := range questions {
		answerKey[q.ID.String()] = q.CorrectOption
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ExamPaperKey(exam.ID.String()), paperJSON, 0)
	pipe.Del(ctx, config.CacheKey.ExamAnswerKeyKey(exam.ID.String()))
	pipe.HSet(ctx, config.CacheKey.ExamAnswerKeyKey(exam.ID.String()), answerKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("exam_id", exam.ID.String()).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads all visible exams into Redis on application startup.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.examRepo.ListVisible(ctx)
	if err != nil {
		return fmt.Errorf("list visible exams: %w", err)
	}

	if len(exams) == 0 {
		s.log.Info().Msg("No visible exams to prewarm")
		return nil
	}

	warmed := 0
	for i := range exams {
		if err := s.WarmExamCache(ctx, &exams[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("exam_id", exams[i].ID.String()).
				Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Prewarming complete")
	return nil
}

// GetPaper retrieves the cached student paper, falling back to PostgreSQL
// and self-healing the cache on a miss.
func (s *ExamService) GetPaper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	key := config.CacheKey.ExamPaperKey(examID.String())
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var paper model.ExamPaper
		if err := json.Unmarshal(data, &paper); err != nil {
			return nil, fmt.Errorf("unmarshal paper: %w", err)
		}
		return &paper, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get paper: %w", err)
	}

	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if err := s.WarmExamCache(ctx, exam); err != nil {
		return nil, err
	}

	data, err = s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("get paper after warm: %w", err)
	}
	var paper model.ExamPaper
	if err := json.Unmarshal(data, &paper); err != nil {
		return nil, fmt.Errorf("unmarshal paper: %w", err)
	}
	return &paper, nil
}

// GetAnswerKey retrieves the answer key from Redis for instant grading.
func (s *ExamService) GetAnswerKey(ctx context.Context, examID uuid.UUID) (map[string]string, error) {
	key := config.CacheKey.ExamAnswerKeyKey(examID.String())
	result, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("get answer key: %w", err)
	}
	if len(result) == 0 {
		return nil, errors.New("answer key not found in cache")
	}
	return result, nil
}
