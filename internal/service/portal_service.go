package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/examgate/backend/internal/config"
	"github.com/examgate/backend/internal/model"
	"github.com/examgate/backend/internal/repository"
	sess "github.com/examgate/backend/internal/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Portal errors.
var (
	ErrExamNotAvailable     = errors.New("exam is not available")
	ErrInvalidEntryPassword = errors.New("invalid entry password")
	ErrAlreadyCompleted     = errors.New("exam already completed")
)

// LobbyExam is an exam as presented in the student lobby: schedule fields
// plus the availability verdict that drives the action button.
type LobbyExam struct {
	ExamID           uuid.UUID               `json:"exam_id"`
	Title            string                  `json:"title"`
	DurationMinutes  int                     `json:"duration_minutes"`
	StartAt          *time.Time              `json:"start_at,omitempty"`
	EndAt            *time.Time              `json:"end_at,omitempty"`
	RequiresPassword bool                    `json:"requires_password"`
	Status           sess.AvailabilityStatus `json:"status"`
	Label            string                  `json:"label"`
	Enabled          bool                    `json:"enabled"`
	Score            *int                    `json:"score,omitempty"`
}

// PortalService drives the student-facing exam flow: the lobby, attempt
// lifecycle, and grading. It owns the session manager and acts as its
// Submitter, so every submission is graded against the cached answer key
// and queued for durable persistence.
type PortalService struct {
	examRepo    *repository.ExamRepository
	attemptRepo *repository.AttemptRepository
	examService *ExamService
	manager     *sess.Manager
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewPortalService creates a PortalService and its session manager.
func NewPortalService(
	cfg *config.Config,
	examRepo *repository.ExamRepository,
	attemptRepo *repository.AttemptRepository,
	examService *ExamService,
	feed sess.StatusFeed,
	rdb *redis.Client,
	log zerolog.Logger,
) *PortalService {
	s := &PortalService{
		examRepo:    examRepo,
		attemptRepo: attemptRepo,
		examService: examService,
		rdb:         rdb,
		log:         log.With().Str("component", "portal_service").Logger(),
	}
	s.manager = sess.NewManager(feed, s, cfg.ProctorPollEvery, log)
	return s
}

// Manager exposes the session manager for handlers and graceful shutdown.
func (s *PortalService) Manager() *sess.Manager {
	return s.manager
}

// Lobby classifies every visible exam for the student. Completed attempts
// win over any schedule; otherwise the time window decides.
func (s *PortalService) Lobby(ctx context.Context, studentID int) ([]LobbyExam, error) {
	exams, err := s.examRepo.ListVisible(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	attempts, err := s.attemptRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	scores := make(map[uuid.UUID]*int, len(attempts))
	completed := make(map[uuid.UUID]bool, len(attempts))
	for i := range attempts {
		if attempts[i].Status == model.AttemptStatusCompleted {
			completed[attempts[i].ExamID] = true
			scores[attempts[i].ExamID] = attempts[i].Score
		}
	}

	now := time.Now()
	lobby := make([]LobbyExam, 0, len(exams))
	for _, e := range exams {
		w := sess.ResolveWindow(e.StartAt, e.EndAt, e.DurationMinutes)
		v := sess.Classify(w, now, completed[e.ID])

		lobby = append(lobby, LobbyExam{
			ExamID:           e.ID,
			Title:            e.Title,
			DurationMinutes:  e.DurationMinutes,
			StartAt:          e.StartAt,
			EndAt:            e.EndAt,
			RequiresPassword: e.EntryPassword != "",
			Status:           v.Status,
			Label:            v.Label,
			Enabled:          v.Enabled,
			Score:            scores[e.ID],
		})
	}
	return lobby, nil
}

// StartAttempt admits the student into the exam and launches a live session.
// Re-entering an exam with an attempt already running resumes it, autosaved
// answers included.
func (s *PortalService) StartAttempt(ctx context.Context, examID uuid.UUID, studentID int, entryPassword string) (*sess.Attempt, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if !exam.IsVisible {
		return nil, ErrExamNotAvailable
	}

	completed, err := s.attemptRepo.CompletedExamIDs(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("check attempts: %w", err)
	}
	if completed[examID] {
		return nil, ErrAlreadyCompleted
	}

	w := sess.ResolveWindow(exam.StartAt, exam.EndAt, exam.DurationMinutes)
	if v := sess.Classify(w, time.Now(), false); !v.Enabled {
		return nil, ErrExamNotAvailable
	}

	if exam.EntryPassword != "" && exam.EntryPassword != entryPassword {
		return nil, ErrInvalidEntryPassword
	}

	paper, err := s.examService.GetPaper(ctx, examID)
	if err != nil {
		return nil, err
	}
	if len(paper.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	attempt := &model.Attempt{
		ExamID:         examID,
		StudentID:      studentID,
		TotalQuestions: len(paper.Questions),
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	live, err := s.manager.Start(sess.StartInput{
		Exam:      *exam,
		Questions: paper.Questions,
		StudentID: studentID,
		OnSelect: func(questionID, option string) {
			s.autosave(examID, studentID, questionID, option)
		},
	})
	if err != nil {
		return nil, err
	}

	s.restoreAnswers(ctx, live, examID, studentID)
	return live, nil
}

// Attempt returns the student's live attempt.
func (s *PortalService) Attempt(studentID int) (*sess.Attempt, error) {
	return s.manager.Get(studentID)
}

// Abandon finalizes the student's live attempt, submitting whatever the
// ledger holds.
func (s *PortalService) Abandon(ctx context.Context, studentID int) error {
	return s.manager.Abandon(ctx, studentID)
}

// MyAttempts lists the student's persisted attempts, newest first.
func (s *PortalService) MyAttempts(ctx context.Context, studentID int) ([]model.Attempt, error) {
	attempts, err := s.attemptRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	return attempts, nil
}

// Results lists all student results for an exam. creatorID=0 skips the
// ownership check (admin).
func (s *PortalService) Results(ctx context.Context, examID uuid.UUID, creatorID, page, perPage int) ([]repository.AttemptResult, int64, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, 0, fmt.Errorf("get exam: %w", err)
	}
	if creatorID != 0 && exam.CreatorID != creatorID {
		return nil, 0, ErrNotExamAuthor
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 25
	}
	if perPage > 200 {
		perPage = 200
	}
	return s.attemptRepo.ListByExam(ctx, examID, page, perPage)
}

// DeleteResult removes a student's attempt from an exam, clearing the
// autosaved answers with it so a retake starts clean. creatorID=0 skips the
// ownership check (admin).
func (s *PortalService) DeleteResult(ctx context.Context, examID uuid.UUID, creatorID, studentID int) error {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if creatorID != 0 && exam.CreatorID != creatorID {
		return ErrNotExamAuthor
	}

	if err := s.attemptRepo.Delete(ctx, examID, studentID); err != nil {
		return err
	}

	key := config.CacheKey.AttemptAnswersKey(examID.String(), studentID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Warn().Err(err).Int("student_id", studentID).Msg("Autosave cleanup failed")
	}
	return nil
}

// resultPayload is what the scoring worker pops from the results queue.
type resultPayload struct {
	StudentID      int    `json:"student_id"`
	ExamID         string `json:"exam_id"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"total_questions"`
}

// SubmitAttempt grades the snapshot against the cached answer key and queues
// the result for persistence. Called exactly once per attempt by the session
// engine, whichever trigger wins.
func (s *PortalService) SubmitAttempt(ctx context.Context, examID uuid.UUID, studentID int, answers map[string]string) error {
	answerKey, err := s.examService.GetAnswerKey(ctx, examID)
	if err != nil {
		return fmt.Errorf("answer key: %w", err)
	}

	score := 0
	for qid, correct := range answerKey {
		if answers[qid] == correct {
			score++
		}
	}

	payload, err := json.Marshal(resultPayload{
		StudentID:      studentID,
		ExamID:         examID.String(),
		Score:          score,
		TotalQuestions: len(answerKey),
	})
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, payload).Err(); err != nil {
		return fmt.Errorf("queue result: %w", err)
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("student_id", studentID).
		Int("score", score).
		Int("answered", len(answers)).
		Msg("Attempt graded")
	return nil
}

// autosave mirrors a selection into the Redis hash and the persistence queue.
// Best-effort: a Redis hiccup must never block the answering flow.
func (s *PortalService) autosave(examID uuid.UUID, studentID int, questionID, option string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := config.CacheKey.AttemptAnswersKey(examID.String(), studentID)
	if err := s.rdb.HSet(ctx, key, questionID, option).Err(); err != nil {
		s.log.Warn().Err(err).Int("student_id", studentID).Msg("Autosave HSet failed")
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"student_id": studentID,
		"exam_id":    examID.String(),
		"q_id":       questionID,
		"answer":     option,
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Int("student_id", studentID).Msg("Autosave queue failed")
	}
}

// restoreAnswers reloads autosaved answers into a freshly started attempt,
// covering reconnects after a node restart.
func (s *PortalService) restoreAnswers(ctx context.Context, a *sess.Attempt, examID uuid.UUID, studentID int) {
	if a.Submitted() {
		return
	}

	key := config.CacheKey.AttemptAnswersKey(examID.String(), studentID)
	saved, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Int("student_id", studentID).Msg("Answer restore failed")
		}
		return
	}

	for qid, option := range saved {
		a.Select(qid, option)
	}
}
