package repository

import (
	"context"
	"time"

	"github.com/examgate/backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttemptResult combines student identity with attempt details for
// teacher-facing result listings.
type AttemptResult struct {
	StudentID      int                 `json:"student_id"`
	Username       string              `json:"username"`
	EnrollmentID   *string             `json:"enrollment_id"`
	Score          *int                `json:"score"`
	TotalQuestions int                 `json:"total_questions"`
	Status         model.AttemptStatus `json:"status"`
	StartedAt      *time.Time          `json:"started_at"`
	FinishedAt     *time.Time          `json:"finished_at"`
}

// AttemptRepository handles attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// GetByExamAndStudent retrieves an attempt for a specific exam-student combination.
func (r *AttemptRepository) GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, score, total_questions, status, started_at, finished_at
		 FROM attempts
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID,
	).Scan(&a.ID, &a.ExamID, &a.StudentID, &a.Score, &a.TotalQuestions, &a.Status, &a.StartedAt, &a.FinishedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new in-progress attempt (student enters the exam).
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attempts (exam_id, student_id, total_questions, status)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (exam_id, student_id) DO UPDATE SET status = attempts.status
		 RETURNING id, started_at`,
		a.ExamID, a.StudentID, a.TotalQuestions, model.AttemptStatusInProgress,
	).Scan(&a.ID, &a.StartedAt)
}

// Complete marks an attempt as completed with its final score.
func (r *AttemptRepository) Complete(ctx context.Context, examID uuid.UUID, studentID, score int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = $1, score = $2, finished_at = NOW()
		 WHERE exam_id = $3 AND student_id = $4`,
		model.AttemptStatusCompleted, score, examID, studentID)
	return err
}

// ListByStudent retrieves all attempts for a given student.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, student_id, score, total_questions, status, started_at, finished_at
		 FROM attempts
		 WHERE student_id = $1
		 ORDER BY started_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.Score, &a.TotalQuestions, &a.Status, &a.StartedAt, &a.FinishedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// CompletedExamIDs returns the set of exam IDs the student has already finished.
// The lobby uses it to pin completed exams regardless of their window.
func (r *AttemptRepository) CompletedExamIDs(ctx context.Context, studentID int) (map[uuid.UUID]bool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT exam_id FROM attempts WHERE student_id = $1 AND status = $2`,
		studentID, model.AttemptStatusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	completed := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		completed[id] = true
	}
	return completed, rows.Err()
}

// ListByExam retrieves all student results for a specific exam with pagination.
func (r *AttemptRepository) ListByExam(ctx context.Context, examID uuid.UUID, page, perPage int) ([]AttemptResult, int64, error) {
	offset := (page - 1) * perPage

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE exam_id = $1`, examID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.username, u.enrollment_id,
		        a.score, a.total_questions, a.status, a.started_at, a.finished_at
		 FROM attempts a
		 JOIN users u ON a.student_id = u.id
		 WHERE a.exam_id = $1
		 ORDER BY u.username
		 LIMIT $2 OFFSET $3`, examID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []AttemptResult
	for rows.Next() {
		var res AttemptResult
		if err := rows.Scan(
			&res.StudentID, &res.Username, &res.EnrollmentID,
			&res.Score, &res.TotalQuestions, &res.Status, &res.StartedAt, &res.FinishedAt,
		); err != nil {
			return nil, 0, err
		}
		results = append(results, res)
	}

	return results, total, rows.Err()
}

// Delete removes an attempt and its autosaved answers so the student can
// retake the exam. Returns pgx.ErrNoRows when no attempt exists.
func (r *AttemptRepository) Delete(ctx context.Context, examID uuid.UUID, studentID int) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM student_answers WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID); err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM attempts WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpsertAnswer creates or overwrites a single autosaved answer row.
func (r *AttemptRepository) UpsertAnswer(ctx context.Context, examID uuid.UUID, studentID int, questionID uuid.UUID, answer string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO student_answers (exam_id, student_id, question_id, answer)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (exam_id, student_id, question_id) DO UPDATE
		 SET answer = EXCLUDED.answer, updated_at = NOW()`,
		examID, studentID, questionID, answer)
	return err
}
