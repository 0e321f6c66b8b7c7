package repository

import (
	"context"
	"strconv"

	"github.com/examgate/backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, creator_id, duration_minutes, start_at, end_at,
		        entry_password, is_visible, created_at, updated_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.CreatorID, &e.DurationMinutes, &e.StartAt, &e.EndAt,
		&e.EntryPassword, &e.IsVisible, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListVisible returns all exams students may see in the lobby.
func (r *ExamRepository) ListVisible(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, creator_id, duration_minutes, start_at, end_at,
		        entry_password, is_visible, created_at, updated_at
		 FROM exams WHERE is_visible = TRUE
		 ORDER BY start_at NULLS LAST, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExams(rows)
}

// ListByCreatorPaginated retrieves exams filtered by creator with pagination.
// Pass creatorID=0 to list all exams (admin).
func (r *ExamRepository) ListByCreatorPaginated(ctx context.Context, creatorID, limit, offset int) ([]model.Exam, int, error) {
	countQuery := `SELECT COUNT(*) FROM exams`
	var countArgs []interface{}
	if creatorID > 0 {
		countQuery += ` WHERE creator_id = $1`
		countArgs = append(countArgs, creatorID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, title, creator_id, duration_minutes, start_at, end_at,
	                  entry_password, is_visible, created_at, updated_at
	           FROM exams`
	var args []interface{}
	argIdx := 1

	if creatorID > 0 {
		query += ` WHERE creator_id = $1`
		args = append(args, creatorID)
		argIdx++
	}

	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	exams, err := scanExams(rows)
	return exams, total, err
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, creator_id, duration_minutes, start_at, end_at, entry_password, is_visible)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.CreatorID, e.DurationMinutes, e.StartAt, e.EndAt,
		e.EntryPassword, e.IsVisible,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// Update modifies an exam's schedule and settings.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET title = $1, duration_minutes = $2, start_at = $3, end_at = $4,
		        entry_password = $5, is_visible = $6, updated_at = NOW()
		 WHERE id = $7`,
		e.Title, e.DurationMinutes, e.StartAt, e.EndAt, e.EntryPassword, e.IsVisible, e.ID)
	return err
}

// Delete removes an exam and, via cascade, its questions and attempts.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}

func scanExams(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]model.Exam, error) {
	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.CreatorID, &e.DurationMinutes, &e.StartAt, &e.EndAt,
			&e.EntryPassword, &e.IsVisible, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}
