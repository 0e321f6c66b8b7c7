package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/examgate/backend/internal/config"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ScoringWorker consumes graded results and marks attempts COMPLETED in
// PostgreSQL, then clears the autosave buffers for those attempts.
type ScoringWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewScoringWorker creates a new ScoringWorker.
func NewScoringWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ScoringWorker {
	return &ScoringWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "scoring_worker").Logger(),
	}
}

type resultPayload struct {
	StudentID      int    `json:"student_id"`
	ExamID         string `json:"exam_id"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"total_questions"`
}

// Start begins the worker loop with batching. Call in a goroutine.
func (w *ScoringWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ScoringWorker started")

	batch := make([]*resultPayload, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p resultPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

func (w *ScoringWorker) flushSafe(ctx context.Context, batch []*resultPayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkUpdateResults(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk result update failed, using fallback")

		for _, p := range batch {
			if err := w.persistSingle(ctx, p); err != nil {
				w.log.Error().Err(err).Msg("persistSingle failed — requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			}
		}
		return
	}

	// After successful updates, the autosave buffers are obsolete.
	w.bulkClearAutosavedAnswers(ctx, batch)
}

// bulkUpdateResults updates a whole batch with a single UNNEST statement.
func (w *ScoringWorker) bulkUpdateResults(ctx context.Context, batch []*resultPayload) error {
	n := len(batch)

	examIDs := make([]uuid.UUID, 0, n)
	students := make([]int, 0, n)
	scores := make([]int, 0, n)
	totals := make([]int, 0, n)

	for _, p := range batch {
		eID, err := uuid.Parse(p.ExamID)
		if err != nil {
			return err
		}
		examIDs = append(examIDs, eID)
		students = append(students, p.StudentID)
		scores = append(scores, p.Score)
		totals = append(totals, p.TotalQuestions)
	}

	query := `
		UPDATE attempts AS a
		SET status = 'COMPLETED',
		    score = t.score,
		    total_questions = t.total_questions,
		    finished_at = NOW()
		FROM (
			SELECT
				u.exam_id,
				u.student_id,
				u.score,
				u.total_questions
			FROM UNNEST(
				$1::uuid[],
				$2::int[],
				$3::int[],
				$4::int[]
			) AS u (exam_id, student_id, score, total_questions)
		) AS t
		WHERE a.exam_id = t.exam_id
		  AND a.student_id = t.student_id
	`

	_, err := w.pool.Exec(ctx, query, examIDs, students, scores, totals)
	return err
}

func (w *ScoringWorker) bulkClearAutosavedAnswers(ctx context.Context, batch []*resultPayload) {
	pipe := w.rdb.Pipeline()

	for _, p := range batch {
		key := config.CacheKey.AttemptAnswersKey(p.ExamID, p.StudentID)
		pipe.Del(ctx, key)
	}

	_, _ = pipe.Exec(ctx)
}

func (w *ScoringWorker) persistSingle(ctx context.Context, p *resultPayload) error {
	eID, err := uuid.Parse(p.ExamID)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = 'COMPLETED',
		     score = $1,
		     total_questions = $2,
		     finished_at = NOW()
		 WHERE exam_id = $3 AND student_id = $4`,
		p.Score, p.TotalQuestions, eID, p.StudentID,
	)

	return err
}
