package repository

import (
	"context"
	"errors"

	"github.com/campora/taskgate-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTimerExists is returned by Create when a timer already exists for
// the (task, student) pair.
var ErrTimerExists = errors.New("timer already exists")

// TimerRepository persists exam timers in PostgreSQL. It is the source
// of truth; Redis only caches the start timestamp for fast reads.
type TimerRepository struct {
	pool *pgxpool.Pool
}

// NewTimerRepository creates a new TimerRepository.
func NewTimerRepository(pool *pgxpool.Pool) *TimerRepository {
	return &TimerRepository{pool: pool}
}

// GetByTaskAndStudent retrieves the timer for a (task, student) pair.
// Returns pgx.ErrNoRows when the exam was never started.
func (r *TimerRepository) GetByTaskAndStudent(ctx context.Context, taskID, studentID uuid.UUID) (*model.ExamTimer, error) {
	t := &model.ExamTimer{}
	err := r.pool.QueryRow(ctx,
		`SELECT task_id, student_id, started_at, duration_seconds
		 FROM exam_timers
		 WHERE task_id = $1 AND student_id = $2`, taskID, studentID,
	).Scan(&t.TaskID, &t.StudentID, &t.StartedAt, &t.DurationSeconds)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create records the start of an attempt. started_at is assigned by
// the database so DB and cache agree on the authoritative instant.
// Returns ErrTimerExists on the unique-pair constraint.
func (r *TimerRepository) Create(ctx context.Context, t *model.ExamTimer) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exam_timers (task_id, student_id, duration_seconds)
		 VALUES ($1, $2, $3)
		 RETURNING started_at`,
		t.TaskID, t.StudentID, t.DurationSeconds,
	).Scan(&t.StartedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrTimerExists
		}
		return err
	}
	return nil
}

// ListExpiredWithoutSubmission returns timers whose deadline passed
// but no submission landed, for the expiry sweeper.
func (r *TimerRepository) ListExpiredWithoutSubmission(ctx context.Context, limit int) ([]model.ExamTimer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.task_id, t.student_id, t.started_at, t.duration_seconds
		 FROM exam_timers t
		 LEFT JOIN submissions s ON s.task_id = t.task_id AND s.student_id = t.student_id
		 WHERE s.id IS NULL
		   AND t.expired_at IS NULL
		   AND t.started_at + make_interval(secs => t.duration_seconds) < NOW()
		 ORDER BY t.started_at ASC
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var timers []model.ExamTimer
	for rows.Next() {
		var t model.ExamTimer
		if err := rows.Scan(&t.TaskID, &t.StudentID, &t.StartedAt, &t.DurationSeconds); err != nil {
			return nil, err
		}
		timers = append(timers, t)
	}
	return timers, rows.Err()
}

// MarkExpired stamps a batch of timers as swept so they are not
// re-processed. Bulk update via UNNEST.
func (r *TimerRepository) MarkExpired(ctx context.Context, timers []model.ExamTimer) error {
	if len(timers) == 0 {
		return nil
	}

	taskIDs := make([]uuid.UUID, 0, len(timers))
	studentIDs := make([]uuid.UUID, 0, len(timers))
	for _, t := range timers {
		taskIDs = append(taskIDs, t.TaskID)
		studentIDs = append(studentIDs, t.StudentID)
	}

	_, err := r.pool.Exec(ctx,
		`UPDATE exam_timers AS t
		 SET expired_at = NOW()
		 FROM (
		     SELECT u.task_id, u.student_id
		     FROM UNNEST($1::uuid[], $2::uuid[]) AS u (task_id, student_id)
		 ) AS e
		 WHERE t.task_id = e.task_id
		   AND t.student_id = e.student_id`,
		taskIDs, studentIDs)
	return err
}
