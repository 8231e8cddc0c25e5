package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/campora/taskgate-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicate is returned by Create when a submission already exists
// for the (task, student) pair. The uniqueness lives in the database
// constraint, so concurrent submits collapse onto one row.
var ErrDuplicate = errors.New("submission already exists")

// SubmissionRepository handles submission data access. Answers are
// stored as a JSONB array to keep the question-order mapping intact.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// GetByTaskAndStudent retrieves the submission for a (task, student)
// pair. Returns pgx.ErrNoRows when none exists.
func (r *SubmissionRepository) GetByTaskAndStudent(ctx context.Context, taskID, studentID uuid.UUID) (*model.Submission, error) {
	s := &model.Submission{}
	var answersRaw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, task_id, student_id, submitted_at, status, answers, file_url, grade, feedback
		 FROM submissions
		 WHERE task_id = $1 AND student_id = $2`, taskID, studentID,
	).Scan(&s.ID, &s.TaskID, &s.StudentID, &s.SubmittedAt, &s.Status, &answersRaw,
		&s.FileURL, &s.Grade, &s.Feedback)
	if err != nil {
		return nil, err
	}
	if len(answersRaw) > 0 {
		if err := json.Unmarshal(answersRaw, &s.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
	}
	return s, nil
}

// Create inserts a submission. Returns ErrDuplicate when the unique
// (task_id, student_id) constraint rejects the row.
func (r *SubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	answersRaw, err := json.Marshal(s.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO submissions (task_id, student_id, submitted_at, status, answers, file_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		s.TaskID, s.StudentID, s.SubmittedAt, s.Status, answersRaw, s.FileURL,
	).Scan(&s.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// SetFeedback records an instructor's grade and feedback text.
func (r *SubmissionRepository) SetFeedback(ctx context.Context, taskID, studentID uuid.UUID, grade float64, feedback string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions
		 SET grade = $1, feedback = $2
		 WHERE task_id = $3 AND student_id = $4`,
		grade, feedback, taskID, studentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListByTask retrieves all submissions for a task, newest first.
func (r *SubmissionRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, task_id, student_id, submitted_at, status, answers, file_url, grade, feedback
		 FROM submissions
		 WHERE task_id = $1
		 ORDER BY submitted_at DESC`, taskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		var s model.Submission
		var answersRaw []byte
		if err := rows.Scan(&s.ID, &s.TaskID, &s.StudentID, &s.SubmittedAt, &s.Status,
			&answersRaw, &s.FileURL, &s.Grade, &s.Feedback); err != nil {
			return nil, err
		}
		if len(answersRaw) > 0 {
			if err := json.Unmarshal(answersRaw, &s.Answers); err != nil {
				return nil, fmt.Errorf("decode answers: %w", err)
			}
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
