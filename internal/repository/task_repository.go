package repository

import (
	"context"
	"fmt"

	"github.com/campora/taskgate-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskRepository handles task and question data access.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// Create inserts a task together with its questions in one transaction.
func (r *TaskRepository) Create(ctx context.Context, t *model.Task) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO tasks (course_id, type, title, description, due_at, allow_late, late_policy,
		                    has_timer, time_limit_minutes, answer_format, attachment_url, published)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at, updated_at`,
		t.CourseID, t.Type, t.Title, t.Description, t.DueAt, t.AllowLate, t.LatePolicy,
		t.HasTimer, t.TimeLimitMinutes, t.AnswerFormat, t.AttachmentURL, t.Published,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	for i := range t.Questions {
		q := &t.Questions[i]
		q.TaskID = t.ID
		q.OrderNum = i + 1
		err = tx.QueryRow(ctx,
			`INSERT INTO questions (task_id, text, order_num)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			q.TaskID, q.Text, q.OrderNum,
		).Scan(&q.ID)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a task with its questions in order.
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	t := &model.Task{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, type, title, description, due_at, allow_late, late_policy,
		        has_timer, time_limit_minutes, answer_format, attachment_url, published,
		        created_at, updated_at
		 FROM tasks
		 WHERE id = $1`, id,
	).Scan(&t.ID, &t.CourseID, &t.Type, &t.Title, &t.Description, &t.DueAt, &t.AllowLate,
		&t.LatePolicy, &t.HasTimer, &t.TimeLimitMinutes, &t.AnswerFormat, &t.AttachmentURL,
		&t.Published, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	questions, err := r.listQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Questions = questions
	return t, nil
}

func (r *TaskRepository) listQuestions(ctx context.Context, taskID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, task_id, text, order_num
		 FROM questions
		 WHERE task_id = $1
		 ORDER BY order_num ASC`, taskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.TaskID, &q.Text, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListByCourse retrieves tasks for a course, optionally published only.
func (r *TaskRepository) ListByCourse(ctx context.Context, courseID uuid.UUID, publishedOnly bool) ([]model.Task, error) {
	query := `SELECT id, course_id, type, title, description, due_at, allow_late, late_policy,
	                 has_timer, time_limit_minutes, answer_format, attachment_url, published,
	                 created_at, updated_at
	          FROM tasks
	          WHERE course_id = $1`
	if publishedOnly {
		query += ` AND published = TRUE`
	}
	query += ` ORDER BY due_at ASC`

	rows, err := r.pool.Query(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.CourseID, &t.Type, &t.Title, &t.Description, &t.DueAt,
			&t.AllowLate, &t.LatePolicy, &t.HasTimer, &t.TimeLimitMinutes, &t.AnswerFormat,
			&t.AttachmentURL, &t.Published, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update replaces the mutable fields of an unpublished task. Questions
// are replaced wholesale when provided.
func (r *TaskRepository) Update(ctx context.Context, t *model.Task, replaceQuestions bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE tasks
		 SET title = $1, description = $2, due_at = $3, allow_late = $4, late_policy = $5,
		     has_timer = $6, time_limit_minutes = $7, answer_format = $8, attachment_url = $9,
		     updated_at = NOW()
		 WHERE id = $10`,
		t.Title, t.Description, t.DueAt, t.AllowLate, t.LatePolicy,
		t.HasTimer, t.TimeLimitMinutes, t.AnswerFormat, t.AttachmentURL, t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	if replaceQuestions {
		if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE task_id = $1`, t.ID); err != nil {
			return fmt.Errorf("clear questions: %w", err)
		}
		for i := range t.Questions {
			q := &t.Questions[i]
			q.TaskID = t.ID
			q.OrderNum = i + 1
			err = tx.QueryRow(ctx,
				`INSERT INTO questions (task_id, text, order_num)
				 VALUES ($1, $2, $3)
				 RETURNING id`,
				q.TaskID, q.Text, q.OrderNum,
			).Scan(&q.ID)
			if err != nil {
				return fmt.Errorf("insert question: %w", err)
			}
		}
	}

	return tx.Commit(ctx)
}

// Publish flips the published flag. Returns pgx.ErrNoRows if the task
// does not exist or is already published.
func (r *TaskRepository) Publish(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks SET published = TRUE, updated_at = NOW()
		 WHERE id = $1 AND published = FALSE`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes an unpublished task and its questions.
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND published = FALSE`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
