package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DraftRepository persists autosaved draft answers. Redis holds the
// live copy; this table is the durable fallback the draft worker
// writes through to.
type DraftRepository struct {
	pool *pgxpool.Pool
}

// NewDraftRepository creates a new DraftRepository.
func NewDraftRepository(pool *pgxpool.Pool) *DraftRepository {
	return &DraftRepository{pool: pool}
}

// Upsert stores the full draft answer set for a (task, student) pair,
// replacing any previous draft.
func (r *DraftRepository) Upsert(ctx context.Context, taskID, studentID uuid.UUID, answers map[uuid.UUID]string) error {
	raw, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode draft answers: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO draft_answers (task_id, student_id, answers, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (task_id, student_id)
		 DO UPDATE SET answers = EXCLUDED.answers, updated_at = NOW()`,
		taskID, studentID, raw)
	return err
}

// GetByTaskAndStudent returns the stored draft answers, or an empty
// map when the student has no draft.
func (r *DraftRepository) GetByTaskAndStudent(ctx context.Context, taskID, studentID uuid.UUID) (map[uuid.UUID]string, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT answers FROM draft_answers WHERE task_id = $1 AND student_id = $2`,
		taskID, studentID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return map[uuid.UUID]string{}, nil
		}
		return nil, err
	}

	answers := make(map[uuid.UUID]string)
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("decode draft answers: %w", err)
	}
	return answers, nil
}

// Delete removes a student's draft once the real submission lands.
func (r *DraftRepository) Delete(ctx context.Context, taskID, studentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM draft_answers WHERE task_id = $1 AND student_id = $2`,
		taskID, studentID)
	return err
}
