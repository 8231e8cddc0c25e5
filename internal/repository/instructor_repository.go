package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/campora/taskgate-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InstructorRepository handles instructor account data access.
type InstructorRepository struct {
	pool *pgxpool.Pool
}

// NewInstructorRepository creates a new InstructorRepository.
func NewInstructorRepository(pool *pgxpool.Pool) *InstructorRepository {
	return &InstructorRepository{pool: pool}
}

// GetByEmail retrieves an instructor by email for login.
func (r *InstructorRepository) GetByEmail(ctx context.Context, email string) (*model.Instructor, error) {
	return r.scanOne(ctx,
		`SELECT id, name, email, password_hash, settings, created_at
		 FROM instructors WHERE email = $1`, email)
}

// GetByID retrieves an instructor by ID.
func (r *InstructorRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Instructor, error) {
	return r.scanOne(ctx,
		`SELECT id, name, email, password_hash, settings, created_at
		 FROM instructors WHERE id = $1`, id)
}

func (r *InstructorRepository) scanOne(ctx context.Context, query string, arg interface{}) (*model.Instructor, error) {
	ins := &model.Instructor{}
	var settingsRaw []byte
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&ins.ID, &ins.Name, &ins.Email, &ins.PasswordHash, &settingsRaw, &ins.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(settingsRaw) > 0 {
		ins.Settings = &model.NotificationSettings{}
		if err := json.Unmarshal(settingsRaw, ins.Settings); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
	}
	return ins, nil
}

// Create inserts an instructor with default notification settings.
func (r *InstructorRepository) Create(ctx context.Context, ins *model.Instructor) error {
	if ins.Settings == nil {
		ins.Settings = model.DefaultTeacherSettings()
	}
	settingsRaw, err := json.Marshal(ins.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO instructors (name, email, password_hash, settings)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		ins.Name, ins.Email, ins.PasswordHash, settingsRaw,
	).Scan(&ins.ID, &ins.CreatedAt)
}

// UpdateSettings replaces an instructor's notification settings.
func (r *InstructorRepository) UpdateSettings(ctx context.Context, id uuid.UUID, settings *model.NotificationSettings) error {
	settingsRaw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE instructors SET settings = $1 WHERE id = $2`, settingsRaw, id)
	return err
}
