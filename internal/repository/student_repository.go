package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/campora/taskgate-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StudentRepository handles student account data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByEmail retrieves a student by email for login.
func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*model.Student, error) {
	return r.scanOne(ctx,
		`SELECT id, name, email, password_hash, settings, created_at
		 FROM students WHERE email = $1`, email)
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	return r.scanOne(ctx,
		`SELECT id, name, email, password_hash, settings, created_at
		 FROM students WHERE id = $1`, id)
}

func (r *StudentRepository) scanOne(ctx context.Context, query string, arg interface{}) (*model.Student, error) {
	s := &model.Student{}
	var settingsRaw []byte
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &settingsRaw, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(settingsRaw) > 0 {
		s.Settings = &model.NotificationSettings{}
		if err := json.Unmarshal(settingsRaw, s.Settings); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
	}
	return s, nil
}

// Create inserts a student with default notification settings.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	if s.Settings == nil {
		s.Settings = model.DefaultStudentSettings()
	}
	settingsRaw, err := json.Marshal(s.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO students (name, email, password_hash, settings)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		s.Name, s.Email, s.PasswordHash, settingsRaw,
	).Scan(&s.ID, &s.CreatedAt)
}

// UpdateSettings replaces a student's notification settings.
func (r *StudentRepository) UpdateSettings(ctx context.Context, id uuid.UUID, settings *model.NotificationSettings) error {
	settingsRaw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE students SET settings = $1 WHERE id = $2`, settingsRaw, id)
	return err
}
