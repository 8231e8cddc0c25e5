package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/campora/taskgate-backend/internal/model"
	"github.com/campora/taskgate-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrUserNotFound covers student and instructor lookups.
var ErrUserNotFound = errors.New("user not found")

// StudentService handles student account lookups and settings.
type StudentService struct {
	repo *repository.StudentRepository
}

// NewStudentService creates a new StudentService.
func NewStudentService(repo *repository.StudentRepository) *StudentService {
	return &StudentService{repo: repo}
}

func (s *StudentService) GetByEmail(ctx context.Context, email string) (*model.Student, error) {
	student, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load student: %w", err)
	}
	return student, nil
}

func (s *StudentService) GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load student: %w", err)
	}
	return student, nil
}

// UpdateSettings replaces the student's notification settings after
// checking the tagged-union variant rules.
func (s *StudentService) UpdateSettings(ctx context.Context, id uuid.UUID, settings *model.NotificationSettings) error {
	if err := settings.CheckVariant(); err != nil {
		return err
	}
	if settings.UserType != model.UserTypeStudent {
		return model.ErrSettingsVariantMismatch
	}
	return s.repo.UpdateSettings(ctx, id, settings)
}

// InstructorService handles instructor account lookups and settings.
type InstructorService struct {
	repo *repository.InstructorRepository
}

// NewInstructorService creates a new InstructorService.
func NewInstructorService(repo *repository.InstructorRepository) *InstructorService {
	return &InstructorService{repo: repo}
}

func (s *InstructorService) GetByEmail(ctx context.Context, email string) (*model.Instructor, error) {
	ins, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load instructor: %w", err)
	}
	return ins, nil
}

func (s *InstructorService) GetByID(ctx context.Context, id uuid.UUID) (*model.Instructor, error) {
	ins, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load instructor: %w", err)
	}
	return ins, nil
}

func (s *InstructorService) UpdateSettings(ctx context.Context, id uuid.UUID, settings *model.NotificationSettings) error {
	if err := settings.CheckVariant(); err != nil {
		return err
	}
	if settings.UserType != model.UserTypeTeacher {
		return model.ErrSettingsVariantMismatch
	}
	return s.repo.UpdateSettings(ctx, id, settings)
}
