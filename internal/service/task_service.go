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

// Task errors surfaced to handlers.
var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskAlreadyPublished = errors.New("task is already published")
)

// TaskService handles instructor-side task authoring.
type TaskService struct {
	taskRepo *repository.TaskRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo *repository.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo}
}

// Create builds a task from the request, enforcing the cross-field
// rules binding tags cannot express. Tasks are created unpublished.
func (s *TaskService) Create(ctx context.Context, req *model.CreateTaskRequest) (*model.Task, error) {
	task := &model.Task{
		CourseID:         req.CourseID,
		Type:             req.Type,
		Title:            req.Title,
		Description:      req.Description,
		DueAt:            req.DueAt,
		AllowLate:        req.AllowLate,
		LatePolicy:       req.LatePolicy,
		HasTimer:         req.HasTimer,
		TimeLimitMinutes: req.TimeLimitMinutes,
		AnswerFormat:     req.AnswerFormat,
		AttachmentURL:    req.AttachmentURL,
	}
	if task.LatePolicy == "" {
		task.LatePolicy = model.LatePolicyNone
	}
	for _, q := range req.Questions {
		task.Questions = append(task.Questions, model.Question{Text: q.Text})
	}

	if err := task.CheckInvariants(); err != nil {
		return nil, err
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// Get returns a task by id.
func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("load task: %w", err)
	}
	return task, nil
}

// GetPublished returns a task only if students may see it.
func (s *TaskService) GetPublished(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !task.Published {
		return nil, ErrTaskNotPublished
	}
	return task, nil
}

// ListByCourse returns a course's tasks. Students see published only.
func (s *TaskService) ListByCourse(ctx context.Context, courseID uuid.UUID, publishedOnly bool) ([]model.Task, error) {
	return s.taskRepo.ListByCourse(ctx, courseID, publishedOnly)
}

// Update applies partial changes to an unpublished task. A non-nil
// Questions slice replaces the question set wholesale.
func (s *TaskService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateTaskRequest) (*model.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Published {
		return nil, ErrTaskAlreadyPublished
	}

	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.DueAt != nil {
		task.DueAt = *req.DueAt
	}
	if req.AllowLate != nil {
		task.AllowLate = *req.AllowLate
	}
	if req.LatePolicy != nil {
		task.LatePolicy = *req.LatePolicy
	}
	if req.HasTimer != nil {
		task.HasTimer = *req.HasTimer
	}
	if req.TimeLimitMinutes != nil {
		task.TimeLimitMinutes = req.TimeLimitMinutes
	}
	if req.AnswerFormat != nil {
		task.AnswerFormat = *req.AnswerFormat
	}
	if req.AttachmentURL != nil {
		task.AttachmentURL = req.AttachmentURL
	}
	replaceQuestions := req.Questions != nil
	if replaceQuestions {
		task.Questions = task.Questions[:0]
		for _, q := range req.Questions {
			task.Questions = append(task.Questions, model.Question{Text: q.Text})
		}
	}

	if err := task.CheckInvariants(); err != nil {
		return nil, err
	}
	if err := s.taskRepo.Update(ctx, task, replaceQuestions); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

// Publish makes a task visible to students. Publishing is one-way.
func (s *TaskService) Publish(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Published {
		return nil, ErrTaskAlreadyPublished
	}
	if err := task.CheckInvariants(); err != nil {
		return nil, err
	}
	if err := s.taskRepo.Publish(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskAlreadyPublished
		}
		return nil, fmt.Errorf("publish task: %w", err)
	}
	task.Published = true
	return task, nil
}

// Delete removes an unpublished task.
func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if task.Published {
		return ErrTaskAlreadyPublished
	}
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
