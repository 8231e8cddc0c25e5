package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/campora/taskgate-backend/internal/model"
	"github.com/google/uuid"
)

// TaskClient fetches published task definitions from the student API.
type TaskClient struct {
	api *apiClient
}

// NewTaskClient creates a TaskClient.
func NewTaskClient(cfg Config) *TaskClient {
	return &TaskClient{api: newAPIClient(cfg)}
}

// GetTask returns one published task, questions included.
func (c *TaskClient) GetTask(ctx context.Context, taskID uuid.UUID) (*model.Task, error) {
	var out struct {
		Task *model.Task `json:"task"`
	}
	path := fmt.Sprintf("/student/tasks/%s", taskID)
	if err := c.api.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Task, nil
}

// ListTasks returns the published tasks of a course.
func (c *TaskClient) ListTasks(ctx context.Context, courseID uuid.UUID) ([]model.Task, error) {
	var out struct {
		Tasks []model.Task `json:"tasks"`
	}
	path := fmt.Sprintf("/student/courses/%s/tasks", courseID)
	if err := c.api.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}
