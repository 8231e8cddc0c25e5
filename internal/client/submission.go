package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/campora/taskgate-backend/internal/model"
	"github.com/campora/taskgate-backend/internal/session"
	"github.com/campora/taskgate-backend/internal/submission"
	"github.com/google/uuid"
)

// SubmissionClient talks to the submission endpoints of the task API.
type SubmissionClient struct {
	api *apiClient
}

// NewSubmissionClient creates a SubmissionClient.
func NewSubmissionClient(cfg Config) *SubmissionClient {
	return &SubmissionClient{api: newAPIClient(cfg)}
}

var _ session.SubmissionService = (*SubmissionClient)(nil)

// GetSubmission fetches the student's existing submission, if any.
func (c *SubmissionClient) GetSubmission(ctx context.Context, taskID, _ uuid.UUID) (*model.Submission, error) {
	path := fmt.Sprintf("/student/tasks/%s/submission", taskID)

	var sub model.Submission
	if err := c.api.do(ctx, http.MethodGet, path, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

type createSubmissionRequest struct {
	Answers []model.Answer `json:"answers,omitempty"`
	FileURL *string        `json:"file_url,omitempty"`
}

// CreateSubmission sends the finished payload. The server re-validates
// and recomputes the late flag against its own clock; the at-most-once
// guarantee is its uniqueness constraint, not anything client-side.
func (c *SubmissionClient) CreateSubmission(ctx context.Context, payload submission.Payload) (*model.Submission, error) {
	path := fmt.Sprintf("/student/tasks/%s/submission", payload.TaskID)
	body := createSubmissionRequest{Answers: payload.Answers, FileURL: payload.FileURL}

	var sub model.Submission
	if err := c.api.do(ctx, http.MethodPost, path, body, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}
