package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/campora/taskgate-backend/internal/session"
	"github.com/google/uuid"
)

// TimerClient talks to the timer endpoints of the task API. The
// authenticated student is identified by the bearer token, so the
// studentID parameter only exists to satisfy the interface contract.
type TimerClient struct {
	api *apiClient
}

// NewTimerClient creates a TimerClient.
func NewTimerClient(cfg Config) *TimerClient {
	return &TimerClient{api: newAPIClient(cfg)}
}

var _ session.TimerService = (*TimerClient)(nil)

type startTimerRequest struct {
	DurationSeconds int `json:"duration_seconds"`
}

// StartTimer records "started now with this duration" server-side.
func (c *TimerClient) StartTimer(ctx context.Context, taskID, _ uuid.UUID, duration time.Duration) error {
	path := fmt.Sprintf("/student/tasks/%s/timer", taskID)
	body := startTimerRequest{DurationSeconds: int(duration / time.Second)}
	return c.api.do(ctx, http.MethodPost, path, body, nil)
}

type timerStateResponse struct {
	Remaining string `json:"remaining"`
	Expired   bool   `json:"expired"`
}

// RemainingTime queries the authoritative remaining time and parses
// the HH:MM:SS wire format into a duration.
func (c *TimerClient) RemainingTime(ctx context.Context, taskID, _ uuid.UUID) (time.Duration, error) {
	path := fmt.Sprintf("/student/tasks/%s/timer", taskID)

	var state timerStateResponse
	if err := c.api.do(ctx, http.MethodGet, path, nil, &state); err != nil {
		return 0, err
	}

	secs, err := session.ParseRemaining(state.Remaining)
	if err != nil {
		return 0, fmt.Errorf("timer response: %w", err)
	}
	return time.Duration(secs) * time.Second, nil
}
