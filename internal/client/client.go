// Package client provides HTTP implementations of the timer and
// submission service interfaces the session controller consumes.
// Calls are bounded by the configured timeout and surface retryable
// transport errors instead of hanging; well-known API error codes are
// mapped onto the session package's contract sentinels.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/campora/taskgate-backend/internal/response"
	"github.com/campora/taskgate-backend/internal/session"
)

// DefaultTimeout bounds outbound calls when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Config carries the connection settings shared by both clients.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.example.com/api/v1".
	BaseURL string
	// Token is the student JWT sent as a bearer token.
	Token string
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// apiClient is the shared request/decode plumbing.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(cfg Config) *apiClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &apiClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
	}
}

// envelope mirrors the server's standardized response shape.
type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

// do issues the request and decodes the envelope. Non-2xx responses
// with a recognized error code become contract sentinels; everything
// else is a transport-class error the caller may retry (reads) or
// re-check state for (writes).
func (c *apiClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}

	if resp.StatusCode >= 400 {
		if env.Error != nil {
			if sentinel := mapErrCode(env.Error.Code); sentinel != nil {
				return sentinel
			}
			return fmt.Errorf("%s %s: %s (%s)", method, path, env.Error.Message, env.Error.Code)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s %s: decode data: %w", method, path, err)
		}
	}
	return nil
}

// mapErrCode translates API error codes into the session package's
// contract sentinels. Unknown codes return nil and stay generic.
func mapErrCode(code response.ErrCode) error {
	switch code {
	case response.ErrTimerNotFound:
		return session.ErrTimerNotFound
	case response.ErrTimerAlreadyStarted:
		return session.ErrTimerAlreadyStarted
	case response.ErrSubmissionNotFound:
		return session.ErrSubmissionNotFound
	case response.ErrDuplicateSubmission:
		return session.ErrDuplicateSubmission
	default:
		return nil
	}
}
