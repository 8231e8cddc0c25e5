package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campora/taskgate-backend/internal/model"
	"github.com/campora/taskgate-backend/internal/response"
	"github.com/campora/taskgate-backend/internal/session"
	"github.com/campora/taskgate-backend/internal/submission"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, data interface{}, code response.ErrCode) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]interface{}{"data": data}
	if code != "" {
		body["error"] = response.ErrorBody{Code: code, Message: response.GetMessage(code)}
	}
	_ = json.NewEncoder(w).Encode(body)
}

func TestTimerClientRemainingTime(t *testing.T) {
	taskID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/student/tasks/"+taskID.String()+"/timer", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, map[string]string{"remaining": "00:04:59"}, "")
	}))
	defer srv.Close()

	tc := NewTimerClient(Config{BaseURL: srv.URL, Token: "token-123"})
	remaining, err := tc.RemainingTime(context.Background(), taskID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 299*time.Second, remaining)
}

func TestTimerClientNotFoundSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, nil, response.ErrTimerNotFound)
	}))
	defer srv.Close()

	tc := NewTimerClient(Config{BaseURL: srv.URL})
	_, err := tc.RemainingTime(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, session.ErrTimerNotFound)
}

func TestTimerClientStartConflictSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body startTimerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 3600, body.DurationSeconds)
		writeEnvelope(w, http.StatusConflict, nil, response.ErrTimerAlreadyStarted)
	}))
	defer srv.Close()

	tc := NewTimerClient(Config{BaseURL: srv.URL})
	err := tc.StartTimer(context.Background(), uuid.New(), uuid.New(), time.Hour)
	require.ErrorIs(t, err, session.ErrTimerAlreadyStarted)
}

func TestTimerClientMalformedRemaining(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]string{"remaining": "in a bit"}, "")
	}))
	defer srv.Close()

	tc := NewTimerClient(Config{BaseURL: srv.URL})
	_, err := tc.RemainingTime(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid remaining time")
}

func TestSubmissionClientGetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, nil, response.ErrSubmissionNotFound)
	}))
	defer srv.Close()

	sc := NewSubmissionClient(Config{BaseURL: srv.URL})
	_, err := sc.GetSubmission(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, session.ErrSubmissionNotFound)
}

func TestSubmissionClientCreate(t *testing.T) {
	taskID, studentID := uuid.New(), uuid.New()
	qID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/student/tasks/"+taskID.String()+"/submission", r.URL.Path)
		var body createSubmissionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Answers, 1)
		assert.Equal(t, "the answer", body.Answers[0].AnswerText)

		writeEnvelope(w, http.StatusCreated, model.Submission{
			ID:        uuid.New(),
			TaskID:    taskID,
			StudentID: studentID,
			Status:    model.SubmissionStatusSubmitted,
			Answers:   body.Answers,
		}, "")
	}))
	defer srv.Close()

	sc := NewSubmissionClient(Config{BaseURL: srv.URL})
	sub, err := sc.CreateSubmission(context.Background(), submission.Payload{
		TaskID:    taskID,
		StudentID: studentID,
		Status:    model.SubmissionStatusSubmitted,
		Answers:   []model.Answer{{QuestionID: qID, AnswerText: "the answer"}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionStatusSubmitted, sub.Status)
}

func TestSubmissionClientDuplicateSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusConflict, nil, response.ErrDuplicateSubmission)
	}))
	defer srv.Close()

	sc := NewSubmissionClient(Config{BaseURL: srv.URL})
	_, err := sc.CreateSubmission(context.Background(), submission.Payload{TaskID: uuid.New()})
	require.ErrorIs(t, err, session.ErrDuplicateSubmission)
}

func TestClientTimeoutSurfacesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeEnvelope(w, http.StatusOK, map[string]string{"remaining": "01:00:00"}, "")
	}))
	defer srv.Close()

	tc := NewTimerClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := tc.RemainingTime(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	require.NotErrorIs(t, err, session.ErrTimerNotFound)
}

func TestUnknownErrorCodeStaysGeneric(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, nil, response.ErrInternal)
	}))
	defer srv.Close()

	tc := NewTimerClient(Config{BaseURL: srv.URL})
	err := tc.StartTimer(context.Background(), uuid.New(), uuid.New(), time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INTERNAL_ERROR")
}
