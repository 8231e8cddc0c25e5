package session

import (
	"context"
	"errors"
	"time"

	"github.com/campora/taskgate-backend/internal/model"
	"github.com/campora/taskgate-backend/internal/submission"
	"github.com/google/uuid"
)

// Contract errors the service implementations must return. Anything
// else coming back from a service call is treated as a transport
// failure: recoverable by retry for reads, and only after re-querying
// state for writes.
var (
	// ErrTimerNotFound means no timer was ever started for the pair.
	// Distinct from a timer that has counted down to zero.
	ErrTimerNotFound = errors.New("no timer exists for this task and student")
	// ErrTimerAlreadyStarted means a timer already exists for the pair.
	ErrTimerAlreadyStarted = errors.New("timer already started for this task and student")
	// ErrSubmissionNotFound means the student has not submitted yet.
	// Implementations must never fold transport failures into this.
	ErrSubmissionNotFound = errors.New("no submission exists for this task and student")
	// ErrDuplicateSubmission means a submission already exists for the pair.
	ErrDuplicateSubmission = errors.New("submission already exists for this task and student")
)

// TimerService is the server-side authority on started exams: it
// persists "started at T with duration D" per (task, student) and
// answers remaining-time queries.
type TimerService interface {
	// StartTimer records the start of an attempt. Fails with
	// ErrTimerAlreadyStarted when a timer already exists for the pair.
	StartTimer(ctx context.Context, taskID, studentID uuid.UUID, duration time.Duration) error

	// RemainingTime returns the authoritative time left, clamped at
	// zero. Fails with ErrTimerNotFound when no timer was started.
	RemainingTime(ctx context.Context, taskID, studentID uuid.UUID) (time.Duration, error)
}

// SubmissionService accepts a finished submission exactly once per
// (task, student) and serves reads of the existing record.
type SubmissionService interface {
	// GetSubmission fails with ErrSubmissionNotFound when none exists.
	GetSubmission(ctx context.Context, taskID, studentID uuid.UUID) (*model.Submission, error)

	// CreateSubmission fails with ErrDuplicateSubmission when a
	// submission already exists for the pair.
	CreateSubmission(ctx context.Context, payload submission.Payload) (*model.Submission, error)
}
