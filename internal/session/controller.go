// Package session drives a single student's attempt at a timed exam
// from not-started to a terminal state, keeping a local one-second
// countdown loosely synchronized with the server's authoritative
// remaining-time record and gating submission behind timer expiry.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/campora/taskgate-backend/internal/model"
	"github.com/campora/taskgate-backend/internal/submission"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Status enumerates exam session states.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusExpired    Status = "EXPIRED"
	StatusCompleted  Status = "COMPLETED"
)

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusExpired || s == StatusCompleted
}

// WarningThresholdSeconds is the remaining-time mark at which the
// one-shot time warning fires.
const WarningThresholdSeconds = 300

// Controller-level errors.
var (
	ErrNotExam        = errors.New("session controller only manages exam tasks")
	ErrNotStarted     = errors.New("exam has not been started")
	ErrAlreadyRunning = errors.New("exam is already in progress")
	// ErrSessionClosed is returned by Submit and Start once the session
	// reached a terminal state. No network call is made.
	ErrSessionClosed = errors.New("session is closed")
)

// Snapshot is the externally visible state of one attempt.
type Snapshot struct {
	TaskID           uuid.UUID `json:"task_id"`
	StudentID        uuid.UUID `json:"student_id"`
	Status           Status    `json:"status"`
	RemainingSeconds int       `json:"remaining_seconds"`
}

// Controller owns one student's attempt at one exam task. It is the
// single writer of its session state: the countdown goroutine and the
// host both go through its mutex, and a terminal state is never left.
type Controller struct {
	task      *model.Task
	studentID uuid.UUID

	timers      TimerService
	submissions SubmissionService
	clock       Clock
	log         zerolog.Logger

	mu        sync.Mutex
	status    Status
	remaining int
	countdown *Countdown
	warned    bool
	onWarning func(remainingSeconds int)
}

// NewController creates a controller for one (task, student) attempt.
// The task must be an exam; assignments go straight through the
// submission builder without a session.
func NewController(
	task *model.Task,
	studentID uuid.UUID,
	timers TimerService,
	submissions SubmissionService,
	clock Clock,
	log zerolog.Logger,
) (*Controller, error) {
	if task.Type != model.TaskTypeExam {
		return nil, ErrNotExam
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Controller{
		task:        task,
		studentID:   studentID,
		timers:      timers,
		submissions: submissions,
		clock:       clock,
		log: log.With().
			Str("component", "exam_session").
			Str("task_id", task.ID.String()).
			Str("student_id", studentID.String()).
			Logger(),
		status:    StatusNotStarted,
		countdown: NewCountdown(),
	}, nil
}

// OnWarning registers the one-shot callback fired when remaining time
// first reaches the five-minute mark. Must be set before Initialize.
func (c *Controller) OnWarning(fn func(remainingSeconds int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onWarning = fn
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		TaskID:           c.task.ID,
		StudentID:        c.studentID,
		Status:           c.status,
		RemainingSeconds: c.remaining,
	}
}

// Initialize reconstructs the session from server state. The
// submission lookup runs first and always wins: an existing submission
// makes the session COMPLETED without consulting the timer, so a stale
// timer record can never resurrect a finished exam. Transport errors
// from either service are surfaced; only an explicit not-found result
// is treated as absence.
func (c *Controller) Initialize(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.submissions.GetSubmission(ctx, c.task.ID, c.studentID)
	switch {
	case err == nil && existing != nil:
		c.transitionLocked(StatusCompleted)
		return c.snapshotLocked(), nil
	case errors.Is(err, ErrSubmissionNotFound):
		// No submission yet; fall through to the timer.
	case err != nil:
		return c.snapshotLocked(), fmt.Errorf("check existing submission: %w", err)
	}

	if !c.task.HasTimer {
		// Untimed exam: nothing to gate, no countdown to run.
		c.status = StatusInProgress
		return c.snapshotLocked(), nil
	}

	remaining, err := c.timers.RemainingTime(ctx, c.task.ID, c.studentID)
	switch {
	case errors.Is(err, ErrTimerNotFound):
		c.status = StatusNotStarted
	case err != nil:
		return c.snapshotLocked(), fmt.Errorf("query remaining time: %w", err)
	case remaining <= 0:
		c.transitionLocked(StatusExpired)
	default:
		c.status = StatusInProgress
		c.remaining = ceilSeconds(remaining)
		c.startCountdownLocked()
	}

	c.log.Debug().
		Str("status", string(c.status)).
		Int("remaining", c.remaining).
		Msg("Session initialized")

	return c.snapshotLocked(), nil
}

// Start records the attempt start server-side and begins the local
// countdown, seeded from the task's configured limit. One-shot and
// irreversible: once started, the timer cannot be paused or reset. An
// AlreadyStarted conflict means a previous, possibly unacknowledged
// request already succeeded, so the controller adopts the server's
// remaining time instead of failing.
func (c *Controller) Start(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status.Terminal() {
		return c.remaining, ErrSessionClosed
	}
	if c.status == StatusInProgress {
		return c.remaining, ErrAlreadyRunning
	}

	limit := c.task.TimeLimit()
	err := c.timers.StartTimer(ctx, c.task.ID, c.studentID, limit)
	switch {
	case errors.Is(err, ErrTimerAlreadyStarted):
		remaining, qErr := c.timers.RemainingTime(ctx, c.task.ID, c.studentID)
		if qErr != nil {
			return c.remaining, fmt.Errorf("timer already started, re-query failed: %w", qErr)
		}
		if remaining <= 0 {
			c.transitionLocked(StatusExpired)
			return 0, nil
		}
		c.remaining = ceilSeconds(remaining)
	case err != nil:
		return c.remaining, fmt.Errorf("start timer: %w", err)
	default:
		// Trust our own request: seed from the configured limit
		// rather than re-querying.
		c.remaining = int(limit / time.Second)
	}

	c.status = StatusInProgress
	c.startCountdownLocked()

	c.log.Info().Int("remaining", c.remaining).Msg("Exam started")
	return c.remaining, nil
}

// Tick advances the local countdown by one second. Purely local: it
// never performs I/O and never raises errors. Reaching zero is a
// client-detected expiry that Resync later confirms against server
// time. The five-minute warning fires exactly once, including when the
// session entered below the threshold.
func (c *Controller) Tick() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != StatusInProgress || !c.task.HasTimer {
		return c.remaining
	}

	if c.remaining > 0 {
		c.remaining--
	}

	if c.remaining <= WarningThresholdSeconds && !c.warned {
		c.warned = true
		if c.onWarning != nil {
			go c.onWarning(c.remaining)
		}
	}

	if c.remaining == 0 {
		c.transitionLocked(StatusExpired)
		c.log.Info().Msg("Countdown reached zero, session expired locally")
	}

	return c.remaining
}

// Resync overwrites the local countdown with the server's
// authoritative remaining time. Server time always wins: a value at or
// below zero forces EXPIRED even if the local countdown still reads
// positive. The host calls this whenever it may have missed wall-clock
// time (foregrounding, resume from sleep, reconnect). No-op once the
// session left IN_PROGRESS or when the exam is untimed.
func (c *Controller) Resync(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != StatusInProgress || !c.task.HasTimer {
		return c.remaining, nil
	}

	remaining, err := c.timers.RemainingTime(ctx, c.task.ID, c.studentID)
	if err != nil {
		return c.remaining, fmt.Errorf("resync remaining time: %w", err)
	}

	if remaining <= 0 {
		c.transitionLocked(StatusExpired)
		c.log.Info().Msg("Resync reported zero, session expired")
		return 0, nil
	}

	c.remaining = ceilSeconds(remaining)
	c.log.Debug().Int("remaining", c.remaining).Msg("Resynced against server")
	return c.remaining, nil
}

// Submit validates the draft, builds the payload and sends it to the
// submission service. On a closed session it fails immediately with
// ErrSessionClosed and performs no network call. Validation failures
// come back as *submission.ValidationError. A DuplicateSubmission
// conflict is success-equivalent: the existing record is fetched and
// the session completes.
func (c *Controller) Submit(ctx context.Context, draft submission.Draft) (*model.Submission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status.Terminal() {
		return nil, ErrSessionClosed
	}
	if c.task.HasTimer && c.status != StatusInProgress {
		return nil, ErrNotStarted
	}

	now := c.clock.Now()
	if issues := submission.Validate(c.task, false, draft, now); len(issues) > 0 {
		return nil, &submission.ValidationError{Issues: issues}
	}

	payload := submission.Build(c.task, c.studentID, draft, now)

	created, err := c.submissions.CreateSubmission(ctx, payload)
	switch {
	case errors.Is(err, ErrDuplicateSubmission):
		existing, fetchErr := c.submissions.GetSubmission(ctx, c.task.ID, c.studentID)
		if fetchErr != nil {
			return nil, fmt.Errorf("duplicate submission, fetch failed: %w", fetchErr)
		}
		created = existing
	case err != nil:
		return nil, fmt.Errorf("create submission: %w", err)
	}

	c.transitionLocked(StatusCompleted)
	c.log.Info().Str("status", string(created.Status)).Msg("Submission accepted")
	return created, nil
}

// Close releases the countdown resource. The owner must call it on
// teardown; terminal transitions cancel the countdown on their own.
func (c *Controller) Close() {
	c.countdown.Cancel()
}

// transitionLocked enters a terminal state and cancels the countdown.
func (c *Controller) transitionLocked(terminal Status) {
	c.status = terminal
	if terminal == StatusExpired {
		c.remaining = 0
	}
	c.countdown.Cancel()
}

func (c *Controller) startCountdownLocked() {
	c.countdown.Start(func() { c.Tick() })
}

func ceilSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
