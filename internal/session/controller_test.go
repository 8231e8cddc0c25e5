package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campora/taskgate-backend/internal/model"
	"github.com/campora/taskgate-backend/internal/submission"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimers struct {
	startErr       error
	remaining      time.Duration
	remainingErr   error
	startCalls     int
	remainingCalls int
}

func (f *fakeTimers) StartTimer(_ context.Context, _, _ uuid.UUID, _ time.Duration) error {
	f.startCalls++
	return f.startErr
}

func (f *fakeTimers) RemainingTime(_ context.Context, _, _ uuid.UUID) (time.Duration, error) {
	f.remainingCalls++
	return f.remaining, f.remainingErr
}

type fakeSubmissions struct {
	existing    *model.Submission
	getErr      error
	createErr   error
	getCalls    int
	createCalls int
	lastPayload submission.Payload
}

func (f *fakeSubmissions) GetSubmission(_ context.Context, _, _ uuid.UUID) (*model.Submission, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.existing, nil
}

func (f *fakeSubmissions) CreateSubmission(_ context.Context, p submission.Payload) (*model.Submission, error) {
	f.createCalls++
	f.lastPayload = p
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &model.Submission{
		ID:          uuid.New(),
		TaskID:      p.TaskID,
		StudentID:   p.StudentID,
		Status:      p.Status,
		Answers:     p.Answers,
		FileURL:     p.FileURL,
		SubmittedAt: p.SubmittedAt,
	}, nil
}

type fixedClock struct{ now time.Time }

func (f fixedClock) Now() time.Time { return f.now }

func timedExam(limitMinutes int) *model.Task {
	q1 := model.Question{ID: uuid.New(), Text: "Explain."}
	return &model.Task{
		ID:               uuid.New(),
		CourseID:         uuid.New(),
		Type:             model.TaskTypeExam,
		Title:            "Midterm",
		DueAt:            time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		HasTimer:         true,
		TimeLimitMinutes: &limitMinutes,
		AnswerFormat:     model.AnswerFormatStructured,
		Questions:        []model.Question{q1},
		Published:        true,
	}
}

func newTestController(t *testing.T, task *model.Task, timers TimerService, subs SubmissionService) *Controller {
	t.Helper()
	ctrl, err := NewController(task, uuid.New(), timers, subs,
		fixedClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)
	return ctrl
}

func TestNewControllerRejectsAssignments(t *testing.T) {
	task := &model.Task{ID: uuid.New(), Type: model.TaskTypeAssignment}
	_, err := NewController(task, uuid.New(), &fakeTimers{}, &fakeSubmissions{}, nil, zerolog.Nop())
	require.ErrorIs(t, err, ErrNotExam)
}

func TestInitializeExistingSubmissionWins(t *testing.T) {
	timers := &fakeTimers{remaining: 30 * time.Minute}
	subs := &fakeSubmissions{existing: &model.Submission{ID: uuid.New()}}
	ctrl := newTestController(t, timedExam(60), timers, subs)

	snap, err := ctrl.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, snap.Status)
	// A completed exam is terminal even if a timer record still exists:
	// the timer service must not be consulted at all.
	assert.Equal(t, 0, timers.remainingCalls)
}

func TestInitializeNoTimerRecord(t *testing.T) {
	timers := &fakeTimers{remainingErr: ErrTimerNotFound}
	subs := &fakeSubmissions{getErr: ErrSubmissionNotFound}
	ctrl := newTestController(t, timedExam(60), timers, subs)

	snap, err := ctrl.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusNotStarted, snap.Status)
	assert.Equal(t, 0, snap.RemainingSeconds)
}

func TestInitializeActiveTimer(t *testing.T) {
	timers := &fakeTimers{remaining: 299 * time.Second}
	subs := &fakeSubmissions{getErr: ErrSubmissionNotFound}
	ctrl := newTestController(t, timedExam(60), timers, subs)

	snap, err := ctrl.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, snap.Status)
	assert.Equal(t, 299, snap.RemainingSeconds)
}

func TestInitializeExpiredTimer(t *testing.T) {
	timers := &fakeTimers{remaining: 0}
	subs := &fakeSubmissions{getErr: ErrSubmissionNotFound}
	ctrl := newTestController(t, timedExam(60), timers, subs)

	snap, err := ctrl.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, snap.Status)
}

func TestInitializeSurfacesTransportErrors(t *testing.T) {
	boom := errors.New("connection reset")
	subs := &fakeSubmissions{getErr: boom}
	ctrl := newTestController(t, timedExam(60), &fakeTimers{}, subs)

	// A failing submission lookup must not be conflated with "no
	// submission exists".
	_, err := ctrl.Initialize(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StatusNotStarted, ctrl.Snapshot().Status)
}

func TestInitializeUntimedExam(t *testing.T) {
	task := timedExam(60)
	task.HasTimer = false
	task.TimeLimitMinutes = nil
	subs := &fakeSubmissions{getErr: ErrSubmissionNotFound}
	timers := &fakeTimers{}
	ctrl := newTestController(t, task, timers, subs)

	snap, err := ctrl.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, snap.Status)
	assert.Equal(t, 0, timers.remainingCalls)
}

func TestStartSeedsFromConfiguredLimit(t *testing.T) {
	timers := &fakeTimers{}
	ctrl := newTestController(t, timedExam(60), timers, &fakeSubmissions{getErr: ErrSubmissionNotFound})

	remaining, err := ctrl.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3600, remaining)
	assert.Equal(t, StatusInProgress, ctrl.Snapshot().Status)
	assert.Equal(t, 1, timers.startCalls)
	// The controller trusts its own request; no re-query.
	assert.Equal(t, 0, timers.remainingCalls)
}

func TestStartConflictAdoptsServerTime(t *testing.T) {
	timers := &fakeTimers{startErr: ErrTimerAlreadyStarted, remaining: 10 * time.Minute}
	ctrl := newTestController(t, timedExam(60), timers, &fakeSubmissions{getErr: ErrSubmissionNotFound})

	remaining, err := ctrl.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 600, remaining)
	assert.Equal(t, StatusInProgress, ctrl.Snapshot().Status)
}

func TestStartConflictOnDeadTimerExpires(t *testing.T) {
	timers := &fakeTimers{startErr: ErrTimerAlreadyStarted, remaining: 0}
	ctrl := newTestController(t, timedExam(60), timers, &fakeSubmissions{getErr: ErrSubmissionNotFound})

	remaining, err := ctrl.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, StatusExpired, ctrl.Snapshot().Status)
}

func TestStartTwiceRejected(t *testing.T) {
	ctrl := newTestController(t, timedExam(60), &fakeTimers{}, &fakeSubmissions{getErr: ErrSubmissionNotFound})

	_, err := ctrl.Start(context.Background())
	require.NoError(t, err)
	_, err = ctrl.Start(context.Background())
	require.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestTickMonotonicAndClamped(t *testing.T) {
	timers := &fakeTimers{remaining: 5 * time.Second}
	ctrl := newTestController(t, timedExam(60), timers, &fakeSubmissions{getErr: ErrSubmissionNotFound})

	_, err := ctrl.Initialize(context.Background())
	require.NoError(t, err)
	ctrl.Close() // Stop the real ticker; drive ticks manually.

	prev := ctrl.Snapshot().RemainingSeconds
	for i := 0; i < 10; i++ {
		got := ctrl.Tick()
		assert.LessOrEqual(t, got, prev)
		assert.GreaterOrEqual(t, got, 0)
		prev = got
	}

	snap := ctrl.Snapshot()
	assert.Equal(t, 0, snap.RemainingSeconds)
	assert.Equal(t, StatusExpired, snap.Status)
}

func TestTickWarningFiresOnce(t *testing.T) {
	timers := &fakeTimers{remaining: 301 * time.Second}
	ctrl := newTestController(t, timedExam(60), timers, &fakeSubmissions{getErr: ErrSubmissionNotFound})

	warnings := make(chan int, 4)
	ctrl.OnWarning(func(remaining int) { warnings <- remaining })

	_, err := ctrl.Initialize(context.Background())
	require.NoError(t, err)
	ctrl.Close()

	ctrl.Tick() // 300: should warn.
	ctrl.Tick() // 299: must not warn again.
	ctrl.Tick()

	select {
	case remaining := <-warnings:
		assert.Equal(t, WarningThresholdSeconds, remaining)
	case <-time.After(time.Second):
		t.Fatal("expected the five-minute warning to fire")
	}

	select {
	case <-warnings:
		t.Fatal("warning fired more than once")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTickWarningWhenEnteringBelowThreshold(t *testing.T) {
	// Server reports 00:04:59, so the session enters already inside the
	// warning window and the first tick emits the warning.
	timers := &fakeTimers{remaining: 299 * time.Second}
	ctrl := newTestController(t, timedExam(60), timers, &fakeSubmissions{getErr: ErrSubmissionNotFound})

	warnings := make(chan int, 1)
	ctrl.OnWarning(func(remaining int) { warnings <- remaining })

	_, err := ctrl.Initialize(context.Background())
	require.NoError(t, err)
	ctrl.Close()

	ctrl.Tick()

	select {
	case remaining := <-warnings:
		assert.Equal(t, 298, remaining)
	case <-time.After(time.Second):
		t.Fatal("expected the warning on the first tick")
	}
}

func TestResyncServerWins(t *testing.T) {
	timers := &fakeTimers{remaining: time.Hour}
	ctrl := newTestController(t, timedExam(60), timers, &fakeSubmissions{getErr: ErrSubmissionNotFound})

	_, err := ctrl.Initialize(context.Background())
	require.NoError(t, err)
	ctrl.Close()

	// Local countdown still reads an hour, but the server says zero.
	timers.remaining = 0
	remaining, err := ctrl.Resync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, StatusExpired, ctrl.Snapshot().Status)
}

func TestResyncOverwritesLocalValue(t *testing.T) {
	timers := &fakeTimers{remaining: 40 * time.Minute}
	ctrl := newTestController(t, timedExam(60), timers, &fakeSubmissions{getErr: ErrSubmissionNotFound})

	_, err := ctrl.Initialize(context.Background())
	require.NoError(t, err)
	ctrl.Close()

	timers.remaining = 10 * time.Minute
	remaining, err := ctrl.Resync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 600, remaining)
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	timers := &fakeTimers{remaining: 0}
	subs := &fakeSubmissions{getErr: ErrSubmissionNotFound}
	ctrl := newTestController(t, timedExam(60), timers, subs)

	_, err := ctrl.Initialize(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusExpired, ctrl.Snapshot().Status)

	assert.Equal(t, 0, ctrl.Tick())

	remaining, err := ctrl.Resync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	_, err = ctrl.Start(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, err = ctrl.Submit(context.Background(), submission.Draft{})
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Equal(t, 0, subs.createCalls)
	assert.Equal(t, StatusExpired, ctrl.Snapshot().Status)
}

func TestSubmitCompletesSession(t *testing.T) {
	task := timedExam(60)
	timers := &fakeTimers{remaining: 30 * time.Minute}
	subs := &fakeSubmissions{getErr: ErrSubmissionNotFound}
	ctrl := newTestController(t, task, timers, subs)

	_, err := ctrl.Initialize(context.Background())
	require.NoError(t, err)

	draft := submission.Draft{Answers: map[uuid.UUID]string{task.Questions[0].ID: "an answer"}}
	sub, err := ctrl.Submit(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionStatusSubmitted, sub.Status)
	assert.Equal(t, StatusCompleted, ctrl.Snapshot().Status)
	assert.False(t, ctrl.countdown.Running())
}

func TestSubmitValidationFailureMakesNoCall(t *testing.T) {
	task := timedExam(60)
	timers := &fakeTimers{remaining: 30 * time.Minute}
	subs := &fakeSubmissions{getErr: ErrSubmissionNotFound}
	ctrl := newTestController(t, task, timers, subs)

	_, err := ctrl.Initialize(context.Background())
	require.NoError(t, err)

	_, err = ctrl.Submit(context.Background(), submission.Draft{})
	var ve *submission.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Issues, 1)
	assert.Equal(t, submission.IssueMissingAnswer, ve.Issues[0].Code)
	assert.Equal(t, 0, subs.createCalls)
	assert.Equal(t, StatusInProgress, ctrl.Snapshot().Status)
}

func TestSubmitDuplicateIsSuccessEquivalent(t *testing.T) {
	task := timedExam(60)
	existing := &model.Submission{ID: uuid.New(), Status: model.SubmissionStatusSubmitted}
	timers := &fakeTimers{remaining: 30 * time.Minute}
	subs := &fakeSubmissions{getErr: ErrSubmissionNotFound, createErr: ErrDuplicateSubmission}
	ctrl := newTestController(t, task, timers, subs)

	_, err := ctrl.Initialize(context.Background())
	require.NoError(t, err)

	// The duplicate means a previous request already landed; the
	// re-fetch must find it.
	subs.getErr = nil
	subs.existing = existing

	draft := submission.Draft{Answers: map[uuid.UUID]string{task.Questions[0].ID: "x"}}
	sub, err := ctrl.Submit(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, sub.ID)
	assert.Equal(t, StatusCompleted, ctrl.Snapshot().Status)
}

func TestSubmitBeforeStartRejected(t *testing.T) {
	timers := &fakeTimers{remainingErr: ErrTimerNotFound}
	subs := &fakeSubmissions{getErr: ErrSubmissionNotFound}
	ctrl := newTestController(t, timedExam(60), timers, subs)

	_, err := ctrl.Initialize(context.Background())
	require.NoError(t, err)

	_, err = ctrl.Submit(context.Background(), submission.Draft{})
	require.ErrorIs(t, err, ErrNotStarted)
	assert.Equal(t, 0, subs.createCalls)
}

func TestFullLifecycle(t *testing.T) {
	task := timedExam(1)
	timers := &fakeTimers{remainingErr: ErrTimerNotFound}
	subs := &fakeSubmissions{getErr: ErrSubmissionNotFound}
	ctrl := newTestController(t, task, timers, subs)

	snap, err := ctrl.Initialize(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusNotStarted, snap.Status)

	remaining, err := ctrl.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, 60, remaining)
	ctrl.Close()

	for i := 0; i < 61; i++ {
		ctrl.Tick()
	}

	snap = ctrl.Snapshot()
	assert.Equal(t, StatusExpired, snap.Status)
	assert.Equal(t, 0, snap.RemainingSeconds)
}
