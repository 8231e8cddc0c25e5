package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campora/taskgate-backend/internal/config"
	"github.com/campora/taskgate-backend/internal/model"
	"github.com/campora/taskgate-backend/internal/repository"
	"github.com/campora/taskgate-backend/internal/submission"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Submission errors surfaced to handlers.
var (
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrDuplicateSubmission = errors.New("submission already exists")
	ErrSessionNotStarted   = errors.New("exam session has not been started")
)

// DraftPersistJob is the queue message asking the draft worker to
// write a student's Redis draft through to Postgres.
type DraftPersistJob struct {
	TaskID    uuid.UUID `json:"task_id"`
	StudentID uuid.UUID `json:"student_id"`
}

// SubmissionService handles submission creation, drafts, and grading.
// Create revalidates server-side with the same rules the client runs,
// so a tampered client cannot sneak an incomplete submission through.
type SubmissionService struct {
	submissionRepo *repository.SubmissionRepository
	draftRepo      *repository.DraftRepository
	taskRepo       *repository.TaskRepository
	timerSvc       *TimerService
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	submissionRepo *repository.SubmissionRepository,
	draftRepo *repository.DraftRepository,
	taskRepo *repository.TaskRepository,
	timerSvc *TimerService,
	rdb *redis.Client,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: submissionRepo,
		draftRepo:      draftRepo,
		taskRepo:       taskRepo,
		timerSvc:       timerSvc,
		rdb:            rdb,
		log:            log.With().Str("component", "submission_service").Logger(),
	}
}

// Get returns the student's submission for a task.
func (s *SubmissionService) Get(ctx context.Context, taskID, studentID uuid.UUID) (*model.Submission, error) {
	sub, err := s.submissionRepo.GetByTaskAndStudent(ctx, taskID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("load submission: %w", err)
	}
	return sub, nil
}

// Create validates and records a submission. Validation failures come
// back as *submission.ValidationError carrying every issue at once.
// A second submit for the same (task, student) pair returns
// ErrDuplicateSubmission; the row created first wins.
func (s *SubmissionService) Create(ctx context.Context, taskID, studentID uuid.UUID, req *model.SubmitTaskRequest) (*model.Submission, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("load task: %w", err)
	}
	if !task.Published {
		return nil, ErrTaskNotPublished
	}

	now := time.Now()

	sessionClosed := false
	if task.TimedExam() {
		timer, err := s.timerSvc.Get(ctx, taskID, studentID)
		if err != nil {
			if errors.Is(err, ErrTimerNotFound) {
				return nil, ErrSessionNotStarted
			}
			return nil, err
		}
		sessionClosed = timer.Remaining(now) <= 0
	}

	draft := draftFromRequest(req)
	if issues := submission.Validate(task, sessionClosed, draft, now); len(issues) > 0 {
		return nil, &submission.ValidationError{Issues: issues}
	}

	payload := submission.Build(task, studentID, draft, now)
	sub := &model.Submission{
		TaskID:      payload.TaskID,
		StudentID:   payload.StudentID,
		SubmittedAt: payload.SubmittedAt,
		Status:      payload.Status,
		Answers:     payload.Answers,
		FileURL:     payload.FileURL,
	}

	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateSubmission
		}
		return nil, fmt.Errorf("create submission: %w", err)
	}

	s.cleanupDraft(ctx, taskID, studentID)
	s.timerSvc.ClearActive(ctx, taskID, studentID)

	return sub, nil
}

// SaveDraft stores the student's work-in-progress answers in Redis and
// queues a job for the draft worker to persist them.
func (s *SubmissionService) SaveDraft(ctx context.Context, taskID, studentID uuid.UUID, req *model.SaveDraftRequest) error {
	key := config.CacheKey.DraftAnswersKey(studentID.String(), taskID.String())

	fields := make(map[string]interface{}, len(req.Answers))
	for _, a := range req.Answers {
		fields[a.QuestionID.String()] = a.AnswerText
	}
	if err := s.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("store draft: %w", err)
	}

	job, err := json.Marshal(DraftPersistJob{TaskID: taskID, StudentID: studentID})
	if err != nil {
		return fmt.Errorf("encode draft job: %w", err)
	}
	if err := s.rdb.LPush(ctx, config.WorkerKey.PersistDraftsQueue, job).Err(); err != nil {
		// The Redis copy survives; persistence just waits for the
		// next autosave.
		s.log.Warn().Err(err).Msg("failed to queue draft persistence")
	}
	return nil
}

// GetDraft returns the student's draft answers, preferring the live
// Redis copy and falling back to the persisted one.
func (s *SubmissionService) GetDraft(ctx context.Context, taskID, studentID uuid.UUID) (map[uuid.UUID]string, error) {
	key := config.CacheKey.DraftAnswersKey(studentID.String(), taskID.String())

	raw, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		s.log.Warn().Err(err).Msg("draft cache read failed, falling back to database")
	} else if len(raw) > 0 {
		answers := make(map[uuid.UUID]string, len(raw))
		for k, v := range raw {
			qid, perr := uuid.Parse(k)
			if perr != nil {
				continue
			}
			answers[qid] = v
		}
		return answers, nil
	}

	return s.draftRepo.GetByTaskAndStudent(ctx, taskID, studentID)
}

// SetFeedback records an instructor's grade and feedback.
func (s *SubmissionService) SetFeedback(ctx context.Context, taskID, studentID uuid.UUID, req *model.FeedbackRequest) error {
	err := s.submissionRepo.SetFeedback(ctx, taskID, studentID, req.Grade, req.Feedback)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSubmissionNotFound
		}
		return fmt.Errorf("set feedback: %w", err)
	}
	return nil
}

// ListByTask returns every submission for a task, for instructors.
func (s *SubmissionService) ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.Submission, error) {
	return s.submissionRepo.ListByTask(ctx, taskID)
}

func (s *SubmissionService) cleanupDraft(ctx context.Context, taskID, studentID uuid.UUID) {
	key := config.CacheKey.DraftAnswersKey(studentID.String(), taskID.String())
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Warn().Err(err).Msg("failed to drop draft cache")
	}
	if err := s.draftRepo.Delete(ctx, taskID, studentID); err != nil {
		s.log.Warn().Err(err).Msg("failed to drop persisted draft")
	}
}

func draftFromRequest(req *model.SubmitTaskRequest) submission.Draft {
	answers := make(map[uuid.UUID]string, len(req.Answers))
	for _, a := range req.Answers {
		answers[a.QuestionID] = a.AnswerText
	}
	return submission.Draft{Answers: answers, FileURL: req.FileURL}
}
