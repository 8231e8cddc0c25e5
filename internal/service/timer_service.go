package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/campora/taskgate-backend/internal/config"
	"github.com/campora/taskgate-backend/internal/model"
	"github.com/campora/taskgate-backend/internal/repository"
	"github.com/campora/taskgate-backend/internal/session"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Timer errors surfaced to handlers.
var (
	ErrTimerNotFound      = errors.New("timer not found")
	ErrTimerAlreadyExists = errors.New("timer already started")
	ErrTaskNotTimed       = errors.New("task has no timer")
	ErrTaskNotPublished   = errors.New("task is not published")
)

// TimerService manages per-student exam timers. The authoritative
// start time lives in Postgres; Redis caches it for the hot read path
// (countdown resync and the websocket stream).
type TimerService struct {
	timerRepo *repository.TimerRepository
	taskRepo  *repository.TaskRepository
	rdb       *redis.Client
	log       zerolog.Logger
}

// NewTimerService creates a new TimerService.
func NewTimerService(timerRepo *repository.TimerRepository, taskRepo *repository.TaskRepository, rdb *redis.Client, log zerolog.Logger) *TimerService {
	return &TimerService{
		timerRepo: timerRepo,
		taskRepo:  taskRepo,
		rdb:       rdb,
		log:       log.With().Str("component", "timer_service").Logger(),
	}
}

// Start begins the exam timer for a student. The start time is
// assigned by the database so all replicas agree on the deadline.
// Starting twice returns ErrTimerAlreadyExists.
func (s *TimerService) Start(ctx context.Context, taskID, studentID uuid.UUID) (*model.ExamTimer, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTimerNotFound
		}
		return nil, fmt.Errorf("load task: %w", err)
	}
	if !task.Published {
		return nil, ErrTaskNotPublished
	}
	if !task.TimedExam() {
		return nil, ErrTaskNotTimed
	}

	timer := &model.ExamTimer{
		TaskID:          taskID,
		StudentID:       studentID,
		DurationSeconds: *task.TimeLimitMinutes * 60,
	}
	if err := s.timerRepo.Create(ctx, timer); err != nil {
		if errors.Is(err, repository.ErrTimerExists) {
			return nil, ErrTimerAlreadyExists
		}
		return nil, fmt.Errorf("create timer: %w", err)
	}

	s.cacheTimer(ctx, timer)
	return timer, nil
}

// Get returns the timer for a student on a task, preferring the Redis
// cache and falling back to Postgres. A cache miss with a database hit
// self-heals the cache.
func (s *TimerService) Get(ctx context.Context, taskID, studentID uuid.UUID) (*model.ExamTimer, error) {
	startKey := config.CacheKey.TimerStartKey(studentID.String(), taskID.String())
	durKey := config.CacheKey.TimerDurationKey(studentID.String(), taskID.String())

	startStr, err := s.rdb.Get(ctx, startKey).Result()
	if err == nil {
		durStr, derr := s.rdb.Get(ctx, durKey).Result()
		if derr == nil {
			startUnix, perr1 := strconv.ParseInt(startStr, 10, 64)
			duration, perr2 := strconv.Atoi(durStr)
			if perr1 == nil && perr2 == nil {
				return &model.ExamTimer{
					TaskID:          taskID,
					StudentID:       studentID,
					StartedAt:       time.Unix(startUnix, 0),
					DurationSeconds: duration,
				}, nil
			}
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("timer cache read failed, falling back to database")
	}

	timer, err := s.timerRepo.GetByTaskAndStudent(ctx, taskID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTimerNotFound
		}
		return nil, fmt.Errorf("load timer: %w", err)
	}

	s.cacheTimer(ctx, timer)
	return timer, nil
}

// Remaining returns the wire-format timer state for a student.
func (s *TimerService) Remaining(ctx context.Context, taskID, studentID uuid.UUID, now time.Time) (*model.TimerState, error) {
	timer, err := s.Get(ctx, taskID, studentID)
	if err != nil {
		return nil, err
	}
	remaining := timer.Remaining(now)
	return &model.TimerState{
		TaskID:    timer.TaskID,
		StudentID: timer.StudentID,
		Remaining: session.FormatRemaining(remaining),
		Expired:   remaining <= 0,
	}, nil
}

func (s *TimerService) cacheTimer(ctx context.Context, timer *model.ExamTimer) {
	startKey := config.CacheKey.TimerStartKey(timer.StudentID.String(), timer.TaskID.String())
	durKey := config.CacheKey.TimerDurationKey(timer.StudentID.String(), timer.TaskID.String())

	// Keep cache entries a little past the deadline so late resyncs
	// still see the expired state without hitting Postgres.
	ttl := time.Until(timer.Deadline()) + time.Hour
	if ttl < time.Minute {
		ttl = time.Minute
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, startKey, strconv.FormatInt(timer.StartedAt.Unix(), 10), ttl)
	pipe.Set(ctx, durKey, strconv.Itoa(timer.DurationSeconds), ttl)
	pipe.ZAdd(ctx, config.CacheKey.ActiveTimersKey(), redis.Z{
		Score:  float64(timer.Deadline().Unix()),
		Member: config.CacheKey.ActiveTimerMember(timer.TaskID.String(), timer.StudentID.String()),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Msg("timer cache write failed")
	}
}

// ClearActive removes the student's timer from the active set, called
// once a submission lands so the expiry sweeper skips it.
func (s *TimerService) ClearActive(ctx context.Context, taskID, studentID uuid.UUID) {
	member := config.CacheKey.ActiveTimerMember(taskID.String(), studentID.String())
	if err := s.rdb.ZRem(ctx, config.CacheKey.ActiveTimersKey(), member).Err(); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear active timer")
	}
}
