package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/campora/taskgate-backend/internal/config"
	"github.com/campora/taskgate-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DraftWorker consumes persist_drafts_queue and writes the Redis draft
// copy through to PostgreSQL. Redis stays the live store; this keeps a
// durable fallback in case the cache is flushed mid-exam.
type DraftWorker struct {
	draftRepo *repository.DraftRepository
	rdb       *redis.Client
	log       zerolog.Logger
}

// NewDraftWorker creates a new DraftWorker.
func NewDraftWorker(draftRepo *repository.DraftRepository, rdb *redis.Client, log zerolog.Logger) *DraftWorker {
	return &DraftWorker{
		draftRepo: draftRepo,
		rdb:       rdb,
		log:       log.With().Str("component", "draft_worker").Logger(),
	}
}

type draftJob struct {
	TaskID    string `json:"task_id"`
	StudentID string `json:"student_id"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *DraftWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *DraftWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistDraftsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var job draftJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.persistDraft(ctx, &job); err != nil {
		w.log.Error().Err(err).
			Str("student_id", job.StudentID).
			Str("task_id", job.TaskID).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistDraftsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *DraftWorker) persistDraft(ctx context.Context, job *draftJob) error {
	taskID, err := uuid.Parse(job.TaskID)
	if err != nil {
		return err
	}
	studentID, err := uuid.Parse(job.StudentID)
	if err != nil {
		return err
	}

	key := config.CacheKey.DraftAnswersKey(job.StudentID, job.TaskID)
	raw, err := w.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		// Draft was cleared (submission landed) between enqueue and
		// processing. Nothing to persist.
		return nil
	}

	answers := make(map[uuid.UUID]string, len(raw))
	for k, v := range raw {
		qid, perr := uuid.Parse(k)
		if perr != nil {
			continue
		}
		answers[qid] = v
	}

	return w.draftRepo.Upsert(ctx, taskID, studentID, answers)
}

// drain processes all remaining items in the queue before shutdown.
func (w *DraftWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistDraftsQueue).Result()
		if err != nil {
			break
		}

		var job draftJob
		if err := json.Unmarshal([]byte(result), &job); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persistDraft(ctx, &job); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistDraftsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
