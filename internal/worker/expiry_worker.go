package worker

import (
	"context"
	"strconv"
	"time"

	"github.com/campora/taskgate-backend/internal/config"
	"github.com/campora/taskgate-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	// ExpirySweepInterval is how often the sweeper scans for timers
	// that ran out without a submission.
	ExpirySweepInterval = 15 * time.Second

	// ExpiryBatchSize bounds one sweep so a backlog never produces an
	// unbounded UPDATE.
	ExpiryBatchSize = 200
)

// ExpiryWorker periodically marks run-out exam timers as expired and
// prunes them from the Redis active set. Expiry is a server-side fact
// either way (remaining time is computed from started_at), so the
// sweep only records it; nothing depends on the sweep for correctness.
type ExpiryWorker struct {
	timerRepo *repository.TimerRepository
	rdb       *redis.Client
	log       zerolog.Logger
}

// NewExpiryWorker creates a new ExpiryWorker.
func NewExpiryWorker(timerRepo *repository.TimerRepository, rdb *redis.Client, log zerolog.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		timerRepo: timerRepo,
		rdb:       rdb,
		log:       log.With().Str("component", "expiry_worker").Logger(),
	}
}

// Start begins the periodic sweep loop. Call in a goroutine.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	ticker := time.NewTicker(ExpirySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	timers, err := w.timerRepo.ListExpiredWithoutSubmission(ctx, ExpiryBatchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("Expired timer scan failed")
		return
	}
	if len(timers) == 0 {
		w.pruneActiveSet(ctx)
		return
	}

	if err := w.timerRepo.MarkExpired(ctx, timers); err != nil {
		w.log.Error().Err(err).Int("count", len(timers)).Msg("Mark expired failed")
		return
	}

	members := make([]interface{}, 0, len(timers))
	for _, t := range timers {
		members = append(members, config.CacheKey.ActiveTimerMember(t.TaskID.String(), t.StudentID.String()))
	}
	if err := w.rdb.ZRem(ctx, config.CacheKey.ActiveTimersKey(), members...).Err(); err != nil {
		w.log.Warn().Err(err).Msg("Active set prune failed")
	}

	w.log.Info().Int("count", len(timers)).Msg("Marked expired timers")
}

// pruneActiveSet drops active-set entries whose deadline score passed.
// These are timers whose student already submitted; the submission
// path removes them too, but a crashed request can leave one behind.
func (w *ExpiryWorker) pruneActiveSet(ctx context.Context) {
	now := time.Now().Unix()
	removed, err := w.rdb.ZRemRangeByScore(ctx, config.CacheKey.ActiveTimersKey(), "-inf", strconv.FormatInt(now, 10)).Result()
	if err != nil {
		w.log.Warn().Err(err).Msg("Active set prune failed")
		return
	}
	if removed > 0 {
		w.log.Debug().Int64("count", removed).Msg("Pruned stale active timers")
	}
}
