package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examsecure/examsecure-backend/internal/config"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// CheatArchiveWorker drains the cheat-event queue into PostgreSQL. Events
// are already counted against the attempt by the time they reach the
// queue; this path exists for post-exam review only.
type CheatArchiveWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewCheatArchiveWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *CheatArchiveWorker {
	return &CheatArchiveWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "cheat_archive_worker").Logger(),
	}
}

func (w *CheatArchiveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("CheatArchiveWorker started")

	buffer := make([]*cheatArchivePayload, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		// 1. Check flush conditions (time or size)
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		// 2. Check context (graceful shutdown)
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// 3. Fetch from Redis. BLPop blocks for 1 second and returns
		// immediately if data exists.
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.ArchiveCheatsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // Queue empty, loop back to check flush timer
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var payload cheatArchivePayload
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, &payload)
	}
}

// flushSafe attempts bulk insert, then fallback insert, then requeue.
func (w *CheatArchiveWorker) flushSafe(ctx context.Context, batch []*cheatArchivePayload) {
	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *CheatArchiveWorker) bulkInsert(ctx context.Context, batch []*cheatArchivePayload) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, p := range batch {
		rows = append(rows, []interface{}{
			p.AttemptID, p.ExamID, p.UserID, p.Category, p.Description, time.Unix(p.Timestamp, 0),
		})
	}

	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"cheat_events"},
		[]string{"attempt_id", "exam_id", "user_id", "category", "description", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (w *CheatArchiveWorker) fallbackInsert(ctx context.Context, batch []*cheatArchivePayload) {
	requeueList := make([]*cheatArchivePayload, 0)

	for _, p := range batch {
		_, err := w.pool.Exec(ctx,
			`INSERT INTO cheat_events (attempt_id, exam_id, user_id, category, description, recorded_at)
             VALUES ($1, $2, $3, $4, $5, $6)`,
			p.AttemptID, p.ExamID, p.UserID, p.Category, p.Description, time.Unix(p.Timestamp, 0),
		)
		if err != nil {
			// Requeue anything that fails so a DB outage loses nothing.
			w.log.Error().Err(err).Str("attempt_id", p.AttemptID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, p)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *CheatArchiveWorker) requeue(ctx context.Context, items []*cheatArchivePayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range items {
		data, _ := json.Marshal(p)
		pipe.RPush(ctx, config.WorkerKey.ArchiveCheatsQueue, data)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
	} else {
		w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
		// Sleep a bit to avoid thrashing if the DB is down hard
		time.Sleep(2 * time.Second)
	}
}

func (w *CheatArchiveWorker) shutdown(buffer []*cheatArchivePayload) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
