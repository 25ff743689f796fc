package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examsecure/examsecure-backend/internal/config"
)

// ResultArchiveWorker drains the result queue into PostgreSQL. Results
// arrive one per terminated attempt, so this worker inserts row by row
// instead of batching.
type ResultArchiveWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewResultArchiveWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ResultArchiveWorker {
	return &ResultArchiveWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "result_archive_worker").Logger(),
	}
}

func (w *ResultArchiveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultArchiveWorker started")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.ArchiveResultsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue
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

		var payload resultArchivePayload
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		if err := w.insert(ctx, &payload); err != nil {
			w.log.Error().Err(err).Str("result_id", payload.ResultID).Msg("Insert failed, requeueing")
			w.requeue(ctx, &payload)
		}
	}
}

func (w *ResultArchiveWorker) insert(ctx context.Context, p *resultArchivePayload) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO exam_results
            (id, exam_id, exam_title, subject, user_id, score, total_marks,
             percentage, status, correct, incorrect, unanswered, completed_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
         ON CONFLICT (id) DO NOTHING`,
		p.ResultID, p.ExamID, p.ExamTitle, p.Subject, p.UserID, p.Score, p.TotalMarks,
		p.Percentage, p.Status, p.Correct, p.Incorrect, p.Unanswered, time.Unix(p.CompletedAt, 0),
	)
	return err
}

func (w *ResultArchiveWorker) requeue(ctx context.Context, p *resultArchivePayload) {
	data, _ := json.Marshal(p)
	if err := w.rdb.RPush(ctx, config.WorkerKey.ArchiveResultsQueue, data).Err(); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue result. Data loss occurred.")
		return
	}
	// Sleep a bit to avoid thrashing if the DB is down hard
	time.Sleep(2 * time.Second)
}
