package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examsecure/examsecure-backend/internal/config"
	"github.com/examsecure/examsecure-backend/internal/model"
)

// cheatArchivePayload is the queue wire format for one recorded event.
type cheatArchivePayload struct {
	AttemptID   string `json:"attempt_id"`
	ExamID      string `json:"exam_id"`
	UserID      string `json:"user_id"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Timestamp   int64  `json:"timestamp"`
}

// resultArchivePayload is the queue wire format for one finalized result.
type resultArchivePayload struct {
	ResultID    string `json:"result_id"`
	ExamID      string `json:"exam_id"`
	ExamTitle   string `json:"exam_title"`
	Subject     string `json:"subject"`
	UserID      string `json:"user_id"`
	Score       int    `json:"score"`
	TotalMarks  int    `json:"total_marks"`
	Percentage  int    `json:"percentage"`
	Status      string `json:"status"`
	Correct     int    `json:"correct"`
	Incorrect   int    `json:"incorrect"`
	Unanswered  int    `json:"unanswered"`
	CompletedAt int64  `json:"completed_at"`
}

// RedisArchiver pushes events and results onto Redis queues for the
// archive workers. Pushes are fire-and-forget from the session's point of
// view; a Redis outage costs archival, never a live attempt.
type RedisArchiver struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisArchiver creates the queue-backed archiver.
func NewRedisArchiver(rdb *redis.Client, log zerolog.Logger) *RedisArchiver {
	return &RedisArchiver{
		rdb: rdb,
		log: log.With().Str("component", "archiver").Logger(),
	}
}

// ArchiveCheatEvent enqueues one recorded event.
func (a *RedisArchiver) ArchiveCheatEvent(attemptID, examID, userID string, ev model.CheatEvent) {
	a.push(config.WorkerKey.ArchiveCheatsQueue, cheatArchivePayload{
		AttemptID:   attemptID,
		ExamID:      examID,
		UserID:      userID,
		Category:    string(ev.Category),
		Description: ev.Description,
		Timestamp:   ev.Timestamp.Unix(),
	})
}

// ArchiveResult enqueues one finalized result.
func (a *RedisArchiver) ArchiveResult(res *model.ExamResult) {
	a.push(config.WorkerKey.ArchiveResultsQueue, resultArchivePayload{
		ResultID:    res.ID,
		ExamID:      res.ExamID,
		ExamTitle:   res.ExamTitle,
		Subject:     res.Subject,
		UserID:      res.UserID,
		Score:       res.Score,
		TotalMarks:  res.TotalMarks,
		Percentage:  res.Percentage,
		Status:      string(res.Status),
		Correct:     res.Breakdown.Correct,
		Incorrect:   res.Breakdown.Incorrect,
		Unanswered:  res.Breakdown.Unanswered,
		CompletedAt: res.CompletedAt.Unix(),
	})
}

func (a *RedisArchiver) push(queue string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		a.log.Error().Err(err).Str("queue", queue).Msg("Marshal archive payload failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.rdb.RPush(ctx, queue, data).Err(); err != nil {
		a.log.Error().Err(err).Str("queue", queue).Msg("Queue push failed, archive entry lost")
	}
}
