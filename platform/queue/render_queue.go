// Package queue implements the durable render-job channel on redis lists.
// Jobs move pending -> processing on dequeue (BLMOVE) and are removed from
// processing on ack; entries stranded in processing by a crashed worker are
// moved back to pending at worker startup, which is what makes delivery
// at-least-once rather than at-most-once.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go_lecture_backend/models"
	"go_lecture_backend/pkg/logging"

	"github.com/redis/go-redis/v9"
)

type JobQueue interface {
	Enqueue(ctx context.Context, job *models.RenderJob) error
	// Dequeue blocks up to timeout. A nil job with nil error means the wait
	// timed out. The returned token must be passed back to Ack or Nack.
	Dequeue(ctx context.Context, timeout time.Duration) (*models.RenderJob, string, error)
	Ack(ctx context.Context, token string) error
	Nack(ctx context.Context, token string) error
	RequeueOrphans(ctx context.Context) (int, error)
	ReplayFailed(ctx context.Context) (int, error)
}

type RedisQueue struct {
	rdb  *redis.Client
	name string
}

func NewRedisQueue(rdb *redis.Client, name string) *RedisQueue {
	return &RedisQueue{rdb: rdb, name: name}
}

func (q *RedisQueue) pendingKey() string    { return "queue:" + q.name }
func (q *RedisQueue) processingKey() string { return "queue:" + q.name + ":processing" }
func (q *RedisQueue) failedKey() string     { return "queue:" + q.name + ":failed" }

func (q *RedisQueue) Enqueue(ctx context.Context, job *models.RenderJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal render job: %w", err)
	}
	return q.rdb.LPush(ctx, q.pendingKey(), payload).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*models.RenderJob, string, error) {
	raw, err := q.rdb.BLMove(ctx, q.pendingKey(), q.processingKey(), "RIGHT", "LEFT", timeout).Result()
	if err == redis.Nil {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	var job models.RenderJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		// poison entry: park it on the failed list so it cannot wedge the queue
		logging.Logger.Error("unreadable job payload, parking", "queue", q.name, "error", err)
		q.rdb.LRem(ctx, q.processingKey(), 1, raw)
		q.rdb.LPush(ctx, q.failedKey(), raw)
		return nil, "", fmt.Errorf("unmarshal render job: %w", err)
	}
	return &job, raw, nil
}

func (q *RedisQueue) Ack(ctx context.Context, token string) error {
	return q.rdb.LRem(ctx, q.processingKey(), 1, token).Err()
}

// Nack parks the job on the failed list. There is no automatic retry; a
// failed job waits for an explicit operator replay.
func (q *RedisQueue) Nack(ctx context.Context, token string) error {
	pipe := q.rdb.TxPipeline()
	pipe.LRem(ctx, q.processingKey(), 1, token)
	pipe.LPush(ctx, q.failedKey(), token)
	_, err := pipe.Exec(ctx)
	return err
}

// RequeueOrphans moves jobs left in processing by a crashed worker back to
// pending. Call before starting consumers, never while peers are running
// against the same processing list.
func (q *RedisQueue) RequeueOrphans(ctx context.Context) (int, error) {
	moved := 0
	for {
		_, err := q.rdb.LMove(ctx, q.processingKey(), q.pendingKey(), "RIGHT", "LEFT").Result()
		if err == redis.Nil {
			return moved, nil
		}
		if err != nil {
			return moved, err
		}
		moved++
	}
}

// ReplayFailed re-queues everything on the failed list.
func (q *RedisQueue) ReplayFailed(ctx context.Context) (int, error) {
	moved := 0
	for {
		_, err := q.rdb.LMove(ctx, q.failedKey(), q.pendingKey(), "RIGHT", "LEFT").Result()
		if err == redis.Nil {
			return moved, nil
		}
		if err != nil {
			return moved, err
		}
		moved++
	}
}
