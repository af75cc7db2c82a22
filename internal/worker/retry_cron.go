package worker

// retry_cron.go
// Failed jobs wait in the sorted set jobs:delayed, scored by the unix time of
// their next attempt. A background goroutine moves due entries back onto
// their original queue.

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DelayedSet        = "jobs:delayed"
	retryTickInterval = 5 * time.Second
	retryBatchSize    = 50
	retryBaseDelay    = 5 * time.Second
	retryMaxDelay     = 10 * time.Minute
)

type delayedJob struct {
	Queue string `json:"queue"`
	Job   Job    `json:"job"`
}

// computeRetryBackoff returns base * 2^(attempts-1), capped.
func computeRetryBackoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := retryBaseDelay
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= retryMaxDelay {
			return retryMaxDelay
		}
	}
	return d
}

func scheduleRetry(ctx context.Context, rdb *redis.Client, queue string, job Job, now time.Time) error {
	member, err := json.Marshal(delayedJob{Queue: queue, Job: job})
	if err != nil {
		return err
	}
	due := now.Add(computeRetryBackoff(job.Attempts))
	return rdb.ZAdd(ctx, DelayedSet, redis.Z{Score: float64(due.Unix()), Member: member}).Err()
}

// StartRetryCron launches a background goroutine that ticks every few
// seconds and re-queues due jobs. It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, rdb *redis.Client) {
	if rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				if n, err := requeueDue(ctx, rdb, time.Now()); err != nil {
					log.Error().Err(err).Msg("retry_cron: failed to requeue delayed jobs")
				} else if n > 0 {
					log.Info().Int("count", n).Msg("retry_cron: delayed jobs requeued")
				}
			}
		}
	}()
}

// requeueDue moves every job due at now back onto its queue. ZREM decides
// ownership, so several instances can run the cron concurrently.
func requeueDue(ctx context.Context, rdb *redis.Client, now time.Time) (int, error) {
	members, err := rdb.ZRangeByScore(ctx, DelayedSet, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: retryBatchSize,
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, m := range members {
		removed, err := rdb.ZRem(ctx, DelayedSet, m).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		var dj delayedJob
		if err := json.Unmarshal([]byte(m), &dj); err != nil {
			log.Error().Err(err).Msg("retry_cron: dropping malformed delayed job")
			continue
		}
		encoded, err := json.Marshal(dj.Job)
		if err != nil {
			continue
		}
		if err := rdb.LPush(ctx, dj.Queue, encoded).Err(); err != nil {
			return moved, fmt.Errorf("requeue %s: %w", dj.Queue, err)
		}
		moved++
	}
	return moved, nil
}
