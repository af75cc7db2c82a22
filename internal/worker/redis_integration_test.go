//go:build integration

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bamskydbest/pharm-back/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestProcessJob_RetryThenDLQ(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()
	d := NewDispatcher(rdb, 2)
	d.Register(QueueLoyalty, func(context.Context, json.RawMessage) error { return errors.New("db unavailable") })

	raw, _ := json.Marshal(Job{Type: "loyalty", Payload: json.RawMessage(`{"sale_id":"x"}`)})
	d.processJob(ctx, QueueLoyalty, string(raw))

	delayed, err := rdb.ZCard(ctx, DelayedSet).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), delayed)

	// Nothing is due yet.
	moved, err := requeueDue(ctx, rdb, time.Now())
	require.NoError(t, err)
	assert.Zero(t, moved)

	moved, err = requeueDue(ctx, rdb, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	queued, err := rdb.RPop(ctx, QueueLoyalty).Result()
	require.NoError(t, err)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(queued), &job))
	assert.Equal(t, 1, job.Attempts)

	// Second failure reaches maxAttempts.
	d.processJob(ctx, QueueLoyalty, queued)
	dead, err := DLQLength(ctx, rdb, QueueLoyalty)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dead)

	stats, err := QueueStats(ctx, rdb)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats[DelayedSet])
	assert.Equal(t, int64(1), stats[DLQPrefix+QueueLoyalty])
}

func TestProcessJob_PermanentGoesStraightToDLQ(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()
	d := NewDispatcher(rdb, 5)
	d.Register(QueueReceiptEmail, func(context.Context, json.RawMessage) error {
		return Permanent(errors.New("sale not found"))
	})

	raw, _ := json.Marshal(Job{Type: "receipt_email", Payload: json.RawMessage(`{}`)})
	d.processJob(ctx, QueueReceiptEmail, string(raw))

	dead, err := DLQLength(ctx, rdb, QueueReceiptEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dead)
	delayed, err := rdb.ZCard(ctx, DelayedSet).Result()
	require.NoError(t, err)
	assert.Zero(t, delayed)
}

func TestPublishSaleCompleted_EnqueuesOnRedis(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()
	d := NewDispatcher(rdb, 5)

	require.NoError(t, d.PublishSaleCompleted(ctx, saleEvent(nil)))
	n, err := rdb.LLen(ctx, QueueLoyalty).Result()
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, d.PublishSaleCompleted(ctx, saleEvent(&dto.SaleCustomerRequest{Phone: "0244000111"})))
	n, err = rdb.LLen(ctx, QueueLoyalty).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
