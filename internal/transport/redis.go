package transport

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ingressKey  = "messages"
	dbIntentKey = "db"

	// pullTimeout bounds each BRPop call so PullCommand returns (nil, nil)
	// on an idle queue instead of blocking forever, letting the caller's
	// loop check for shutdown between pulls.
	pullTimeout = 5 * time.Second
)

// RedisQueue is the production Queue backed by a single redis.Client,
// grounded on original_source's redis_manager.rs (BRPop off "messages",
// pub/sub reply per client ID, LPush onto "db" and per-market streams).
type RedisQueue struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) PullCommand(ctx context.Context) ([]byte, error) {
	result, err := q.client.BRPop(ctx, pullTimeout, ingressKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPop returns [key, value]; we only asked for one key.
	return []byte(result[1]), nil
}

func (q *RedisQueue) PublishReply(ctx context.Context, clientID string, payload []byte) error {
	return q.client.Publish(ctx, clientID, payload).Err()
}

func (q *RedisQueue) PushDbIntent(ctx context.Context, payload []byte) error {
	return q.client.LPush(ctx, dbIntentKey, payload).Err()
}

func (q *RedisQueue) PushDepthEvent(ctx context.Context, market string, payload []byte) error {
	return q.client.LPush(ctx, "depth@"+market, payload).Err()
}

func (q *RedisQueue) PushTradeEvent(ctx context.Context, market string, payload []byte) error {
	return q.client.LPush(ctx, "trade@"+market, payload).Err()
}
