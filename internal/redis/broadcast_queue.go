package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"roadwatch/internal/domain"
	"roadwatch/pkg/e"

	"github.com/redis/go-redis/v9"
)

// BroadcastQueue decouples incident persistence from delivery: the
// engine enqueues finalized messages and the sender worker drains
// them. Losing a message is acceptable; blocking intake is not.
type BroadcastQueue struct {
	client *redis.Client
	key    string
}

func NewBroadcastQueue(client *redis.Client, key string) *BroadcastQueue {
	return &BroadcastQueue{client: client, key: key}
}

func (q *BroadcastQueue) Enqueue(ctx context.Context, msg domain.BroadcastMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, b).Err()
}

func (q *BroadcastQueue) BRPop(ctx context.Context, timeout time.Duration) (domain.BroadcastMessage, error) {
	var msg domain.BroadcastMessage

	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return msg, e.ErrQueueEmpty
		}
		return msg, err
	}
	if len(res) < 2 {
		return msg, redis.Nil
	}
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return msg, err
	}
	return msg, nil
}
