package notificationsink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ChannelQueue is an in-process bounded queue.
type ChannelQueue struct {
	ch chan domain.CreateNotificationParams
}

// NewChannelQueue returns queue holding at most size notifications.
func NewChannelQueue(size int) *ChannelQueue {
	if size <= 0 {
		size = 1
	}

	return &ChannelQueue{ch: make(chan domain.CreateNotificationParams, size)}
}

// Push implements Queue. It returns ErrQueueFull instead of waiting for a free slot.
func (q *ChannelQueue) Push(ctx context.Context, n domain.CreateNotificationParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case q.ch <- n:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pop implements Queue.
func (q *ChannelQueue) Pop(ctx context.Context) (domain.CreateNotificationParams, error) {
	select {
	case n := <-q.ch:
		return n, nil
	case <-ctx.Done():
		return domain.CreateNotificationParams{}, ctx.Err()
	}
}

// Len returns the number of queued notifications.
func (q *ChannelQueue) Len() int {
	return len(q.ch)
}

// DefaultRedisKey is the list notifications are pushed to.
const DefaultRedisKey = "petwallet:notifications"

const popWait = time.Second

// RedisQueue keeps notifications in a Redis list so they survive a restart of the API process.
type RedisQueue struct {
	client redis.UniversalClient
	key    string
}

// NewRedisQueue returns queue over the given list key.
func NewRedisQueue(client redis.UniversalClient, key string) *RedisQueue {
	if key == "" {
		key = DefaultRedisKey
	}

	return &RedisQueue{client: client, key: key}
}

// Push implements Queue.
func (q *RedisQueue) Push(ctx context.Context, n domain.CreateNotificationParams) error {
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	return q.client.LPush(ctx, q.key, b).Err()
}

// Pop implements Queue. It polls with a bounded BRPOP so a cancelled ctx is noticed.
func (q *RedisQueue) Pop(ctx context.Context) (domain.CreateNotificationParams, error) {
	var n domain.CreateNotificationParams

	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		res, err := q.client.BRPop(ctx, popWait, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}

		if err != nil {
			return n, err
		}

		// res holds the key followed by the value.
		if err := json.Unmarshal([]byte(res[1]), &n); err != nil {
			return n, fmt.Errorf("unmarshal notification: %w", err)
		}

		return n, nil
	}
}
