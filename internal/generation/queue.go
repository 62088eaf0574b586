package generation

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	QueueKey    = "generation:queue"
	attemptsKey = "generation:attempts"
)

// Queue is a Redis list of video ids awaiting submission to the backend.
type Queue struct {
	client *redis.Client
	key    string
}

func NewQueue(client *redis.Client) *Queue {
	return &Queue{client: client, key: QueueKey}
}

func (q *Queue) Enqueue(ctx context.Context, videoID string) error {
	return q.client.RPush(ctx, q.key, videoID).Err()
}

// Pop blocks up to timeout for the next id. It returns "" when the wait
// times out.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	result, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	// result[0] is the key, result[1] is the value
	return result[1], nil
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// attempt records one more submission attempt for the video and returns the total.
func (q *Queue) attempt(ctx context.Context, videoID string) (int64, error) {
	return q.client.HIncrBy(ctx, attemptsKey, videoID, 1).Result()
}

func (q *Queue) clearAttempts(ctx context.Context, videoID string) error {
	return q.client.HDel(ctx, attemptsKey, videoID).Err()
}
