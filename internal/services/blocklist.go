package services

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const blocklistPrefix = "blocklist:"

// Blocklist suspends users without touching their balance. Entries live in
// Redis and may expire on their own.
type Blocklist struct {
	client *redis.Client
}

func NewBlocklist(client *redis.Client) *Blocklist {
	return &Blocklist{client: client}
}

// Block suspends userID for ttl, or until Unblock when ttl is zero.
func (b *Blocklist) Block(ctx context.Context, userID, reason string, ttl time.Duration) error {
	if reason == "" {
		reason = "blocked"
	}
	return b.client.Set(ctx, blocklistPrefix+userID, reason, ttl).Err()
}

func (b *Blocklist) Unblock(ctx context.Context, userID string) error {
	return b.client.Del(ctx, blocklistPrefix+userID).Err()
}

func (b *Blocklist) IsBlocked(ctx context.Context, userID string) (bool, error) {
	val, err := b.client.Get(ctx, blocklistPrefix+userID).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return val != "", nil
}
