package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const velocityWindow = time.Minute

// VelocityStore implements ports.VelocityLimiter with a fixed-window
// counter per user: INCR + EXPIRE on a key scoped by windowID.
type VelocityStore struct {
	client *goredis.Client
	prefix string
}

// NewVelocityStore creates a Redis-backed velocity limiter.
func NewVelocityStore(client *goredis.Client) *VelocityStore {
	return &VelocityStore{
		client: client,
		prefix: "velocity:",
	}
}

// Allow checks whether the user is within its per-minute request budget.
func (s *VelocityStore) Allow(ctx context.Context, userID uuid.UUID, limit int64) (bool, error) {
	windowID := time.Now().Unix() / int64(velocityWindow.Seconds())
	key := fmt.Sprintf("%s%s:%d", s.prefix, userID, windowID)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis velocity incr: %w", err)
	}

	// Set expiry only on first increment (new window)
	if count == 1 {
		s.client.Expire(ctx, key, velocityWindow+time.Second) // +1s safety margin
	}

	return count <= limit, nil
}
