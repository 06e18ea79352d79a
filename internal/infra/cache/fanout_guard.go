package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const fanoutKeyPrefix = "fanout:live_session:"

// FanoutGuard makes sure a live session is announced at most once, even if
// create is replayed or two instances race on the same session.
type FanoutGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewFanoutGuard(rdb *redis.Client, ttl time.Duration) *FanoutGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &FanoutGuard{rdb: rdb, ttl: ttl}
}

func fanoutKey(sessionID uuid.UUID) string {
	return fanoutKeyPrefix + sessionID.String()
}

// Acquire reports true for the first caller only.
func (g *FanoutGuard) Acquire(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	return g.rdb.SetNX(ctx, fanoutKey(sessionID), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
}

// Release drops the marker so a later attempt may announce again.
func (g *FanoutGuard) Release(ctx context.Context, sessionID uuid.UUID) error {
	return g.rdb.Del(ctx, fanoutKey(sessionID)).Err()
}
