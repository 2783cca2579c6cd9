package redis

import (
	"context"
	"fmt"
	"time"

	"listing-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const DefaultSweepLockKey = "auction:sweeper:lease"

// releaseScript deletes the lease only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var _ outbound.SweepLock = (*SweepLock)(nil)

// SweepLock is a SET NX PX lease shared by every service instance
type SweepLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger zerolog.Logger
}

type SweepLockParams struct {
	RedisClient *redis.Client
	Key         string
	TTL         time.Duration
	Logger      zerolog.Logger
}

func NewSweepLock(params SweepLockParams) *SweepLock {
	key := params.Key
	if key == "" {
		key = DefaultSweepLockKey
	}
	return &SweepLock{
		client: params.RedisClient,
		key:    key,
		ttl:    params.TTL,
		logger: params.Logger.With().Str("component", "sweep_lock").Logger(),
	}
}

// TryAcquire takes the lease if no other instance holds it. The lease
// expires after the TTL even if release is never called.
func (l *SweepLock) TryAcquire(ctx context.Context) (func(), bool, error) {
	token := uuid.New().String()

	acquired, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire sweep lease: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			l.logger.Warn().Err(err).Msg("Failed to release sweep lease")
		}
	}
	return release, true, nil
}
