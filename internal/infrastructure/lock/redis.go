package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bali7319/marketplace-core/internal/domain"
	"github.com/bali7319/marketplace-core/internal/ports"
)

// DefaultLockTTL bounds how long a crashed replica can keep a
// connection locked.
const DefaultLockTTL = 5 * time.Minute

// RedisLocker serializes catalog replacement per connection across
// replicas using SET NX with a TTL. The release script only deletes
// the key when the stored token still matches, so an expired lock
// taken over by another replica is never released by the old owner.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisLocker creates a Redis-backed connection locker.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl, logger: logger}
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// TryLock acquires the distributed lock or fails immediately.
func (l *RedisLocker) TryLock(ctx context.Context, connectionID string) (func(), error) {
	key := "marketplace:sync:" + connectionID
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: connection %s", domain.ErrSyncInProgress, connectionID)
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			l.logger.Warn().Err(err).Str("connection_id", connectionID).Msg("failed to release sync lock")
		}
	}
	return release, nil
}

var _ ports.ConnLocker = (*RedisLocker)(nil)
