package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/heibot/sanction"
)

// unlockScript deletes the key only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-instance Redis lock (SET NX PX) shared across
// evaluator processes.
type RedisLocker struct {
	Client *redis.Client

	// TTL bounds how long a crashed holder blocks others.
	TTL time.Duration

	// RetryInterval is the poll interval while waiting.
	RetryInterval time.Duration

	// Prefix is prepended to every key.
	Prefix string
}

// NewRedisLocker connects to redisURL and checks the connection.
func NewRedisLocker(ctx context.Context, redisURL string, ttl time.Duration) (*RedisLocker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%w: redis url: %v", sanction.ErrInvalidConfig, err)
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, err
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisLocker{
		Client:        rdb,
		TTL:           ttl,
		RetryInterval: 25 * time.Millisecond,
		Prefix:        "sanction/lock/",
	}, nil
}

// Lock polls SET NX until the key is acquired or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := l.Prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.Client.SetNX(ctx, fullKey, token, l.TTL).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s: %v", sanction.ErrLockNotAcquired, key, err)
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					// Release even if the caller's ctx is already cancelled.
					releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
					defer cancel()
					unlockScript.Run(releaseCtx, l.Client, []string{fullKey}, token)
				})
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", sanction.ErrLockNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close closes the Redis client.
func (l *RedisLocker) Close() error {
	return l.Client.Close()
}
