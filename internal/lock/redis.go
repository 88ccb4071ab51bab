package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	r "github.com/redis/go-redis/v9"

	"github.com/unclebandit/talentreach-backend/internal/logger"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = r.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every process pointed at the same Redis.
type RedisLocker struct {
	rdb    *r.Client
	prefix string
}

func NewRedisLocker(rdb *r.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb, prefix: "talentreach:lock:"}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.prefix+key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's ctx may already be done when the lock is released.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.rdb, []string{l.prefix + key}, token).Err(); err != nil {
				logger.L.Warn("releasing lock failed", "key", key, "error", err)
			}
		})
	}, nil
}
