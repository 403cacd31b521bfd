package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errors.New("lock not acquired")

// Locker guards a critical section identified by key across API instances.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// redisLocker holds a key with SET NX PX for at most ttl. The value is a
// per-holder token; only the holder that wrote it may delete the key.
type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisLocker creates a locker backed by SET NX keys under prefix.
func NewRedisLocker(client *redis.Client, prefix string, ttl time.Duration) Locker {
	return &redisLocker{client: client, ttl: ttl, prefix: prefix}
}

// WithLock runs fn while holding key. fn's context expires with the lock.
func (l *redisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	held, err := l.acquire(ctx, l.prefix+key)
	if err != nil {
		return err
	}
	defer held.release()

	lockCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()
	return fn(lockCtx)
}

type heldLock struct {
	client *redis.Client
	key    string
	token  string
}

func (l *redisLocker) acquire(ctx context.Context, key string) (*heldLock, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	return &heldLock{client: l.client, key: key, token: token}, nil
}

// compareAndDelete removes KEYS[1] only while it still holds ARGV[1].
var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// release runs on a fresh context so a cancelled request still unlocks.
func (h *heldLock) release() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = compareAndDelete.Run(ctx, h.client, []string{h.key}, h.token).Err()
}
