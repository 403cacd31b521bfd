package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*miniredis.Miniredis, Locker) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisLocker(client, "lock:", 5*time.Second)
}

func TestRedisLockerHoldsAndReleases(t *testing.T) {
	mr, l := newTestLocker(t)

	err := l.WithLock(context.Background(), "doctor:7", func(ctx context.Context) error {
		assert.True(t, mr.Exists("lock:doctor:7"))
		assert.Equal(t, 5*time.Second, mr.TTL("lock:doctor:7"))

		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("lock:doctor:7"))
}

func TestRedisLockerBusyKey(t *testing.T) {
	mr, l := newTestLocker(t)
	require.NoError(t, mr.Set("lock:doctor:7", "someone-else"))

	called := false
	err := l.WithLock(context.Background(), "doctor:7", func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrLockNotAcquired)
	assert.False(t, called)

	got, err := mr.Get("lock:doctor:7")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLockerKeepsKeyTakenOverByAnotherHolder(t *testing.T) {
	mr, l := newTestLocker(t)

	err := l.WithLock(context.Background(), "doctor:7", func(context.Context) error {
		// the lock expired and another instance acquired it
		return mr.Set("lock:doctor:7", "next-holder")
	})
	require.NoError(t, err)

	got, err := mr.Get("lock:doctor:7")
	require.NoError(t, err)
	assert.Equal(t, "next-holder", got)
}

func TestRedisLockerReleasesOnError(t *testing.T) {
	mr, l := newTestLocker(t)
	boom := errors.New("boom")

	err := l.WithLock(context.Background(), "doctor:7", func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("lock:doctor:7"))

	assert.NoError(t, l.WithLock(context.Background(), "doctor:7", func(context.Context) error { return nil }))
}
