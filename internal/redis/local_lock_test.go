package redisclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerExcludesSameKey(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	err := l.WithLock(ctx, "doctor:1", func(ctx context.Context) error {
		inner := l.WithLock(ctx, "doctor:1", func(context.Context) error { return nil })
		assert.ErrorIs(t, inner, ErrLockNotAcquired)

		other := l.WithLock(ctx, "doctor:2", func(context.Context) error { return nil })
		assert.NoError(t, other)
		return nil
	})
	require.NoError(t, err)

	assert.NoError(t, l.WithLock(ctx, "doctor:1", func(context.Context) error { return nil }))
}

func TestLocalLockerReleasesOnError(t *testing.T) {
	l := NewLocalLocker()
	boom := errors.New("boom")

	err := l.WithLock(context.Background(), "k", func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	assert.NoError(t, l.WithLock(context.Background(), "k", func(context.Context) error { return nil }))
}
