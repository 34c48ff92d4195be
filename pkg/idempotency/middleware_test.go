package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, time.Minute), mr
}

func TestSeenFirstThenDuplicate(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	key := s.Key("storekeeper.locations", 2, 41)
	assert.Equal(t, "idem:storekeeper.locations:2:41", key)

	seen, err := s.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = s.Seen(ctx, key)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestKeyExpires(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()
	key := s.RequestKey("book", "c@x.com", "abc")

	_, err := s.Seen(ctx, key)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	seen, err := s.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRelease(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	key := s.RequestKey("book", "c@x.com", "abc")

	_, err := s.Seen(ctx, key)
	require.NoError(t, err)
	require.NoError(t, s.Release(ctx, key))

	seen, err := s.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestSeenRedisDown(t *testing.T) {
	s, mr := newStore(t)
	mr.Close()
	_, err := s.Seen(context.Background(), "k")
	assert.Error(t, err)
}
