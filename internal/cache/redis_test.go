package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client, "audionotes:"), mr
}

func TestCacheSetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "notes:list", []string{"a", "b"}, time.Minute))
	assert.True(t, mr.Exists("audionotes:notes:list"))

	var got []string
	require.NoError(t, c.Get(ctx, "notes:list", &got))
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestCacheMissAndExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var got []string
	assert.ErrorIs(t, c.Get(ctx, "absent", &got), ErrMiss)

	require.NoError(t, c.Set(ctx, "short", "v", time.Second))
	mr.FastForward(2 * time.Second)
	var s string
	assert.ErrorIs(t, c.Get(ctx, "short", &s), ErrMiss)
}

func TestCacheDelete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 1, 0))
	require.NoError(t, c.Delete(ctx, "k", "never-set"))

	var n int
	assert.ErrorIs(t, c.Get(ctx, "k", &n), ErrMiss)
}

func TestCacheUnavailable(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	var n int
	err := c.Get(context.Background(), "k", &n)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
	assert.Error(t, c.Ping(context.Background()))
}
