package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecocycle/ecocycle/pkg/logger"
)

func setupCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisCacheFromClient(client, logger.New("error", "json", "stdout")), mr
}

func TestRedisCache_SetAndGet(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "leaderboard:all_time:1", `{"page":1}`, time.Minute))

	val, err := c.Get(ctx, "leaderboard:all_time:1")
	require.NoError(t, err)
	assert.Equal(t, `{"page":1}`, val)
}

func TestRedisCache_MissingKeyReturnsEmpty(t *testing.T) {
	c, _ := setupCache(t)

	val, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestRedisCache_Expiration(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "ephemeral", "x", time.Second))
	mr.FastForward(2 * time.Second)

	val, err := c.Get(ctx, "ephemeral")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestRedisCache_Del(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", 0))
	require.NoError(t, c.Set(ctx, "b", "2", 0))
	require.NoError(t, c.Del(ctx, "a", "b"))
	require.NoError(t, c.Del(ctx))

	val, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, val)
}
