package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func unreachableRedis(t *testing.T) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisCacheFromClient(client, "phish:verdict:", zaptest.NewLogger(t))
	t.Cleanup(c.Stop)
	return c
}

func TestRedisCache_Key(t *testing.T) {
	c := unreachableRedis(t)
	assert.Equal(t, "phish:verdict:abc", c.key("abc"))
}

func TestRedisCache_ExpiredSetIsSkipped(t *testing.T) {
	c := unreachableRedis(t)
	assert.NoError(t, c.Set(context.Background(), testEntry("fp", -time.Second)))
}

func TestRedisCache_ConnectionErrorIsNotAMiss(t *testing.T) {
	c := unreachableRedis(t)
	_, err := c.Get(context.Background(), "fp")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, c.Cleanup(context.Background()))
}
