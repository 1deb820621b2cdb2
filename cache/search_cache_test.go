package cache

import (
	"context"
	"testing"
	"time"

	"SyncWave/model"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func TestSearchKey(t *testing.T) {
	assert.Equal(t, "syncwave:search:fein travis scott", SearchKey("  Fein Travis Scott "))
	assert.Equal(t, SearchKey("FEIN"), SearchKey("fein"))
}

func TestNilClientIsMiss(t *testing.T) {
	c := NewSearchCache(nil, 0)
	assert.Equal(t, DefaultSearchTTL, c.ttl)

	c.Put(context.Background(), "q", []model.Track{{Name: "A", Artist: "B"}})
	tracks, ok := c.Get(context.Background(), "q")
	assert.False(t, ok)
	assert.Nil(t, tracks)
	assert.NoError(t, c.Invalidate(context.Background(), "q"))
}

func TestUnreachableRedisIsMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewSearchCache(client, time.Minute)
	c.Put(context.Background(), "q", []model.Track{{Name: "A", Artist: "B"}})
	_, ok := c.Get(context.Background(), "q")
	assert.False(t, ok)
}
