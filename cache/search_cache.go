package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"SyncWave/logger"
	"SyncWave/model"

	"github.com/go-redis/redis/v8"
)

const searchKeyPrefix = "syncwave:search:"

// DefaultSearchTTL 搜索结果缓存时间
const DefaultSearchTTL = 10 * time.Minute

// SearchCache 以查询词为键缓存搜索结果。
// 任何 Redis 错误都按未命中处理，不影响搜索本身。
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSearchCache 创建搜索缓存，client 为 nil 时所有操作都是空操作
func NewSearchCache(client *redis.Client, ttl time.Duration) *SearchCache {
	if ttl <= 0 {
		ttl = DefaultSearchTTL
	}
	return &SearchCache{client: client, ttl: ttl}
}

// SearchKey 生成搜索缓存键，查询词不区分大小写
func SearchKey(query string) string {
	return searchKeyPrefix + strings.ToLower(strings.TrimSpace(query))
}

// Get 读取缓存的播放列表
func (c *SearchCache) Get(ctx context.Context, query string) ([]model.Track, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, SearchKey(query)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("[SearchCache] 读取缓存失败", logger.String("query", query), logger.ErrorField(err))
		}
		return nil, false
	}

	var tracks []model.Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		logger.Warn("[SearchCache] 缓存内容无法解析，已忽略", logger.String("query", query), logger.ErrorField(err))
		return nil, false
	}
	return tracks, true
}

// Put 写入搜索结果
func (c *SearchCache) Put(ctx context.Context, query string, tracks []model.Track) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(tracks)
	if err != nil {
		logger.Warn("[SearchCache] 序列化搜索结果失败", logger.ErrorField(err))
		return
	}
	if err := c.client.Set(ctx, SearchKey(query), data, c.ttl).Err(); err != nil {
		logger.Warn("[SearchCache] 写入缓存失败", logger.String("query", query), logger.ErrorField(err))
	}
}

// Invalidate 删除某个查询的缓存
func (c *SearchCache) Invalidate(ctx context.Context, query string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, SearchKey(query)).Err()
}
