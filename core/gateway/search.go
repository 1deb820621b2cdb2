package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"SyncWave/logger"
	"SyncWave/model"
)

// Search 按关键词搜索歌曲，返回新的播放列表
func (c *Client) Search(ctx context.Context, query string) ([]model.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, reject(OpSearch, "search query is empty")
	}

	release, err := c.acquire(OpSearch)
	if err != nil {
		return nil, err
	}
	defer release()

	if c.cache != nil {
		if tracks, ok := c.cache.Get(ctx, query); ok {
			logger.Info("[Gateway] 搜索命中缓存", logger.String("query", query), logger.Int("tracks", len(tracks)))
			return tracks, nil
		}
	}

	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, reject(OpSearch, "cannot encode query")
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/search-song", bytes.NewReader(payload))
	if err != nil {
		return nil, NewTransportFailure(OpSearch, "building request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(ctx, OpSearch, req)
	if err != nil {
		return nil, err
	}
	tracks, err := decodePlaylist(OpSearch, body)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Put(ctx, query, tracks)
	}
	logger.Info("[Gateway] 搜索完成", logger.String("query", query), logger.Int("tracks", len(tracks)))
	return tracks, nil
}

// Refresh 用已有的氛围参数重新获取一批推荐
func (c *Client) Refresh(ctx context.Context, vibe model.VibeAnalysis) ([]model.Track, error) {
	release, err := c.acquire(OpRefresh)
	if err != nil {
		return nil, err
	}
	defer release()

	payload, err := encodeRefresh(vibe)
	if err != nil {
		return nil, reject(OpRefresh, "cannot encode vibe")
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/refresh-playlist", bytes.NewReader(payload))
	if err != nil {
		return nil, NewTransportFailure(OpRefresh, "building request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(ctx, OpRefresh, req)
	if err != nil {
		return nil, err
	}
	tracks, err := decodePlaylist(OpRefresh, body)
	if err != nil {
		return nil, err
	}
	logger.Info("[Gateway] 推荐已刷新", logger.Int("tracks", len(tracks)))
	return tracks, nil
}
