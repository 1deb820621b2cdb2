package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"SyncWave/logger"
	"SyncWave/model"
)

// Merge 请求服务端把选中歌曲从 StartSeconds 开始混入视频，返回渲染好的视频数据。
// 服务端的视频会话有有效期，过期后返回 404。
func (c *Client) Merge(ctx context.Context, r model.MergeRequest) ([]byte, error) {
	if r.SessionID == "" {
		return nil, reject(OpMerge, "no analysed video session")
	}
	if r.TrackName == "" || r.ArtistName == "" {
		return nil, reject(OpMerge, "track name and artist are required")
	}
	if r.StartSeconds < 0 {
		return nil, reject(OpMerge, "start time must not be negative")
	}

	release, err := c.acquire(OpMerge)
	if err != nil {
		return nil, err
	}
	defer release()

	params := url.Values{}
	params.Set("video_id", r.SessionID)
	params.Set("song_name", r.TrackName)
	params.Set("artist_name", r.ArtistName)
	params.Set("start_time", strconv.Itoa(r.StartSeconds))

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/merge-video?"+params.Encode(), nil)
	if err != nil {
		return nil, NewTransportFailure(OpMerge, "building request failed", err)
	}

	logger.Info("[Gateway] 请求合并视频",
		logger.String("video_id", r.SessionID),
		logger.String("song", r.TrackName),
		logger.String("artist", r.ArtistName),
		logger.Int("start_time", r.StartSeconds))

	body, err := c.do(ctx, OpMerge, req)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, NewServerFailure(OpMerge, 0, "malformed response: empty video payload", nil)
	}
	return body, nil
}
