package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"SyncWave/logger"
	"SyncWave/metrics"
	"SyncWave/model"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// 操作种类
const (
	OpAnalyze = "analyze"
	OpSearch  = "search"
	OpRefresh = "refresh"
	OpMerge   = "merge"
)

// SearchCache 搜索结果缓存，未命中或出错都只影响性能
type SearchCache interface {
	Get(ctx context.Context, query string) ([]model.Track, bool)
	Put(ctx context.Context, query string, tracks []model.Track)
}

// Client SyncWave 后端 API 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      SearchCache
	inflight   map[string]*semaphore.Weighted
}

// NewClient 创建新的API客户端。
// 不设置超时：分析和合并可能持续数分钟，只通过 ctx 取消。
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		inflight: map[string]*semaphore.Weighted{
			OpAnalyze: semaphore.NewWeighted(1),
			OpSearch:  semaphore.NewWeighted(1),
			OpRefresh: semaphore.NewWeighted(1),
			OpMerge:   semaphore.NewWeighted(1),
		},
	}
}

// SetSearchCache 启用搜索缓存
func (c *Client) SetSearchCache(cache SearchCache) {
	c.cache = cache
}

// reject 本地校验失败，请求不会发出，只计数
func reject(op, message string) *RemoteFailure {
	metrics.RecordRejected(op)
	return NewValidationFailure(op, message)
}

// acquire 每种操作同一时刻只允许一个请求
func (c *Client) acquire(op string) (func(), error) {
	sem, ok := c.inflight[op]
	if !ok {
		return nil, fmt.Errorf("unknown operation %q", op)
	}
	if !sem.TryAcquire(1) {
		return nil, reject(op, "a request of this kind is already in flight")
	}
	return func() { sem.Release(1) }, nil
}

// do 发送请求并返回 2xx 响应体，其他情况统一转成 RemoteFailure
func (c *Client) do(ctx context.Context, op string, req *http.Request) ([]byte, error) {
	requestID := uuid.NewString()
	req = req.WithContext(ctx)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	logger.Info("[Gateway] 发送请求",
		logger.String("op", op),
		logger.String("method", req.Method),
		logger.String("url", req.URL.Redacted()),
		logger.String("request_id", requestID))

	fail := func(outcome string, rf *RemoteFailure) ([]byte, error) {
		rf.RequestID = requestID
		elapsed := time.Since(start)
		metrics.RecordRemote(op, outcome, elapsed.Seconds())
		logger.Warn("[Gateway] 请求失败",
			logger.String("op", op),
			logger.String("request_id", requestID),
			logger.Duration("elapsed", elapsed),
			logger.ErrorField(rf))
		return nil, rf
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail("transport", NewTransportFailure(op, "request failed", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail("transport", NewTransportFailure(op, "reading response failed", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail("server", NewServerFailure(op, resp.StatusCode, errorDetail(body, resp.Status), nil))
	}

	elapsed := time.Since(start)
	metrics.RecordRemote(op, "success", elapsed.Seconds())
	logger.Info("[Gateway] 请求完成",
		logger.String("op", op),
		logger.String("request_id", requestID),
		logger.Int("status", resp.StatusCode),
		logger.Int("bytes", len(body)),
		logger.Duration("elapsed", elapsed))
	return body, nil
}

// errorDetail 从 {"detail": "..."} 或 {"error": "..."} 中取出错误描述
func errorDetail(body []byte, status string) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		var detail string
		if len(payload.Detail) > 0 && json.Unmarshal(payload.Detail, &detail) == nil && detail != "" {
			return detail
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" || strings.HasPrefix(text, "{") || strings.HasPrefix(text, "<") {
		return status
	}
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
