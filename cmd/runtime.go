package cmd

import (
	"context"
	"fmt"

	"SyncWave/cache"
	"SyncWave/config"
	"SyncWave/core/gateway"
	"SyncWave/core/playback"
	"SyncWave/core/session"
	"SyncWave/core/workflow"
	"SyncWave/logger"
	"SyncWave/storage"
)

// runtime 把配置装配成一个可用的工作流
type runtime struct {
	client  *gateway.Client
	preview *playback.Controller
	orch    *workflow.Orchestrator
	closers []func() error
}

func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	rt := &runtime{client: gateway.NewClient(cfg.APIBaseURL)}

	if cfg.SearchCacheEnabled {
		if err := cache.ConnectRedis(cfg); err != nil {
			// 缓存只影响速度，连不上就不用
			logger.Warn("[Runtime] Redis 不可用，搜索缓存已关闭", logger.ErrorField(err))
		} else {
			rt.client.SetSearchCache(cache.NewSearchCache(cache.RedisClient, cfg.SearchCacheTTL))
			rt.closers = append(rt.closers, cache.CloseRedis)
			logger.Info("[Runtime] 搜索缓存已启用", logger.Duration("ttl", cfg.SearchCacheTTL))
		}
	}

	sink, err := storage.NewSink(ctx, cfg)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("初始化下载后端失败: %w", err)
	}

	rt.preview = playback.NewController(playback.NewFFplayPlayer(cfg.FFplayPath), cfg.PreviewVolume)
	rt.orch = workflow.NewOrchestrator(session.NewStore(), rt.client, rt.preview, sink)

	logger.Info("[Runtime] 初始化完成",
		logger.String("api", cfg.APIBaseURL),
		logger.String("download_backend", cfg.DownloadBackend))
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.preview != nil {
		rt.preview.StopAll()
	}
	for _, closeFn := range rt.closers {
		if err := closeFn(); err != nil {
			logger.Warn("[Runtime] 关闭资源失败", logger.ErrorField(err))
		}
	}
}
