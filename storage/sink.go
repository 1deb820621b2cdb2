package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"SyncWave/config"
)

// Sink 合并结果的保存位置，返回可展示给用户的地址
type Sink interface {
	Save(ctx context.Context, name string, payload []byte) (string, error)
}

// NewSink 按配置选择保存后端
func NewSink(ctx context.Context, cfg *config.Config) (Sink, error) {
	switch cfg.DownloadBackend {
	case "", "local":
		return NewLocalSink(cfg.DownloadDir), nil
	case "minio":
		return NewMinioSink(ctx, cfg)
	default:
		return nil, fmt.Errorf("未知的下载后端: %s", cfg.DownloadBackend)
	}
}

// uniqueName 为 name 找一个 exists 返回 false 的名字。
// 冲突时依次尝试 "name (1).ext"、"name (2).ext" ...
func uniqueName(name string, exists func(candidate string) (bool, error)) (string, error) {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 1; i <= 9999; i++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s (%d)%s", base, i, ext)
	}
	return "", fmt.Errorf("无法为 %s 找到可用文件名", name)
}
