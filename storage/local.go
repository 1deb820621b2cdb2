package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"SyncWave/core/utils"
	"SyncWave/logger"
)

// LocalSink 保存到本地下载目录，不覆盖已有文件
type LocalSink struct {
	dir string
}

// NewLocalSink 创建本地保存后端
func NewLocalSink(dir string) *LocalSink {
	if dir == "" {
		dir = "."
	}
	return &LocalSink{dir: dir}
}

// Dir 下载目录
func (s *LocalSink) Dir() string {
	return s.dir
}

// Save 写入文件，返回实际路径
func (s *LocalSink) Save(ctx context.Context, name string, payload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := utils.EnsureDir(s.dir); err != nil {
		return "", err
	}

	unique, err := uniqueName(name, s.exists)
	if err != nil {
		return "", err
	}
	target := filepath.Join(s.dir, unique)

	// O_EXCL 防止并发写入时覆盖同名文件
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("写入文件失败: %w", err)
	}

	logger.Info("[Storage] 已保存到本地", logger.String("path", target), logger.Int("bytes", len(payload)))
	return target, nil
}

func (s *LocalSink) exists(name string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("检查文件失败: %w", err)
	}
	return true, nil
}
