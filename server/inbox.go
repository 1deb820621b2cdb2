package server

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"SyncWave/logger"

	"github.com/fsnotify/fsnotify"
)

// FileChooser 接收新视频的一方
type FileChooser interface {
	ChooseFile(path string) error
}

// Inbox 监听目录中新出现的 mp4 文件，写入稳定后交给工作流
type Inbox struct {
	dir     string
	chooser FileChooser
	settle  time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewInbox 创建收件目录监听器，settle 为文件停止写入后的等待时间
func NewInbox(dir string, chooser FileChooser, settle time.Duration) *Inbox {
	if settle <= 0 {
		settle = time.Second
	}
	return &Inbox{
		dir:     dir,
		chooser: chooser,
		settle:  settle,
		pending: make(map[string]*time.Timer),
	}
}

// Run 阻塞直到 ctx 结束
func (in *Inbox) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建目录监听失败: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(in.dir); err != nil {
		return fmt.Errorf("监听目录 %s 失败: %w", in.dir, err)
	}
	logger.Info("[Inbox] 开始监听新视频", logger.String("dir", in.dir))

	defer in.stopPending()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 || !isVideo(event.Name) {
				continue
			}
			in.schedule(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("[Inbox] 目录监听出错", logger.ErrorField(err))
		case <-ctx.Done():
			return nil
		}
	}
}

func isVideo(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".mp4")
}

// schedule 每次写入都重新计时，避免把写了一半的文件交出去
func (in *Inbox) schedule(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if t, ok := in.pending[path]; ok {
		t.Reset(in.settle)
		return
	}
	in.pending[path] = time.AfterFunc(in.settle, func() {
		in.mu.Lock()
		delete(in.pending, path)
		in.mu.Unlock()
		in.offer(path)
	})
}

func (in *Inbox) offer(path string) {
	if err := in.chooser.ChooseFile(path); err != nil {
		logger.Warn("[Inbox] 新视频未被接受", logger.String("path", path), logger.ErrorField(err))
		return
	}
	logger.Info("[Inbox] 已提交新视频", logger.String("path", path))
}

func (in *Inbox) stopPending() {
	in.mu.Lock()
	defer in.mu.Unlock()
	for path, t := range in.pending {
		t.Stop()
		delete(in.pending, path)
	}
}
