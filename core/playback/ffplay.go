package playback

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"SyncWave/logger"
)

// FFplayPlayer 通过 ffplay 子进程播放试听片段
type FFplayPlayer struct {
	path string
}

// NewFFplayPlayer 创建播放器，path 为 ffplay 可执行文件
func NewFFplayPlayer(path string) *FFplayPlayer {
	if path == "" {
		path = "ffplay"
	}
	return &FFplayPlayer{path: path}
}

type processHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (h *processHandle) Stop() {
	h.cancel()
	<-h.done
}

func (h *processHandle) Done() <-chan struct{} {
	return h.done
}

// Start 启动 ffplay，音量映射到 0-100
func (p *FFplayPlayer) Start(url string, volume float64) (Handle, error) {
	ctx, cancel := context.WithCancel(context.Background())

	args := []string{
		"-nodisp",
		"-autoexit",
		"-loglevel", "quiet",
		"-volume", strconv.Itoa(int(volume*100 + 0.5)),
		url,
	}
	cmd := exec.CommandContext(ctx, p.path, args...)
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("ffplay start failed: %w", err)
	}

	h := &processHandle{cancel: cancel, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		if err != nil && ctx.Err() == nil {
			logger.Warn("[Playback] ffplay 异常退出", logger.String("url", url), logger.ErrorField(err))
		}
		cancel()
		close(h.done)
	}()
	return h, nil
}
