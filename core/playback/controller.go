package playback

import (
	"fmt"
	"sync"

	"SyncWave/logger"
	"SyncWave/metrics"
)

// DefaultVolume 试听的固定音量
const DefaultVolume = 0.5

// Handle 一次正在进行的播放
type Handle interface {
	// Stop 停止播放，返回时声音已经完全停止
	Stop()
	// Done 播放结束（自然结束或被停止）时关闭
	Done() <-chan struct{}
}

// Player 真正发声的播放端口
type Player interface {
	Start(url string, volume float64) (Handle, error)
}

// Controller 管理试听，任意时刻最多只有一个试听在播放
type Controller struct {
	mu        sync.Mutex
	player    Player
	volume    float64
	current   string
	handle    Handle
	seq       uint64
	listeners []func(url string)
}

// NewController 创建试听控制器
func NewController(player Player, volume float64) *Controller {
	if volume < 0 || volume > 1 {
		volume = DefaultVolume
	}
	return &Controller{player: player, volume: volume}
}

// OnChange 注册播放状态变化回调，url 为空表示静音。
// 回调在控制器内部锁中执行，不能再调用控制器。
func (c *Controller) OnChange(fn func(url string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Current 当前正在试听的地址，没有则为空
func (c *Controller) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Play 切换试听：同一地址再次调用即停止，否则先彻底停掉旧的再开始新的
func (c *Controller) Play(url string) error {
	if url == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle != nil && c.current == url {
		c.stopLocked()
		logger.Debug("[Playback] 停止试听", logger.String("url", url))
		c.notifyLocked()
		return nil
	}

	c.stopLocked()

	h, err := c.player.Start(url, c.volume)
	if err != nil {
		c.notifyLocked()
		return fmt.Errorf("启动试听失败: %w", err)
	}

	c.seq++
	c.current = url
	c.handle = h
	go c.watch(c.seq, h)

	metrics.RecordPreviewStarted()
	logger.Debug("[Playback] 开始试听", logger.String("url", url), logger.Float64("volume", c.volume))
	c.notifyLocked()
	return nil
}

// StopAll 无条件停止当前试听
func (c *Controller) StopAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == nil {
		return
	}
	c.stopLocked()
	c.notifyLocked()
}

// watch 等待播放自然结束，把控制器拉回静音状态
func (c *Controller) watch(seq uint64, h Handle) {
	<-h.Done()

	c.mu.Lock()
	defer c.mu.Unlock()

	// 已经被停止或被新的试听替换
	if c.seq != seq || c.handle != h {
		return
	}
	logger.Debug("[Playback] 试听自然结束", logger.String("url", c.current))
	c.handle = nil
	c.current = ""
	c.notifyLocked()
}

func (c *Controller) stopLocked() {
	if c.handle == nil {
		return
	}
	c.handle.Stop()
	c.seq++
	c.handle = nil
	c.current = ""
}

func (c *Controller) notifyLocked() {
	for _, fn := range c.listeners {
		fn(c.current)
	}
}
