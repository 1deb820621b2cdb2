package playback

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	player *fakePlayer
	url    string
	once   sync.Once
	done   chan struct{}
}

func (h *fakeHandle) Stop() { h.finish() }

func (h *fakeHandle) Done() <-chan struct{} { return h.done }

func (h *fakeHandle) finish() {
	h.once.Do(func() {
		h.player.mu.Lock()
		h.player.active--
		h.player.mu.Unlock()
		close(h.done)
	})
}

type fakePlayer struct {
	mu        sync.Mutex
	active    int
	maxActive int
	started   []string
	volumes   []float64
	handles   []*fakeHandle
	failNext  bool
}

func (p *fakePlayer) Start(url string, volume float64) (Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNext {
		p.failNext = false
		return nil, errors.New("no audio device")
	}
	p.active++
	if p.active > p.maxActive {
		p.maxActive = p.active
	}
	p.started = append(p.started, url)
	p.volumes = append(p.volumes, volume)
	h := &fakeHandle{player: p, url: url, done: make(chan struct{})}
	p.handles = append(p.handles, h)
	return h, nil
}

func (p *fakePlayer) last() *fakeHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handles[len(p.handles)-1]
}

func (p *fakePlayer) activeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func TestPlayToggle(t *testing.T) {
	player := &fakePlayer{}
	c := NewController(player, DefaultVolume)

	require.NoError(t, c.Play("http://preview/a"))
	assert.Equal(t, "http://preview/a", c.Current())
	assert.Equal(t, []float64{0.5}, player.volumes)

	// 同一地址再次播放即停止
	require.NoError(t, c.Play("http://preview/a"))
	assert.Equal(t, "", c.Current())
	assert.Equal(t, 0, player.activeCount())
}

func TestPlaySwitchStopsPrevious(t *testing.T) {
	player := &fakePlayer{}
	c := NewController(player, DefaultVolume)

	require.NoError(t, c.Play("a"))
	first := player.last()
	require.NoError(t, c.Play("b"))

	select {
	case <-first.Done():
	default:
		t.Fatal("previous preview still playing")
	}
	assert.Equal(t, "b", c.Current())
	assert.Equal(t, 1, player.activeCount())
}

func TestAtMostOnePreviewForAnySequence(t *testing.T) {
	player := &fakePlayer{}
	c := NewController(player, DefaultVolume)

	urls := []string{"a", "b", "a", "a", "c", "b", "b", "c", "a"}
	for _, u := range urls {
		require.NoError(t, c.Play(u))
		assert.LessOrEqual(t, player.activeCount(), 1)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Play(fmt.Sprintf("u%d", i%7))
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, player.maxActive, 1)
}

func TestStopAll(t *testing.T) {
	player := &fakePlayer{}
	c := NewController(player, DefaultVolume)

	c.StopAll() // 静音状态下也安全

	require.NoError(t, c.Play("a"))
	c.StopAll()
	assert.Equal(t, "", c.Current())
	assert.Equal(t, 0, player.activeCount())
}

func TestNaturalCompletion(t *testing.T) {
	player := &fakePlayer{}
	c := NewController(player, DefaultVolume)

	changes := make(chan string, 8)
	c.OnChange(func(url string) { changes <- url })

	require.NoError(t, c.Play("a"))
	assert.Equal(t, "a", <-changes)

	player.last().finish()

	select {
	case url := <-changes:
		assert.Equal(t, "", url)
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not observe natural completion")
	}
	assert.Equal(t, "", c.Current())

	// 结束后再播同一地址会重新开始，而不是当作"停止"
	require.NoError(t, c.Play("a"))
	assert.Equal(t, "a", c.Current())
}

func TestLateCompletionOfReplacedPreviewIsIgnored(t *testing.T) {
	player := &fakePlayer{}
	c := NewController(player, DefaultVolume)

	require.NoError(t, c.Play("a"))
	first := player.last()
	require.NoError(t, c.Play("b"))

	first.finish()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "b", c.Current())
}

func TestPlayStartFailure(t *testing.T) {
	player := &fakePlayer{}
	c := NewController(player, DefaultVolume)

	require.NoError(t, c.Play("a"))
	player.failNext = true
	err := c.Play("b")
	require.Error(t, err)
	assert.Equal(t, "", c.Current())
	assert.Equal(t, 0, player.activeCount())
}

func TestPlayEmptyURLIsNoop(t *testing.T) {
	player := &fakePlayer{}
	c := NewController(player, DefaultVolume)
	require.NoError(t, c.Play(""))
	assert.Empty(t, player.started)
}
