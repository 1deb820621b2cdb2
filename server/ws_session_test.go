package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"SyncWave/core/playback"
	"SyncWave/core/session"
	"SyncWave/core/workflow"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clipHandle struct {
	once sync.Once
	done chan struct{}
}

func (h *clipHandle) Stop() { h.end() }

func (h *clipHandle) Done() <-chan struct{} { return h.done }

func (h *clipHandle) end() { h.once.Do(func() { close(h.done) }) }

type clipPlayer struct {
	mu      sync.Mutex
	handles []*clipHandle
}

func (p *clipPlayer) Start(string, float64) (playback.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := &clipHandle{done: make(chan struct{})}
	p.handles = append(p.handles, h)
	return h, nil
}

func (p *clipPlayer) last() *clipHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handles[len(p.handles)-1]
}

// readUntil 读取推送直到满足条件，推送可能被合并所以不按条数计
func readUntil(t *testing.T, conn *websocket.Conn, match func(SessionView) bool) SessionView {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var v SessionView
		require.NoError(t, conn.ReadJSON(&v))
		if match(v) {
			return v
		}
	}
}

func TestSessionStreamPushesPreviewChanges(t *testing.T) {
	player := &clipPlayer{}
	ctrl := playback.NewController(player, playback.DefaultVolume)
	orch := workflow.NewOrchestrator(session.NewStore(), stubGateway{}, ctrl, stubDownload{})
	srv := httptest.NewServer(NewRouter(NewSessionHandler(orch, ctrl)))
	defer srv.Close()

	require.NoError(t, orch.ChooseFile(writeVideo(t, t.TempDir())))
	require.NoError(t, orch.Analyze(context.Background()))

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/session", nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readUntil(t, conn, func(SessionView) bool { return true })
	assert.Empty(t, first.Preview)

	// 开始试听
	_, err = orch.TogglePreview(0)
	require.NoError(t, err)
	playing := readUntil(t, conn, func(v SessionView) bool { return v.Preview != "" })
	assert.Equal(t, fein.PreviewURL, playing.Preview)

	// 自然播放结束
	player.last().end()
	stopped := readUntil(t, conn, func(v SessionView) bool { return v.Preview == "" })
	assert.Equal(t, "ready", string(stopped.Phase))

	// 再次试听后手动关闭
	_, err = orch.TogglePreview(0)
	require.NoError(t, err)
	readUntil(t, conn, func(v SessionView) bool { return v.Preview == fein.PreviewURL })
	_, err = orch.TogglePreview(0)
	require.NoError(t, err)
	readUntil(t, conn, func(v SessionView) bool { return v.Preview == "" })
	assert.Empty(t, ctrl.Current())
}
