package server

import (
	"net/http"
	"time"

	"SyncWave/logger"
	"SyncWave/model"

	"github.com/gorilla/websocket"
)

const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SessionStream 连接后推送一次快照，此后会话或试听每次变化都推送最新快照
func (h *SessionHandler) SessionStream(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("[Server] websocket 升级失败", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	// 会话和试听共用一个通知通道，写出时总是读取最新快照
	changed := make(chan struct{}, 1)
	unsubscribe := h.orch.Subscribe(func(model.Session) { notify(changed) })
	defer unsubscribe()
	unwatch := h.watch(changed)
	defer unwatch()

	// 读循环只用来发现断开
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.writeSnapshot(conn, h.orch.Snapshot()); err != nil {
		return
	}
	logger.Debug("[Server] 会话推送已连接", logger.String("remote", r.RemoteAddr))

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-changed:
			if err := h.writeSnapshot(conn, h.orch.Snapshot()); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			logger.Debug("[Server] 会话推送已断开", logger.String("remote", r.RemoteAddr))
			return
		}
	}
}

func (h *SessionHandler) writeSnapshot(conn *websocket.Conn, s model.Session) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(h.view(s)); err != nil {
		logger.Warn("[Server] 推送会话失败", logger.ErrorField(err))
		return err
	}
	return nil
}
