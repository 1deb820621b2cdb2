package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"SyncWave/core/gateway"
	"SyncWave/core/workflow"
	"SyncWave/logger"
	"SyncWave/model"
)

// PreviewState 当前试听地址
type PreviewState interface {
	Current() string
}

// PreviewNotifier 试听开始、停止或自然结束时回调
type PreviewNotifier interface {
	OnChange(fn func(url string))
}

// SessionHandler 把 HTTP 请求转成编排器调用
type SessionHandler struct {
	orch    *workflow.Orchestrator
	preview PreviewState

	mu      sync.Mutex
	streams map[chan struct{}]struct{}
}

// NewSessionHandler 创建处理器，preview 可以为 nil。
// preview 实现 PreviewNotifier 时，试听变化也会推送到 /ws/session。
func NewSessionHandler(orch *workflow.Orchestrator, preview PreviewState) *SessionHandler {
	h := &SessionHandler{
		orch:    orch,
		preview: preview,
		streams: make(map[chan struct{}]struct{}),
	}
	if n, ok := preview.(PreviewNotifier); ok {
		// 回调在控制器锁内执行，这里只做非阻塞通知
		n.OnChange(func(string) { h.broadcast() })
	}
	return h
}

// watch 登记一个推送连接，返回注销函数
func (h *SessionHandler) watch(changed chan struct{}) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.streams[changed] = struct{}{}
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.streams, changed)
	}
}

func (h *SessionHandler) broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for changed := range h.streams {
		notify(changed)
	}
}

// notify 容量为 1 的通知通道，已有未处理的通知时直接丢弃
func notify(changed chan struct{}) {
	select {
	case changed <- struct{}{}:
	default:
	}
}

// SessionView 会话快照加上派生字段
type SessionView struct {
	model.Session
	Phase   model.Phase `json:"phase"`
	TrimMax int         `json:"trimMax"`
	Preview string      `json:"preview,omitempty"`
}

func (h *SessionHandler) view(s model.Session) SessionView {
	v := SessionView{Session: s, Phase: s.Phase(), TrimMax: s.TrimCeiling()}
	if v.Playlist == nil {
		v.Playlist = []model.Track{}
	}
	if h.preview != nil {
		v.Preview = h.preview.Current()
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("[Server] 写入响应失败", logger.ErrorField(err))
	}
}

// respond 校验错误返回 400，其它错误返回 500，成功时返回最新快照
func (h *SessionHandler) respond(w http.ResponseWriter, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		if gateway.IsValidation(err) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": gateway.UserMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, h.view(h.orch.Snapshot()))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return false
	}
	return true
}

// detached 远程操作不随 HTTP 客户端断开而取消
func detached(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// GetSession 返回当前会话
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.respond(w, nil)
}

// ChooseFile 选择本地视频
func (h *SessionHandler) ChooseFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, h.orch.ChooseFile(req.Path))
}

// Analyze 上传并分析视频，请求会阻塞到分析结束
func (h *SessionHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.orch.Analyze(detached(r)))
}

// Search 关键词搜索
func (h *SessionHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, h.orch.Search(detached(r), req.Query))
}

// Refresh 刷新推荐
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.orch.Refresh(detached(r)))
}

// SelectTrack 选中曲目进入裁剪
func (h *SessionHandler) SelectTrack(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, h.orch.PickTrack(req.Index))
}

// SetTrim 调整裁剪起点
func (h *SessionHandler) SetTrim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seconds int `json:"seconds"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, h.orch.SetTrimStart(req.Seconds))
}

// CancelSelection 关闭裁剪
func (h *SessionHandler) CancelSelection(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.orch.CancelTrim())
}

// Merge 合并并保存
func (h *SessionHandler) Merge(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.orch.Merge(detached(r)))
}

// Reset 重新开始
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.orch.Reset())
}

// TogglePreview 试听或停止。没有试听地址时返回 externalUrl。
func (h *SessionHandler) TogglePreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	external, err := h.orch.TogglePreview(req.Index)
	if err != nil {
		h.respond(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		SessionView
		ExternalURL string `json:"externalUrl,omitempty"`
	}{h.view(h.orch.Snapshot()), external})
}

// StopPreview 停止试听
func (h *SessionHandler) StopPreview(w http.ResponseWriter, r *http.Request) {
	h.orch.StopPreview()
	h.respond(w, nil)
}
