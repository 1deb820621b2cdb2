package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"SyncWave/core/gateway"
	"SyncWave/core/session"
	"SyncWave/logger"
	"SyncWave/metrics"
	"SyncWave/model"
)

// Gateway 远程操作
type Gateway interface {
	Analyze(ctx context.Context, videoPath string) (*model.AnalysisResult, error)
	Search(ctx context.Context, query string) ([]model.Track, error)
	Refresh(ctx context.Context, vibe model.VibeAnalysis) ([]model.Track, error)
	Merge(ctx context.Context, r model.MergeRequest) ([]byte, error)
}

// PlaybackPort 试听
type PlaybackPort interface {
	Play(url string) error
	StopAll()
}

// DownloadPort 保存合并结果，返回保存位置
type DownloadPort interface {
	Save(ctx context.Context, name string, payload []byte) (string, error)
}

// Orchestrator 工作流编排器，是 Session 唯一的修改者。
// 状态转换和 StopPlayback 在锁内完成，远程调用在锁外执行，完成后再作为事件送回。
type Orchestrator struct {
	mu       sync.Mutex
	store    *session.Store
	gateway  Gateway
	playback PlaybackPort
	download DownloadPort
}

// NewOrchestrator 创建编排器
func NewOrchestrator(store *session.Store, gw Gateway, playback PlaybackPort, download DownloadPort) *Orchestrator {
	if store == nil {
		store = session.NewStore()
	}
	return &Orchestrator{
		store:    store,
		gateway:  gw,
		playback: playback,
		download: download,
	}
}

// Snapshot 当前状态快照
func (o *Orchestrator) Snapshot() model.Session {
	return o.store.Get()
}

// Subscribe 订阅状态变化
func (o *Orchestrator) Subscribe(obs session.Observer) func() {
	return o.store.Subscribe(obs)
}

// ChooseFile 选择本地视频，只接受非空的普通文件
func (o *Orchestrator) ChooseFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return gateway.NewValidationFailure(opFile, fmt.Sprintf("cannot open %s", path))
	}
	if !info.Mode().IsRegular() {
		return gateway.NewValidationFailure(opFile, fmt.Sprintf("%s is not a regular file", path))
	}
	if info.Size() == 0 {
		return gateway.NewValidationFailure(opFile, "video file is empty")
	}
	return o.dispatch(context.Background(), FileChosen{File: model.InputFile{
		Path: path,
		Name: filepath.Base(path),
		Size: info.Size(),
	}})
}

// Analyze 上传视频并分析氛围，阻塞到结果返回
func (o *Orchestrator) Analyze(ctx context.Context) error {
	return o.dispatch(ctx, AnalyzeRequested{})
}

// Search 按关键词搜索，空查询忽略
func (o *Orchestrator) Search(ctx context.Context, query string) error {
	return o.dispatch(ctx, SearchRequested{Query: query})
}

// Refresh 用当前氛围参数刷新推荐
func (o *Orchestrator) Refresh(ctx context.Context) error {
	return o.dispatch(ctx, RefreshRequested{})
}

// PickTrack 按播放列表下标选中曲目，进入裁剪
func (o *Orchestrator) PickTrack(index int) error {
	snap := o.store.Get()
	if index < 0 || index >= len(snap.Playlist) {
		return gateway.NewValidationFailure(opSelect, fmt.Sprintf("no track at position %d", index))
	}
	return o.dispatch(context.Background(), TrackPicked{Track: snap.Playlist[index]})
}

// SetTrimStart 调整裁剪起点，越界返回 ValidationFailure
func (o *Orchestrator) SetTrimStart(seconds int) error {
	return o.dispatch(context.Background(), TrimAdjusted{Seconds: seconds})
}

// CancelTrim 关闭裁剪，不会取消进行中的合并
func (o *Orchestrator) CancelTrim() error {
	return o.dispatch(context.Background(), TrimCancelled{})
}

// Merge 合并并保存结果，阻塞到保存完成
func (o *Orchestrator) Merge(ctx context.Context) error {
	return o.dispatch(ctx, MergeRequested{})
}

// Reset 丢弃当前会话，回到初始状态
func (o *Orchestrator) Reset() error {
	return o.dispatch(context.Background(), ResetRequested{})
}

// TogglePreview 试听/停止第 index 首歌。没有试听地址时返回外部链接，由调用方打开。
func (o *Orchestrator) TogglePreview(index int) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := o.store.Get()
	if !snap.IsIdle() || snap.Phase() != model.PhaseReady {
		return "", nil
	}
	if index < 0 || index >= len(snap.Playlist) {
		return "", gateway.NewValidationFailure(opSelect, fmt.Sprintf("no track at position %d", index))
	}
	track := snap.Playlist[index]
	if !track.HasPreview() {
		return track.ExternalURL, nil
	}
	if err := o.playback.Play(track.PreviewURL); err != nil {
		return "", fmt.Errorf("preview %q failed: %w", track.Name, err)
	}
	return "", nil
}

// StopPreview 停止试听
func (o *Orchestrator) StopPreview() {
	o.playback.StopAll()
}

// dispatch 处理一个事件，并依次执行它引出的副作用和后续事件
func (o *Orchestrator) dispatch(ctx context.Context, ev Event) error {
	queue := []Event{ev}
	first := true
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		tr, err := o.apply(current)
		if err != nil {
			if first {
				return err
			}
			logger.Error("[Workflow] 事件处理失败", logger.String("event", current.Name()), logger.ErrorField(err))
			continue
		}
		first = false

		for _, eff := range tr.Effects {
			if follow := o.perform(ctx, eff); follow != nil {
				queue = append(queue, follow)
			}
		}
	}
	return nil
}

// apply 在锁内完成状态转换，并同步停止试听
func (o *Orchestrator) apply(ev Event) (Transition, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var tr Transition
	_, err := o.store.Update(func(cur model.Session) (model.Session, bool, error) {
		t, err := Reduce(cur, ev)
		if err != nil {
			return cur, false, err
		}
		tr = t
		return t.Next, t.Applied, nil
	})
	switch {
	case err != nil:
		metrics.RecordEvent(ev.Name(), "rejected")
		logger.Warn("[Workflow] 事件被拒绝", logger.String("event", ev.Name()), logger.ErrorField(err))
		return Transition{}, err
	case !tr.Applied:
		metrics.RecordEvent(ev.Name(), "ignored")
		logger.Debug("[Workflow] 事件被忽略", logger.String("event", ev.Name()))
		return tr, nil
	}
	metrics.RecordEvent(ev.Name(), "applied")

	for _, eff := range tr.Effects {
		if _, ok := eff.(StopPlayback); ok {
			o.playback.StopAll()
		}
	}
	return tr, nil
}

// perform 在锁外执行副作用，返回结果事件
func (o *Orchestrator) perform(ctx context.Context, eff Effect) Event {
	switch e := eff.(type) {
	case StopPlayback:
		return nil

	case CallAnalyze:
		logger.Info("[Workflow] 开始分析视频", logger.String("path", e.Path))
		res, err := o.gateway.Analyze(ctx, e.Path)
		if err != nil {
			return AnalyzeFailed{Err: err}
		}
		return AnalyzeSucceeded{Result: *res}

	case CallSearch:
		tracks, err := o.gateway.Search(ctx, e.Query)
		if err != nil {
			return SearchFailed{Err: err}
		}
		return SearchSucceeded{Playlist: tracks}

	case CallRefresh:
		tracks, err := o.gateway.Refresh(ctx, e.Vibe)
		if err != nil {
			return SearchFailed{Err: err, Refresh: true}
		}
		return SearchSucceeded{Playlist: tracks}

	case CallMerge:
		payload, err := o.gateway.Merge(ctx, e.Request)
		if err != nil {
			return MergeFailed{Epoch: e.Epoch, Err: err}
		}
		return MergeSucceeded{Epoch: e.Epoch, Payload: payload}

	case SaveFile:
		location, err := o.download.Save(ctx, e.Name, e.Payload)
		if err != nil {
			logger.Error("[Workflow] 保存合并结果失败", logger.String("name", e.Name), logger.ErrorField(err))
			return DownloadFailed{Epoch: e.Epoch, Err: err}
		}
		logger.Info("[Workflow] 合并结果已保存", logger.String("location", location), logger.Int("bytes", len(e.Payload)))
		return DownloadSaved{Location: location}

	default:
		logger.Warn("[Workflow] 未知副作用", logger.String("effect", fmt.Sprintf("%T", eff)))
		return nil
	}
}
