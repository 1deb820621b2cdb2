package workflow

import "SyncWave/model"

// Event 驱动状态机的离散事件：用户意图、远程调用结果、下载结果
type Event interface {
	Name() string
}

// 用户意图

type FileChosen struct{ File model.InputFile }
type AnalyzeRequested struct{}
type SearchRequested struct{ Query string }
type RefreshRequested struct{}
type TrackPicked struct{ Track model.Track }
type TrimAdjusted struct{ Seconds int }
type TrimCancelled struct{}
type MergeRequested struct{}
type ResetRequested struct{}

// 远程调用结果

type AnalyzeSucceeded struct{ Result model.AnalysisResult }
type AnalyzeFailed struct{ Err error }

// SearchSucceeded 搜索或刷新返回的新播放列表
type SearchSucceeded struct{ Playlist []model.Track }

// SearchFailed Refresh 为 true 表示来自推荐刷新
type SearchFailed struct {
	Err     error
	Refresh bool
}

// MergeSucceeded Epoch 为发起合并时的选择纪元
type MergeSucceeded struct {
	Epoch   uint64
	Payload []byte
}

type MergeFailed struct {
	Epoch uint64
	Err   error
}

// 下载结果

type DownloadSaved struct{ Location string }

// DownloadFailed Epoch 来自 SaveFile，期间有新操作时失败只记日志
type DownloadFailed struct {
	Epoch uint64
	Err   error
}

func (FileChosen) Name() string       { return "file_chosen" }
func (AnalyzeRequested) Name() string { return "analyze_requested" }
func (SearchRequested) Name() string  { return "search_requested" }
func (RefreshRequested) Name() string { return "refresh_requested" }
func (TrackPicked) Name() string      { return "track_picked" }
func (TrimAdjusted) Name() string     { return "trim_adjusted" }
func (TrimCancelled) Name() string    { return "trim_cancelled" }
func (MergeRequested) Name() string   { return "merge_requested" }
func (ResetRequested) Name() string   { return "reset_requested" }
func (AnalyzeSucceeded) Name() string { return "analyze_succeeded" }
func (AnalyzeFailed) Name() string    { return "analyze_failed" }
func (SearchSucceeded) Name() string  { return "search_succeeded" }
func (SearchFailed) Name() string     { return "search_failed" }
func (MergeSucceeded) Name() string   { return "merge_succeeded" }
func (MergeFailed) Name() string      { return "merge_failed" }
func (DownloadSaved) Name() string    { return "download_saved" }
func (DownloadFailed) Name() string   { return "download_failed" }

// Effect 状态转换附带的副作用，由 Orchestrator 执行
type Effect interface {
	isEffect()
}

// StopPlayback 停止所有试听，在锁内同步执行
type StopPlayback struct{}

type CallAnalyze struct{ Path string }
type CallSearch struct{ Query string }
type CallRefresh struct{ Vibe model.VibeAnalysis }

// CallMerge Epoch 随结果带回，用来识别迟到的响应
type CallMerge struct {
	Request model.MergeRequest
	Epoch   uint64
}

// SaveFile 把合并结果保存为可下载文件
type SaveFile struct {
	Name    string
	Payload []byte
	Epoch   uint64
}

func (StopPlayback) isEffect() {}
func (CallAnalyze) isEffect()  {}
func (CallSearch) isEffect()   {}
func (CallRefresh) isEffect()  {}
func (CallMerge) isEffect()    {}
func (SaveFile) isEffect()     {}
