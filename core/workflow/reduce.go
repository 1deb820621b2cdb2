package workflow

import (
	"fmt"
	"strings"

	"SyncWave/core/gateway"
	"SyncWave/core/utils"
	"SyncWave/model"
)

const (
	opFile   = "file"
	opSelect = "select"
	opTrim   = "trim"
)

// Transition 一次事件处理的结果。Applied 为 false 时 Next 与输入相同且没有副作用。
type Transition struct {
	Next    model.Session
	Effects []Effect
	Applied bool
}

func ignored(s model.Session) (Transition, error) {
	return Transition{Next: s}, nil
}

func applied(next model.Session, effects ...Effect) (Transition, error) {
	return Transition{Next: next, Effects: effects, Applied: true}, nil
}

// Reduce 纯状态转换函数：不做任何 IO，只根据当前状态和事件算出下一个状态与副作用。
// 不满足前置条件的事件被忽略；越界的输入返回 ValidationFailure，状态不变。
func Reduce(s model.Session, ev Event) (Transition, error) {
	next := s.Clone()

	switch e := ev.(type) {
	case FileChosen:
		if !s.IsIdle() || (s.Phase() != model.PhaseEmpty && s.Phase() != model.PhaseFileSelected) {
			return ignored(s)
		}
		if e.File.Path == "" || e.File.Size <= 0 {
			return Transition{Next: s}, gateway.NewValidationFailure(opFile, "video file is empty")
		}
		f := e.File
		next.InputFile = &f
		next.LastError = ""
		return applied(next)

	case AnalyzeRequested:
		if !s.IsIdle() || s.InputFile == nil || s.Phase() != model.PhaseFileSelected {
			return ignored(s)
		}
		next.Busy = model.Analyzing
		next.LastError = ""
		return applied(next, StopPlayback{}, CallAnalyze{Path: s.InputFile.Path})

	case AnalyzeSucceeded:
		if s.Busy != model.Analyzing {
			return ignored(s)
		}
		vibe := e.Result.Vibe.Clone()
		next.SessionID = e.Result.SessionID
		next.Vibe = &vibe
		next.Playlist = model.ClonePlaylist(e.Result.Playlist)
		next.SelectedTrack = nil
		next.TrimStartSeconds = 0
		next.Busy = model.Idle
		return applied(next)

	case AnalyzeFailed:
		if s.Busy != model.Analyzing {
			return ignored(s)
		}
		next.Busy = model.Idle
		next.LastError = fmt.Sprintf("Vibe analysis failed: %s", gateway.UserMessage(e.Err))
		return applied(next)

	case SearchRequested:
		query := strings.TrimSpace(e.Query)
		if !s.IsIdle() || s.Phase() != model.PhaseReady || query == "" {
			return ignored(s)
		}
		next.Busy = model.Searching
		next.LastError = ""
		return applied(next, StopPlayback{}, CallSearch{Query: query})

	case RefreshRequested:
		if !s.IsIdle() || s.Phase() != model.PhaseReady || s.Vibe == nil {
			return ignored(s)
		}
		next.Busy = model.Searching
		next.LastError = ""
		return applied(next, StopPlayback{}, CallRefresh{Vibe: s.Vibe.Clone()})

	case SearchSucceeded:
		if s.Busy != model.Searching {
			return ignored(s)
		}
		// 整体替换，不与旧列表合并，vibe 不动
		next.Playlist = model.ClonePlaylist(e.Playlist)
		next.Busy = model.Idle
		return applied(next)

	case SearchFailed:
		if s.Busy != model.Searching {
			return ignored(s)
		}
		next.Busy = model.Idle
		if e.Refresh {
			next.LastError = fmt.Sprintf("Playlist refresh failed: %s", gateway.UserMessage(e.Err))
		} else {
			next.LastError = fmt.Sprintf("Search failed: %s", gateway.UserMessage(e.Err))
		}
		return applied(next)

	case TrackPicked:
		if !s.IsIdle() || s.Phase() != model.PhaseReady {
			return ignored(s)
		}
		if !s.HasTrack(e.Track) {
			return Transition{Next: s}, gateway.NewValidationFailure(opSelect, "track is not in the current playlist")
		}
		t := e.Track
		next.SelectedTrack = &t
		next.TrimStartSeconds = 0
		next.SelectionEpoch++
		next.LastError = ""
		return applied(next, StopPlayback{})

	case TrimAdjusted:
		if s.Phase() != model.PhaseTrimming || !s.IsIdle() {
			return ignored(s)
		}
		ceiling := s.TrimCeiling()
		if e.Seconds < 0 || e.Seconds > ceiling {
			return Transition{Next: s}, gateway.NewValidationFailure(opTrim,
				fmt.Sprintf("start time %d is outside 0..%d", e.Seconds, ceiling))
		}
		if e.Seconds == s.TrimStartSeconds {
			return ignored(s)
		}
		next.TrimStartSeconds = e.Seconds
		return applied(next)

	case TrimCancelled:
		// 进行中的合并不会被取消，但它的结果会因纪元变化而被丢弃
		if s.Phase() != model.PhaseTrimming {
			return ignored(s)
		}
		next.SelectedTrack = nil
		next.TrimStartSeconds = 0
		next.SelectionEpoch++
		return applied(next)

	case MergeRequested:
		if !s.IsIdle() || s.Phase() != model.PhaseTrimming || s.SessionID == "" {
			return ignored(s)
		}
		next.Busy = model.Merging
		next.LastError = ""
		return applied(next, StopPlayback{}, CallMerge{
			Request: model.MergeRequest{
				SessionID:    s.SessionID,
				TrackName:    s.SelectedTrack.Name,
				ArtistName:   s.SelectedTrack.Artist,
				StartSeconds: s.TrimStartSeconds,
			},
			Epoch: s.SelectionEpoch,
		})

	case MergeSucceeded:
		if s.Busy != model.Merging {
			return ignored(s)
		}
		next.Busy = model.Idle
		if e.Epoch != s.SelectionEpoch || s.SelectedTrack == nil {
			return applied(next)
		}
		name := utils.MergedFileName(s.SelectedTrack.Name)
		next.SelectedTrack = nil
		next.TrimStartSeconds = 0
		next.SelectionEpoch++
		return applied(next, SaveFile{Name: name, Payload: e.Payload, Epoch: next.SelectionEpoch})

	case MergeFailed:
		if s.Busy != model.Merging {
			return ignored(s)
		}
		next.Busy = model.Idle
		if e.Epoch != s.SelectionEpoch || s.SelectedTrack == nil {
			return applied(next)
		}
		next.LastError = fmt.Sprintf("Merge failed. The video session might have expired: %s", gateway.UserMessage(e.Err))
		return applied(next)

	case DownloadSaved:
		next.LastDownload = e.Location
		return applied(next)

	case DownloadFailed:
		// 保存期间用户已经开始了新的操作，不能覆盖它的状态
		if !s.IsIdle() || e.Epoch != s.SelectionEpoch {
			return ignored(s)
		}
		next.LastError = fmt.Sprintf("Saving the merged video failed: %s", gateway.UserMessage(e.Err))
		return applied(next)

	case ResetRequested:
		if !s.IsIdle() {
			return ignored(s)
		}
		return applied(model.Session{SelectionEpoch: s.SelectionEpoch + 1}, StopPlayback{})

	default:
		return Transition{Next: s}, fmt.Errorf("unknown workflow event %T", ev)
	}
}
