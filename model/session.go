package model

import (
	"fmt"
)

// BusyState 当前进行中的远程操作，同一时刻只能有一个
type BusyState int

const (
	Idle BusyState = iota
	Analyzing
	Searching
	Merging
)

func (b BusyState) String() string {
	switch b {
	case Idle:
		return "idle"
	case Analyzing:
		return "analyzing"
	case Searching:
		return "searching"
	case Merging:
		return "merging"
	default:
		return fmt.Sprintf("busy(%d)", int(b))
	}
}

// Valid 是否为四种合法取值之一
func (b BusyState) Valid() bool {
	return b >= Idle && b <= Merging
}

// MarshalText 以字符串形式序列化
func (b BusyState) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("invalid busy state %d", int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText 从字符串解析
func (b *BusyState) UnmarshalText(text []byte) error {
	for _, candidate := range []BusyState{Idle, Analyzing, Searching, Merging} {
		if candidate.String() == string(text) {
			*b = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown busy state %q", string(text))
}

// Phase 由 Session 字段推导出的工作流阶段
type Phase string

const (
	PhaseEmpty        Phase = "empty"
	PhaseFileSelected Phase = "file_selected"
	PhaseReady        Phase = "ready"
	PhaseTrimming     Phase = "trimming"
)

// InputFile 本地选中的视频
type InputFile struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Session 一次用户工作流的全部状态，只允许编排器修改
type Session struct {
	InputFile        *InputFile    `json:"inputFile,omitempty"`
	SessionID        string        `json:"sessionId,omitempty"`
	Vibe             *VibeAnalysis `json:"vibe,omitempty"`
	Playlist         []Track       `json:"playlist"`
	SelectedTrack    *Track        `json:"selectedTrack,omitempty"`
	TrimStartSeconds int           `json:"trimStartSeconds"`
	Busy             BusyState     `json:"busy"`
	LastError        string        `json:"lastError,omitempty"`
	LastDownload     string        `json:"lastDownload,omitempty"`

	// SelectionEpoch 每次打开或关闭裁剪弹窗都会递增，迟到的合并结果靠它识别
	SelectionEpoch uint64 `json:"-"`
}

// Phase 推导当前阶段
func (s Session) Phase() Phase {
	switch {
	case s.SelectedTrack != nil:
		return PhaseTrimming
	case s.SessionID != "":
		return PhaseReady
	case s.InputFile != nil:
		return PhaseFileSelected
	default:
		return PhaseEmpty
	}
}

// IsIdle 没有进行中的远程操作
func (s Session) IsIdle() bool {
	return s.Busy == Idle
}

// HasTrack 判断曲目是否属于当前播放列表
func (s Session) HasTrack(t Track) bool {
	for _, candidate := range s.Playlist {
		if candidate == t {
			return true
		}
	}
	return false
}

// TrimCeiling 当前选中曲目的裁剪上限，未选中时为 0
func (s Session) TrimCeiling() int {
	if s.SelectedTrack == nil {
		return 0
	}
	return TrimCeiling(*s.SelectedTrack)
}

// Clone 深拷贝，保证快照之间互不影响
func (s Session) Clone() Session {
	out := s
	if s.InputFile != nil {
		f := *s.InputFile
		out.InputFile = &f
	}
	if s.Vibe != nil {
		v := s.Vibe.Clone()
		out.Vibe = &v
	}
	out.Playlist = ClonePlaylist(s.Playlist)
	if s.SelectedTrack != nil {
		t := *s.SelectedTrack
		out.SelectedTrack = &t
	}
	return out
}

// Validate 检查 Session 的结构性不变量
func (s Session) Validate() error {
	if !s.Busy.Valid() {
		return fmt.Errorf("invalid busy state %d", int(s.Busy))
	}
	if s.TrimStartSeconds < 0 {
		return fmt.Errorf("trim start %d is negative", s.TrimStartSeconds)
	}
	if s.SelectedTrack == nil {
		if s.TrimStartSeconds != 0 {
			return fmt.Errorf("trim start %d set without a selected track", s.TrimStartSeconds)
		}
		return nil
	}
	if !s.HasTrack(*s.SelectedTrack) {
		return fmt.Errorf("selected track %q by %q is not in the current playlist", s.SelectedTrack.Name, s.SelectedTrack.Artist)
	}
	if ceiling := TrimCeiling(*s.SelectedTrack); s.TrimStartSeconds > ceiling {
		return fmt.Errorf("trim start %d exceeds ceiling %d", s.TrimStartSeconds, ceiling)
	}
	return nil
}
