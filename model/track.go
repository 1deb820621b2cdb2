package model

const (
	// MinPlaySeconds 切点之后至少保留的可播放时长（秒）
	MinPlaySeconds = 10
	// FallbackTrimCeiling 时长未知时裁剪滑块的上限（秒）
	FallbackTrimCeiling = 180
)

// Track 候选曲目，来自分析推荐或手动搜索，收到后不再修改
type Track struct {
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	CoverArtURL string `json:"cover_art"`
	PreviewURL  string `json:"preview_url,omitempty"` // 试听地址，可能为空
	ExternalURL string `json:"url,omitempty"`         // 没有试听时的外部链接
	DurationMs  int64  `json:"duration_ms"`
}

// DurationSeconds 返回四舍五入后的整秒时长，仅用于展示，0 表示未知
func (t Track) DurationSeconds() int {
	if t.DurationMs <= 0 {
		return 0
	}
	return int((t.DurationMs + 500) / 1000)
}

// HasPreview 是否可以直接试听
func (t Track) HasPreview() bool {
	return t.PreviewURL != ""
}

// TrimCeiling 返回裁剪起点允许的最大值。
// 时长未知时使用 FallbackTrimCeiling，否则保证切点后至少还有 MinPlaySeconds 秒。
// 按整秒向下取整，不足一秒的尾巴不计入可裁剪范围。
func TrimCeiling(t Track) int {
	if t.DurationMs <= 0 {
		return FallbackTrimCeiling
	}
	ceiling := int(t.DurationMs/1000) - MinPlaySeconds
	if ceiling < 0 {
		return 0
	}
	return ceiling
}

// ClonePlaylist 复制播放列表，避免调用方共享底层数组
func ClonePlaylist(tracks []Track) []Track {
	if tracks == nil {
		return nil
	}
	out := make([]Track, len(tracks))
	copy(out, tracks)
	return out
}
