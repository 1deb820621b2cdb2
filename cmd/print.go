package cmd

import (
	"fmt"
	"io"
	"strings"

	"SyncWave/model"
)

func formatDuration(ms int64) string {
	if ms <= 0 {
		return "--:--"
	}
	secs := (ms + 500) / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// printSession 打印当前阶段、氛围、播放列表和裁剪状态
func printSession(w io.Writer, s model.Session, preview string) {
	fmt.Fprintf(w, "阶段: %s", s.Phase())
	if !s.IsIdle() {
		fmt.Fprintf(w, " (%s...)", s.Busy)
	}
	fmt.Fprintln(w)

	if s.InputFile != nil {
		fmt.Fprintf(w, "视频: %s (%.1f MB)\n", s.InputFile.Name, float64(s.InputFile.Size)/1024/1024)
	}
	if s.Vibe != nil {
		fmt.Fprintf(w, "氛围: %s\n", s.Vibe.Description)
		if len(s.Vibe.SeedGenres) > 0 {
			fmt.Fprintf(w, "风格: %s\n", strings.Join(s.Vibe.SeedGenres, ", "))
		}
	}
	if s.SessionID != "" {
		printPlaylist(w, s.Playlist, preview)
	}
	if s.SelectedTrack != nil {
		fmt.Fprintf(w, "裁剪: %s - %s，从第 %d 秒开始 (0..%d)\n",
			s.SelectedTrack.Name, s.SelectedTrack.Artist, s.TrimStartSeconds, s.TrimCeiling())
	}
	if s.LastDownload != "" {
		fmt.Fprintf(w, "最近保存: %s\n", s.LastDownload)
	}
	if s.LastError != "" {
		fmt.Fprintf(w, "错误: %s\n", s.LastError)
	}
}

func printPlaylist(w io.Writer, tracks []model.Track, preview string) {
	if len(tracks) == 0 {
		fmt.Fprintln(w, "播放列表为空")
		return
	}
	fmt.Fprintf(w, "播放列表 (%d 首):\n", len(tracks))
	for i, t := range tracks {
		marker := " "
		switch {
		case preview != "" && t.PreviewURL == preview:
			marker = ">"
		case !t.HasPreview():
			marker = "-"
		}
		fmt.Fprintf(w, "%s %2d. %s - %s [%s]\n", marker, i+1, t.Name, t.Artist, formatDuration(t.DurationMs))
	}
}
