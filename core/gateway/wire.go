package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"

	"SyncWave/model"
)

// trackWire 后端返回的曲目结构，指针字段用于区分缺失和空值
type trackWire struct {
	Name       *string `json:"name"`
	Artist     *string `json:"artist"`
	CoverArt   *string `json:"cover_art"`
	PreviewURL *string `json:"preview_url"`
	URL        *string `json:"url"`
	DurationMs *int64  `json:"duration_ms"`
}

type vibeWire struct {
	Description        *string   `json:"description"`
	SeedGenres         *[]string `json:"seed_genres"`
	TargetEnergy       *float64  `json:"target_energy"`
	TargetValence      *float64  `json:"target_valence"`
	TargetDanceability *float64  `json:"target_danceability"`
	Error              string    `json:"error"`
}

type analysisWire struct {
	VideoID      *string         `json:"video_id"`
	VibeAnalysis *vibeWire       `json:"vibe_analysis"`
	Playlist     json.RawMessage `json:"playlist"`
}

type refreshWire struct {
	SeedGenres         []string `json:"seed_genres"`
	TargetEnergy       float64  `json:"target_energy"`
	TargetValence      float64  `json:"target_valence"`
	TargetDanceability *float64 `json:"target_danceability,omitempty"`
	Description        string   `json:"description"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (w trackWire) toTrack(i int) (model.Track, error) {
	if str(w.Name) == "" {
		return model.Track{}, fmt.Errorf("track %d: missing name", i)
	}
	if str(w.Artist) == "" {
		return model.Track{}, fmt.Errorf("track %d: missing artist", i)
	}
	var duration int64
	if w.DurationMs != nil {
		if *w.DurationMs < 0 {
			return model.Track{}, fmt.Errorf("track %d: negative duration_ms %d", i, *w.DurationMs)
		}
		duration = *w.DurationMs
	}
	return model.Track{
		Name:        *w.Name,
		Artist:      *w.Artist,
		CoverArtURL: str(w.CoverArt),
		PreviewURL:  str(w.PreviewURL),
		ExternalURL: str(w.URL),
		DurationMs:  duration,
	}, nil
}

// decodePlaylist 解析曲目数组。后端出错时可能返回 {"error": "..."} 而不是数组。
func decodePlaylist(op string, raw []byte) ([]model.Track, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, NewServerFailure(op, 0, "malformed response: missing playlist", nil)
	}
	if raw[0] == '{' {
		var obj struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil && obj.Error != "" {
			return nil, NewServerFailure(op, 0, obj.Error, nil)
		}
		return nil, NewServerFailure(op, 0, "malformed response: playlist is not an array", nil)
	}

	var items []trackWire
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, NewServerFailure(op, 0, "malformed response: invalid playlist", err)
	}
	tracks := make([]model.Track, 0, len(items))
	for i, item := range items {
		t, err := item.toTrack(i)
		if err != nil {
			return nil, NewServerFailure(op, 0, "malformed response: invalid track", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// decodeAnalysis 解析 /generate-playlist 的响应
func decodeAnalysis(raw []byte) (*model.AnalysisResult, error) {
	var w analysisWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, NewServerFailure(OpAnalyze, 0, "malformed response", err)
	}
	if str(w.VideoID) == "" {
		return nil, NewServerFailure(OpAnalyze, 0, "malformed response: missing video_id", nil)
	}
	if w.VibeAnalysis == nil {
		return nil, NewServerFailure(OpAnalyze, 0, "malformed response: missing vibe_analysis", nil)
	}
	if w.VibeAnalysis.Error != "" {
		return nil, NewServerFailure(OpAnalyze, 0, w.VibeAnalysis.Error, nil)
	}
	if w.VibeAnalysis.Description == nil || w.VibeAnalysis.SeedGenres == nil {
		return nil, NewServerFailure(OpAnalyze, 0, "malformed response: incomplete vibe_analysis", nil)
	}

	playlist, err := decodePlaylist(OpAnalyze, w.Playlist)
	if err != nil {
		return nil, err
	}

	return &model.AnalysisResult{
		SessionID: *w.VideoID,
		Vibe: model.VibeAnalysis{
			Description:        *w.VibeAnalysis.Description,
			SeedGenres:         append([]string{}, (*w.VibeAnalysis.SeedGenres)...),
			TargetEnergy:       w.VibeAnalysis.TargetEnergy,
			TargetValence:      w.VibeAnalysis.TargetValence,
			TargetDanceability: w.VibeAnalysis.TargetDanceability,
		},
		Playlist: playlist,
	}, nil
}

// encodeRefresh 构造 /refresh-playlist 请求体，缺失的能量/情绪值取中间值
func encodeRefresh(v model.VibeAnalysis) ([]byte, error) {
	body := refreshWire{
		SeedGenres:         v.SeedGenres,
		TargetEnergy:       0.5,
		TargetValence:      0.5,
		TargetDanceability: v.TargetDanceability,
		Description:        v.Description,
	}
	if body.SeedGenres == nil {
		body.SeedGenres = []string{}
	}
	if v.TargetEnergy != nil {
		body.TargetEnergy = *v.TargetEnergy
	}
	if v.TargetValence != nil {
		body.TargetValence = *v.TargetValence
	}
	return json.Marshal(body)
}
