package model

// VibeAnalysis 视觉分析结果：一句描述加上种子风格标签（有序，允许重复）
type VibeAnalysis struct {
	Description        string   `json:"description"`
	SeedGenres         []string `json:"seed_genres"`
	TargetEnergy       *float64 `json:"target_energy,omitempty"`
	TargetValence      *float64 `json:"target_valence,omitempty"`
	TargetDanceability *float64 `json:"target_danceability,omitempty"`
}

// Clone 深拷贝
func (v VibeAnalysis) Clone() VibeAnalysis {
	out := v
	if v.SeedGenres != nil {
		out.SeedGenres = append([]string(nil), v.SeedGenres...)
	}
	out.TargetEnergy = cloneFloat(v.TargetEnergy)
	out.TargetValence = cloneFloat(v.TargetValence)
	out.TargetDanceability = cloneFloat(v.TargetDanceability)
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// AnalysisResult 分析接口的完整返回
type AnalysisResult struct {
	SessionID string
	Vibe      VibeAnalysis
	Playlist  []Track
}

// MergeRequest 合并请求。曲目按 名称+艺人 定位，而不是按对象身份。
type MergeRequest struct {
	SessionID    string
	TrackName    string
	ArtistName   string
	StartSeconds int
}
