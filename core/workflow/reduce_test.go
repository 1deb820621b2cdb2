package workflow

import (
	"errors"
	"fmt"
	"testing"

	"SyncWave/core/gateway"
	"SyncWave/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	trackX = model.Track{Name: "Road Trip", Artist: "Indie Band", DurationMs: 215000, PreviewURL: "https://cdn.example/x.mp3"}
	trackY = model.Track{Name: "Fein", Artist: "Travis Scott", DurationMs: 200000, PreviewURL: "https://cdn.example/y.mp3"}
)

func readySession() model.Session {
	return model.Session{
		InputFile: &model.InputFile{Path: "/tmp/trip.mp4", Name: "trip.mp4", Size: 1024},
		SessionID: "v1",
		Vibe:      &model.VibeAnalysis{Description: "energetic road trip", SeedGenres: []string{"pop", "indie"}},
		Playlist:  []model.Track{trackX, trackY},
	}
}

func trimmingSession(t *testing.T, track model.Track) model.Session {
	t.Helper()
	tr, err := Reduce(readySession(), TrackPicked{Track: track})
	require.NoError(t, err)
	require.True(t, tr.Applied)
	return tr.Next
}

func TestFileChosenThenAnalyze(t *testing.T) {
	tr, err := Reduce(model.Session{}, FileChosen{File: model.InputFile{Path: "/v.mp4", Name: "v.mp4", Size: 10}})
	require.NoError(t, err)
	require.True(t, tr.Applied)
	assert.Equal(t, model.PhaseFileSelected, tr.Next.Phase())

	tr, err = Reduce(tr.Next, AnalyzeRequested{})
	require.NoError(t, err)
	require.True(t, tr.Applied)
	assert.Equal(t, model.Analyzing, tr.Next.Busy)
	assert.Equal(t, []Effect{StopPlayback{}, CallAnalyze{Path: "/v.mp4"}}, tr.Effects)
}

func TestFileChosenRejectsEmptyFile(t *testing.T) {
	tr, err := Reduce(model.Session{}, FileChosen{File: model.InputFile{Path: "/v.mp4", Size: 0}})
	require.Error(t, err)
	assert.True(t, gateway.IsValidation(err))
	assert.False(t, tr.Applied)
}

func TestAnalyzeWithoutFileIsNoop(t *testing.T) {
	tr, err := Reduce(model.Session{}, AnalyzeRequested{})
	require.NoError(t, err)
	assert.False(t, tr.Applied)
	assert.Empty(t, tr.Effects)
}

func TestAnalyzeOutcome(t *testing.T) {
	analyzing := model.Session{InputFile: &model.InputFile{Path: "/v.mp4", Size: 10}, Busy: model.Analyzing, LastError: ""}

	result := model.AnalysisResult{
		SessionID: "v1",
		Vibe:      model.VibeAnalysis{Description: "energetic road trip", SeedGenres: []string{"pop", "indie"}},
		Playlist:  []model.Track{trackX},
	}
	tr, err := Reduce(analyzing, AnalyzeSucceeded{Result: result})
	require.NoError(t, err)
	assert.Equal(t, model.PhaseReady, tr.Next.Phase())
	assert.Equal(t, model.Idle, tr.Next.Busy)
	assert.Equal(t, []model.Track{trackX}, tr.Next.Playlist)
	assert.Equal(t, "energetic road trip", tr.Next.Vibe.Description)

	tr, err = Reduce(analyzing, AnalyzeFailed{Err: gateway.NewServerFailure("analyze", 500, "boom", nil)})
	require.NoError(t, err)
	assert.Equal(t, model.PhaseFileSelected, tr.Next.Phase())
	assert.Equal(t, model.Idle, tr.Next.Busy)
	assert.Contains(t, tr.Next.LastError, "boom")
}

func TestSearchNeverTouchesVibeAndReplacesPlaylist(t *testing.T) {
	s := readySession()
	vibe := s.Vibe.Clone()

	results := [][]model.Track{
		{trackY},
		{},
		{trackX, trackY, {Name: "Third", Artist: "Someone", DurationMs: 90000}},
		{trackX},
	}
	for i, playlist := range results {
		tr, err := Reduce(s, SearchRequested{Query: fmt.Sprintf("query %d", i)})
		require.NoError(t, err)
		require.True(t, tr.Applied)
		s = tr.Next

		tr, err = Reduce(s, SearchSucceeded{Playlist: playlist})
		require.NoError(t, err)
		s = tr.Next

		assert.Equal(t, vibe, *s.Vibe)
		assert.Equal(t, "v1", s.SessionID)
		assert.Equal(t, len(playlist), len(s.Playlist))
		if len(playlist) > 0 {
			assert.Equal(t, playlist, s.Playlist)
		}
	}
}

func TestSearchFailureKeepsPlaylist(t *testing.T) {
	s := readySession()
	tr, _ := Reduce(s, SearchRequested{Query: "Fein Travis Scott"})
	tr, err := Reduce(tr.Next, SearchFailed{Err: gateway.NewTransportFailure("search", "connection refused", nil)})
	require.NoError(t, err)
	assert.Equal(t, s.Playlist, tr.Next.Playlist)
	assert.Equal(t, model.PhaseReady, tr.Next.Phase())
	assert.Contains(t, tr.Next.LastError, "Search failed")
}

func TestEmptyQueryIsNoop(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		tr, err := Reduce(readySession(), SearchRequested{Query: q})
		require.NoError(t, err)
		assert.False(t, tr.Applied, "query %q", q)
	}
}

func TestSearchQueryIsTrimmed(t *testing.T) {
	tr, err := Reduce(readySession(), SearchRequested{Query: "  Fein Travis Scott "})
	require.NoError(t, err)
	assert.Equal(t, []Effect{StopPlayback{}, CallSearch{Query: "Fein Travis Scott"}}, tr.Effects)
}

func TestRefreshUsesCurrentVibe(t *testing.T) {
	s := readySession()
	tr, err := Reduce(s, RefreshRequested{})
	require.NoError(t, err)
	require.True(t, tr.Applied)
	assert.Equal(t, model.Searching, tr.Next.Busy)
	require.Len(t, tr.Effects, 2)
	assert.Equal(t, CallRefresh{Vibe: s.Vibe.Clone()}, tr.Effects[1])

	tr, err = Reduce(tr.Next, SearchFailed{Err: errors.New("nope"), Refresh: true})
	require.NoError(t, err)
	assert.Contains(t, tr.Next.LastError, "Playlist refresh failed")
}

func TestRemoteOperationWhileBusyIsNoop(t *testing.T) {
	requests := []Event{AnalyzeRequested{}, SearchRequested{Query: "x"}, RefreshRequested{}, MergeRequested{}, ResetRequested{}}

	for _, busy := range []model.BusyState{model.Analyzing, model.Searching, model.Merging} {
		for _, base := range []model.Session{readySession(), trimmingSession(t, trackY)} {
			s := base
			s.Busy = busy
			for _, ev := range requests {
				tr, err := Reduce(s, ev)
				require.NoError(t, err)
				assert.False(t, tr.Applied, "%s while %s", ev.Name(), busy)
				assert.Empty(t, tr.Effects)
				assert.Equal(t, s, tr.Next)
			}
		}
	}
}

func TestPickTrack(t *testing.T) {
	s := trimmingSession(t, trackY)
	assert.Equal(t, model.PhaseTrimming, s.Phase())
	assert.Equal(t, 0, s.TrimStartSeconds)
	assert.Equal(t, 190, s.TrimCeiling())
	assert.Equal(t, uint64(1), s.SelectionEpoch)

	_, err := Reduce(readySession(), TrackPicked{Track: model.Track{Name: "Ghost", Artist: "Nobody"}})
	assert.True(t, gateway.IsValidation(err))

	// 裁剪中不能换歌，也不能搜索
	tr, err := Reduce(s, TrackPicked{Track: trackX})
	require.NoError(t, err)
	assert.False(t, tr.Applied)
	tr, err = Reduce(s, SearchRequested{Query: "other"})
	require.NoError(t, err)
	assert.False(t, tr.Applied)
}

func TestTrimBounds(t *testing.T) {
	durations := []int64{0, 4000, 10000, 10500, 11000, 200000, 200600, 600000}
	for _, ms := range durations {
		track := model.Track{Name: fmt.Sprintf("t%d", ms), Artist: "a", DurationMs: ms}
		s := readySession()
		s.Playlist = append(s.Playlist, track)
		tr, err := Reduce(s, TrackPicked{Track: track})
		require.NoError(t, err)
		s = tr.Next

		ceiling := model.TrimCeiling(track)
		for _, v := range []int{0, ceiling / 2, ceiling} {
			tr, err := Reduce(s, TrimAdjusted{Seconds: v})
			require.NoError(t, err, "duration %d value %d", ms, v)
			assert.Equal(t, v, tr.Next.TrimStartSeconds)
			assert.NoError(t, tr.Next.Validate())
		}
		for _, v := range []int{-1, ceiling + 1} {
			tr, err := Reduce(s, TrimAdjusted{Seconds: v})
			assert.True(t, gateway.IsValidation(err), "duration %d value %d", ms, v)
			assert.Equal(t, s, tr.Next)
		}
	}
}

func TestTrimCancel(t *testing.T) {
	s := trimmingSession(t, trackY)
	tr, _ := Reduce(s, TrimAdjusted{Seconds: 45})
	tr, err := Reduce(tr.Next, TrimCancelled{})
	require.NoError(t, err)
	assert.Equal(t, model.PhaseReady, tr.Next.Phase())
	assert.Nil(t, tr.Next.SelectedTrack)
	assert.Equal(t, 0, tr.Next.TrimStartSeconds)
	assert.Equal(t, s.SelectionEpoch+1, tr.Next.SelectionEpoch)
}

func TestMergeRequestCarriesTrackIdentity(t *testing.T) {
	s := trimmingSession(t, trackY)
	tr, _ := Reduce(s, TrimAdjusted{Seconds: 45})
	tr, err := Reduce(tr.Next, MergeRequested{})
	require.NoError(t, err)
	assert.Equal(t, model.Merging, tr.Next.Busy)
	assert.Equal(t, []Effect{StopPlayback{}, CallMerge{
		Request: model.MergeRequest{SessionID: "v1", TrackName: "Fein", ArtistName: "Travis Scott", StartSeconds: 45},
		Epoch:   s.SelectionEpoch,
	}}, tr.Effects)

	// 合并中拖动滑块无效
	again, err := Reduce(tr.Next, TrimAdjusted{Seconds: 10})
	require.NoError(t, err)
	assert.False(t, again.Applied)
}

func TestMergeOutcome(t *testing.T) {
	s := trimmingSession(t, trackY)
	tr, _ := Reduce(s, TrimAdjusted{Seconds: 45})
	tr, _ = Reduce(tr.Next, MergeRequested{})
	merging := tr.Next

	tr, err := Reduce(merging, MergeSucceeded{Epoch: merging.SelectionEpoch, Payload: []byte("mp4")})
	require.NoError(t, err)
	assert.Equal(t, model.PhaseReady, tr.Next.Phase())
	assert.Equal(t, model.Idle, tr.Next.Busy)
	assert.Equal(t, 0, tr.Next.TrimStartSeconds)
	assert.Equal(t, []Effect{SaveFile{Name: "SyncWave_Fein.mp4", Payload: []byte("mp4"), Epoch: merging.SelectionEpoch + 1}}, tr.Effects)

	tr, err = Reduce(merging, MergeFailed{Epoch: merging.SelectionEpoch, Err: gateway.NewServerFailure("merge", 404, "Video expired.", nil)})
	require.NoError(t, err)
	assert.Equal(t, model.PhaseTrimming, tr.Next.Phase())
	assert.Equal(t, trackY, *tr.Next.SelectedTrack)
	assert.Equal(t, 45, tr.Next.TrimStartSeconds)
	assert.Equal(t, "Merge failed. The video session might have expired: Video expired.", tr.Next.LastError)
}

func TestLateMergeAfterCancelIsDiscarded(t *testing.T) {
	s := trimmingSession(t, trackY)
	tr, _ := Reduce(s, MergeRequested{})
	epoch := tr.Next.SelectionEpoch
	tr, err := Reduce(tr.Next, TrimCancelled{})
	require.NoError(t, err)
	cancelled := tr.Next
	assert.Equal(t, model.Merging, cancelled.Busy)
	assert.Equal(t, model.PhaseReady, cancelled.Phase())

	tr, err = Reduce(cancelled, MergeSucceeded{Epoch: epoch, Payload: []byte("late")})
	require.NoError(t, err)
	assert.Empty(t, tr.Effects)
	assert.Equal(t, model.Idle, tr.Next.Busy)
	assert.Nil(t, tr.Next.SelectedTrack)

	tr, err = Reduce(cancelled, MergeFailed{Epoch: epoch, Err: errors.New("late")})
	require.NoError(t, err)
	assert.Empty(t, tr.Next.LastError)
	assert.Equal(t, model.Idle, tr.Next.Busy)
}

func TestCompletionWithoutMatchingBusyIsIgnored(t *testing.T) {
	s := readySession()
	for _, ev := range []Event{
		AnalyzeSucceeded{Result: model.AnalysisResult{SessionID: "v2"}},
		AnalyzeFailed{Err: errors.New("x")},
		SearchSucceeded{Playlist: nil},
		SearchFailed{Err: errors.New("x")},
		MergeSucceeded{Payload: []byte("x")},
		MergeFailed{Err: errors.New("x")},
	} {
		tr, err := Reduce(s, ev)
		require.NoError(t, err)
		assert.False(t, tr.Applied, ev.Name())
	}
}

func TestDownloadOutcome(t *testing.T) {
	tr, err := Reduce(readySession(), DownloadSaved{Location: "downloads/SyncWave_Fein.mp4"})
	require.NoError(t, err)
	assert.Equal(t, "downloads/SyncWave_Fein.mp4", tr.Next.LastDownload)

	tr, err = Reduce(readySession(), DownloadFailed{Err: errors.New("disk full")})
	require.NoError(t, err)
	assert.Contains(t, tr.Next.LastError, "disk full")

	// 保存期间开始的搜索不能被保存失败覆盖
	searching := readySession()
	searching.Busy = model.Searching
	tr, err = Reduce(searching, DownloadFailed{Err: errors.New("disk full")})
	require.NoError(t, err)
	assert.False(t, tr.Applied)
	assert.Empty(t, tr.Next.LastError)

	// 保存期间重新选了歌
	picked := trimmingSession(t, trackY)
	tr, err = Reduce(picked, DownloadFailed{Epoch: picked.SelectionEpoch - 1, Err: errors.New("disk full")})
	require.NoError(t, err)
	assert.False(t, tr.Applied)
	assert.Empty(t, tr.Next.LastError)
}

func TestReset(t *testing.T) {
	s := readySession()
	s.LastError = "old"
	tr, err := Reduce(s, ResetRequested{})
	require.NoError(t, err)
	assert.Equal(t, model.PhaseEmpty, tr.Next.Phase())
	assert.Empty(t, tr.Next.LastError)
	assert.Equal(t, []Effect{StopPlayback{}}, tr.Effects)
}

type bogusEvent struct{}

func (bogusEvent) Name() string { return "bogus" }

func TestUnknownEvent(t *testing.T) {
	_, err := Reduce(model.Session{}, bogusEvent{})
	assert.Error(t, err)
}
