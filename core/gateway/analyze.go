package gateway

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"SyncWave/logger"
	"SyncWave/model"
)

// Analyze 上传视频，返回会话ID、氛围分析和推荐歌单。
// 视频以 multipart 字段 "file" 流式上传，不会整体读入内存。
func (c *Client) Analyze(ctx context.Context, videoPath string) (*model.AnalysisResult, error) {
	if videoPath == "" {
		return nil, reject(OpAnalyze, "no video file selected")
	}
	info, err := os.Stat(videoPath)
	if err != nil {
		return nil, reject(OpAnalyze, fmt.Sprintf("cannot read video file: %v", err))
	}
	if !info.Mode().IsRegular() || info.Size() == 0 {
		return nil, reject(OpAnalyze, "video file is empty")
	}

	release, err := c.acquire(OpAnalyze)
	if err != nil {
		return nil, err
	}
	defer release()

	file, err := os.Open(videoPath)
	if err != nil {
		return nil, reject(OpAnalyze, fmt.Sprintf("cannot open video file: %v", err))
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		part, err := writer.CreateFormFile("file", filepath.Base(videoPath))
		if err != nil {
			pw.CloseWithError(fmt.Errorf("failed to create form file: %w", err))
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(fmt.Errorf("failed to copy video data: %w", err))
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/generate-playlist", pr)
	if err != nil {
		pr.Close()
		return nil, NewTransportFailure(OpAnalyze, "building request failed", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	logger.Info("[Gateway] 上传视频进行氛围分析",
		logger.String("file", filepath.Base(videoPath)),
		logger.Int64("size", info.Size()))

	body, err := c.do(ctx, OpAnalyze, req)
	// 请求提前失败时让上传协程退出
	pr.Close()
	if err != nil {
		return nil, err
	}

	result, err := decodeAnalysis(body)
	if err != nil {
		logger.Warn("[Gateway] 分析结果格式错误", logger.ErrorField(err))
		return nil, err
	}

	logger.Info("[Gateway] 氛围分析完成",
		logger.String("video_id", result.SessionID),
		logger.Any("seed_genres", result.Vibe.SeedGenres),
		logger.Int("tracks", len(result.Playlist)))
	return result, nil
}
