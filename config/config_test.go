package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SYNCWAVE_API_URL", "http://backend:8000/")
	t.Setenv("PREVIEW_VOLUME", "3")
	t.Setenv("SEARCH_CACHE_TTL", "not-a-duration")
	t.Setenv("DOWNLOAD_BACKEND", "MinIO")

	cfg := Load()

	assert.Equal(t, "http://backend:8000", cfg.APIBaseURL)
	assert.Equal(t, 0.5, cfg.PreviewVolume)
	assert.Equal(t, 10*time.Minute, cfg.SearchCacheTTL)
	assert.Equal(t, "minio", cfg.DownloadBackend)
	assert.Equal(t, "ffplay", cfg.FFplayPath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PREVIEW_VOLUME", "0.8")
	t.Setenv("SEARCH_CACHE_ENABLED", "true")
	t.Setenv("SEARCH_CACHE_TTL", "90s")
	t.Setenv("REDIS_DB", "2")

	cfg := Load()

	assert.Equal(t, 0.8, cfg.PreviewVolume)
	assert.True(t, cfg.SearchCacheEnabled)
	assert.Equal(t, 90*time.Second, cfg.SearchCacheTTL)
	assert.Equal(t, 2, cfg.RedisDB)
}
