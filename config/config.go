package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the client configuration.
type Config struct {
	// 后端服务
	APIBaseURL string

	// 试听
	FFplayPath    string
	PreviewVolume float64 // 0.0 - 1.0

	// 合并结果保存位置
	DownloadBackend string // "local" 或 "minio"
	DownloadDir     string

	// MinIO配置
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// Redis配置（搜索缓存）
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	SearchCacheEnabled bool
	SearchCacheTTL     time.Duration

	// 本地控制接口
	ServerAddr string
	InboxDir   string // 监听新视频的目录，为空则关闭

	// 日志
	LogLevel      string
	LogFile       string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
// godotenv.Load() will not override existing env vars.
func Load() *Config {
	_ = godotenv.Load()

	volume := getEnvFloat("PREVIEW_VOLUME", 0.5)
	if volume < 0 || volume > 1 {
		volume = 0.5
	}

	return &Config{
		APIBaseURL:    strings.TrimRight(getEnv("SYNCWAVE_API_URL", "http://localhost:8000"), "/"),
		FFplayPath:    getEnv("FFPLAY_PATH", "ffplay"),
		PreviewVolume: volume,

		DownloadBackend: strings.ToLower(getEnv("DOWNLOAD_BACKEND", "local")),
		DownloadDir:     getEnv("DOWNLOAD_DIR", "downloads"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "syncwave"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		RedisHost:          getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:          getEnv("REDIS_PORT", "6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		SearchCacheEnabled: getEnvBool("SEARCH_CACHE_ENABLED", false),
		SearchCacheTTL:     getEnvDuration("SEARCH_CACHE_TTL", 10*time.Minute),

		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		InboxDir:   getEnv("INBOX_DIR", ""),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSize:    getEnvInt("LOG_MAX_SIZE", 50),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:     getEnvInt("LOG_MAX_AGE", 14),
	}
}
