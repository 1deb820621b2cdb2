package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"SyncWave/config"
	"SyncWave/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// RenderPrefix 合并结果在存储桶中的目录
const RenderPrefix = "renders/"

// MinioSink 把合并结果上传到 MinIO
type MinioSink struct {
	client *minio.Client
	bucket string
}

// NewMinioClient 根据配置创建 MinIO 客户端
func NewMinioClient(cfg *config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}
	return client, nil
}

// NewMinioSink 连接 MinIO 并确保存储桶存在
func NewMinioSink(ctx context.Context, cfg *config.Config) (*MinioSink, error) {
	logger.Info("[Storage] 正在连接 MinIO",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))

	client, err := NewMinioClient(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("[Storage] 成功创建存储桶", logger.String("bucket", cfg.MinioBucket))
	}

	return &MinioSink{client: client, bucket: cfg.MinioBucket}, nil
}

// Save 上传到 renders/<name>，同名对象存在时追加序号
func (s *MinioSink) Save(ctx context.Context, name string, payload []byte) (string, error) {
	key, err := uniqueName(RenderPrefix+name, func(candidate string) (bool, error) {
		return s.objectExists(ctx, candidate)
	})
	if err != nil {
		return "", err
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "video/mp4",
	})
	if err != nil {
		return "", fmt.Errorf("上传合并结果失败: %w", err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, info.Key)
	logger.Info("[Storage] 已上传到 MinIO", logger.String("location", location), logger.Int64("bytes", info.Size))
	return location, nil
}

func (s *MinioSink) objectExists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, fmt.Errorf("检查对象失败: %w", err)
}
