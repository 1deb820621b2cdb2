package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
)

// BucketStats 存储桶统计信息
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// ObjectInfo 文件信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// ListRenders 列出存储桶中已上传的合并结果
func (s *MinioSink) ListRenders(ctx context.Context, prefix string, recursive bool) ([]ObjectInfo, *BucketStats, error) {
	stats := &BucketStats{}
	var objects []ObjectInfo

	objectCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    RenderPrefix + prefix,
		Recursive: recursive,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("列出对象时出错: %w", object.Err)
		}
		stats.add(object.Size, object.LastModified)
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
		})
	}
	return objects, stats, nil
}

func (b *BucketStats) add(size int64, modified time.Time) {
	b.TotalObjects++
	b.TotalSize += size
	if modified.After(b.LastModified) {
		b.LastModified = modified
	}
}

// PrintRenders 打印文件列表，summaryOnly 为 true 时只打印汇总
func PrintRenders(w io.Writer, objects []ObjectInfo, stats *BucketStats, summaryOnly bool) {
	fmt.Fprintf(w, "文件数量: %d\n", stats.TotalObjects)
	fmt.Fprintf(w, "总大小: %s\n", formatSize(stats.TotalSize))
	if !stats.LastModified.IsZero() {
		fmt.Fprintf(w, "最后修改时间: %s\n", stats.LastModified.Format(time.RFC3339))
	}
	if summaryOnly {
		return
	}
	for _, obj := range objects {
		fmt.Fprintf(w, "%-60s %10s  %s\n", obj.Key, formatSize(obj.Size), obj.LastModified.Format(time.RFC3339))
	}
}

// formatSize 格式化文件大小
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
