package utils

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// 路径分隔符和控制字符不能出现在下载文件名中
var unsafeFileChars = regexp.MustCompile(`[/\\\x00-\x1f\x7f]`)

// MergedFileName 合并结果的下载文件名：SyncWave_<曲名>.mp4
func MergedFileName(trackName string) string {
	name := strings.TrimSpace(unsafeFileChars.ReplaceAllString(trackName, "_"))
	if name == "" {
		name = "Untitled"
	}
	return fmt.Sprintf("SyncWave_%s.mp4", name)
}

// EnsureDir 确保目录存在
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录 %s 失败: %w", dir, err)
	}
	return nil
}
