package cmd

import (
	"fmt"
	"log"
	"os"

	"SyncWave/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix    string
	minioStats     bool
	minioRecursive bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "查看MinIO中的合成结果",
	Long:  `列出上传到MinIO存储桶 renders/ 目录下的合成视频，或只显示统计信息。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		sink, err := storage.NewMinioSink(cmd.Context(), cfg)
		if err != nil {
			log.Fatalf("无法连接到MinIO: %v", err)
		}

		objects, stats, err := sink.ListRenders(cmd.Context(), minioPrefix, minioRecursive)
		if err != nil {
			log.Fatalf("列出文件失败: %v", err)
		}
		storage.PrintRenders(os.Stdout, objects, stats, minioStats)
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "只显示统计信息")
	minioCmd.Flags().BoolVarP(&minioRecursive, "recursive", "r", true, "包含子目录")

	minioCmd.Example = `  # 列出所有合成结果
  syncwave minio

  # 按前缀过滤
  syncwave minio -p "SyncWave_Fein"

  # 只显示统计信息
  syncwave minio -s`
}
