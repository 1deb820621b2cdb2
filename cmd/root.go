package cmd

import (
	"fmt"
	"os"

	"SyncWave/config"
	"SyncWave/logger"

	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "syncwave",
	Short: "SyncWave 为视频挑选配乐并合成下载",
	Long:  `SyncWave 分析视频氛围、推荐或搜索歌曲、裁剪片段，并调用后端把音乐合成进视频。不带子命令时进入交互式 shell。`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		// shell 下控制台日志会打断提示符，只写文件
		interactive := !cmd.HasParent() || cmd.Name() == "shell"
		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			Console:    !interactive,
			OutputPath: cfg.LogFile,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAge,
			Compress:   true,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	Run: func(cmd *cobra.Command, args []string) {
		runShell(cmd)
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
