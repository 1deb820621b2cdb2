package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"SyncWave/logger"
	"SyncWave/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动本地控制接口",
	Long:  `启动供前端使用的 HTTP 控制接口、/ws/session 状态推送和 /metrics；配置 INBOX_DIR 后会自动选择新放入的视频。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := newRuntime(ctx, cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		if cfg.InboxDir != "" {
			inbox := server.NewInbox(cfg.InboxDir, rt.orch, 0)
			go func() {
				if err := inbox.Run(ctx); err != nil {
					logger.Error("[Inbox] 目录监听已停止", logger.ErrorField(err))
				}
			}()
		}

		handler := server.NewSessionHandler(rt.orch, rt.preview)
		return server.Run(ctx, cfg.ServerAddr, server.NewRouter(handler))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
