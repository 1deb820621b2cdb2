package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"SyncWave/core/gateway"
	"SyncWave/core/workflow"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "交互式工作流",
	Run: func(cmd *cobra.Command, args []string) {
		runShell(cmd)
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

const shellHelp = `命令:
  file <路径>       选择要配乐的视频
  analyze           上传视频并分析氛围
  search <关键词>   搜索歌曲，替换当前播放列表
  refresh           按氛围重新推荐
  list              显示播放列表
  play <序号>       试听/停止试听
  stop              停止试听
  pick <序号>       选中歌曲并进入裁剪
  trim <秒>         设置起始秒数
  cancel            关闭裁剪
  merge             合成并保存视频
  reset             重新开始
  status            显示当前状态
  help              显示帮助
  quit              退出`

// previewState 当前试听地址
type previewState interface {
	Current() string
}

// sessionShell 解析一行输入并驱动编排器
type sessionShell struct {
	orch    *workflow.Orchestrator
	preview previewState
	out     io.Writer
}

func runShell(cmd *cobra.Command) {
	rt, err := newRuntime(cmd.Context(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:       "syncwave> ",
		HistoryFile:  filepath.Join(homeDir, ".syncwave_history"),
		AutoComplete: shellCompleter(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing readline: %v\n", err)
		return
	}
	defer rl.Close()

	sh := &sessionShell{orch: rt.orch, preview: rt.preview, out: rl.Stdout()}
	fmt.Fprintf(sh.out, "=== SyncWave ===\n后端: %s\n输入 help 查看命令\n", cfg.APIBaseURL)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Fprintln(sh.out, "再见")
				return
			}
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !sh.handle(cmd.Context(), line) {
			return
		}
	}
}

func shellCompleter() readline.AutoCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("file"),
		readline.PcItem("analyze"),
		readline.PcItem("search"),
		readline.PcItem("refresh"),
		readline.PcItem("list"),
		readline.PcItem("play"),
		readline.PcItem("stop"),
		readline.PcItem("pick"),
		readline.PcItem("trim"),
		readline.PcItem("cancel"),
		readline.PcItem("merge"),
		readline.PcItem("reset"),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

// handle 返回 false 表示退出
func (sh *sessionShell) handle(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	var err error
	showStatus := true
	switch strings.ToLower(name) {
	case "quit", "exit":
		return false
	case "help":
		fmt.Fprintln(sh.out, shellHelp)
		return true
	case "status":
	case "list":
		printPlaylist(sh.out, sh.orch.Snapshot().Playlist, sh.current())
		return true
	case "file":
		err = sh.orch.ChooseFile(expandHome(arg))
	case "analyze":
		fmt.Fprintln(sh.out, "正在上传并分析视频...")
		err = sh.orch.Analyze(ctx)
	case "search":
		err = sh.orch.Search(ctx, arg)
	case "refresh":
		err = sh.orch.Refresh(ctx)
	case "play":
		var index int
		if index, err = parseIndex(arg); err == nil {
			var external string
			external, err = sh.orch.TogglePreview(index)
			if external != "" {
				fmt.Fprintf(sh.out, "这首歌没有试听片段，可以在这里收听: %s\n", external)
			}
		}
		showStatus = false
	case "stop":
		sh.orch.StopPreview()
		showStatus = false
	case "pick":
		var index int
		if index, err = parseIndex(arg); err == nil {
			err = sh.orch.PickTrack(index)
		}
	case "trim":
		var seconds int
		if seconds, err = strconv.Atoi(arg); err != nil {
			err = gateway.NewValidationFailure("trim", "start time must be a whole number of seconds")
		} else {
			err = sh.orch.SetTrimStart(seconds)
		}
	case "cancel":
		err = sh.orch.CancelTrim()
	case "merge":
		fmt.Fprintln(sh.out, "正在合成视频...")
		err = sh.orch.Merge(ctx)
	case "reset":
		err = sh.orch.Reset()
	default:
		fmt.Fprintf(sh.out, "未知命令: %s，输入 help 查看命令\n", name)
		return true
	}

	if err != nil {
		fmt.Fprintf(sh.out, "错误: %s\n", gateway.UserMessage(err))
		return true
	}
	if showStatus {
		printSession(sh.out, sh.orch.Snapshot(), sh.current())
	}
	return true
}

func (sh *sessionShell) current() string {
	if sh.preview == nil {
		return ""
	}
	return sh.preview.Current()
}

// parseIndex 把 1 起始的序号转换为下标
func parseIndex(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, gateway.NewValidationFailure("select", fmt.Sprintf("invalid track number %q", arg))
	}
	return n - 1, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
