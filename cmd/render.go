package cmd

import (
	"context"
	"fmt"
	"os"

	"SyncWave/core/workflow"

	"github.com/spf13/cobra"
)

var (
	renderVideo string
	renderQuery string
	renderPick  int
	renderStart int
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "非交互地完成一次配乐合成",
	Long:  `依次执行：选择视频、分析、（可选）搜索、选歌、设置起点、合成并保存。任何一步失败都会以非零状态退出。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		location, err := render(cmd.Context(), rt.orch, renderOptions{
			Video: renderVideo,
			Query: renderQuery,
			Pick:  renderPick,
			Start: renderStart,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "已保存: %s\n", location)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVar(&renderVideo, "video", "", "要配乐的视频文件")
	renderCmd.Flags().StringVarP(&renderQuery, "query", "q", "", "用关键词搜索代替推荐结果")
	renderCmd.Flags().IntVarP(&renderPick, "pick", "n", 1, "使用播放列表中的第几首歌")
	renderCmd.Flags().IntVarP(&renderStart, "start", "s", 0, "歌曲起始秒数")
	renderCmd.MarkFlagRequired("video")

	renderCmd.Example = `  syncwave render --video trip.mp4
  syncwave render --video trip.mp4 -q "Fein Travis Scott" -n 1 -s 45`
}

type renderOptions struct {
	Video string
	Query string
	Pick  int
	Start int
}

// render 按顺序驱动一次完整流程，返回保存位置
func render(ctx context.Context, orch *workflow.Orchestrator, opts renderOptions) (string, error) {
	steps := []struct {
		name string
		run  func() error
	}{
		{"选择视频", func() error { return orch.ChooseFile(opts.Video) }},
		{"分析视频", func() error { return orch.Analyze(ctx) }},
		{"搜索歌曲", func() error {
			if opts.Query == "" {
				return nil
			}
			return orch.Search(ctx, opts.Query)
		}},
		{"选择歌曲", func() error {
			index, err := parseIndex(fmt.Sprint(opts.Pick))
			if err != nil {
				return err
			}
			return orch.PickTrack(index)
		}},
		{"设置起点", func() error { return orch.SetTrimStart(opts.Start) }},
		{"合成视频", func() error { return orch.Merge(ctx) }},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			return "", fmt.Errorf("%s失败: %w", step.name, err)
		}
		if msg := orch.Snapshot().LastError; msg != "" {
			return "", fmt.Errorf("%s失败: %s", step.name, msg)
		}
	}

	snap := orch.Snapshot()
	if snap.LastDownload == "" {
		return "", fmt.Errorf("合成视频失败: 没有生成文件")
	}
	return snap.LastDownload, nil
}
