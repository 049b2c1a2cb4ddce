// xperfbench 是性能测量库的基准驱动与自检工具。
//
// 用法:
//
//	xperfbench [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config   测量剖面配置文件路径 (YAML/JSON)
//
// 命令:
//
//	run            运行合成内核基准并输出性能报表
//	info           打印运行环境信息（Go 运行时 + CPU 型号）
//	help           显示帮助信息
//
// run 命令说明:
//
//	每个 worker 持有自己的测量分区，并发执行矩阵乘法内核；
//	全部结束后合并各分区输出报表。--report 指定文件路径时
//	报表写入带轮转的文件，否则写到标准输出。--interval 大于 0
//	时每隔该秒数额外输出一次中间报表。
//
// 退出码:
//
//	0: 执行成功
//	1: 执行失败（配置加载失败、报表写入失败等）
//	2: 参数错误（无效 worker 数、无效矩阵规模、未知命令等）
//
// 示例:
//
//	xperfbench run                              # 默认参数运行
//	xperfbench run --workers 8 --iterations 50  # 8 并发、各 50 次迭代
//	xperfbench run --size 256 --report perf.log # 256×256 内核，报表写文件
//	xperfbench -c perf.yaml run --otel          # 按配置运行并导出 OTel 指标
//	xperfbench info                             # 查看运行环境
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "xperfbench",
		Usage:   "性能测量库的基准驱动与自检工具",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "测量剖面配置文件路径 (YAML/JSON)",
			},
		},
		Commands:       createCommands(),
		DefaultCommand: "help",
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，
		// 由 run() 统一处理退出码映射，确保与文档退出码契约一致。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			// ExitCoder 错误（如未知命令）的消息需在此输出，
			// 替代 HandleExitCoder 的默认 os.Exit 行为。
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

func run() int {
	app := createApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandler(cancel)

	if err := app.Run(ctx, os.Args); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		// CLI 框架产生的参数错误（如未知 flag、未知命令）也返回退出码 2，
		// 与文档契约"参数错误 → 退出码 2"保持一致。
		if isCLIUsageError(err) {
			// ExitErrHandler 或 flag 解析器已向 stderr 输出错误详情，此处仅设置退出码
			return 2
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}

	return 0
}
