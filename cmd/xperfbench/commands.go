package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xperf/internal/bench"
	"github.com/omeyang/xperf/pkg/config/xperfconf"
	"github.com/omeyang/xperf/pkg/observability/xsink"
	"github.com/omeyang/xperf/pkg/perf/xmeasure"
)

// usageError 表示参数校验失败，run() 将其映射为退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createRunCommand(),
		createInfoCommand(),
	}
}

// createRunCommand 创建 run 子命令。
func createRunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "运行合成内核基准并输出性能报表",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "并发 worker 数",
				Value:   4,
			},
			&cli.IntFlag{
				Name:    "iterations",
				Aliases: []string{"n"},
				Usage:   "每个 worker 的迭代次数",
				Value:   10,
			},
			&cli.IntFlag{
				Name:  "size",
				Usage: "矩阵规模 (n×n)",
				Value: 128,
			},
			&cli.StringFlag{
				Name:    "report",
				Aliases: []string{"o"},
				Usage:   "报表文件路径（留空输出到标准输出）",
			},
			&cli.IntFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "中间报表输出间隔（秒，0 表示不输出）",
			},
			&cli.BoolFlag{
				Name:  "otel",
				Usage: "结束时将合并统计导出为 OTel 指标",
			},
		},
		Action: cmdRun,
	}
}

// createInfoCommand 创建 info 子命令。
func createInfoCommand() *cli.Command {
	return &cli.Command{
		Name:    "info",
		Aliases: []string{"env"},
		Usage:   "打印运行环境信息（Go 运行时 + CPU 型号）",
		Action: func(_ context.Context, _ *cli.Command) error {
			goRuntimeDiagnostic(os.Stdout)
			cpuDiagnostic(os.Stdout)
			return nil
		},
	}
}

// runParams 是 run 命令的最终生效参数：
// 配置文件剖面提供默认值，命令行 flag 显式设置时覆盖。
type runParams struct {
	workers    int
	iterations int
	size       int
	reportPath string
	interval   time.Duration
	otel       bool
	enabled    bool
	sink       xperfconf.ReportConfig
}

// resolveRunParams 合并配置剖面与命令行参数。
func resolveRunParams(cmd *cli.Command) (runParams, error) {
	profile := xperfconf.Default()
	if path := cmd.String("config"); path != "" {
		loader, err := xperfconf.Load(path)
		if err != nil {
			return runParams{}, fmt.Errorf("加载配置失败: %w", err)
		}
		profile = loader.Snapshot()
	}

	p := runParams{
		workers:    cmd.Int("workers"),
		iterations: cmd.Int("iterations"),
		size:       cmd.Int("size"),
		reportPath: profile.Report.Path,
		interval:   time.Duration(profile.Report.IntervalSeconds) * time.Second,
		otel:       profile.OTel.Enabled,
		enabled:    profile.Enabled,
		sink:       profile.Report,
	}
	if cmd.IsSet("report") {
		p.reportPath = cmd.String("report")
	}
	if cmd.IsSet("interval") {
		p.interval = time.Duration(cmd.Int("interval")) * time.Second
	}
	if cmd.IsSet("otel") {
		p.otel = cmd.Bool("otel")
	}

	if p.workers <= 0 {
		return runParams{}, &usageError{msg: fmt.Sprintf("workers 必须为正数，得到 %d", p.workers)}
	}
	if p.iterations <= 0 {
		return runParams{}, &usageError{msg: fmt.Sprintf("iterations 必须为正数，得到 %d", p.iterations)}
	}
	if p.size <= 0 {
		return runParams{}, &usageError{msg: fmt.Sprintf("size 必须为正数，得到 %d", p.size)}
	}
	return p, nil
}

// cmdRun 运行基准：每个 worker 持有独立分区并发执行内核，
// 结束后合并全部分区输出报表。
func cmdRun(ctx context.Context, cmd *cli.Command) error {
	params, err := resolveRunParams(cmd)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger := slog.With("run_id", runID)
	logger.Info("基准开始",
		"workers", params.workers,
		"iterations", params.iterations,
		"size", params.size,
		"enabled", params.enabled)

	storage := xmeasure.NewStorage(
		xmeasure.WithDiagnostic(goRuntimeDiagnostic),
		xmeasure.WithDiagnostic(cpuDiagnostic),
	)

	// 中间报表：到期即打合并快照，与 worker 并发读属于
	// 已文档化的无同步合并语义
	var stopDump func()
	if params.interval > 0 {
		stopDump = startPeriodicDump(ctx, storage, params.interval)
	}

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < params.workers; w++ {
		var part *xmeasure.Partition
		if params.enabled {
			part = storage.Partition()
		}
		rng := rand.New(rand.NewSource(int64(w) + 1))

		g.Go(func() error {
			for i := 0; i < params.iterations; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				bench.MatMul(part, params.size, rng)
				bench.StagedMatMul(part, params.size, rng)
			}
			return nil
		})
	}

	runErr := g.Wait()
	if stopDump != nil {
		stopDump()
	}
	if runErr != nil {
		return fmt.Errorf("基准执行失败: %w", runErr)
	}

	if err := writeReport(storage, params); err != nil {
		return err
	}

	if params.otel {
		if err := exportOTel(ctx, storage); err != nil {
			return err
		}
		logger.Info("OTel 指标已导出")
	}

	logger.Info("基准结束")
	return nil
}

// writeReport 输出最终报表：路径为空时写标准输出，
// 否则写入带轮转的报表文件。
func writeReport(storage *xmeasure.Storage, params runParams) error {
	if params.reportPath == "" {
		return storage.Print(os.Stdout)
	}

	sink, err := xsink.New(params.reportPath,
		xsink.WithMaxSize(params.sink.MaxSizeMB),
		xsink.WithMaxBackups(params.sink.MaxBackups),
		xsink.WithMaxAge(params.sink.MaxAgeDays),
		xsink.WithCompress(params.sink.Compress),
	)
	if err != nil {
		return fmt.Errorf("打开报表文件失败: %w", err)
	}

	printErr := storage.Print(sink)
	closeErr := sink.Close()
	if printErr != nil {
		return fmt.Errorf("写报表失败: %w", printErr)
	}
	return closeErr
}

// exportOTel 把合并后的统计导出到全局 MeterProvider。
func exportOTel(ctx context.Context, storage *xmeasure.Storage) error {
	exporter, err := xmeasure.NewOTelExporter()
	if err != nil {
		return fmt.Errorf("创建 OTel 导出器失败: %w", err)
	}
	exporter.Export(ctx, storage)
	return nil
}

// startPeriodicDump 启动中间报表循环，返回的函数停止循环并等待其退出。
func startPeriodicDump(ctx context.Context, storage *xmeasure.Storage, interval time.Duration) func() {
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				// 中间报表固定写 stderr，不与最终报表混流
				if err := storage.Print(os.Stderr); err != nil {
					return
				}
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}

// goRuntimeDiagnostic 输出 Go 运行时环境行。
func goRuntimeDiagnostic(w io.Writer) {
	fmt.Fprintf(w, "Go: %s %s/%s, GOMAXPROCS=%d\n",
		runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.GOMAXPROCS(0))
}

// cpuDiagnostic 输出 CPU 型号与核数行。采集失败时退化为逻辑核数。
func cpuDiagnostic(w io.Writer) {
	infos, err := cpu.Info()
	if err != nil || len(infos) == 0 {
		fmt.Fprintf(w, "CPU: unknown, logical=%d\n", runtime.NumCPU())
		return
	}
	fmt.Fprintf(w, "CPU: %s, cores=%d, logical=%d\n",
		strings.TrimSpace(infos[0].ModelName), infos[0].Cores, runtime.NumCPU())
}

// setupSignalHandler 设置信号处理。
// 设计决策: 第一次信号优雅取消，第二次信号强制退出（退出码 130 = 128 + SIGINT）。
// 当基准阻塞时，用户可通过再次 Ctrl+C 强制退出。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel() // 第一次信号: 优雅取消

		<-sigCh
		signal.Stop(sigCh) // 回收订阅
		os.Exit(130)       // 第二次信号: 强制退出
	}()
}

// isCLIUsageError 判断是否为 CLI 框架产生的参数错误。
func isCLIUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "flag provided but not defined") ||
		strings.Contains(msg, "No help topic for") ||
		strings.Contains(msg, "invalid value")
}
