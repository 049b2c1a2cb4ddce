package xmeasure

import (
	"io"

	"github.com/omeyang/xperf/pkg/perf/xtick"
)

// Options 定义 Storage 的创建选项。
type Options struct {
	// Clock tick 来源，默认为平台时钟。
	Clock xtick.Clock

	// Diagnostics 报表头部的诊断信息钩子。
	// Print 在输出统计行之前依次调用，向报表写入环境/构建信息。
	// 钩子是尽力而为的外部协作者：panic 会被隔离，不影响数值报表。
	Diagnostics []func(io.Writer)
}

// Option 定义 Storage 选项函数类型。
type Option func(*Options)

// defaultOptions 返回默认选项。
func defaultOptions() *Options {
	return &Options{
		Clock: xtick.System(),
	}
}

// WithClock 设置 tick 来源。
// 主要用于测试中注入 [xtick.Manual] 确定性时钟；nil 被忽略。
func WithClock(clock xtick.Clock) Option {
	return func(o *Options) {
		if clock != nil {
			o.Clock = clock
		}
	}
}

// WithDiagnostic 追加一个报表诊断钩子。
// 可多次使用，按注册顺序输出；nil 被忽略。
func WithDiagnostic(fn func(io.Writer)) Option {
	return func(o *Options) {
		if fn != nil {
			o.Diagnostics = append(o.Diagnostics, fn)
		}
	}
}
