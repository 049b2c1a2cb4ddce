//go:build unix

package xtick

import "golang.org/x/sys/unix"

// Ticks 返回当前单调 tick 计数（纳秒）。
//
// 使用 clock_gettime(CLOCK_MONOTONIC)。该调用在受支持的平台上
// 对有效的时钟 id 不会失败；万一失败则回退到 time 包的单调时钟，
// 两者基点不同，但单次进程内只会走其中一条路径。
func Ticks() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return fallbackTicks()
	}
	return ts.Nano()
}

// Frequency 返回每秒 tick 数。
func Frequency() int64 {
	return ticksPerSecond
}
