//go:build !unix

package xtick

// Ticks 返回当前单调 tick 计数（纳秒）。
// 非 Unix 平台基于 time 包的单调时钟，以进程启动为基点。
func Ticks() int64 {
	return fallbackTicks()
}

// Frequency 返回每秒 tick 数。
func Frequency() int64 {
	return ticksPerSecond
}
