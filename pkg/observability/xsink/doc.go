// Package xsink 提供带轮转的报表输出目标，基于 lumberjack 实现。
//
// # 定位
//
// xmeasure 的 Print 只要求一个 io.Writer；xsink 为"周期性向文件追加
// 报表"的场景补上文件管理：按大小轮转、备份数量/天数清理、可选压缩。
//
// # 并发安全
//
// 所有方法都是并发安全的。Close 后调用 Write 或 Rotate 返回 [ErrClosed]，
// 重复 Close 也返回 [ErrClosed]。
//
// # 用法
//
//	sink, err := xsink.New("/var/log/app/perf.report")
//	if err != nil { ... }
//	defer sink.Close()
//
//	_ = storage.Print(sink)
package xsink
