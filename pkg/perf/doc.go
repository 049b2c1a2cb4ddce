// Package perf 提供进程内性能测量相关的子包。
//
// 子包列表：
//   - xtick: 单调时钟抽象与刻度/毫秒换算
//   - xmeasure: 命名区域计时、按 goroutine 分区的注册表与报表合并
//
// 设计原则：
//   - 热路径（进入/离开区域）无锁、无分配、无 IO
//   - 跨分区合并只在报表时发生，读写竞态语义有明确文档
//   - 所有入口对 nil 容忍，测量可整体停用而无需改调用方代码
package perf
