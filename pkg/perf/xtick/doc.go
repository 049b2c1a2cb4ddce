// Package xtick 提供高分辨率单调时钟原语。
//
// # 设计理念
//
// xtick 只负责"读取时间"这一件事：返回单调递增的 tick 计数和每秒 tick 数
// （频率）。耗时的累计、统计和报表由上层 xmeasure 完成。
//
// 平台实现：
//   - Unix：clock_gettime(CLOCK_MONOTONIC)，纳秒分辨率
//   - 其他平台：基于 time 包单调时钟的进程启动相对计数
//
// 两种实现的频率都是 1e9（纳秒），但调用方不应依赖这一点，
// 应始终通过 Frequency() 换算。
//
// # 时钟注入
//
// [Clock] 接口抽象 tick 来源。生产代码使用 [System]；
// 测试使用 [NewManual] 创建可手动推进的确定性时钟，
// 使基于耗时的断言不依赖真实时间。
package xtick
