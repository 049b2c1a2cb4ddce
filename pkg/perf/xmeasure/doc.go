// Package xmeasure 提供进程内命名代码区域的耗时/吞吐量测量。
//
// # 组成
//
// 三层结构，自下而上：
//
//   - [Measurer]：单个命名区域的累计器。记录完成区间数、总耗时、
//     单区间最小/最大耗时，可选地按固定运算量（flop）计算 GFlops 吞吐。
//     显式三态状态机（空闲/运行/暂停），支持 Pause/Enter 排除区间内的
//     无关子段。
//   - [Holder]：作用域守卫。构造时进入区域，defer 其 Leave 保证函数的
//     任意退出路径（正常返回、提前返回、panic 传播）都会关闭区间。
//   - [Storage]：进程级注册表。按 goroutine 分区，热路径（Enter/Leave）
//     无锁；仅分区创建、合并报表与清空持有注册表互斥锁。
//
// # 用法
//
//	storage := xmeasure.NewStorage()
//
//	// 每个 goroutine 获取一次自己的分区并缓存
//	part := storage.Partition()
//
//	func work() {
//	    defer xmeasure.Hold(part.Get("app.Work", 0)).Leave()
//	    // ... 被测代码 ...
//	}
//
//	// 汇总报表
//	storage.Print(os.Stdout)
//
// # 分区模型
//
// Go 不暴露 goroutine 标识，因此"线程本地缓存"被显式化为 [Partition]
// 句柄：每个 goroutine 调用一次 [Storage.Partition]（此时持锁），
// 之后该句柄上的查找与测量不再竞争注册表锁。
// 分区内的 Measurer 一经创建地址稳定，Holder 可长期持有其引用。
//
// # 报表与并发
//
// Print/GetCombined 在注册表锁下按名称合并各分区的已关闭统计。
// 合并只读取字段，不与正在执行 Leave 的 goroutine 同步——报表应在被测
// 工作静止后生成。这是对上游实现语义的保留，见各方法文档。
package xmeasure
