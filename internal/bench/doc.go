// Package bench 提供合成计算内核，作为性能测量 API 的驱动负载。
//
// 内核本身没有独立价值：它们存在的意义是以可预测的浮点运算量
// 触发 xmeasure 的计时路径，供 xperfbench 命令与示例使用。
package bench
