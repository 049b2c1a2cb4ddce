// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xsink: 带轮转的报表文件输出
//
// 设计原则：
//   - 输出层与测量层解耦，测量热路径不做任何 IO
//   - 轮转策略可配置，默认值偏保守
package observability
