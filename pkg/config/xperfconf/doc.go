// Package xperfconf 提供测量剖面（instrumentation profile）的加载、
// 解析和热重载，基于 koanf 实现。
//
// # 定位
//
// 测量核心（xmeasure）不读配置：开关、区域运算量表、报表输出参数
// 都由调用方决定。xperfconf 把这些决定收敛为一个可版本化的配置文件：
//
//	enabled: true
//	report:
//	  path: /var/log/app/perf.report
//	  interval_seconds: 60
//	  max_size_mb: 64
//	flops:
//	  "bench.MatMul": 2000000
//	otel:
//	  enabled: false
//
// # 支持的格式
//
//   - YAML（默认，按扩展名 .yaml/.yml 识别）
//   - JSON（.json）
//
// # 并发安全
//
// 所有方法都是并发安全的：Reload 通过互斥锁序列化，解析成功后整体
// 替换剖面快照；Snapshot 在读锁下返回当前剖面的值拷贝，调用方可
// 自由持有，不受后续重载影响。
//
// # 配置监视
//
// 支持文件变更监视和自动重载（基于 fsnotify）：监视目录而非文件、
// 内置防抖、容忍 vim/emacs 原子写入。从字节数据创建的 Loader 不支持
// 监视。Stop 保证返回后不再有回调执行。
package xperfconf
