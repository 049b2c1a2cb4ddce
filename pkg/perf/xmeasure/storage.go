package xmeasure

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"

	"github.com/omeyang/xperf/pkg/perf/xtick"
)

// 报表的首尾行，与数值行区分开，便于从混合输出中截取报表段。
const (
	reportHeader = "----- Performance -----"
	reportFooter = "----- ~~~~~~~~~~~ -----"
)

// Storage 是进程级的测量注册表：按 goroutine 分区的命名 Measurer 表。
//
// 结构性操作（创建分区、合并报表、清空）由单个互斥锁保护；
// 测量热路径（分区内的 Enter/Leave）不触碰该锁。
type Storage struct {
	mu         sync.Mutex
	partitions []*Partition
	clock      xtick.Clock
	diags      []func(io.Writer)
}

// NewStorage 创建注册表。
func NewStorage(opts ...Option) *Storage {
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return &Storage{
		clock: options.Clock,
		diags: options.Diagnostics,
	}
}

var (
	defaultOnce    sync.Once
	defaultStorage *Storage
)

// Default 返回进程级共享注册表，首次调用时创建。
//
// 显式构造（NewStorage 并随依赖传递）是首选方式；
// Default 服务于无法穿透的调用链，语义与显式实例完全一致。
func Default() *Storage {
	defaultOnce.Do(func() {
		defaultStorage = NewStorage()
	})
	return defaultStorage
}

// Partition 是单个 goroutine 在注册表中的私有分区。
//
// 每个 goroutine 应调用一次 [Storage.Partition] 获取并缓存自己的分区——
// 这是"线程本地缓存指针"的显式化：锁只在分区创建时竞争一次，
// 之后分区上的所有操作不再触碰注册表锁。
//
// 分区方法只应由其归属 goroutine 调用。regions 表由分区自己的读写锁
// 保护仅仅是为了与报表合并互斥：Go 的 map 在并发读写时会直接 fatal，
// 不像上游实现那样"只是读到旧值"。命中路径只付出一次 RLock。
type Partition struct {
	mu      sync.RWMutex
	clock   xtick.Clock
	regions map[string]*Measurer
}

// Partition 为调用方创建一个新分区并纳入注册表。
func (s *Storage) Partition() *Partition {
	p := &Partition{
		clock:   s.clock,
		regions: make(map[string]*Measurer),
	}
	s.mu.Lock()
	s.partitions = append(s.partitions, p)
	s.mu.Unlock()
	return p
}

// Get 返回本分区中 name 对应的 Measurer，不存在时以给定 flop 创建。
// 返回的指针在注册表生命周期内保持稳定，可被 Holder 长期持有。
// 首次创建后，相同 name 的后续调用忽略 flop 参数。
// nil 接收者返回 nil，与 Holder 的 nil 容忍配合实现整体停用。
func (p *Partition) Get(name string, flop int64) *Measurer {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	pm, ok := p.regions[name]
	p.mu.RUnlock()
	if ok {
		return pm
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if pm, ok = p.regions[name]; ok {
		return pm
	}
	pm = NewWithClock(name, flop, p.clock)
	p.regions[name] = pm
	return pm
}

// GetBlock 以 function 与子块标签 block 组合出区域名后委托给 Get，
// 用于区分同一逻辑函数内的多个命名子区域。
func (p *Partition) GetBlock(function, block string, flop int64) *Measurer {
	return p.Get(ComposeName(function, block), flop)
}

// Func 返回以调用方函数名命名的 Measurer。
func (p *Partition) Func(flop int64) *Measurer {
	return p.Get(callerName(2), flop)
}

// FuncBlock 返回以"调用方函数名 + 子块标签"命名的 Measurer。
func (p *Partition) FuncBlock(block string, flop int64) *Measurer {
	return p.Get(ComposeName(callerName(2), block), flop)
}

// ComposeName 按固定分隔约定组合函数名与子块标签。
// 这只是命名约定，不是可解析的语法；相同输入恒产生相同名称。
func ComposeName(function, block string) string {
	return function + " { " + block + " } "
}

// callerName 返回调用栈上 skip 层之外的函数全名。
func callerName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	return fn.Name()
}

// Clear 丢弃全部分区及其 Measurer。
//
// 已被调用方缓存的分区句柄不会失效：它们继续可用，
// 只是从此不再出现在报表中（脱离注册表）。
// 不要与其他 goroutine 上的活跃测量并发调用。
func (s *Storage) Clear() {
	s.mu.Lock()
	s.partitions = nil
	s.mu.Unlock()
}

// Combined 返回按名称合并所有分区后的统计快照，按名称排序。
// 没有已关闭区间（Average() == 0）的区域视为"无数据"而被排除。
//
// 合并读取各分区 Measurer 的字段，但不与正在执行 Leave 的归属
// goroutine 同步。报表应在被测工作静止后生成；并发场景下个别
// 区间可能被计入下一次报表，这是对上游语义的有意保留。
func (s *Storage) Combined() []Measurer {
	s.mu.Lock()
	total := s.combineLocked()
	s.mu.Unlock()

	names := make([]string, 0, len(total))
	for name := range total {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Measurer, 0, len(names))
	for _, name := range names {
		out = append(out, *total[name])
	}
	return out
}

// combineLocked 构建名称到合并结果的临时映射。调用方必须持有 s.mu。
func (s *Storage) combineLocked() map[string]*Measurer {
	total := make(map[string]*Measurer)
	for _, p := range s.partitions {
		p.mu.RLock()
		for name, pm := range p.regions {
			if pm.Average() == 0 {
				continue
			}
			if agg, ok := total[name]; ok {
				agg.Combine(pm)
			} else {
				total[name] = pm.clone()
			}
		}
		p.mu.RUnlock()
	}
	return total
}

// GetCombined 返回单个区域跨全部分区的合并统计（值语义）。
// 区域不存在或没有已关闭区间时，返回同名的零值统计。
func (s *Storage) GetCombined(name string) Measurer {
	s.mu.Lock()
	defer s.mu.Unlock()

	var combined *Measurer
	for _, p := range s.partitions {
		p.mu.RLock()
		pm, ok := p.regions[name]
		if ok && pm.Average() != 0 {
			if combined == nil {
				combined = pm.clone()
			} else {
				combined.Combine(pm)
			}
		}
		p.mu.RUnlock()
	}
	if combined == nil {
		return *NewWithClock(name, 0, s.clock)
	}
	return *combined
}

// Print 向 w 输出合并报表：首行、诊断钩子行、
// 每个有数据的区域一行 Statistic()（按名称排序）、尾行。
// 返回首个写入错误；合并语义与并发约束见 [Storage.Combined]。
func (s *Storage) Print(w io.Writer) error {
	combined := s.Combined()

	if _, err := fmt.Fprintln(w, reportHeader); err != nil {
		return err
	}
	for _, diag := range s.diags {
		runDiagnostic(diag, w)
	}
	for i := range combined {
		if _, err := fmt.Fprintln(w, combined[i].Statistic()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, reportFooter); err != nil {
		return err
	}
	return nil
}

// runDiagnostic 隔离诊断钩子的 panic。
// 钩子是可选的外部协作者，其失败不得影响数值报表。
func runDiagnostic(diag func(io.Writer), w io.Writer) {
	defer func() { _ = recover() }()
	diag(w)
}
