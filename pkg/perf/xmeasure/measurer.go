package xmeasure

import (
	"fmt"
	"math"
	"strings"

	"github.com/omeyang/xperf/pkg/perf/xtick"
)

// state 表示 Measurer 的测量状态。
//
// 设计决策: 使用三态枚举而非 entered/paused 两个布尔位，
// 使"既在区间内又处于暂停"这类非法组合不可表示。
type state int

const (
	// stateIdle 空闲：没有未关闭的区间。
	stateIdle state = iota
	// stateRunning 运行：区间开放，时钟在累计。
	stateRunning
	// statePaused 暂停：区间未关闭，已累计的部分保留在 current 中，
	// 时钟停止累计，等待 Enter 恢复或 Leave 关闭。
	statePaused
)

// Measurer 是单个命名区域的耗时累计器。
//
// Measurer 不是并发安全的：它的既定归属是创建它的那个 goroutine
// （经 [Partition.Get] 获得），所有 Enter/Leave/Pause 都应来自该
// goroutine。跨 goroutine 的统计合并由 [Storage] 在报表时完成。
type Measurer struct {
	name  string
	flop  int64
	clock xtick.Clock

	state   state
	start   int64 // 当前开放区间的起始 tick
	current int64 // 未关闭区间已累计的 tick（含暂停前的片段）
	total   int64 // 所有已关闭区间的 tick 之和
	min     int64 // 最短单区间 tick
	max     int64 // 最长单区间 tick
	count   int64 // 已关闭区间数
}

// New 创建使用平台时钟的 Measurer。
// flop 为单次区间的固定运算量，0 表示不统计吞吐。
func New(name string, flop int64) *Measurer {
	return NewWithClock(name, flop, xtick.System())
}

// NewWithClock 创建使用指定时钟的 Measurer，时钟为 nil 时使用平台时钟。
// 主要用于测试中注入确定性时钟。
func NewWithClock(name string, flop int64, clock xtick.Clock) *Measurer {
	if clock == nil {
		clock = xtick.System()
	}
	return &Measurer{
		name:  name,
		flop:  flop,
		clock: clock,
		min:   math.MaxInt64,
		max:   math.MinInt64,
	}
}

// Enter 开启（或从暂停恢复）一个区间。
// 区间已开放时为幂等空操作，起始时间戳不变，防止嵌套调用破坏计时。
func (m *Measurer) Enter() {
	if m.state == stateRunning {
		return
	}
	m.state = stateRunning
	m.start = m.clock.Ticks()
}

// Leave 关闭当前区间并提交统计：current 并入 total，
// 以完成区间的时长更新 min/max，count 加一。
// 空闲状态下调用是空操作而非错误，容忍不成对的埋点。
func (m *Measurer) Leave() {
	if m.state == stateIdle {
		return
	}
	if m.state == stateRunning {
		m.current += m.clock.Ticks() - m.start
	}
	m.total += m.current
	if m.current < m.min {
		m.min = m.current
	}
	if m.current > m.max {
		m.max = m.current
	}
	m.count++
	m.current = 0
	m.state = stateIdle
}

// Pause 暂停当前区间：停止时钟累计但不关闭区间，已累计部分保留。
// 之后的 Enter 恢复累计，最终 Leave 将两段之和作为一个区间提交。
// 用于把区间内的无关子段（如临时准备工作）排除在测量之外。
// 仅在运行状态下生效。
func (m *Measurer) Pause() {
	if m.state != stateRunning {
		return
	}
	m.current += m.clock.Ticks() - m.start
	m.state = statePaused
}

// Average 返回单区间平均耗时（毫秒）。没有已关闭区间时返回 0。
func (m *Measurer) Average() float64 {
	if m.count == 0 {
		return 0
	}
	return m.milliseconds(m.total) / float64(m.count)
}

// GFlops 返回吞吐量（GFlop/s）。
// 仅当配置了非零 flop 且 total > 0 时有定义，否则返回 0。
func (m *Measurer) GFlops() float64 {
	if m.count == 0 || m.flop == 0 || m.total <= 0 {
		return 0
	}
	return float64(m.flop) * float64(m.count) / m.milliseconds(m.total) / 1e6
}

// Combine 把另一个 Measurer 的已关闭统计合并进来：
// count/total 相加，min/max 取并。
//
// 前置条件（调用方保证，不做运行时检查）：other 不得处于开放区间，
// 否则 total 的含义不完整。Combine 不合并 current 与状态位，
// 仅用于报表时按名称归并不同分区的已关闭统计。
func (m *Measurer) Combine(other *Measurer) {
	if other == nil {
		return
	}
	m.count += other.count
	m.total += other.total
	if other.min < m.min {
		m.min = other.min
	}
	if other.max > m.max {
		m.max = other.max
	}
}

// Statistic 返回单行可读统计摘要。
// 数值字段是契约（总毫秒、次数、平均、min/max、可选 GFlops），
// 文本排版仅供人读，不承诺稳定。
func (m *Measurer) Statistic() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %.0f ms / %d = %.3f ms {min=%.3f; max=%.3f}",
		m.name, m.milliseconds(m.total), m.count, m.Average(),
		m.MinMilliseconds(), m.MaxMilliseconds())
	if m.flop > 0 {
		fmt.Fprintf(&sb, " %.1f GFlops", m.GFlops())
	}
	return sb.String()
}

// Name 返回区域名称。
func (m *Measurer) Name() string { return m.name }

// Flop 返回配置的单区间运算量，0 表示未统计吞吐。
func (m *Measurer) Flop() int64 { return m.flop }

// Count 返回已关闭区间数。
func (m *Measurer) Count() int64 { return m.count }

// TotalMilliseconds 返回所有已关闭区间的总耗时（毫秒）。
func (m *Measurer) TotalMilliseconds() float64 {
	return m.milliseconds(m.total)
}

// MinMilliseconds 返回最短单区间耗时（毫秒）。没有已关闭区间时返回 0。
func (m *Measurer) MinMilliseconds() float64 {
	if m.count == 0 {
		return 0
	}
	return m.milliseconds(m.min)
}

// MaxMilliseconds 返回最长单区间耗时（毫秒）。没有已关闭区间时返回 0。
func (m *Measurer) MaxMilliseconds() float64 {
	if m.count == 0 {
		return 0
	}
	return m.milliseconds(m.max)
}

// clone 返回已关闭统计的副本，作为报表合并的起点。
// 副本处于空闲状态，不携带 current/start。
func (m *Measurer) clone() *Measurer {
	return &Measurer{
		name:  m.name,
		flop:  m.flop,
		clock: m.clock,
		total: m.total,
		min:   m.min,
		max:   m.max,
		count: m.count,
	}
}

func (m *Measurer) milliseconds(ticks int64) float64 {
	return xtick.Milliseconds(ticks, m.clock.Frequency())
}
