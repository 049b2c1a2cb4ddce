package xtick

import (
	"sync"
	"time"
)

// ticksPerSecond 平台时钟频率：两种实现都以纳秒为 tick 单位。
const ticksPerSecond = int64(1e9)

// processStart 非 Unix 平台回退实现的计时基点。
// time.Since 内部使用单调时钟，不受系统时间调整影响。
var processStart = time.Now()

// fallbackTicks 返回基于 time 包单调时钟的 tick 计数。
func fallbackTicks() int64 {
	return int64(time.Since(processStart))
}

// Milliseconds 将 tick 计数按频率换算为毫秒。
func Milliseconds(ticks, frequency int64) float64 {
	return float64(ticks) / float64(frequency) * 1000
}

// Clock 抽象单调 tick 来源。
//
// 实现必须保证 Ticks 单调不减、Frequency 恒定且大于 0。
// 所有方法都必须是并发安全的。
type Clock interface {
	// Ticks 返回当前单调 tick 计数。
	Ticks() int64

	// Frequency 返回每秒 tick 数。
	Frequency() int64
}

// systemClock 是基于平台时钟的 Clock 实现。
type systemClock struct{}

func (systemClock) Ticks() int64     { return Ticks() }
func (systemClock) Frequency() int64 { return Frequency() }

// System 返回平台时钟。
// 返回值是无状态单例，可安全地在任意 goroutine 间共享。
func System() Clock {
	return systemClock{}
}

// Manual 是手动推进的确定性时钟，仅用于测试。
//
// 并发安全：Advance/Set/Ticks 可跨 goroutine 调用。
type Manual struct {
	mu        sync.Mutex
	now       int64
	frequency int64
}

// NewManual 创建手动时钟。
// frequency 为每秒 tick 数，必须大于 0，否则 panic（测试配置错误应快速暴露）。
func NewManual(frequency int64) *Manual {
	if frequency <= 0 {
		panic("xtick: manual clock frequency must be positive")
	}
	return &Manual{frequency: frequency}
}

// Ticks 返回当前 tick 计数。
func (m *Manual) Ticks() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Frequency 返回每秒 tick 数。
func (m *Manual) Frequency() int64 {
	return m.frequency
}

// Advance 将时钟向前推进 delta 个 tick。
// delta 为负时 panic：单调时钟不允许回拨。
func (m *Manual) Advance(delta int64) {
	if delta < 0 {
		panic("xtick: manual clock cannot move backwards")
	}
	m.mu.Lock()
	m.now += delta
	m.mu.Unlock()
}

// Set 将时钟设置到绝对 tick 计数。
// 小于当前值时 panic：单调时钟不允许回拨。
func (m *Manual) Set(ticks int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ticks < m.now {
		panic("xtick: manual clock cannot move backwards")
	}
	m.now = ticks
}
