package xmeasure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHold_EntersImmediately(t *testing.T) {
	pm, clock := newTestMeasurer("region", 0)

	h := Hold(pm)
	clock.Advance(8)
	h.Leave()

	assert.EqualValues(t, 1, pm.Count())
	assert.InDelta(t, 8.0, pm.TotalMilliseconds(), 1e-9)
}

func TestBind_DoesNotEnter(t *testing.T) {
	pm, clock := newTestMeasurer("region", 0)

	h := Bind(pm)
	clock.Advance(5) // 绑定后、进入前的耗时不计
	h.Enter()
	clock.Advance(3)
	h.Leave()

	assert.EqualValues(t, 1, pm.Count())
	assert.InDelta(t, 3.0, pm.TotalMilliseconds(), 1e-9)
}

// nil Measurer 的 Holder 全部操作都是空操作，用于整体关闭测量。
func TestHolder_NilMeasurer(t *testing.T) {
	h := Hold(nil)

	assert.NotPanics(t, func() {
		h.Enter()
		h.Pause()
		h.Leave()
	})
}

// defer Hold(m).Leave() 在提前返回路径上也关闭区间。
func TestHolder_DeferEarlyReturn(t *testing.T) {
	pm, clock := newTestMeasurer("region", 0)

	run := func(early bool) {
		defer Hold(pm).Leave()
		clock.Advance(2)
		if early {
			return
		}
		clock.Advance(2)
	}

	run(true)
	run(false)

	assert.EqualValues(t, 2, pm.Count())
	assert.InDelta(t, 6.0, pm.TotalMilliseconds(), 1e-9)
	assert.InDelta(t, 2.0, pm.MinMilliseconds(), 1e-9)
	assert.InDelta(t, 4.0, pm.MaxMilliseconds(), 1e-9)
}

// panic 传播路径上 defer 的 Leave 同样执行，区间不会悬挂。
func TestHolder_DeferOnPanic(t *testing.T) {
	pm, clock := newTestMeasurer("region", 0)

	func() {
		defer func() { _ = recover() }()
		defer Hold(pm).Leave()
		clock.Advance(9)
		panic(errors.New("boom"))
	}()

	assert.EqualValues(t, 1, pm.Count())
	assert.InDelta(t, 9.0, pm.TotalMilliseconds(), 1e-9)
}

// Holder 上的 Pause/Enter 与直接操作 Measurer 等价。
func TestHolder_PauseResume(t *testing.T) {
	pm, clock := newTestMeasurer("region", 0)

	h := Hold(pm)
	clock.Advance(6)
	h.Pause()
	clock.Advance(100)
	h.Enter()
	clock.Advance(4)
	h.Leave()

	assert.EqualValues(t, 1, pm.Count())
	assert.InDelta(t, 10.0, pm.TotalMilliseconds(), 1e-9)
}

// 作用域退出时处于暂停状态：defer 的 Leave 提交已累计的部分。
func TestHolder_DeferWhilePaused(t *testing.T) {
	pm, clock := newTestMeasurer("region", 0)

	func() {
		defer Hold(pm).Leave()
		clock.Advance(3)
		pm.Pause()
		clock.Advance(50)
	}()

	assert.EqualValues(t, 1, pm.Count())
	assert.InDelta(t, 3.0, pm.TotalMilliseconds(), 1e-9)
}
