package xmeasure

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xperf/pkg/perf/xtick"
)

// newTestStorage 创建挂在手动时钟（1 tick = 1ms）上的注册表。
func newTestStorage(opts ...Option) (*Storage, *xtick.Manual) {
	clock := xtick.NewManual(1000)
	return NewStorage(append([]Option{WithClock(clock)}, opts...)...), clock
}

func TestPartition_GetStableIdentity(t *testing.T) {
	s, _ := newTestStorage()
	p := s.Partition()

	first := p.Get("region", 0)
	second := p.Get("region", 99) // 已存在：忽略 flop

	assert.Same(t, first, second)
	assert.EqualValues(t, 0, second.Flop())
}

// nil 分区返回 nil Measurer，整条埋点链退化为空操作。
func TestPartition_NilReceiver(t *testing.T) {
	var p *Partition

	pm := p.Get("region", 0)
	assert.Nil(t, pm)

	h := Hold(pm)
	h.Pause()
	h.Leave()
}

func TestPartition_GetBlockComposesName(t *testing.T) {
	s, _ := newTestStorage()
	p := s.Partition()

	pm := p.GetBlock("app.Work", "inner", 0)
	assert.Equal(t, "app.Work { inner } ", pm.Name())

	// 相同输入恒产生相同名称
	assert.Same(t, pm, p.GetBlock("app.Work", "inner", 0))
}

func TestComposeName(t *testing.T) {
	assert.Equal(t, "f { b } ", ComposeName("f", "b"))
}

func TestPartition_FuncUsesCallerName(t *testing.T) {
	s, _ := newTestStorage()
	p := s.Partition()

	pm := p.Func(0)
	assert.Contains(t, pm.Name(), "TestPartition_FuncUsesCallerName")

	block := p.FuncBlock("stage", 0)
	assert.Contains(t, block.Name(), "TestPartition_FuncUsesCallerName")
	assert.Contains(t, block.Name(), "{ stage }")
}

func TestStorage_GetCombined_SinglePartition(t *testing.T) {
	s, clock := newTestStorage()
	p := s.Partition()
	pm := p.Get("region", 0)

	pm.Enter()
	clock.Advance(10)
	pm.Leave()

	combined := s.GetCombined("region")
	assert.Equal(t, "region", combined.Name())
	assert.EqualValues(t, 1, combined.Count())
	assert.InDelta(t, 10.0, combined.TotalMilliseconds(), 1e-9)
}

func TestStorage_GetCombined_NoData(t *testing.T) {
	s, _ := newTestStorage()
	p := s.Partition()
	p.Get("region", 0) // 创建但从未完成区间

	combined := s.GetCombined("region")
	assert.Equal(t, "region", combined.Name())
	assert.Zero(t, combined.Count())
	assert.Zero(t, combined.Average())

	missing := s.GetCombined("absent")
	assert.Equal(t, "absent", missing.Name())
	assert.Zero(t, missing.Count())
}

// 分区隔离 + 合并正确性：N 个 goroutine 各完成 M 个区间，
// 合并结果 count == N*M，total 为各自 total 之和。
func TestStorage_ConcurrentPartitions(t *testing.T) {
	const (
		workers   = 8
		intervals = 100
	)

	s := NewStorage() // 真实时钟：各 goroutine 并发推进
	totals := make([]float64, workers)
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			p := s.Partition()
			pm := p.Get("region", 0)
			for j := 0; j < intervals; j++ {
				pm.Enter()
				pm.Leave()
			}
			if pm.Count() != intervals {
				return fmt.Errorf("partition count = %d, want %d", pm.Count(), intervals)
			}
			totals[i] = pm.TotalMilliseconds()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var sum float64
	for _, total := range totals {
		sum += total
	}

	combined := s.GetCombined("region")
	assert.EqualValues(t, workers*intervals, combined.Count())
	// 合并 total 等于各分区 total 之和；逐分区换算毫秒再相加
	// 与先加 tick 再换算只差浮点舍入
	assert.InDelta(t, sum, combined.TotalMilliseconds(), 1e-6)
}

func TestStorage_ConcurrentPartitionCreation(t *testing.T) {
	s, _ := newTestStorage()

	var wg sync.WaitGroup
	parts := make([]*Partition, 16)
	for i := range parts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			parts[i] = s.Partition()
		}(i)
	}
	wg.Wait()

	seen := make(map[*Partition]bool)
	for _, p := range parts {
		require.NotNil(t, p)
		require.False(t, seen[p], "每个调用都应得到独立分区")
		seen[p] = true
	}
}

func TestStorage_Combined_MergesAcrossPartitions(t *testing.T) {
	s, clock := newTestStorage()

	p1 := s.Partition()
	p2 := s.Partition()

	a := p1.Get("region", 0)
	a.Enter()
	clock.Advance(10)
	a.Leave()

	b := p2.Get("region", 0)
	b.Enter()
	clock.Advance(30)
	b.Leave()

	other := p1.Get("other", 0)
	other.Enter()
	clock.Advance(5)
	other.Leave()

	combined := s.Combined()
	require.Len(t, combined, 2)
	// 按名称排序
	assert.Equal(t, "other", combined[0].Name())
	assert.Equal(t, "region", combined[1].Name())

	region := combined[1]
	assert.EqualValues(t, 2, region.Count())
	assert.InDelta(t, 40.0, region.TotalMilliseconds(), 1e-9)
	assert.InDelta(t, 10.0, region.MinMilliseconds(), 1e-9)
	assert.InDelta(t, 30.0, region.MaxMilliseconds(), 1e-9)
}

// 合并是快照：修改返回值不影响注册表内的原始统计。
func TestStorage_Combined_IsSnapshot(t *testing.T) {
	s, clock := newTestStorage()
	p := s.Partition()
	pm := p.Get("region", 0)
	pm.Enter()
	clock.Advance(10)
	pm.Leave()

	snapshot := s.Combined()
	require.Len(t, snapshot, 1)
	snapshot[0].Combine(pm)

	combined := s.GetCombined("region")
	assert.EqualValues(t, 1, combined.Count())
}

func TestStorage_Print(t *testing.T) {
	s, clock := newTestStorage()
	p := s.Partition()

	done := p.Get("b.Done", 0)
	done.Enter()
	clock.Advance(10)
	done.Leave()

	first := p.Get("a.First", 0)
	first.Enter()
	clock.Advance(20)
	first.Leave()

	p.Get("c.Empty", 0) // 无数据：应被排除

	var buf bytes.Buffer
	require.NoError(t, s.Print(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "----- Performance -----", lines[0])
	assert.Equal(t, "a.First: 20 ms / 1 = 20.000 ms {min=20.000; max=20.000}", lines[1])
	assert.Equal(t, "b.Done: 10 ms / 1 = 10.000 ms {min=10.000; max=10.000}", lines[2])
	assert.Equal(t, "----- ~~~~~~~~~~~ -----", lines[3])
}

func TestStorage_Print_MergesSameNameOnce(t *testing.T) {
	s, clock := newTestStorage()
	for i := 0; i < 3; i++ {
		p := s.Partition()
		pm := p.Get("region", 0)
		pm.Enter()
		clock.Advance(10)
		pm.Leave()
	}

	var buf bytes.Buffer
	require.NoError(t, s.Print(&buf))

	assert.Equal(t, 1, strings.Count(buf.String(), "region:"), "同名区域只应有一行合并统计")
	assert.Contains(t, buf.String(), "region: 30 ms / 3 = 10.000 ms")
}

func TestStorage_Print_Diagnostics(t *testing.T) {
	s, clock := newTestStorage(
		WithDiagnostic(func(w io.Writer) { fmt.Fprintln(w, "cpu: test-model") }),
		WithDiagnostic(func(w io.Writer) { panic("diagnostic failure") }),
	)
	p := s.Partition()
	pm := p.Get("region", 0)
	pm.Enter()
	clock.Advance(1)
	pm.Leave()

	var buf bytes.Buffer
	require.NoError(t, s.Print(&buf), "诊断钩子 panic 不得影响报表")

	out := buf.String()
	assert.Contains(t, out, "cpu: test-model")
	assert.Contains(t, out, "region: 1 ms / 1 = 1.000 ms")
}

// errWriter 在第 n 次写入时失败。
type errWriter struct {
	failAt int
	n      int
}

func (w *errWriter) Write(p []byte) (int, error) {
	w.n++
	if w.n >= w.failAt {
		return 0, errors.New("sink failed")
	}
	return len(p), nil
}

func TestStorage_Print_WriteError(t *testing.T) {
	s, clock := newTestStorage()
	p := s.Partition()
	pm := p.Get("region", 0)
	pm.Enter()
	clock.Advance(1)
	pm.Leave()

	assert.Error(t, s.Print(&errWriter{failAt: 1}))
	assert.Error(t, s.Print(&errWriter{failAt: 2}))
}

func TestStorage_Clear(t *testing.T) {
	s, clock := newTestStorage()
	p := s.Partition()
	pm := p.Get("region", 0)
	pm.Enter()
	clock.Advance(10)
	pm.Leave()

	s.Clear()

	assert.Empty(t, s.Combined())
	cleared := s.GetCombined("region")
	assert.Zero(t, cleared.Count())

	// 已缓存的分区句柄脱离注册表后仍可用
	pm.Enter()
	clock.Advance(5)
	pm.Leave()
	assert.EqualValues(t, 2, pm.Count())
	detached := s.GetCombined("region")
	assert.Zero(t, detached.Count(), "脱离的分区不再参与报表")
}

func TestDefault_SharedInstance(t *testing.T) {
	assert.Same(t, Default(), Default())
}
