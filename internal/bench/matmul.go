package bench

import (
	"math/rand"

	"github.com/omeyang/xperf/pkg/perf/xmeasure"
)

// MatMulFlop 返回 n×n 矩阵乘法的浮点运算量（每个输出元素 n 次乘加）。
func MatMulFlop(n int) int64 {
	return 2 * int64(n) * int64(n) * int64(n)
}

// MatMul 执行一次 n×n 朴素矩阵乘法并计入给定分区的 bench.MatMul 区域。
// 返回结果矩阵首元素，防止整段计算被优化掉。
func MatMul(p *xmeasure.Partition, n int, rng *rand.Rand) float64 {
	a := randomMatrix(n, rng)
	b := randomMatrix(n, rng)
	c := make([]float64, n*n)

	defer xmeasure.Hold(p.Get("bench.MatMul", MatMulFlop(n))).Leave()

	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			aik := a[i*n+k]
			for j := 0; j < n; j++ {
				c[i*n+j] += aik * b[k*n+j]
			}
		}
	}
	return c[0]
}

// StagedMatMul 与 MatMul 等价，但矩阵准备放在测量区间内部、
// 通过 Pause 从统计中剔除：演示暂停语义在真实内核里的用法。
func StagedMatMul(p *xmeasure.Partition, n int, rng *rand.Rand) float64 {
	m := p.Get("bench.StagedMatMul", MatMulFlop(n))
	h := xmeasure.Hold(m)
	defer h.Leave()

	h.Pause()
	a := randomMatrix(n, rng)
	b := randomMatrix(n, rng)
	c := make([]float64, n*n)
	h.Enter()

	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			aik := a[i*n+k]
			for j := 0; j < n; j++ {
				c[i*n+j] += aik * b[k*n+j]
			}
		}
	}
	return c[0]
}

func randomMatrix(n int, rng *rand.Rand) []float64 {
	m := make([]float64, n*n)
	for i := range m {
		m[i] = rng.Float64()
	}
	return m
}
