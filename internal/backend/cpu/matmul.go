package cpu

import (
	"fmt"

	"github.com/born-ml/resnet/internal/parallel"
	"github.com/born-ml/resnet/internal/tensor"
)

// MatMul performs matrix multiplication.
// For 2D tensors: (M, K) @ (K, N) -> (M, N).
func (cpu *CPUBackend) MatMul(a, b *tensor.Tensor) *tensor.Tensor {
	m, k := dims2("matmul", a)
	kAlt, n := dims2("matmul", b)
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result := tensor.Zeros(tensor.Shape{m, n})
	matmulFloat32(result.Data(), a.Data(), b.Data(), m, k, n, cpu.parallel)
	return result
}

// MatMulTransA computes aᵀ @ b: (K, M)ᵀ @ (K, N) -> (M, N).
func (cpu *CPUBackend) MatMulTransA(a, b *tensor.Tensor) *tensor.Tensor {
	k, m := dims2("matmul_ta", a)
	kAlt, n := dims2("matmul_ta", b)
	if k != kAlt {
		panic(fmt.Sprintf("matmul_ta: shape mismatch [%d,%d]ᵀ @ [%d,%d]", k, m, kAlt, n))
	}

	result := tensor.Zeros(tensor.Shape{m, n})
	c, ad, bd := result.Data(), a.Data(), b.Data()

	// Each worker owns a band of output rows, so writes never overlap.
	parallel.Range(m, func(start, end int) {
		for p := 0; p < k; p++ {
			aRow := ad[p*m : (p+1)*m]
			bRow := bd[p*n : (p+1)*n]
			for i := start; i < end; i++ {
				av := aRow[i]
				if av == 0 {
					continue
				}
				cRow := c[i*n : (i+1)*n]
				for j, bv := range bRow {
					cRow[j] += av * bv
				}
			}
		}
	}, cpu.parallel)
	return result
}

// MatMulTransB computes a @ bᵀ: (M, K) @ (N, K)ᵀ -> (M, N).
func (cpu *CPUBackend) MatMulTransB(a, b *tensor.Tensor) *tensor.Tensor {
	m, k := dims2("matmul_tb", a)
	n, kAlt := dims2("matmul_tb", b)
	if k != kAlt {
		panic(fmt.Sprintf("matmul_tb: shape mismatch [%d,%d] @ [%d,%d]ᵀ", m, k, n, kAlt))
	}

	result := tensor.Zeros(tensor.Shape{m, n})
	c, ad, bd := result.Data(), a.Data(), b.Data()

	parallel.Range(m, func(start, end int) {
		for i := start; i < end; i++ {
			aRow := ad[i*k : (i+1)*k]
			for j := 0; j < n; j++ {
				bRow := bd[j*k : (j+1)*k]
				var sum float32
				for p, av := range aRow {
					sum += av * bRow[p]
				}
				c[i*n+j] = sum
			}
		}
	}, cpu.parallel)
	return result
}

// matmulFloat32 computes C = A @ B in i-k-j order so the inner loop walks
// contiguous rows of B and C.
func matmulFloat32(c, a, b []float32, m, k, n int, cfg parallel.Config) {
	parallel.Range(m, func(start, end int) {
		for i := start; i < end; i++ {
			cRow := c[i*n : (i+1)*n]
			for j := range cRow {
				cRow[j] = 0
			}
			for p := 0; p < k; p++ {
				av := a[i*k+p]
				if av == 0 {
					continue
				}
				bRow := b[p*n : (p+1)*n]
				for j, bv := range bRow {
					cRow[j] += av * bv
				}
			}
		}
	}, cfg)
}

func dims2(op string, t *tensor.Tensor) (rows, cols int) {
	s := t.Shape()
	if len(s) != 2 {
		panic(fmt.Sprintf("%s: only 2D tensors supported, got %dD", op, len(s)))
	}
	return s[0], s[1]
}
