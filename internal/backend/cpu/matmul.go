package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/convnets/internal/tensor"
)

// MatMul performs matrix multiplication: (M, K) @ (K, N) -> (M, N).
// The product is computed by gonum's GEMM.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result := cpu.newResult("matmul", tensor.Shape{m, n}, a.DType())

	switch a.DType() {
	case tensor.Float32:
		gemm(false, false, m, n, k, a.AsFloat32(), k, b.AsFloat32(), n, result.AsFloat32(), n)
	case tensor.Float64:
		gemm(false, false, m, n, k, a.AsFloat64(), k, b.AsFloat64(), n, result.AsFloat64(), n)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}

	return result
}

// MatMulTransposed performs (M, K) @ (N, K)^T -> (M, N). b is handed to
// GEMM with the transpose flag, so it is never copied.
func (cpu *CPUBackend) MatMulTransposed(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul_t: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul_t: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	m, k := aShape[0], aShape[1]
	n, kAlt := bShape[0], bShape[1]
	if k != kAlt {
		panic(fmt.Sprintf("matmul_t: shape mismatch [%d,%d] @ [%d,%d]^T", m, k, n, kAlt))
	}

	result := cpu.newResult("matmul_t", tensor.Shape{m, n}, a.DType())

	switch a.DType() {
	case tensor.Float32:
		gemm(false, true, m, n, k, a.AsFloat32(), k, b.AsFloat32(), k, result.AsFloat32(), n)
	case tensor.Float64:
		gemm(false, true, m, n, k, a.AsFloat64(), k, b.AsFloat64(), k, result.AsFloat64(), n)
	default:
		panic(fmt.Sprintf("matmul_t: unsupported dtype %s", a.DType()))
	}

	return result
}

// gemm computes c = op(a) @ op(b) for row-major operands, where op
// transposes when the matching flag is set. c is m×n with row stride ldc;
// the inner dimension is k.
func gemm[T float](transA, transB bool, m, n, k int, a []T, lda int, b []T, ldb int, c []T, ldc int) {
	tA, aRows, aCols := blas.NoTrans, m, k
	if transA {
		tA, aRows, aCols = blas.Trans, k, m
	}
	tB, bRows, bCols := blas.NoTrans, k, n
	if transB {
		tB, bRows, bCols = blas.Trans, n, k
	}

	switch aData := any(a).(type) {
	case []float32:
		blas32.Gemm(tA, tB, 1,
			blas32.General{Rows: aRows, Cols: aCols, Stride: lda, Data: aData},
			blas32.General{Rows: bRows, Cols: bCols, Stride: ldb, Data: any(b).([]float32)},
			0,
			blas32.General{Rows: m, Cols: n, Stride: ldc, Data: any(c).([]float32)})
	case []float64:
		blas64.Gemm(tA, tB, 1,
			blas64.General{Rows: aRows, Cols: aCols, Stride: lda, Data: aData},
			blas64.General{Rows: bRows, Cols: bCols, Stride: ldb, Data: any(b).([]float64)},
			0,
			blas64.General{Rows: m, Cols: n, Stride: ldc, Data: any(c).([]float64)})
	default:
		panic(fmt.Sprintf("gemm: unsupported element type %T", a))
	}
}
