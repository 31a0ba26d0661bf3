package cpu

import (
	"fmt"

	"github.com/born-ml/convnets/internal/parallel"
	"github.com/born-ml/convnets/internal/tensor"
)

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b, opAdd)
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b, opSub)
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b, opMul)
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("div", a, b, opDiv)
}

type binaryOp int

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
)

func (cpu *CPUBackend) binary(name string, a, b *tensor.RawTensor, op binaryOp) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType()))
	}
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result := cpu.newResult(name, outShape, a.DType())

	switch a.DType() {
	case tensor.Float32:
		binaryKernel(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(),
			a.Shape(), b.Shape(), outShape, needsBroadcast, op, cpu.par)
	case tensor.Float64:
		binaryKernel(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(),
			a.Shape(), b.Shape(), outShape, needsBroadcast, op, cpu.par)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}
	return result
}

func binaryKernel[T float](dst, a, b []T, aShape, bShape, outShape tensor.Shape, needsBroadcast bool, op binaryOp, cfg parallel.Config) {
	if !needsBroadcast {
		// Fast path: identical shapes, walk the buffers in lockstep.
		parallel.ForRange(len(dst), func(start, end int) {
			applyBinary(dst[start:end], a[start:end], b[start:end], op)
		}, cfg)
		return
	}

	outStrides := outShape.ComputeStrides()
	aStrides := computeBroadcastStridesForShape(aShape, outShape)
	bStrides := computeBroadcastStridesForShape(bShape, outShape)

	parallel.ForRange(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			x := a[computeFlatIndex(i, outStrides, aStrides)]
			y := b[computeFlatIndex(i, outStrides, bStrides)]
			switch op {
			case opAdd:
				dst[i] = x + y
			case opSub:
				dst[i] = x - y
			case opMul:
				dst[i] = x * y
			case opDiv:
				dst[i] = x / y
			}
		}
	}, cfg)
}

func applyBinary[T float](dst, a, b []T, op binaryOp) {
	switch op {
	case opAdd:
		for i := range dst {
			dst[i] = a[i] + b[i]
		}
	case opSub:
		for i := range dst {
			dst[i] = a[i] - b[i]
		}
	case opMul:
		for i := range dst {
			dst[i] = a[i] * b[i]
		}
	case opDiv:
		for i := range dst {
			dst[i] = a[i] / b[i]
		}
	}
}
