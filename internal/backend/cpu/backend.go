// Package cpu implements the CPU backend on top of gonum BLAS.
package cpu

import (
	"fmt"

	"github.com/born-ml/convnets/internal/parallel"
	"github.com/born-ml/convnets/internal/tensor"
)

// float is the element constraint shared by the typed kernels.
type float interface {
	~float32 | ~float64
}

// CPUBackend implements tensor operations on CPU.
//
// GEMM-shaped work (MatMul, Conv2D) is delegated to gonum's BLAS; the
// remaining kernels are plain Go loops split across workers with
// internal/parallel.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend using parallel.DefaultConfig.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with an explicit worker configuration.
// Results do not depend on the configuration, only throughput does.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Parallel returns the worker configuration.
func (cpu *CPUBackend) Parallel() parallel.Config {
	return cpu.par
}

// newResult allocates an output tensor, panicking on invalid shapes.
func (cpu *CPUBackend) newResult(op string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return result
}

// Reshape returns a copy of t with a different shape.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: invalid shape: %v", err))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: incompatible shapes: %v -> %v (different number of elements)",
			t.Shape(), newShape))
	}

	result := cpu.newResult("reshape", newShape, t.DType())
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes the tensor's dimensions.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	// Default: reverse all dimensions
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d != ndim %d", len(axes), ndim))
	}
	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: invalid axis %d for %dD tensor", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("transpose: duplicate axis %d", ax))
		}
		seen[ax] = true
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}

	result := cpu.newResult("transpose", newShape, t.DType())
	switch t.DType() {
	case tensor.Float32:
		transpose(result.AsFloat32(), t.AsFloat32(), shape, newShape, axes, cpu.par)
	case tensor.Float64:
		transpose(result.AsFloat64(), t.AsFloat64(), shape, newShape, axes, cpu.par)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}
	return result
}

// transpose writes src permuted by axes into dst.
// For every output coordinate, the source offset is accumulated with the
// source stride of the permuted axis.
func transpose[T float](dst, src []T, srcShape, dstShape tensor.Shape, axes []int, cfg parallel.Config) {
	srcStrides := srcShape.ComputeStrides()
	dstStrides := dstShape.ComputeStrides()
	permStrides := make([]int, len(axes))
	for i, ax := range axes {
		permStrides[i] = srcStrides[ax]
	}

	parallel.ForRange(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			rem := i
			srcIdx := 0
			for d := range dstStrides {
				coord := rem / dstStrides[d]
				rem %= dstStrides[d]
				srcIdx += coord * permStrides[d]
			}
			dst[i] = src[srcIdx]
		}
	}, cfg)
}
