package cpu

import (
	"fmt"

	"github.com/born-ml/convnets/internal/parallel"
	"github.com/born-ml/convnets/internal/tensor"
)

// MeanDim computes the mean along dim. Negative dims count from the end.
//
// With keepDim the reduced dimension stays in the result with size 1.
// Sums are accumulated in float64 regardless of the element type.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("meanDim: dimension %d out of range for tensor of rank %d", dim, ndim))
	}

	outer := shape[:dim].NumElements()
	size := shape[dim]
	inner := shape[dim+1:].NumElements()

	var outShape tensor.Shape
	if keepDim {
		outShape = shape.Clone()
		outShape[dim] = 1
	} else {
		outShape = append(shape[:dim].Clone(), shape[dim+1:]...)
		if len(outShape) == 0 {
			outShape = tensor.Shape{1}
		}
	}

	result := cpu.newResult("meanDim", outShape, x.DType())
	switch x.DType() {
	case tensor.Float32:
		meanDim(result.AsFloat32(), x.AsFloat32(), outer, size, inner, cpu.par)
	case tensor.Float64:
		meanDim(result.AsFloat64(), x.AsFloat64(), outer, size, inner, cpu.par)
	default:
		panic(fmt.Sprintf("meanDim: unsupported dtype %s", x.DType()))
	}
	return result
}

// meanDim reduces src viewed as [outer, size, inner] to dst [outer, inner].
func meanDim[T float](dst, src []T, outer, size, inner int, cfg parallel.Config) {
	parallel.ForRange(outer*inner, func(start, end int) {
		for k := start; k < end; k++ {
			o, i := k/inner, k%inner
			base := o*size*inner + i
			var sum float64
			for j := 0; j < size; j++ {
				sum += float64(src[base+j*inner])
			}
			dst[k] = T(sum / float64(size))
		}
	}, cfg)
}
