package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/convnets/internal/parallel"
	"github.com/born-ml/convnets/internal/tensor"
)

// MaxPool2D performs 2D max pooling.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
//
// Where:
//
//	out_height = (height - kernelSize) / stride + 1
//	out_width = (width - kernelSize) / stride + 1
//
// Windows that would extend past the border are dropped.
//
// Example (2x2 pool, stride=2):
//
//	Input: [[1,2,3,4],    Output: [[6,8],
//	        [5,6,7,8],             [14,16]]
//	        [9,10,11,12],
//	        [13,14,15,16]]
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	return cpu.pool2d("maxpool2d", input, kernelSize, stride, poolMax)
}

// AvgPool2D performs 2D average pooling with the same geometry as MaxPool2D.
// Every window is fully inside the input, so the divisor is always
// kernelSize*kernelSize.
func (cpu *CPUBackend) AvgPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	return cpu.pool2d("avgpool2d", input, kernelSize, stride, poolAvg)
}

type poolKind int

const (
	poolMax poolKind = iota
	poolAvg
)

func (cpu *CPUBackend) pool2d(name string, input *tensor.RawTensor, kernelSize, stride int, kind poolKind) *tensor.RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("%s: expected 4D input [N,C,H,W], got %dD", name, len(inputShape)))
	}

	N, C, H, W := inputShape[0], inputShape[1], inputShape[2], inputShape[3]

	if kernelSize <= 0 {
		panic(fmt.Sprintf("%s: invalid kernel size %d", name, kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("%s: invalid stride %d", name, stride))
	}
	if kernelSize > H || kernelSize > W {
		panic(fmt.Sprintf("%s: kernel size %d too large for input %dx%d", name, kernelSize, H, W))
	}

	HOut := (H-kernelSize)/stride + 1
	WOut := (W-kernelSize)/stride + 1

	output := cpu.newResult(name, tensor.Shape{N, C, HOut, WOut}, input.DType())

	g := poolGeometry{N: N, C: C, H: H, W: W, HOut: HOut, WOut: WOut, kernel: kernelSize, stride: stride}
	switch input.DType() {
	case tensor.Float32:
		pool2d(output.AsFloat32(), input.AsFloat32(), g, kind, cpu.par)
	case tensor.Float64:
		pool2d(output.AsFloat64(), input.AsFloat64(), g, kind, cpu.par)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %v", name, input.DType()))
	}

	return output
}

type poolGeometry struct {
	N, C, H, W     int
	HOut, WOut     int
	kernel, stride int
}

func pool2d[T float](outputData, inputData []T, g poolGeometry, kind poolKind, cfg parallel.Config) {
	area := T(g.kernel * g.kernel)

	parallel.ForBatch(g.N, g.C, func(n, c int) {
		// Pre-slice channel plane: eliminates (n*C+c)*H*W bounds check
		channelOffset := (n*g.C + c) * g.H * g.W
		channelData := inputData[channelOffset : channelOffset+g.H*g.W]
		outPlane := outputData[(n*g.C+c)*g.HOut*g.WOut : (n*g.C+c+1)*g.HOut*g.WOut]

		for outH := 0; outH < g.HOut; outH++ {
			hStart := outH * g.stride
			for outW := 0; outW < g.WOut; outW++ {
				wStart := outW * g.stride

				var acc T
				if kind == poolMax {
					acc = T(math.Inf(-1))
				}
				for kh := 0; kh < g.kernel; kh++ {
					rowData := channelData[(hStart+kh)*g.W : (hStart+kh+1)*g.W]
					for kw := 0; kw < g.kernel; kw++ {
						val := rowData[wStart+kw]
						if kind == poolMax {
							if val > acc {
								acc = val
							}
						} else {
							acc += val
						}
					}
				}
				if kind == poolAvg {
					acc /= area
				}
				outPlane[outH*g.WOut+outW] = acc
			}
		}
	}, cfg)
}
