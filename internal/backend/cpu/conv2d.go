package cpu

import (
	"fmt"

	"github.com/born-ml/convnets/internal/parallel"
	"github.com/born-ml/convnets/internal/tensor"
)

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape:  [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels, kernel_h, kernel_w]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Padding is zero padding applied symmetrically on both spatial axes.
//
// Algorithm, per image in the batch:
//  1. im2col: gather every receptive field into a row of a
//     [out_h*out_w, in_channels*kernel_h*kernel_w] buffer
//  2. GEMM: kernel [C_out, C_in*K_h*K_w] @ col^T -> [C_out, out_h*out_w],
//     written directly into the image's slice of the output
//
// Reference: "High Performance Convolutional Neural Networks for Document Processing"
// (Chellapilla et al., 2006).
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernelShape)))
	}
	if stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d or padding %d", stride, padding))
	}
	if input.DType() != kernel.DType() {
		panic(fmt.Sprintf("conv2d: dtype mismatch %s vs %s", input.DType(), kernel.DType()))
	}

	g := convGeometry{
		N:       inputShape[0],
		CIn:     inputShape[1],
		H:       inputShape[2],
		W:       inputShape[3],
		COut:    kernelShape[0],
		KH:      kernelShape[2],
		KW:      kernelShape[3],
		stride:  stride,
		padding: padding,
	}
	if g.CIn != kernelShape[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", g.CIn, kernelShape[1]))
	}

	g.HOut = (g.H+2*padding-g.KH)/stride + 1
	g.WOut = (g.W+2*padding-g.KW)/stride + 1
	if g.HOut <= 0 || g.WOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", g.HOut, g.WOut))
	}

	output := cpu.newResult("conv2d", tensor.Shape{g.N, g.COut, g.HOut, g.WOut}, input.DType())

	switch input.DType() {
	case tensor.Float32:
		conv2d(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(), g, cpu.par)
	case tensor.Float64:
		conv2d(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(), g, cpu.par)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}

	return output
}

// convGeometry holds the dimensions of one convolution.
type convGeometry struct {
	N, CIn, H, W    int
	COut, KH, KW    int
	HOut, WOut      int
	stride, padding int
}

func conv2d[T float](output, input, kernel []T, g convGeometry, cfg parallel.Config) {
	colWidth := g.CIn * g.KH * g.KW
	positions := g.HOut * g.WOut
	imageSize := g.CIn * g.H * g.W
	outSize := g.COut * positions

	colBuf := make([]T, positions*colWidth)

	for n := 0; n < g.N; n++ {
		im2col(colBuf, input[n*imageSize:(n+1)*imageSize], g, cfg)
		gemm(false, true, g.COut, positions, colWidth,
			kernel, colWidth,
			colBuf, colWidth,
			output[n*outSize:(n+1)*outSize], positions)
	}
}

// im2col transforms one image [C, H, W] into colBuf [H_out*W_out, C*K_h*K_w].
//
// Each row of colBuf is the receptive field of one output position, with
// out-of-bounds (padding) positions set to zero.
func im2col[T float](colBuf, image []T, g convGeometry, cfg parallel.Config) {
	colWidth := g.CIn * g.KH * g.KW

	parallel.ForRange(g.HOut*g.WOut, func(start, end int) {
		for pos := start; pos < end; pos++ {
			outH, outW := pos/g.WOut, pos%g.WOut
			hStart := outH*g.stride - g.padding
			wStart := outW*g.stride - g.padding

			row := colBuf[pos*colWidth : (pos+1)*colWidth]
			idx := 0
			for c := 0; c < g.CIn; c++ {
				plane := image[c*g.H*g.W : (c+1)*g.H*g.W]
				for kh := 0; kh < g.KH; kh++ {
					h := hStart + kh
					for kw := 0; kw < g.KW; kw++ {
						w := wStart + kw
						if h >= 0 && h < g.H && w >= 0 && w < g.W {
							row[idx] = plane[h*g.W+w]
						} else {
							row[idx] = 0
						}
						idx++
					}
				}
			}
		}
	}, cfg)
}
