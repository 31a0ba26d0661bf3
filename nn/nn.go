// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/convnets/internal/nn"
	"github.com/born-ml/convnets/internal/tensor"
)

// Module interface defines the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// ShapeInferer is implemented by modules that can compute output shapes
// without running.
type ShapeInferer = nn.ShapeInferer

// Mode selects training or inference behavior.
type Mode = nn.Mode

// Modes.
const (
	Eval  = nn.Eval
	Train = nn.Train
)

// ErrShapeMismatch is wrapped by every shape contract violation.
var ErrShapeMismatch = nn.ErrShapeMismatch

// BatchNorm2D defaults.
const (
	DefaultBNEpsilon  = nn.DefaultBNEpsilon
	DefaultBNMomentum = nn.DefaultBNMomentum
)

// Parameter represents a learned parameter.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(784, 128, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// NewLinearFrom is NewLinear with weights drawn from rng.
func NewLinearFrom[B tensor.Backend](rng *rand.Rand, inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinearFrom(rng, inFeatures, outFeatures, backend)
}

// Conv2D represents a 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a new 2D convolutional layer.
//
// Example:
//
//	backend := cpu.New()
//	conv := nn.NewConv2D(3, 64, 3, 3, 1, 1, true, backend) // 3x3, stride=1, padding=1
func NewConv2D[B tensor.Backend](
	inChannels, outChannels int,
	kernelH, kernelW int,
	stride, padding int,
	useBias bool,
	backend B,
) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend)
}

// MaxPool2D represents a 2D max pooling layer.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a new 2D max pooling layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) *MaxPool2D[B] {
	return nn.NewMaxPool2D(kernelSize, stride, backend)
}

// AvgPool2D represents a 2D average pooling layer.
type AvgPool2D[B tensor.Backend] = nn.AvgPool2D[B]

// NewAvgPool2D creates a new 2D average pooling layer.
func NewAvgPool2D[B tensor.Backend](kernelSize, stride int, backend B) *AvgPool2D[B] {
	return nn.NewAvgPool2D(kernelSize, stride, backend)
}

// BatchNorm2D represents per-channel batch normalization.
type BatchNorm2D[B tensor.Backend] = nn.BatchNorm2D[B]

// NewBatchNorm2D creates a batch normalization layer over numFeatures channels.
func NewBatchNorm2D[B tensor.Backend](numFeatures int, eps, momentum float32, backend B) *BatchNorm2D[B] {
	return nn.NewBatchNorm2D(numFeatures, eps, momentum, backend)
}

// Dropout2D represents channel-wise dropout.
type Dropout2D[B tensor.Backend] = nn.Dropout2D[B]

// NewDropout2D creates a channel dropout layer. A nil rng uses the global
// math/rand source.
func NewDropout2D[B tensor.Backend](p float64, rng *rand.Rand, backend B) *Dropout2D[B] {
	return nn.NewDropout2D(p, rng, backend)
}

// Activations and reshapes

// ReLU represents the rectified linear unit activation.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Flatten reshapes [N, ...] to [N, features].
type Flatten[B tensor.Backend] = nn.Flatten[B]

// NewFlatten creates a new Flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return nn.NewFlatten[B]()
}

// Containers

// Sequential chains modules together.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a new sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// AddResidual adds residual to out. Shapes must match exactly.
func AddResidual[B tensor.Backend](out, residual *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	return nn.AddResidual(out, residual)
}

// Initialization

// Xavier creates a tensor with Xavier/Glorot uniform initialization.
func Xavier[B tensor.Backend](rng *rand.Rand, fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(rng, fanIn, fanOut, shape, backend)
}
