// Package nn implements the convolutional network layers used by convnets.
//
// This package provides building blocks for image classifiers:
//   - Module interface: Base interface for all layers
//   - Parameter: Named learned tensor owned by a layer
//   - Conv2D, MaxPool2D, AvgPool2D: Spatial layers over [N, C, H, W]
//   - BatchNorm2D, Dropout2D: Mode-dependent layers
//   - ReLU, Flatten, Linear: Pointwise, reshape and dense layers
//   - Sequential, AddResidual: Composition
//
// Every layer has a fixed shape contract. Violations are reported as errors
// wrapping ErrShapeMismatch rather than panics, so a model forward pass can
// fail cleanly on an incompatible input.
package nn

import (
	"github.com/born-ml/convnets/internal/tensor"
)

// Mode selects between training and inference behavior.
//
// Only BatchNorm2D and Dropout2D behave differently between modes. The mode
// is passed explicitly on every Forward call; layers keep no global state.
type Mode int

const (
	// Eval uses running statistics and disables dropout.
	Eval Mode = iota
	// Train uses batch statistics and applies dropout.
	Train
)

// String returns "eval" or "train".
func (m Mode) String() string {
	switch m {
	case Eval:
		return "eval"
	case Train:
		return "train"
	default:
		return "unknown"
	}
}

// Module is the base interface for all neural network components.
//
// Modules can be composed to build complex architectures:
//
//	block := nn.NewSequential[B](
//	    nn.NewConv2D(3, 16, 3, 3, 1, 1, true, backend),
//	    nn.NewReLU[B](),
//	    nn.NewMaxPool2D[B](2, 2, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	//
	// Returns an error wrapping ErrShapeMismatch when the input does not
	// satisfy the module's shape contract.
	Forward(input *tensor.Tensor[float32, B], mode Mode) (*tensor.Tensor[float32, B], error)

	// Parameters returns all learned parameters of this module.
	//
	// Returns an empty slice for modules without parameters.
	Parameters() []*Parameter[B]
}

// ShapeInferer is implemented by modules that can compute their output
// shape arithmetically, without allocating tensors.
type ShapeInferer interface {
	OutputShape(in tensor.Shape) (tensor.Shape, error)
}
