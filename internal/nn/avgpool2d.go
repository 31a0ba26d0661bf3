package nn

import (
	"fmt"

	"github.com/born-ml/convnets/internal/tensor"
)

// AvgPool2D is a 2D average pooling layer.
//
// Each output element is the mean of its kernelSize x kernelSize window.
// Window geometry matches MaxPool2D, including dropped partial windows.
type AvgPool2D[B tensor.Backend] struct {
	kernelSize int
	stride     int
	backend    B
}

// NewAvgPool2D creates a new 2D average pooling layer.
func NewAvgPool2D[B tensor.Backend](kernelSize, stride int, backend B) *AvgPool2D[B] {
	if kernelSize <= 0 {
		panic(fmt.Sprintf("avgpool2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("avgpool2d: invalid stride %d", stride))
	}

	return &AvgPool2D[B]{
		kernelSize: kernelSize,
		stride:     stride,
		backend:    backend,
	}
}

// Forward performs the forward pass. Mode has no effect.
func (a *AvgPool2D[B]) Forward(input *tensor.Tensor[float32, B], _ Mode) (*tensor.Tensor[float32, B], error) {
	if _, err := a.OutputShape(input.Shape()); err != nil {
		return nil, err
	}

	outputRaw := a.backend.AvgPool2D(input.Raw(), a.kernelSize, a.stride)
	return tensor.New[float32, B](outputRaw, a.backend), nil
}

// Parameters returns an empty slice.
func (a *AvgPool2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}

func (a *AvgPool2D[B]) String() string {
	return fmt.Sprintf("AvgPool2D(kernel_size=%d, stride=%d)", a.kernelSize, a.stride)
}

// OutputShape computes the output shape for the given input shape.
func (a *AvgPool2D[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	return poolOutputShape("avgpool2d", in, a.kernelSize, a.stride)
}
