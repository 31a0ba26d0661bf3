package nn

import (
	"fmt"

	"github.com/born-ml/convnets/internal/tensor"
)

// MaxPool2D is a 2D max pooling layer.
//
// Max pooling reduces spatial dimensions by taking the maximum value
// in each window. MaxPool2D has no learnable parameters.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
//
// Where:
//
//	out_height = (height - kernelSize) / stride + 1
//	out_width = (width - kernelSize) / stride + 1
//
// Trailing rows and columns that do not fill a whole window are dropped,
// so a 2x2/2 pool maps 7x7 to 3x3.
//
// Example:
//
//	pool := nn.NewMaxPool2D(2, 2, backend)
//	output, err := pool.Forward(input, nn.Eval) // [32, 64, 28, 28] -> [32, 64, 14, 14]
type MaxPool2D[B tensor.Backend] struct {
	kernelSize int
	stride     int
	backend    B
}

// NewMaxPool2D creates a new 2D max pooling layer.
//
// Parameters:
//   - kernelSize: Size of pooling window (square)
//   - stride: Stride for pooling (typically same as kernelSize for non-overlapping)
//   - backend: Backend for computation
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) *MaxPool2D[B] {
	if kernelSize <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid stride %d", stride))
	}

	return &MaxPool2D[B]{
		kernelSize: kernelSize,
		stride:     stride,
		backend:    backend,
	}
}

// Forward performs the forward pass. Mode has no effect.
func (m *MaxPool2D[B]) Forward(input *tensor.Tensor[float32, B], _ Mode) (*tensor.Tensor[float32, B], error) {
	if _, err := m.OutputShape(input.Shape()); err != nil {
		return nil, err
	}

	outputRaw := m.backend.MaxPool2D(input.Raw(), m.kernelSize, m.stride)
	return tensor.New[float32, B](outputRaw, m.backend), nil
}

// Parameters returns an empty slice (MaxPool2D has no learnable parameters).
func (m *MaxPool2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}

// String returns a string representation of the layer.
func (m *MaxPool2D[B]) String() string {
	return fmt.Sprintf("MaxPool2D(kernel_size=%d, stride=%d)", m.kernelSize, m.stride)
}

// KernelSize returns the pooling kernel size.
func (m *MaxPool2D[B]) KernelSize() int {
	return m.kernelSize
}

// Stride returns the stride.
func (m *MaxPool2D[B]) Stride() int {
	return m.stride
}

// OutputShape computes the output shape for the given input shape.
func (m *MaxPool2D[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	return poolOutputShape("maxpool2d", in, m.kernelSize, m.stride)
}

// poolOutputShape validates a pooling input and returns its output shape.
func poolOutputShape(layer string, in tensor.Shape, kernelSize, stride int) (tensor.Shape, error) {
	if err := expect4D(layer, in); err != nil {
		return nil, err
	}
	if in[2] < kernelSize || in[3] < kernelSize {
		return nil, shapeMismatch(layer, "window %dx%d larger than input %v", kernelSize, kernelSize, in)
	}
	outH := (in[2]-kernelSize)/stride + 1
	outW := (in[3]-kernelSize)/stride + 1
	return tensor.Shape{in[0], in[1], outH, outW}, nil
}
