package nn

import (
	"github.com/born-ml/convnets/internal/tensor"
)

// ReLUBackend is an interface for backends that support ReLU activation.
type ReLUBackend interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

// ReLU is a Rectified Linear Unit activation module.
//
// Applies the element-wise function: f(x) = max(0, x)
//
// Example:
//
//	relu := nn.NewReLU[Backend]()
//	output, _ := relu.Forward(input, nn.Eval) // All negative values become 0
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies ReLU activation: f(x) = max(0, x). It accepts any shape.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B], _ Mode) (*tensor.Tensor[float32, B], error) {
	backend := input.Backend()

	reluBackend, ok := any(backend).(ReLUBackend)
	if !ok {
		panic("ReLU: backend must implement ReLU operation")
	}
	return tensor.New[float32, B](reluBackend.ReLU(input.Raw()), backend), nil
}

// Parameters returns an empty slice (ReLU has no trainable parameters).
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

func (r *ReLU[B]) String() string {
	return "ReLU()"
}

// OutputShape returns in unchanged.
func (r *ReLU[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	return in.Clone(), nil
}
