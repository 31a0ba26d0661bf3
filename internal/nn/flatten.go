package nn

import (
	"github.com/born-ml/convnets/internal/tensor"
)

// Flatten reshapes [N, d1, d2, ...] into [N, d1*d2*...].
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a new Flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward flattens all dimensions after the batch dimension.
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B], _ Mode) (*tensor.Tensor[float32, B], error) {
	if _, err := f.OutputShape(input.Shape()); err != nil {
		return nil, err
	}
	return input.Flatten(), nil
}

// Parameters returns nil.
func (f *Flatten[B]) Parameters() []*Parameter[B] {
	return nil
}

func (f *Flatten[B]) String() string {
	return "Flatten()"
}

// OutputShape computes [N, prod(rest)].
func (f *Flatten[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	if len(in) < 2 {
		return nil, shapeMismatch("flatten", "expected at least 2D input, got %v", in)
	}
	features := 1
	for _, d := range in[1:] {
		features *= d
	}
	return tensor.Shape{in[0], features}, nil
}
