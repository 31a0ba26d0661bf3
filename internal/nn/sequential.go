package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/convnets/internal/tensor"
)

// Sequential is a container module that chains multiple modules together.
//
// Each module's output becomes the next module's input. Forward stops at
// the first failing module and reports its index.
//
// Example:
//
//	block := nn.NewSequential[B](
//	    nn.NewConv2D(3, 64, 3, 3, 1, 1, true, backend),
//	    nn.NewMaxPool2D(2, 2, backend),
//	    nn.NewReLU[B](),
//	)
//
//	output, err := block.Forward(input, nn.Eval)
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a new Sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{
		modules: modules,
	}
}

// Forward applies all modules in sequence.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B], mode Mode) (*tensor.Tensor[float32, B], error) {
	output := input

	for i, module := range s.modules {
		var err error
		output, err = module.Forward(output, mode)
		if err != nil {
			return nil, fmt.Errorf("sequential[%d]: %w", i, err)
		}
	}

	return output, nil
}

// Parameters returns all trainable parameters from all modules.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]

	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}

	return params
}

// OutputShape threads in through every module's shape inference. Modules
// that do not implement ShapeInferer are assumed to preserve shape.
func (s *Sequential[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	shape := in.Clone()
	for i, module := range s.modules {
		inferer, ok := module.(ShapeInferer)
		if !ok {
			continue
		}
		var err error
		shape, err = inferer.OutputShape(shape)
		if err != nil {
			return nil, fmt.Errorf("sequential[%d]: %w", i, err)
		}
	}
	return shape, nil
}

// Add appends a module to the sequence.
func (s *Sequential[B]) Add(module Module[B]) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules in the sequence.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// Module returns the module at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential[B]) Module(index int) Module[B] {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}

// String lists the contained modules one per line.
func (s *Sequential[B]) String() string {
	var sb strings.Builder
	sb.WriteString("Sequential(\n")
	for i, module := range s.modules {
		fmt.Fprintf(&sb, "  (%d): %v\n", i, module)
	}
	sb.WriteString(")")
	return sb.String()
}
