package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/convnets/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [batch_size, out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
//
// Example:
//
//	layer := nn.NewLinear(256*28*28, 128, backend)
//	output, err := layer.Forward(flat, nn.Eval) // [N, 128]
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [out_features, in_features]
	bias        *Parameter[B] // [out_features]
	backend     B
}

// NewLinear creates a new Linear layer using the global math/rand source.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return NewLinearFrom(nil, inFeatures, outFeatures, backend)
}

// NewLinearFrom creates a new Linear layer with weights drawn from rng.
//
// Panics on non-positive feature counts.
func NewLinearFrom[B tensor.Backend](rng *rand.Rand, inFeatures, outFeatures int, backend B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("linear: invalid features in=%d, out=%d", inFeatures, outFeatures))
	}

	weightShape := tensor.Shape{outFeatures, inFeatures}
	weight := NewParameter("weight", Xavier(rng, inFeatures, outFeatures, weightShape, backend))
	bias := NewParameter("bias", Zeros(tensor.Shape{outFeatures}, backend))

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward computes y = x @ W.T + b. Mode has no effect.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B], _ Mode) (*tensor.Tensor[float32, B], error) {
	if _, err := l.OutputShape(input.Shape()); err != nil {
		return nil, err
	}

	// [batch, in] @ [out, in]^T = [batch, out]
	output := input.MatMulTransposed(l.weight.Tensor())

	if l.bias != nil {
		output = output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
	}

	return output, nil
}

// Parameters returns the trainable parameters of this layer.
//
// Returns [weight, bias] if bias is present, otherwise [weight].
func (l *Linear[B]) Parameters() []*Parameter[B] {
	if l.bias != nil {
		return []*Parameter[B]{l.weight, l.bias}
	}
	return []*Parameter[B]{l.weight}
}

func (l *Linear[B]) String() string {
	return fmt.Sprintf("Linear(in_features=%d, out_features=%d, bias=%v)", l.inFeatures, l.outFeatures, l.bias != nil)
}

// OutputShape validates a [batch, in_features] input and returns
// [batch, out_features].
func (l *Linear[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	if len(in) != 2 {
		return nil, shapeMismatch("linear", "expected 2D input [batch, features], got %v", in)
	}
	if in[1] != l.inFeatures {
		return nil, shapeMismatch("linear", "expected input with %d features, got %d", l.inFeatures, in[1])
	}
	return tensor.Shape{in[0], l.outFeatures}, nil
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}
