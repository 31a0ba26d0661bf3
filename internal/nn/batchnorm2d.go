package nn

import (
	"fmt"

	"github.com/born-ml/convnets/internal/tensor"
)

// BatchNorm2D defaults.
const (
	DefaultBNEpsilon  = 1e-5
	DefaultBNMomentum = 0.1
)

// BatchNorm2D normalizes each channel of a [N, C, H, W] input.
//
//	y = (x - mean) / sqrt(var + eps) * gamma + beta
//
// In Train mode mean and var are the biased statistics of the current batch
// over (N, H, W), and the running estimates are updated as
//
//	running = (1 - momentum) * running + momentum * batch
//
// using the unbiased batch variance. In Eval mode the running estimates are
// used instead, so the output does not depend on other batch members.
//
// Running statistics are buffers, not parameters. Train-mode Forward
// mutates them and is therefore not safe for concurrent use.
type BatchNorm2D[B tensor.Backend] struct {
	numFeatures int
	eps         float32
	momentum    float32

	gamma *Parameter[B] // [C], initialized to 1
	beta  *Parameter[B] // [C], initialized to 0

	runningMean *tensor.Tensor[float32, B] // [C], initialized to 0
	runningVar  *tensor.Tensor[float32, B] // [C], initialized to 1

	backend B
}

// NewBatchNorm2D creates a batch normalization layer over numFeatures
// channels.
//
// Example:
//
//	bn := nn.NewBatchNorm2D(32, nn.DefaultBNEpsilon, nn.DefaultBNMomentum, backend)
func NewBatchNorm2D[B tensor.Backend](numFeatures int, eps, momentum float32, backend B) *BatchNorm2D[B] {
	if numFeatures <= 0 {
		panic(fmt.Sprintf("batchnorm2d: invalid number of features %d", numFeatures))
	}
	if eps <= 0 {
		panic(fmt.Sprintf("batchnorm2d: epsilon must be positive, got %g", eps))
	}
	if momentum < 0 || momentum > 1 {
		panic(fmt.Sprintf("batchnorm2d: momentum must be in [0, 1], got %g", momentum))
	}

	shape := tensor.Shape{numFeatures}
	return &BatchNorm2D[B]{
		numFeatures: numFeatures,
		eps:         eps,
		momentum:    momentum,
		gamma:       NewParameter("batchnorm2d.weight", Ones(shape, backend)),
		beta:        NewParameter("batchnorm2d.bias", Zeros(shape, backend)),
		runningMean: Zeros(shape, backend),
		runningVar:  Ones(shape, backend),
		backend:     backend,
	}
}

// Forward normalizes input using batch statistics (Train) or running
// statistics (Eval).
func (bn *BatchNorm2D[B]) Forward(input *tensor.Tensor[float32, B], mode Mode) (*tensor.Tensor[float32, B], error) {
	shape := input.Shape()
	if _, err := bn.OutputShape(shape); err != nil {
		return nil, err
	}

	c := bn.numFeatures
	var mean, variance *tensor.Tensor[float32, B] // [1, C, 1, 1]

	if mode == Train {
		count := shape[0] * shape[2] * shape[3]
		if count < 2 {
			return nil, shapeMismatch("batchnorm2d", "expected more than 1 value per channel in train mode, got input %v", shape)
		}

		mean = channelMean(input)
		centered := input.Sub(mean)
		variance = channelMean(centered.Mul(centered))

		// Unbiased variance for the running estimate.
		unbiased := variance.MulScalar(float32(count) / float32(count-1))
		bn.runningMean = bn.blend(bn.runningMean, mean.Reshape(c))
		bn.runningVar = bn.blend(bn.runningVar, unbiased.Reshape(c))
	} else {
		mean = bn.runningMean.Reshape(1, c, 1, 1)
		variance = bn.runningVar.Reshape(1, c, 1, 1)
	}

	std := variance.AddScalar(bn.eps).Sqrt()
	normalized := input.Sub(mean).Div(std)

	gamma := bn.gamma.Tensor().Reshape(1, c, 1, 1)
	beta := bn.beta.Tensor().Reshape(1, c, 1, 1)
	return normalized.Mul(gamma).Add(beta), nil
}

// blend returns (1-momentum)*running + momentum*batch.
func (bn *BatchNorm2D[B]) blend(running, batch *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return running.MulScalar(1 - bn.momentum).Add(batch.MulScalar(bn.momentum))
}

// channelMean reduces [N, C, H, W] to [1, C, 1, 1].
func channelMean[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.MeanDim(0, true).MeanDim(2, true).MeanDim(3, true)
}

// Parameters returns [gamma, beta].
func (bn *BatchNorm2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{bn.gamma, bn.beta}
}

// RunningMean returns the current running mean estimate, shape [C].
func (bn *BatchNorm2D[B]) RunningMean() *tensor.Tensor[float32, B] {
	return bn.runningMean
}

// RunningVar returns the current running variance estimate, shape [C].
func (bn *BatchNorm2D[B]) RunningVar() *tensor.Tensor[float32, B] {
	return bn.runningVar
}

func (bn *BatchNorm2D[B]) String() string {
	return fmt.Sprintf("BatchNorm2D(num_features=%d, eps=%g, momentum=%g)", bn.numFeatures, bn.eps, bn.momentum)
}

// OutputShape checks that in is [N, C, H, W] with C == numFeatures.
func (bn *BatchNorm2D[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	if err := expect4D("batchnorm2d", in); err != nil {
		return nil, err
	}
	if in[1] != bn.numFeatures {
		return nil, shapeMismatch("batchnorm2d", "input channels %d != expected %d", in[1], bn.numFeatures)
	}
	return in.Clone(), nil
}
