package nn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/born-ml/convnets/internal/backend/cpu"
	"github.com/born-ml/convnets/internal/tensor"
)

// channelValues gathers every element of channel c from a [N, C, H, W]
// tensor as float64.
func channelValues(x *tensor.Tensor[float32, *cpu.CPUBackend], c int) []float64 {
	shape := x.Shape()
	n, channels, hw := shape[0], shape[1], shape[2]*shape[3]
	data := x.Data()

	values := make([]float64, 0, n*hw)
	for b := 0; b < n; b++ {
		base := (b*channels + c) * hw
		for i := 0; i < hw; i++ {
			values = append(values, float64(data[base+i]))
		}
	}
	return values
}

func TestBatchNorm2D_Creation(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2D(4, DefaultBNEpsilon, DefaultBNMomentum, backend)

	assert.Len(t, bn.Parameters(), 2)
	assert.Equal(t, []float32{0, 0, 0, 0}, bn.RunningMean().Data())
	assert.Equal(t, []float32{1, 1, 1, 1}, bn.RunningVar().Data())
	assert.Equal(t, "BatchNorm2D(num_features=4, eps=1e-05, momentum=0.1)", bn.String())

	assert.Panics(t, func() { NewBatchNorm2D(0, DefaultBNEpsilon, DefaultBNMomentum, backend) })
	assert.Panics(t, func() { NewBatchNorm2D(4, 0, DefaultBNMomentum, backend) })
}

func TestBatchNorm2D_TrainStandardizes(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2D(3, DefaultBNEpsilon, DefaultBNMomentum, backend)

	input := tensor.RandnFrom[float32](rand.New(rand.NewSource(5)), tensor.Shape{4, 3, 5, 5}, backend)
	// Move the data away from zero mean and unit variance.
	input = input.Mul(tensor.Full[float32](tensor.Shape{1, 3, 1, 1}, 3, backend)).AddScalar(7)

	output, err := bn.Forward(input, Train)
	require.NoError(t, err)
	require.Equal(t, input.Shape(), output.Shape())

	for c := 0; c < 3; c++ {
		values := channelValues(output, c)
		assert.InDelta(t, 0, stat.Mean(values, nil), 1e-4, "channel %d mean", c)
		assert.InDelta(t, 1, stat.PopVariance(values, nil), 1e-3, "channel %d variance", c)
	}
}

func TestBatchNorm2D_RunningStatsUpdate(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2D(2, DefaultBNEpsilon, DefaultBNMomentum, backend)

	input := tensor.RandnFrom[float32](rand.New(rand.NewSource(11)), tensor.Shape{3, 2, 4, 4}, backend).AddScalar(2)

	_, err := bn.Forward(input, Train)
	require.NoError(t, err)

	for c := 0; c < 2; c++ {
		mean, unbiased := stat.MeanVariance(channelValues(input, c), nil)
		assert.InDelta(t, 0.1*mean, float64(bn.RunningMean().Data()[c]), 1e-4)
		assert.InDelta(t, 0.9+0.1*unbiased, float64(bn.RunningVar().Data()[c]), 1e-4)
	}
}

func TestBatchNorm2D_EvalUsesRunningStats(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2D(2, DefaultBNEpsilon, DefaultBNMomentum, backend)

	input := tensor.RandnFrom[float32](rand.New(rand.NewSource(2)), tensor.Shape{2, 2, 3, 3}, backend)

	output, err := bn.Forward(input, Eval)
	require.NoError(t, err)

	scale := 1 / math.Sqrt(1+DefaultBNEpsilon)
	for i, v := range input.Data() {
		assert.InDelta(t, float64(v)*scale, float64(output.Data()[i]), 1e-5)
	}

	// Eval must leave running statistics untouched.
	assert.Equal(t, []float32{0, 0}, bn.RunningMean().Data())
	assert.Equal(t, []float32{1, 1}, bn.RunningVar().Data())
}

func TestBatchNorm2D_EvalIsPerSample(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2D(1, DefaultBNEpsilon, DefaultBNMomentum, backend)

	single, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2}, backend)
	require.NoError(t, err)
	pair, err := tensor.FromSlice([]float32{1, 2, 3, 4, 100, 200, 300, 400}, tensor.Shape{2, 1, 2, 2}, backend)
	require.NoError(t, err)

	a, err := bn.Forward(single, Eval)
	require.NoError(t, err)
	b, err := bn.Forward(pair, Eval)
	require.NoError(t, err)

	assert.Equal(t, a.Data(), b.Data()[:4])
}

func TestBatchNorm2D_ShapeMismatch(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2D(32, DefaultBNEpsilon, DefaultBNMomentum, backend)

	_, err := bn.Forward(tensor.Zeros[float32](tensor.Shape{1, 16, 4, 4}, backend), Eval)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = bn.Forward(tensor.Zeros[float32](tensor.Shape{32, 4, 4}, backend), Train)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = bn.Forward(tensor.Zeros[float32](tensor.Shape{1, 32, 1, 1}, backend), Train)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
