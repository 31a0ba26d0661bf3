package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/convnets/internal/tensor"
)

func TestMeanDim(t *testing.T) {
	backend := New()
	// [[1, 2, 3],
	//  [4, 5, 6]]
	a := newRaw32(t, tensor.Shape{2, 3}, seq32(6)...)

	t.Run("Dim0", func(t *testing.T) {
		result := backend.MeanDim(a, 0, false)
		assert.Equal(t, tensor.Shape{3}, result.Shape())
		assert.Equal(t, []float32{2.5, 3.5, 4.5}, result.AsFloat32())
	})

	t.Run("Dim1KeepDim", func(t *testing.T) {
		result := backend.MeanDim(a, 1, true)
		assert.Equal(t, tensor.Shape{2, 1}, result.Shape())
		assert.Equal(t, []float32{2, 5}, result.AsFloat32())
	})

	t.Run("NegativeDim", func(t *testing.T) {
		result := backend.MeanDim(a, -1, false)
		assert.Equal(t, []float32{2, 5}, result.AsFloat32())
	})

	t.Run("OutOfRange", func(t *testing.T) {
		assert.Panics(t, func() { backend.MeanDim(a, 2, false) })
	})
}

func TestMeanDim_ChannelStatistics(t *testing.T) {
	backend := New()
	// [N=2, C=2, H=1, W=2]; channel 0 holds 1,2,5,6 and channel 1 holds 3,4,7,8.
	x := newRaw32(t, tensor.Shape{2, 2, 1, 2}, seq32(8)...)

	m := backend.MeanDim(x, 0, true)
	m = backend.MeanDim(m, 2, true)
	m = backend.MeanDim(m, 3, true)

	assert.Equal(t, tensor.Shape{1, 2, 1, 1}, m.Shape())
	assert.Equal(t, []float32{3.5, 5.5}, m.AsFloat32())
}
