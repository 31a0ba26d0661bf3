package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnets/internal/backend/cpu"
	"github.com/born-ml/convnets/internal/tensor"
)

// TestMaxPool2D_Creation tests MaxPool2D layer creation.
func TestMaxPool2D_Creation(t *testing.T) {
	backend := cpu.New()

	pool := NewMaxPool2D(2, 2, backend)

	if pool.KernelSize() != 2 {
		t.Errorf("Expected kernel_size=2, got %d", pool.KernelSize())
	}
	if pool.Stride() != 2 {
		t.Errorf("Expected stride=2, got %d", pool.Stride())
	}
	if len(pool.Parameters()) != 0 {
		t.Errorf("Expected 0 parameters, got %d", len(pool.Parameters()))
	}
	assert.Panics(t, func() { NewMaxPool2D(0, 2, backend) })
	assert.Panics(t, func() { NewAvgPool2D(2, 0, backend) })
}

func TestPool2D_ForwardShape(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name string
		in   tensor.Shape
		want tensor.Shape
	}{
		{"even", tensor.Shape{2, 3, 28, 28}, tensor.Shape{2, 3, 14, 14}},
		{"odd drops partial window", tensor.Shape{1, 4, 7, 7}, tensor.Shape{1, 4, 3, 3}},
		{"rectangular", tensor.Shape{1, 1, 6, 10}, tensor.Shape{1, 1, 3, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tensor.Zeros[float32](tt.in, backend)

			maxOut, err := NewMaxPool2D(2, 2, backend).Forward(input, Eval)
			require.NoError(t, err)
			assert.Equal(t, tt.want, maxOut.Shape())

			avgOut, err := NewAvgPool2D(2, 2, backend).Forward(input, Eval)
			require.NoError(t, err)
			assert.Equal(t, tt.want, avgOut.Shape())
		})
	}
}

func TestPool2D_ForwardValues(t *testing.T) {
	backend := cpu.New()

	data := make([]float32, 16)
	for i := range data {
		data[i] = float32(i + 1)
	}
	input, err := tensor.FromSlice(data, tensor.Shape{1, 1, 4, 4}, backend)
	require.NoError(t, err)

	maxOut, err := NewMaxPool2D(2, 2, backend).Forward(input, Eval)
	require.NoError(t, err)
	assert.Equal(t, []float32{6, 8, 14, 16}, maxOut.Data())

	avgOut, err := NewAvgPool2D(2, 2, backend).Forward(input, Eval)
	require.NoError(t, err)
	assert.Equal(t, []float32{3.5, 5.5, 11.5, 13.5}, avgOut.Data())
}

func TestPool2D_ShapeMismatch(t *testing.T) {
	backend := cpu.New()

	_, err := NewMaxPool2D(2, 2, backend).Forward(tensor.Zeros[float32](tensor.Shape{3, 8, 8}, backend), Eval)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = NewAvgPool2D(4, 4, backend).Forward(tensor.Zeros[float32](tensor.Shape{1, 1, 3, 8}, backend), Eval)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
