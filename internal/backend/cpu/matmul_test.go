package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/convnets/internal/tensor"
)

func TestMatMul_2x3_3x2(t *testing.T) {
	backend := New()
	a := newRaw32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
	b := newRaw32(t, tensor.Shape{3, 2}, 7, 8, 9, 10, 11, 12)

	result := backend.MatMul(a, b)

	// [1*7+2*9+3*11, 1*8+2*10+3*12] = [58, 64]
	// [4*7+5*9+6*11, 4*8+5*10+6*12] = [139, 154]
	assert.Equal(t, tensor.Shape{2, 2}, result.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, result.AsFloat32())
}

func TestMatMul_Vector(t *testing.T) {
	backend := New()
	a := newRaw32(t, tensor.Shape{1, 4}, 1, 1, 1, 1)
	b := newRaw32(t, tensor.Shape{4, 1}, 1, 2, 3, 4)

	assert.Equal(t, []float32{10}, backend.MatMul(a, b).AsFloat32())
}

func TestMatMul_ShapeMismatch(t *testing.T) {
	backend := New()
	a := newRaw32(t, tensor.Shape{2, 3})
	b := newRaw32(t, tensor.Shape{2, 3})

	assert.Panics(t, func() { backend.MatMul(a, b) })
}

func TestMatMul_Rejects3D(t *testing.T) {
	backend := New()
	a := newRaw32(t, tensor.Shape{2, 2, 2})

	assert.Panics(t, func() { backend.MatMul(a, a) })
}

func TestMatMulTransposed_MatchesExplicitTranspose(t *testing.T) {
	backend := New()
	a := newRaw32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
	// b holds the rows of the right operand's transpose: [2, 3].
	b := newRaw32(t, tensor.Shape{2, 3}, 7, 9, 11, 8, 10, 12)

	result := backend.MatMulTransposed(a, b)

	assert.Equal(t, tensor.Shape{2, 2}, result.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, result.AsFloat32())
	assert.Equal(t, backend.MatMul(a, backend.Transpose(b)).AsFloat32(), result.AsFloat32())
	assert.Equal(t, []float32{7, 9, 11, 8, 10, 12}, b.AsFloat32(), "operand must not change")
}

func TestMatMulTransposed_ShapeMismatch(t *testing.T) {
	backend := New()
	a := newRaw32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
	b := newRaw32(t, tensor.Shape{3, 2}, 1, 2, 3, 4, 5, 6)

	assert.Panics(t, func() { backend.MatMulTransposed(a, b) })
}
