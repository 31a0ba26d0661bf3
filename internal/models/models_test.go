package models

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/convnets/internal/backend/cpu"
	"github.com/born-ml/convnets/internal/nn"
	"github.com/born-ml/convnets/internal/tensor"
)

type cpuTensor = tensor.Tensor[float32, *cpu.CPUBackend]

func images(t *testing.T, backend *cpu.CPUBackend, batch, size int) *cpuTensor {
	t.Helper()
	return tensor.RandnFrom[float32](rand.New(rand.NewSource(int64(size))), tensor.Shape{batch, 3, size, size}, backend)
}

// assertNotProbabilities checks that at least one row is not a probability
// distribution, i.e. no softmax was applied.
func assertNotProbabilities(t *testing.T, out *cpuTensor) {
	t.Helper()
	shape := out.Shape()
	data := out.Data()
	for r := 0; r < shape[0]; r++ {
		sum := float64(0)
		for _, v := range data[r*shape[1] : (r+1)*shape[1]] {
			if v < 0 {
				return
			}
			sum += float64(v)
		}
		if math.Abs(sum-1) > 1e-3 {
			return
		}
	}
	t.Errorf("every output row looks like a probability distribution")
}

func TestTrace_String(t *testing.T) {
	trace := Trace{
		{Name: "input", Shape: tensor.Shape{1, 3, 8, 8}},
		{Name: "conv1", Shape: tensor.Shape{1, 16, 8, 8}},
	}

	assert.Equal(t, "input  [1 3 8 8]\nconv1  [1 16 8 8]\n", trace.String())
	assert.Equal(t, tensor.Shape{1, 16, 8, 8}, trace.Output())
	assert.Nil(t, Trace{}.Output())
}

func TestClassifierInterface(_ *testing.T) {
	var (
		_ Classifier[*cpu.CPUBackend] = (*Variant1[*cpu.CPUBackend])(nil)
		_ Classifier[*cpu.CPUBackend] = (*Variant2[*cpu.CPUBackend])(nil)
		_ Classifier[*cpu.CPUBackend] = (*Variant3[*cpu.CPUBackend])(nil)
	)
}

func TestErrShapeMismatchIsShared(t *testing.T) {
	assert.Same(t, nn.ErrShapeMismatch, ErrShapeMismatch)
}

func TestValidate_LinearWeightLimit(t *testing.T) {
	// 256*255*255*128 fits in an int32, 256*256*256*128 does not.
	v1 := DefaultVariant1Config()
	v1.FlattenSize = 255
	assert.NoError(t, v1.Validate())
	v1.FlattenSize = 256
	assert.ErrorIs(t, v1.Validate(), ErrInvalidConfig)

	v1 = DefaultVariant1Config()
	v1.FlattenSize = math.MaxInt
	assert.ErrorIs(t, v1.Validate(), ErrInvalidConfig)

	v1 = DefaultVariant1Config()
	v1.Hidden = math.MaxInt32
	assert.ErrorIs(t, v1.Validate(), ErrInvalidConfig)

	v2 := DefaultVariant2Config(10)
	v2.FlattenSize = 1 << 20
	_, err := NewVariant2(v2, cpu.New())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	v3 := DefaultVariant3Config()
	v3.FlattenSize = 1 << 30
	_, err = NewVariant3(v3, cpu.New())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	v3 = DefaultVariant3Config()
	v3.Classes = math.MaxInt32
	assert.ErrorIs(t, v3.Validate(), ErrInvalidConfig)
}
