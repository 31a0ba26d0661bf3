package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnets/internal/backend/cpu"
	"github.com/born-ml/convnets/internal/nn"
	"github.com/born-ml/convnets/internal/tensor"
)

func TestVariant2_RequiresClasses(t *testing.T) {
	for _, classes := range []int{0, -1} {
		_, err := NewVariant2(DefaultVariant2Config(classes), cpu.New())
		assert.ErrorIs(t, err, ErrInvalidConfig)
	}

	_, err := NewVariant2(Variant2Config{Classes: 3}, cpu.New())
	assert.ErrorIs(t, err, ErrInvalidConfig, "flatten size must be set")
}

func TestVariant2_Forward256(t *testing.T) {
	if testing.Short() {
		t.Skip("convolves 256x256 images")
	}
	backend := cpu.New()

	for _, classes := range []int{1, 7} {
		model, err := NewVariant2(DefaultVariant2Config(classes), backend)
		require.NoError(t, err)

		out, err := model.Forward(images(t, backend, 2, 256), nn.Eval)
		require.NoError(t, err)
		assert.Equal(t, tensor.Shape{2, classes}, out.Shape())
	}
}

func TestVariant2_SmallForward(t *testing.T) {
	backend := cpu.New()
	cfg := DefaultVariant2Config(4)
	cfg.FlattenSize = 4

	model, err := NewVariant2(cfg, backend)
	require.NoError(t, err)

	out, err := model.Forward(images(t, backend, 2, 16), nn.Eval)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 4}, out.Shape())
	assertNotProbabilities(t, out)

	_, err = model.Forward(images(t, backend, 2, 20), nn.Eval)
	require.ErrorIs(t, err, ErrShapeMismatch)
	assert.Contains(t, err.Error(), "variant2: fc")
}

func TestVariant2_Summary(t *testing.T) {
	model, err := NewVariant2(DefaultVariant2Config(10), cpu.New())
	require.NoError(t, err)

	trace, err := model.Summary(tensor.Shape{8, 3, 256, 256})
	require.NoError(t, err)

	assert.Equal(t, "relu1", trace[2].Name, "variant2 activates before pooling")
	assert.Equal(t, tensor.Shape{8, 16, 128, 128}, trace[3].Shape)
	assert.Equal(t, tensor.Shape{8, 32 * 64 * 64}, trace[7].Shape)
	assert.Equal(t, tensor.Shape{8, 10}, trace.Output())

	_, err = model.Summary(tensor.Shape{8, 3, 128, 128})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestVariant2_ParameterCount(t *testing.T) {
	model, err := NewVariant2(DefaultVariant2Config(2), cpu.New())
	require.NoError(t, err)

	// conv1 448 + conv2 4640 + fc 131072*2+2
	assert.Equal(t, 448+4640+262146, model.ParameterCount())
	assert.Contains(t, model.String(), "Variant2[classes=2](")
}
