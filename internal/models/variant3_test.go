package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnets/internal/backend/cpu"
	"github.com/born-ml/convnets/internal/nn"
	"github.com/born-ml/convnets/internal/tensor"
)

// projectedVariant3Config accepts 16x16 input: 16 -> 8 (maxpool) -> 4 (avgpool).
func projectedVariant3Config() Variant3Config {
	cfg := DefaultVariant3Config()
	cfg.FlattenSize = 4
	cfg.ResidualProjection = true
	return cfg
}

func TestDefaultVariant3Config(t *testing.T) {
	cfg := DefaultVariant3Config()

	assert.Equal(t, 5, cfg.Classes)
	assert.Equal(t, 64, cfg.FlattenSize)
	assert.InDelta(t, 0.8, cfg.DropProb, 1e-12)
	assert.False(t, cfg.ResidualProjection)
	assert.NoError(t, cfg.Validate())

	cfg.DropProb = 1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultVariant3Config()
	cfg.BNEpsilon = 0
	_, err := NewVariant3(cfg, cpu.New())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestVariant3_DefaultFailsAtFirstResidual(t *testing.T) {
	if testing.Short() {
		t.Skip("default variant3 allocates a 1048576x128 fc1 layer")
	}
	backend := cpu.New()
	model, err := NewVariant3(DefaultVariant3Config(), backend)
	require.NoError(t, err)

	x := images(t, backend, 1, 128)
	for _, mode := range []nn.Mode{nn.Eval, nn.Train} {
		_, err := model.Forward(x, mode)
		require.ErrorIs(t, err, ErrShapeMismatch)
		assert.Contains(t, err.Error(), "residual1")
	}
}

func TestVariant3_UnprojectedResidualAlwaysFails(t *testing.T) {
	backend := cpu.New()
	cfg := DefaultVariant3Config()
	cfg.FlattenSize = 4
	model, err := NewVariant3(cfg, backend)
	require.NoError(t, err)

	for _, size := range []int{8, 16, 32} {
		_, err := model.Forward(images(t, backend, 2, size), nn.Eval)
		require.ErrorIs(t, err, ErrShapeMismatch, "size %d", size)
		assert.Contains(t, err.Error(), "variant3: residual1")
	}

	trace, err := model.Summary(tensor.Shape{2, 3, 128, 128})
	require.ErrorIs(t, err, ErrShapeMismatch)
	assert.Equal(t, "relu2", trace[len(trace)-1].Name)
	assert.Equal(t, tensor.Shape{2, 32, 64, 64}, trace.Output())
}

func TestVariant3_ProjectedForward(t *testing.T) {
	backend := cpu.New()
	model, err := NewVariant3(projectedVariant3Config(), backend)
	require.NoError(t, err)

	out, err := model.Forward(images(t, backend, 2, 16), nn.Eval)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 5}, out.Shape())
	assertNotProbabilities(t, out)
}

func TestVariant3_EvalIsDeterministic(t *testing.T) {
	backend := cpu.New()
	model, err := NewVariant3(projectedVariant3Config(), backend)
	require.NoError(t, err)
	x := images(t, backend, 2, 16)

	a, err := model.Forward(x, nn.Eval)
	require.NoError(t, err)
	b, err := model.Forward(x, nn.Eval)
	require.NoError(t, err)

	assert.Equal(t, a.Data(), b.Data())
}

func TestVariant3_TrainIsStochastic(t *testing.T) {
	backend := cpu.New()
	model, err := NewVariant3(projectedVariant3Config(), backend)
	require.NoError(t, err)
	x := images(t, backend, 4, 16)

	a, err := model.Forward(x, nn.Train)
	require.NoError(t, err)
	b, err := model.Forward(x, nn.Train)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{4, 5}, a.Shape())
	assert.NotEqual(t, a.Data(), b.Data())
}

func TestVariant3_TrainSeedReproducible(t *testing.T) {
	backend := cpu.New()
	x := images(t, backend, 2, 16)

	run := func() []float32 {
		model, err := NewVariant3(projectedVariant3Config(), backend)
		require.NoError(t, err)
		out, err := model.Forward(x, nn.Train)
		require.NoError(t, err)
		return out.Data()
	}

	assert.Equal(t, run(), run())
}

func TestVariant3_RunningStatsFollowMode(t *testing.T) {
	backend := cpu.New()
	model, err := NewVariant3(projectedVariant3Config(), backend)
	require.NoError(t, err)
	x := images(t, backend, 2, 16)

	bns := model.BatchNorms()
	require.Len(t, bns, 4)
	before := append([]float32(nil), bns[0].RunningMean().Data()...)

	_, err = model.Forward(x, nn.Eval)
	require.NoError(t, err)
	assert.Equal(t, before, bns[0].RunningMean().Data())

	_, err = model.Forward(x, nn.Train)
	require.NoError(t, err)
	assert.NotEqual(t, before, bns[0].RunningMean().Data())
}

func TestVariant3_ProjectedSummary(t *testing.T) {
	model, err := NewVariant3(projectedVariant3Config(), cpu.New())
	require.NoError(t, err)

	trace, err := model.Summary(tensor.Shape{2, 3, 16, 16})
	require.NoError(t, err)

	byName := make(map[string]tensor.Shape, len(trace))
	for _, s := range trace {
		byName[s.Name] = s.Shape
	}
	assert.Equal(t, tensor.Shape{2, 32, 8, 8}, byName["residual1"])
	assert.Equal(t, tensor.Shape{2, 128, 8, 8}, byName["residual2"])
	assert.Equal(t, tensor.Shape{2, 256, 4, 4}, byName["avgpool"])
	assert.Equal(t, tensor.Shape{2, 5}, trace.Output())

	_, err = model.Summary(tensor.Shape{2, 3, 32, 32})
	assert.ErrorIs(t, err, ErrShapeMismatch, "fc1 expects 4x4 maps")
}

func TestVariant3_ParametersIncludeProjection(t *testing.T) {
	backend := cpu.New()

	cfg := projectedVariant3Config()
	projected, err := NewVariant3(cfg, backend)
	require.NoError(t, err)

	cfg.ResidualProjection = false
	plain, err := NewVariant3(cfg, backend)
	require.NoError(t, err)

	// 1x1 convs 3->32 and 3->128 with bias.
	assert.Equal(t, plain.ParameterCount()+(3*32+32)+(3*128+128), projected.ParameterCount())
	assert.Len(t, projected.Parameters(), len(plain.Parameters())+4)
	assert.Contains(t, projected.String(), "(dropout): Dropout2D(p=0.8)")
}
