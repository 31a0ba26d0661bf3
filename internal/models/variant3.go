package models

import (
	"fmt"

	"github.com/born-ml/convnets/internal/nn"
	"github.com/born-ml/convnets/internal/tensor"
)

// Variant3Config configures Variant3.
type Variant3Config struct {
	Classes int `yaml:"classes"`
	Hidden  int `yaml:"hidden"`
	// FlattenSize is the spatial size fc1 expects after the average pool.
	FlattenSize int     `yaml:"flatten_size"`
	DropProb    float64 `yaml:"drop_prob"`
	BNEpsilon   float32 `yaml:"bn_epsilon"`
	BNMomentum  float32 `yaml:"bn_momentum"`
	// Seed drives weight initialization and the dropout mask stream.
	Seed int64 `yaml:"seed"`
	// ResidualProjection routes the skip connection through a 2x2 max pool
	// and a 1x1 convolution so it matches the main path. When false the raw
	// input is added and every forward pass fails at the first addition.
	ResidualProjection bool `yaml:"residual_projection"`
}

// DefaultVariant3Config returns the reference configuration. Its residual
// additions are unprojected, so Forward always returns ErrShapeMismatch.
func DefaultVariant3Config() Variant3Config {
	return Variant3Config{
		Classes:     5,
		Hidden:      128,
		FlattenSize: 64,
		DropProb:    0.8,
		BNEpsilon:   nn.DefaultBNEpsilon,
		BNMomentum:  nn.DefaultBNMomentum,
		Seed:        1,
	}
}

// Validate checks sizes and probabilities.
func (c Variant3Config) Validate() error {
	if c.Classes <= 0 || c.Hidden <= 0 || c.FlattenSize <= 0 {
		return fmt.Errorf("%w: variant3 classes=%d hidden=%d flatten_size=%d",
			ErrInvalidConfig, c.Classes, c.Hidden, c.FlattenSize)
	}
	if err := checkFlatten("variant3", 256, c.FlattenSize, c.Hidden); err != nil {
		return err
	}
	if err := checkLinear("variant3", "fc2", c.Hidden, c.Classes); err != nil {
		return err
	}
	if c.DropProb < 0 || c.DropProb >= 1 {
		return fmt.Errorf("%w: variant3 drop_prob %g not in [0, 1)", ErrInvalidConfig, c.DropProb)
	}
	if c.BNEpsilon <= 0 || c.BNMomentum < 0 || c.BNMomentum > 1 {
		return fmt.Errorf("%w: variant3 bn_epsilon=%g bn_momentum=%g", ErrInvalidConfig, c.BNEpsilon, c.BNMomentum)
	}
	return nil
}

// Variant3 is a five-convolution classifier with batch normalization,
// channel dropout and two residual additions of the original input.
//
// Architecture:
//
//	conv1 3 → 16, MaxPool 2x2, ReLU
//	conv2 16 → 32, BN, ReLU, + residual(input), Dropout2D, ReLU
//	conv3 32 → 64, BN, ReLU
//	conv4 64 → 128, BN, ReLU, + residual(input), Dropout2D, ReLU
//	conv5 128 → 256, BN, ReLU, Dropout2D
//	AvgPool 2x2, Flatten
//	FC1: 256*F*F → 128
//	FC2: 128 → 5 (class scores)
//
// All convolutions are 3x3/1/1. A single Dropout2D layer is shared by the
// three dropout sites. BatchNorm and dropout follow the mode passed to
// Forward.
//
// Without ResidualProjection the residual is the raw [batch, 3, S, S] input,
// which can never match [batch, 32, S/2, S/2], so the first addition always
// fails. With it, the residual becomes maxpool+1x1 conv of the input and the
// model accepts S = 4*FlattenSize.
type Variant3[B tensor.Backend] struct {
	cfg Variant3Config

	stem   []layer[B] // conv1 .. relu2, before the first addition
	mid    []layer[B] // dropout .. relu5, before the second addition
	head   []layer[B] // dropout .. fc2
	proj1  []layer[B] // skip path for the first addition, nil unless projected
	proj2  []layer[B] // skip path for the second addition, nil unless projected
	layers []layer[B] // every distinct layer, for printing and parameters
}

// NewVariant3 builds Variant3.
func NewVariant3[B tensor.Backend](cfg Variant3Config, backend B) (*Variant3[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := newRand(cfg.Seed)
	conv := func(in, out int) *nn.Conv2D[B] {
		return nn.NewConv2DFrom(rng, in, out, 3, 3, 1, 1, true, backend)
	}
	bn := func(c int) *nn.BatchNorm2D[B] {
		return nn.NewBatchNorm2D(c, cfg.BNEpsilon, cfg.BNMomentum, backend)
	}

	conv1, conv2, conv3, conv4, conv5 := conv(3, 16), conv(16, 32), conv(32, 64), conv(64, 128), conv(128, 256)
	bn2, bn3, bn4, bn5 := bn(32), bn(64), bn(128), bn(256)
	dropout := nn.NewDropout2D(cfg.DropProb, newRand(cfg.Seed+1), backend)
	relu := nn.NewReLU[B]()
	flat := 256 * cfg.FlattenSize * cfg.FlattenSize

	m := &Variant3[B]{cfg: cfg}
	m.stem = []layer[B]{
		{"conv1", conv1},
		{"maxpool", nn.NewMaxPool2D(2, 2, backend)},
		{"relu1", relu},
		{"conv2", conv2},
		{"bn2", bn2},
		{"relu2", relu},
	}
	m.mid = []layer[B]{
		{"dropout1", dropout},
		{"relu3", relu},
		{"conv3", conv3},
		{"bn3", bn3},
		{"relu4", relu},
		{"conv4", conv4},
		{"bn4", bn4},
		{"relu5", relu},
	}
	m.head = []layer[B]{
		{"dropout2", dropout},
		{"relu6", relu},
		{"conv5", conv5},
		{"bn5", bn5},
		{"relu7", relu},
		{"dropout3", dropout},
		{"avgpool", nn.NewAvgPool2D(2, 2, backend)},
		{"flatten", nn.NewFlatten[B]()},
		{"fc1", nn.NewLinearFrom(rng, flat, cfg.Hidden, backend)},
		{"fc2", nn.NewLinearFrom(rng, cfg.Hidden, cfg.Classes, backend)},
	}

	m.layers = []layer[B]{
		{"conv1", conv1}, {"conv2", conv2}, {"bn2", bn2}, {"conv3", conv3}, {"bn3", bn3},
		{"conv4", conv4}, {"bn4", bn4}, {"conv5", conv5}, {"bn5", bn5},
		{"dropout", dropout}, {"maxpool", m.stem[1].module}, {"avgpool", m.head[6].module},
		{"fc1", m.head[8].module}, {"fc2", m.head[9].module},
	}

	if cfg.ResidualProjection {
		m.proj1 = []layer[B]{
			{"proj1.pool", nn.NewMaxPool2D(2, 2, backend)},
			{"proj1.conv", nn.NewConv2DFrom(rng, 3, 32, 1, 1, 1, 0, true, backend)},
		}
		m.proj2 = []layer[B]{
			{"proj2.pool", nn.NewMaxPool2D(2, 2, backend)},
			{"proj2.conv", nn.NewConv2DFrom(rng, 3, 128, 1, 1, 1, 0, true, backend)},
		}
		m.layers = append(m.layers, m.proj1[1], m.proj2[1])
	}

	return m, nil
}

// Forward maps [batch, 3, S, S] images to [batch, classes] scores.
//
// In Train mode batch normalization uses batch statistics (and updates its
// running estimates) and dropout is active; in Eval mode the pass is
// deterministic.
func (m *Variant3[B]) Forward(input *tensor.Tensor[float32, B], mode nn.Mode) (*tensor.Tensor[float32, B], error) {
	p := &pass[B]{x: input, mode: mode}

	p.applyAll(m.stem)
	p.addResidual("residual1", m.skip(m.proj1, input, mode, p))
	p.applyAll(m.mid)
	p.addResidual("residual2", m.skip(m.proj2, input, mode, p))
	p.applyAll(m.head)

	if p.err != nil {
		return nil, fmt.Errorf("variant3: %w", p.err)
	}
	return p.x, nil
}

// skip computes the residual branch. Failures are recorded on main so the
// addition that follows becomes a no-op.
func (m *Variant3[B]) skip(proj []layer[B], input *tensor.Tensor[float32, B], mode nn.Mode, main *pass[B]) *tensor.Tensor[float32, B] {
	if main.err != nil || proj == nil {
		return input
	}
	branch := &pass[B]{x: input, mode: mode}
	branch.applyAll(proj)
	if branch.err != nil {
		main.err = branch.err
		return nil
	}
	return branch.x
}

// Parameters returns all trainable parameters, including projection
// convolutions when enabled.
func (m *Variant3[B]) Parameters() []*nn.Parameter[B] {
	return collectParameters(m.layers)
}

// ParameterCount returns the total number of learned scalars.
func (m *Variant3[B]) ParameterCount() int {
	return nn.CountParameters(m.Parameters())
}

// Summary traces the output shape of every stage for the given input shape.
func (m *Variant3[B]) Summary(input tensor.Shape) (Trace, error) {
	t := newTracer(input)

	traceLayers(t, m.stem)
	t.addResidual("residual1", m.skipShape(t, m.proj1, input))
	traceLayers(t, m.mid)
	t.addResidual("residual2", m.skipShape(t, m.proj2, input))
	traceLayers(t, m.head)

	if t.err != nil {
		return t.trace, fmt.Errorf("variant3: %w", t.err)
	}
	return t.trace, nil
}

func (m *Variant3[B]) skipShape(main *tracer, proj []layer[B], input tensor.Shape) tensor.Shape {
	if main.err != nil || proj == nil {
		return input
	}
	branch := &tracer{shape: input.Clone()}
	traceLayers(branch, proj)
	if branch.err != nil {
		main.err = branch.err
		return nil
	}
	return branch.shape
}

// BatchNorms returns the four batch normalization layers in order.
func (m *Variant3[B]) BatchNorms() []*nn.BatchNorm2D[B] {
	var out []*nn.BatchNorm2D[B]
	for _, l := range m.layers {
		if bn, ok := l.module.(*nn.BatchNorm2D[B]); ok {
			out = append(out, bn)
		}
	}
	return out
}

// Config returns the configuration the model was built with.
func (m *Variant3[B]) Config() Variant3Config {
	return m.cfg
}

func (m *Variant3[B]) String() string {
	return describe("Variant3", m.layers)
}
