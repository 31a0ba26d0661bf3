package models

import (
	"fmt"

	"github.com/born-ml/convnets/internal/nn"
	"github.com/born-ml/convnets/internal/tensor"
)

// Variant2Config configures Variant2.
//
// Classes has no default and must be set by the caller.
type Variant2Config struct {
	Classes     int   `yaml:"classes"`
	FlattenSize int   `yaml:"flatten_size"`
	Seed        int64 `yaml:"seed"`
}

// DefaultVariant2Config returns the reference configuration for the given
// number of classes. The fc layer expects 64x64 maps, i.e. 256x256 input.
func DefaultVariant2Config(classes int) Variant2Config {
	return Variant2Config{
		Classes:     classes,
		FlattenSize: 64,
		Seed:        1,
	}
}

// Validate reports a missing class count or flatten size.
func (c Variant2Config) Validate() error {
	if c.Classes <= 0 {
		return fmt.Errorf("%w: variant2 requires a positive class count, got %d", ErrInvalidConfig, c.Classes)
	}
	if c.FlattenSize <= 0 {
		return fmt.Errorf("%w: variant2 flatten_size=%d", ErrInvalidConfig, c.FlattenSize)
	}
	return checkFlatten("variant2", 32, c.FlattenSize, c.Classes)
}

// Variant2 is a small two-block classifier with a configurable class count.
//
// Architecture (input 256x256):
//
//	Input: [batch, 3, 256, 256]
//	Conv1: 3 → 16, 3x3/1/1, ReLU, MaxPool 2x2 -> [batch, 16, 128, 128]
//	Conv2: 16 → 32, 3x3/1/1, ReLU, MaxPool 2x2 -> [batch, 32, 64, 64]
//	Flatten -> [batch, 131072]
//	FC: 131072 → classes
type Variant2[B tensor.Backend] struct {
	cfg    Variant2Config
	layers []layer[B]
}

// NewVariant2 builds Variant2. It returns ErrInvalidConfig when
// cfg.Classes is not positive.
func NewVariant2[B tensor.Backend](cfg Variant2Config, backend B) (*Variant2[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := newRand(cfg.Seed)

	return &Variant2[B]{
		cfg: cfg,
		layers: []layer[B]{
			{"conv1", nn.NewConv2DFrom(rng, 3, 16, 3, 3, 1, 1, true, backend)},
			{"relu1", nn.NewReLU[B]()},
			{"pool1", nn.NewMaxPool2D(2, 2, backend)},
			{"conv2", nn.NewConv2DFrom(rng, 16, 32, 3, 3, 1, 1, true, backend)},
			{"relu2", nn.NewReLU[B]()},
			{"pool2", nn.NewMaxPool2D(2, 2, backend)},
			{"flatten", nn.NewFlatten[B]()},
			{"fc", nn.NewLinearFrom(rng, 32*cfg.FlattenSize*cfg.FlattenSize, cfg.Classes, backend)},
		},
	}, nil
}

// Forward maps [batch, 3, S, S] images to [batch, classes] scores.
// Mode has no effect on this variant.
func (m *Variant2[B]) Forward(input *tensor.Tensor[float32, B], mode nn.Mode) (*tensor.Tensor[float32, B], error) {
	p := &pass[B]{x: input, mode: mode}
	p.applyAll(m.layers)
	if p.err != nil {
		return nil, fmt.Errorf("variant2: %w", p.err)
	}
	return p.x, nil
}

// Parameters returns all trainable parameters.
func (m *Variant2[B]) Parameters() []*nn.Parameter[B] {
	return collectParameters(m.layers)
}

// ParameterCount returns the total number of learned scalars.
func (m *Variant2[B]) ParameterCount() int {
	return nn.CountParameters(m.Parameters())
}

// Summary traces the output shape of every stage for the given input shape.
func (m *Variant2[B]) Summary(input tensor.Shape) (Trace, error) {
	t := newTracer(input)
	traceLayers(t, m.layers)
	if t.err != nil {
		return t.trace, fmt.Errorf("variant2: %w", t.err)
	}
	return t.trace, nil
}

// Config returns the configuration the model was built with.
func (m *Variant2[B]) Config() Variant2Config {
	return m.cfg
}

func (m *Variant2[B]) String() string {
	return describe(fmt.Sprintf("Variant2[classes=%d]", m.cfg.Classes), m.layers)
}
