package models

import (
	"fmt"

	"github.com/born-ml/convnets/internal/nn"
	"github.com/born-ml/convnets/internal/tensor"
)

// Variant1Config configures Variant1.
type Variant1Config struct {
	// Classes is the number of output scores.
	Classes int `yaml:"classes"`
	// Hidden is the width of the first fully connected layer.
	Hidden int `yaml:"hidden"`
	// FlattenSize is the spatial size fc1 expects after the third pool.
	// With the default of 28 the model accepts 224x224 images only.
	FlattenSize int `yaml:"flatten_size"`
	// Seed drives weight initialization.
	Seed int64 `yaml:"seed"`
}

// DefaultVariant1Config returns the reference configuration.
func DefaultVariant1Config() Variant1Config {
	return Variant1Config{
		Classes:     5,
		Hidden:      128,
		FlattenSize: 28,
		Seed:        1,
	}
}

// Validate checks that every size is positive and that both linear
// layers stay within maxLinearWeights.
func (c Variant1Config) Validate() error {
	if c.Classes <= 0 || c.Hidden <= 0 || c.FlattenSize <= 0 {
		return fmt.Errorf("%w: variant1 classes=%d hidden=%d flatten_size=%d",
			ErrInvalidConfig, c.Classes, c.Hidden, c.FlattenSize)
	}
	if err := checkFlatten("variant1", 256, c.FlattenSize, c.Hidden); err != nil {
		return err
	}
	return checkLinear("variant1", "fc2", c.Hidden, c.Classes)
}

// Variant1 is a three-block VGG-style classifier.
//
// Architecture (input 224x224):
//
//	Input: [batch, 3, 224, 224]
//	Conv1: 3 → 64, 3x3/1/1, MaxPool 2x2, ReLU -> [batch, 64, 112, 112]
//	Conv2: 64 → 128, 3x3/1/1, MaxPool 2x2, ReLU -> [batch, 128, 56, 56]
//	Conv3: 128 → 256, 3x3/1/1, MaxPool 2x2, ReLU -> [batch, 256, 28, 28]
//	Flatten -> [batch, 200704]
//	FC1: 200704 → 128
//	FC2: 128 → 5 (class scores)
//
// Pooling is applied before the activation and there is no activation
// between or after the fully connected layers.
type Variant1[B tensor.Backend] struct {
	cfg    Variant1Config
	layers []layer[B]
}

// NewVariant1 builds Variant1 with Xavier-initialized weights.
func NewVariant1[B tensor.Backend](cfg Variant1Config, backend B) (*Variant1[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := newRand(cfg.Seed)
	flat := 256 * cfg.FlattenSize * cfg.FlattenSize

	return &Variant1[B]{
		cfg: cfg,
		layers: []layer[B]{
			{"conv1", nn.NewConv2DFrom(rng, 3, 64, 3, 3, 1, 1, true, backend)},
			{"pool1", nn.NewMaxPool2D(2, 2, backend)},
			{"relu1", nn.NewReLU[B]()},
			{"conv2", nn.NewConv2DFrom(rng, 64, 128, 3, 3, 1, 1, true, backend)},
			{"pool2", nn.NewMaxPool2D(2, 2, backend)},
			{"relu2", nn.NewReLU[B]()},
			{"conv3", nn.NewConv2DFrom(rng, 128, 256, 3, 3, 1, 1, true, backend)},
			{"pool3", nn.NewMaxPool2D(2, 2, backend)},
			{"relu3", nn.NewReLU[B]()},
			{"flatten", nn.NewFlatten[B]()},
			{"fc1", nn.NewLinearFrom(rng, flat, cfg.Hidden, backend)},
			{"fc2", nn.NewLinearFrom(rng, cfg.Hidden, cfg.Classes, backend)},
		},
	}, nil
}

// Forward maps [batch, 3, S, S] images to [batch, classes] scores.
// Mode has no effect on this variant.
func (m *Variant1[B]) Forward(input *tensor.Tensor[float32, B], mode nn.Mode) (*tensor.Tensor[float32, B], error) {
	p := &pass[B]{x: input, mode: mode}
	p.applyAll(m.layers)
	if p.err != nil {
		return nil, fmt.Errorf("variant1: %w", p.err)
	}
	return p.x, nil
}

// Parameters returns all trainable parameters.
func (m *Variant1[B]) Parameters() []*nn.Parameter[B] {
	return collectParameters(m.layers)
}

// ParameterCount returns the total number of learned scalars.
func (m *Variant1[B]) ParameterCount() int {
	return nn.CountParameters(m.Parameters())
}

// Summary traces the output shape of every stage for the given input shape.
// On failure it returns the stages computed so far and the error.
func (m *Variant1[B]) Summary(input tensor.Shape) (Trace, error) {
	t := newTracer(input)
	traceLayers(t, m.layers)
	if t.err != nil {
		return t.trace, fmt.Errorf("variant1: %w", t.err)
	}
	return t.trace, nil
}

// Config returns the configuration the model was built with.
func (m *Variant1[B]) Config() Variant1Config {
	return m.cfg
}

// String returns a string representation of the model architecture.
func (m *Variant1[B]) String() string {
	return describe("Variant1", m.layers)
}
