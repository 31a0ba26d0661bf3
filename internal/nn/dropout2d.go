package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/convnets/internal/tensor"
)

// Dropout2D randomly zeroes entire channels of a [N, C, H, W] input.
//
// In Train mode each (n, c) feature map is zeroed independently with
// probability p and the surviving maps are scaled by 1/(1-p), so the
// expected value of every element is unchanged. In Eval mode Forward is
// the identity.
//
// The random source is owned by the layer. Seeding it makes Train-mode
// passes reproducible; Train-mode Forward is not safe for concurrent use.
//
// Example:
//
//	drop := nn.NewDropout2D(0.8, rand.New(rand.NewSource(1)), backend)
//	out, err := drop.Forward(x, nn.Train)
type Dropout2D[B tensor.Backend] struct {
	p       float64
	rng     *rand.Rand
	backend B
}

// NewDropout2D creates a channel dropout layer with drop probability p in
// [0, 1). A nil rng uses the global math/rand source.
func NewDropout2D[B tensor.Backend](p float64, rng *rand.Rand, backend B) *Dropout2D[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("dropout2d: drop probability must be in [0, 1), got %g", p))
	}
	return &Dropout2D[B]{
		p:       p,
		rng:     rng,
		backend: backend,
	}
}

// Forward applies channel dropout in Train mode and returns input
// unchanged in Eval mode.
func (d *Dropout2D[B]) Forward(input *tensor.Tensor[float32, B], mode Mode) (*tensor.Tensor[float32, B], error) {
	shape := input.Shape()
	if err := expect4D("dropout2d", shape); err != nil {
		return nil, err
	}
	if mode != Train || d.p == 0 {
		return input, nil
	}

	// One mask value per (n, c), broadcast over H and W.
	mask := Zeros(tensor.Shape{shape[0], shape[1], 1, 1}, d.backend)
	keep := float32(1 / (1 - d.p))
	data := mask.Data()
	for i := range data {
		if d.next() >= d.p {
			data[i] = keep
		}
	}

	return input.Mul(mask), nil
}

func (d *Dropout2D[B]) next() float64 {
	if d.rng == nil {
		return rand.Float64() //nolint:gosec // G404: dropout masks are not security sensitive
	}
	return d.rng.Float64()
}

// Parameters returns nil.
func (d *Dropout2D[B]) Parameters() []*Parameter[B] {
	return nil
}

// P returns the drop probability.
func (d *Dropout2D[B]) P() float64 {
	return d.p
}

func (d *Dropout2D[B]) String() string {
	return fmt.Sprintf("Dropout2D(p=%g)", d.p)
}

// OutputShape checks that in is 4D and returns it unchanged.
func (d *Dropout2D[B]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	if err := expect4D("dropout2d", in); err != nil {
		return nil, err
	}
	return in.Clone(), nil
}
