package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/convnets/internal/tensor"
)

// ErrShapeMismatch is returned when a tensor's shape is incompatible with
// the operation applied to it.
var ErrShapeMismatch = errors.New("shape mismatch")

func shapeMismatch(layer, format string, args ...any) error {
	return errors.Wrapf(ErrShapeMismatch, layer+": "+format, args...)
}

// expect4D checks that input is [N, C, H, W].
func expect4D(layer string, shape tensor.Shape) error {
	if len(shape) != 4 {
		return shapeMismatch(layer, "expected 4D input [N,C,H,W], got %v", shape)
	}
	return nil
}
