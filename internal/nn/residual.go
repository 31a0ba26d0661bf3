package nn

import (
	"github.com/born-ml/convnets/internal/tensor"
)

// AddResidual returns out + residual.
//
// The shapes must be identical; no broadcasting is performed, so a skip
// connection whose channel count or spatial size differs from the main
// path fails with ErrShapeMismatch instead of silently broadcasting.
func AddResidual[B tensor.Backend](out, residual *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	if _, err := ResidualShape(out.Shape(), residual.Shape()); err != nil {
		return nil, err
	}
	return out.Add(residual), nil
}

// ResidualShape is the shape-only form of AddResidual.
func ResidualShape(out, residual tensor.Shape) (tensor.Shape, error) {
	if !out.Equal(residual) {
		return nil, shapeMismatch("residual", "cannot add residual %v to output %v", residual, out)
	}
	return out.Clone(), nil
}
