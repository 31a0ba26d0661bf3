package tensor

// Add performs element-wise addition with broadcasting.
//
// Example:
//
//	bias := tensor.Ones[float32](Shape{1, 64, 1, 1}, backend)
//	y := x.Add(bias) // broadcast over batch and spatial dims
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// Div performs element-wise division with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Div(t.raw, other.raw), t.backend)
}

// MatMul performs matrix multiplication: (M, K) @ (K, N) → (M, N).
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// MatMulTransposed computes t @ other^T: (M, K) @ (N, K)^T → (M, N).
// other is read in place.
func (t *Tensor[T, B]) MatMulTransposed(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMulTransposed(t.raw, other.raw), t.backend)
}

// Reshape returns a tensor with the same data but different shape.
// The new shape must have the same number of elements.
//
// Example:
//
//	x := tensor.Zeros[float32](Shape{2, 256, 28, 28}, backend)
//	flat := x.Reshape(2, 256*28*28)
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(newShape)), t.backend)
}

// Flatten collapses every dimension after the first into one:
// (N, d1, d2, ...) → (N, d1*d2*...).
func (t *Tensor[T, B]) Flatten() *Tensor[T, B] {
	shape := t.Shape()
	if len(shape) < 2 {
		panic("Flatten requires at least 2 dimensions")
	}
	return t.Reshape(shape[0], shape[1:].NumElements())
}

// Transpose permutes the tensor's dimensions.
//
// If axes is empty, all dimensions are reversed (standard 2D transpose).
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// T is a shortcut for 2D transpose (swaps rows and columns).
// Panics if the tensor is not 2D.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	if len(t.Shape()) != 2 {
		panic("T() only works for 2D tensors")
	}
	return t.Transpose(1, 0)
}

// MulScalar multiplies each element of the tensor by a scalar value.
func (t *Tensor[T, B]) MulScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, scalar), t.backend)
}

// AddScalar adds a scalar value to each element of the tensor.
func (t *Tensor[T, B]) AddScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.AddScalar(t.raw, scalar), t.backend)
}

// Sqrt computes the square root of each element.
func (t *Tensor[T, B]) Sqrt() *Tensor[T, B] {
	return New[T, B](t.backend.Sqrt(t.raw), t.backend)
}

// MeanDim computes the mean along dim. With keepDim the reduced dimension
// is kept with size 1, which makes the result broadcastable against t.
//
// Example:
//
//	x := tensor.Randn[float32](Shape{8, 16, 4, 4}, backend)
//	m := x.MeanDim(0, true) // [1, 16, 4, 4]
func (t *Tensor[T, B]) MeanDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.MeanDim(t.raw, dim, keepDim), t.backend)
}
