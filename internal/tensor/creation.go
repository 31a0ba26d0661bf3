package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err) // Shape validation should prevent this
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full[float32](Shape{3, 3}, 3.14, backend)
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor with values drawn from N(0, 1) using the global
// math/rand source.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return RandnFrom[T, B](nil, shape, b)
}

// RandnFrom creates a tensor with values drawn from N(0, 1) using rng.
// A nil rng falls back to the global math/rand source.
//
// Example:
//
//	rng := rand.New(rand.NewSource(42))
//	images := tensor.RandnFrom[float32](rng, Shape{8, 3, 224, 224}, backend)
func RandnFrom[T DType, B Backend](rng *rand.Rand, shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	norm := rand.NormFloat64 //nolint:gosec // G404: ML uses math/rand intentionally for reproducibility
	if rng != nil {
		norm = rng.NormFloat64
	}
	for i := range data {
		data[i] = T(norm())
	}
	return t
}

// Uniform creates a tensor with values drawn uniformly from [-bound, bound)
// using rng. A nil rng falls back to the global math/rand source.
func Uniform[T DType, B Backend](rng *rand.Rand, shape Shape, bound float64, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	next := rand.Float64 //nolint:gosec // G404: ML uses math/rand intentionally for reproducibility
	if rng != nil {
		next = rng.Float64
	}
	bound = math.Abs(bound)
	for i := range data {
		data[i] = T((next()*2.0 - 1.0) * bound)
	}
	return t
}
