// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the tensors that flow through
// the convnets models.
//
// # Overview
//
// Tensors are generic over their element type and their backend:
//   - Tensor[T, B]: High-level generic tensor
//   - RawTensor: Low-level row-major buffer with shape and dtype
//   - Backend: Interface for device-specific compute implementations
//   - Shape, DataType, Device: Core type definitions
//
// Image tensors are laid out as [batch, channels, height, width].
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/convnets/backend/cpu"
//	    "github.com/born-ml/convnets/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{1, 3}, backend)
//	    z := x.Add(y) // broadcasts to [2, 3]
//	}
//
// # Broadcasting
//
// Element-wise operations follow NumPy broadcasting rules. Backend
// operations never modify their operands.
package tensor
