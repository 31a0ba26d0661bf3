// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Im2col + BLAS GEMM convolutions (gonum)
//   - Max and average pooling
//   - Float32 and Float64 support
//   - NumPy-compatible broadcasting
//   - Worker pools sized from the detected CPU topology
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/convnets/backend/cpu"
//	    "github.com/born-ml/convnets/models"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    model, err := models.NewVariant1(models.DefaultVariant1Config(), backend)
//	}
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each operation allocates its
// result and never writes to its operands.
package cpu
