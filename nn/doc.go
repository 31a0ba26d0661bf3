// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the convolutional network layers used by the models.
//
// # Overview
//
// This package contains:
//   - Layers: Conv2D, MaxPool2D, AvgPool2D, BatchNorm2D, Dropout2D, Linear
//   - Activations and reshapes: ReLU, Flatten
//   - Composition: Sequential, AddResidual
//   - Utilities: Module interface, Mode, Parameter, Xavier
//
// Every Forward takes an explicit Mode. BatchNorm2D and Dropout2D behave
// differently in Train and Eval; all other layers ignore it.
//
// # Errors
//
// A layer whose input violates its shape contract returns an error
// wrapping ErrShapeMismatch:
//
//	out, err := conv.Forward(x, nn.Eval)
//	if errors.Is(err, nn.ErrShapeMismatch) {
//	    // wrong channel count or spatial size
//	}
package nn
