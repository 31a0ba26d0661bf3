// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package models provides the three convolutional image classifiers.
//
// # Overview
//
//   - Variant1: three conv blocks (64/128/256 channels), 224x224 input, 5 classes
//   - Variant2: two conv blocks (16/32 channels), 256x256 input, caller-chosen classes
//   - Variant3: five convs with batch norm, channel dropout and residual additions
//
// Each model maps [batch, 3, H, W] to raw class scores [batch, classes].
//
// # Basic Usage
//
//	backend := cpu.New()
//	model, err := models.NewVariant2(models.DefaultVariant2Config(10), backend)
//	if err != nil {
//	    return err
//	}
//	scores, err := model.Forward(images, nn.Eval)
//	if errors.Is(err, models.ErrShapeMismatch) {
//	    // input was not 256x256
//	}
package models

import (
	"github.com/born-ml/convnets/internal/models"
	"github.com/born-ml/convnets/internal/tensor"
)

// Errors.
var (
	ErrShapeMismatch = models.ErrShapeMismatch
	ErrInvalidConfig = models.ErrInvalidConfig
)

// Classifier is the common surface of all variants.
type Classifier[B tensor.Backend] = models.Classifier[B]

// Stage is one entry of a shape trace.
type Stage = models.Stage

// Trace lists per-stage output shapes.
type Trace = models.Trace

// Variant1 is the three-block VGG-style classifier.
type Variant1[B tensor.Backend] = models.Variant1[B]

// Variant1Config configures Variant1.
type Variant1Config = models.Variant1Config

// DefaultVariant1Config returns the reference Variant1 configuration.
func DefaultVariant1Config() Variant1Config {
	return models.DefaultVariant1Config()
}

// NewVariant1 builds Variant1.
func NewVariant1[B tensor.Backend](cfg Variant1Config, backend B) (*Variant1[B], error) {
	return models.NewVariant1(cfg, backend)
}

// Variant2 is the two-block classifier with a configurable class count.
type Variant2[B tensor.Backend] = models.Variant2[B]

// Variant2Config configures Variant2.
type Variant2Config = models.Variant2Config

// DefaultVariant2Config returns the reference Variant2 configuration for
// the given class count.
func DefaultVariant2Config(classes int) Variant2Config {
	return models.DefaultVariant2Config(classes)
}

// NewVariant2 builds Variant2. It fails with ErrInvalidConfig when the
// class count is not positive.
func NewVariant2[B tensor.Backend](cfg Variant2Config, backend B) (*Variant2[B], error) {
	return models.NewVariant2(cfg, backend)
}

// Variant3 is the residual classifier with batch norm and dropout.
type Variant3[B tensor.Backend] = models.Variant3[B]

// Variant3Config configures Variant3.
type Variant3Config = models.Variant3Config

// DefaultVariant3Config returns the reference Variant3 configuration.
func DefaultVariant3Config() Variant3Config {
	return models.DefaultVariant3Config()
}

// NewVariant3 builds Variant3.
func NewVariant3[B tensor.Backend](cfg Variant3Config, backend B) (*Variant3[B], error) {
	return models.NewVariant3(cfg, backend)
}
