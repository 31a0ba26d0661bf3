// Package config loads runtime and model settings from a YAML file.
//
// Every field is optional. Fields missing from the file keep the values of
// Default, so a file only needs to name what it changes:
//
//	workers: 4
//	variant2:
//	  classes: 10
//	variant3:
//	  residual_projection: true
//	  flatten_size: 32
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/convnets/internal/models"
	"github.com/born-ml/convnets/internal/parallel"
)

// Config holds everything the CLI needs to build and run a model.
type Config struct {
	// Workers caps the CPU backend's worker count. Zero selects the
	// detected number of logical cores.
	Workers int `yaml:"workers"`
	// Sequential disables all parallel kernels.
	Sequential bool `yaml:"sequential"`

	Variant1 models.Variant1Config `yaml:"variant1"`
	Variant2 models.Variant2Config `yaml:"variant2"`
	Variant3 models.Variant3Config `yaml:"variant3"`
}

// Default returns the built-in configuration. Variant2 has no class count
// and must be given one before use.
func Default() Config {
	return Config{
		Variant1: models.DefaultVariant1Config(),
		Variant2: models.DefaultVariant2Config(0),
		Variant3: models.DefaultVariant3Config(),
	}
}

// Load reads and parses the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks runtime settings and the variant 1 and 3 configurations.
// Variant2 is checked when the model is built, since its class count is
// often supplied later on the command line.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if err := c.Variant1.Validate(); err != nil {
		return err
	}
	return c.Variant3.Validate()
}

// Parallel returns the backend worker configuration.
func (c Config) Parallel() parallel.Config {
	if c.Sequential {
		return parallel.Sequential()
	}
	cfg := parallel.DefaultConfig()
	if c.Workers > 0 {
		cfg.NumWorkers = c.Workers
		cfg.Enabled = c.Workers > 1
	}
	return cfg
}
