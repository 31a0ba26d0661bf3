// Package main provides the convnets CLI.
//
// Usage:
//
//	convnets version
//	convnets summary -variant 1 [-size 224] [-config convnets.yaml]
//	convnets forward -variant 3 [-batch 2] [-size 128] [-mode eval|train] [-config convnets.yaml]
//
// forward runs a single pass on random images and prints the score shape.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/born-ml/convnets/internal/backend/cpu"
	"github.com/born-ml/convnets/internal/config"
	"github.com/born-ml/convnets/internal/models"
	"github.com/born-ml/convnets/internal/nn"
	"github.com/born-ml/convnets/internal/tensor"
)

const version = "v0.1.0"

// defaultSizes is the input size each variant is built for.
var defaultSizes = map[int]int{1: 224, 2: 256, 3: 128}

var errUsage = errors.New("usage")

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(os.Args[1:], os.Stdout, logger); err != nil {
		report(err, os.Stderr, logger)
		os.Exit(1)
	}
}

// report logs a failed run. Usage errors are followed by the command list.
func report(err error, stderr io.Writer, logger *slog.Logger) {
	logger.Error("convnets failed", "err", err)
	if errors.Is(err, errUsage) {
		printUsage(stderr)
	}
}

func run(args []string, stdout io.Writer, logger *slog.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "convnets %s\n", version)
		return nil
	case "summary":
		return runSummary(args[1:], stdout, logger)
	case "forward":
		return runForward(args[1:], stdout, logger)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "convnets - convolutional image classifiers")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  summary    Print a model's layers and per-stage output shapes")
	fmt.Fprintln(w, "  forward    Run one forward pass on random images")
}

// modelFlags are shared by summary and forward.
type modelFlags struct {
	variant    int
	size       int
	batch      int
	classes    int
	configPath string
}

func (f *modelFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&f.variant, "variant", 1, "model variant (1, 2 or 3)")
	fs.IntVar(&f.size, "size", 0, "input height and width (0 = the variant's native size)")
	fs.IntVar(&f.batch, "batch", 1, "batch size")
	fs.IntVar(&f.classes, "classes", 0, "class count for variant 2 (overrides the config file)")
	fs.StringVar(&f.configPath, "config", "", "YAML configuration file")
}

func (f *modelFlags) inputShape() (tensor.Shape, error) {
	native, ok := defaultSizes[f.variant]
	if !ok {
		return nil, fmt.Errorf("%w: unknown variant %d", errUsage, f.variant)
	}
	size := f.size
	if size == 0 {
		size = native
	}
	if size <= 0 || f.batch <= 0 {
		return nil, fmt.Errorf("%w: size and batch must be positive, got size=%d batch=%d", errUsage, size, f.batch)
	}
	return tensor.Shape{f.batch, 3, size, size}, nil
}

func (f *modelFlags) load() (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return config.Config{}, err
		}
	}
	if f.classes > 0 {
		cfg.Variant2.Classes = f.classes
	}
	return cfg, nil
}

func buildModel(variant int, cfg config.Config, backend *cpu.CPUBackend) (models.Classifier[*cpu.CPUBackend], error) {
	switch variant {
	case 1:
		return classifier(models.NewVariant1(cfg.Variant1, backend))
	case 2:
		return classifier(models.NewVariant2(cfg.Variant2, backend))
	case 3:
		return classifier(models.NewVariant3(cfg.Variant3, backend))
	default:
		return nil, fmt.Errorf("%w: unknown variant %d", errUsage, variant)
	}
}

// classifier converts a constructor result without leaking a typed nil.
func classifier[M models.Classifier[*cpu.CPUBackend]](m M, err error) (models.Classifier[*cpu.CPUBackend], error) {
	if err != nil {
		return nil, err
	}
	return m, nil
}

// setup parses flags, loads configuration and builds the model.
func setup(name string, args []string, extra func(*flag.FlagSet), logger *slog.Logger) (
	models.Classifier[*cpu.CPUBackend], *cpu.CPUBackend, tensor.Shape, error,
) {
	var mf modelFlags
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	mf.register(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", errUsage, err)
	}

	cfg, err := mf.load()
	if err != nil {
		return nil, nil, nil, err
	}
	shape, err := mf.inputShape()
	if err != nil {
		return nil, nil, nil, err
	}

	backend := cpu.NewWithConfig(cfg.Parallel())
	start := time.Now()
	model, err := buildModel(mf.variant, cfg, backend)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("model built",
		"variant", mf.variant,
		"parameters", nn.CountParameters(model.Parameters()),
		"workers", backend.Parallel().NumWorkers,
		"elapsed", time.Since(start))

	return model, backend, shape, nil
}

func runSummary(args []string, stdout io.Writer, logger *slog.Logger) error {
	model, _, shape, err := setup("summary", args, nil, logger)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, model.String())
	fmt.Fprintln(stdout)

	trace, err := model.Summary(shape)
	fmt.Fprint(stdout, trace.String())
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\nparameters: %d\n", nn.CountParameters(model.Parameters()))
	return nil
}

func runForward(args []string, stdout io.Writer, logger *slog.Logger) error {
	var (
		mode nn.Mode
		seed int64
	)
	model, backend, shape, err := setup("forward", args, func(fs *flag.FlagSet) {
		fs.Func("mode", "eval or train (default eval)", func(s string) error {
			var err error
			mode, err = parseMode(s)
			return err
		})
		fs.Int64Var(&seed, "seed", 1, "seed for the random input images")
	}, logger)
	if err != nil {
		return err
	}

	input := tensor.RandnFrom[float32](rand.New(rand.NewSource(seed)), shape, backend) //nolint:gosec // G404: demo input
	start := time.Now()
	out, err := model.Forward(input, mode)
	if err != nil {
		return err
	}
	logger.Info("forward pass complete", "mode", mode, "input", shape, "output", out.Shape(), "elapsed", time.Since(start))

	classes := out.Shape()[1]
	for i := 0; i < out.Shape()[0]; i++ {
		fmt.Fprintf(stdout, "%d: %v\n", i, out.Data()[i*classes:(i+1)*classes])
	}
	return nil
}

func parseMode(s string) (nn.Mode, error) {
	switch s {
	case "eval":
		return nn.Eval, nil
	case "train":
		return nn.Train, nil
	default:
		return nn.Eval, fmt.Errorf("unknown mode %q", s)
	}
}
