// Package models defines the three convolutional image classifiers.
//
// Every variant maps a [batch, 3, H, W] image tensor to [batch, classes]
// raw class scores. No softmax is applied. Each variant accepts a single
// input size; any other size fails with an error wrapping ErrShapeMismatch
// at the first layer whose shape contract is violated, usually the first
// fully connected layer.
package models

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/born-ml/convnets/internal/nn"
	"github.com/born-ml/convnets/internal/tensor"
)

// ErrShapeMismatch is re-exported from nn for callers that only import
// models.
var ErrShapeMismatch = nn.ErrShapeMismatch

// ErrInvalidConfig is returned by constructors when a configuration field
// is out of range.
var ErrInvalidConfig = errors.New("invalid model config")

// maxLinearWeights bounds the weight count of a single linear layer.
const maxLinearWeights = math.MaxInt32

// checkLinear rejects a linear layer of in*out weights above
// maxLinearWeights. in and out must be positive.
func checkLinear(model, name string, in, out int) error {
	if in > maxLinearWeights/out {
		return fmt.Errorf("%w: %s %s would hold %d x %d weights, limit is %d",
			ErrInvalidConfig, model, name, in, out, maxLinearWeights)
	}
	return nil
}

// checkFlatten rejects a flatten size whose channels*size*size features
// would make the following linear layer exceed maxLinearWeights.
func checkFlatten(model string, channels, size, out int) error {
	if size > maxLinearWeights/out/channels/size {
		return fmt.Errorf("%w: %s flatten_size=%d is too large for %d channels and %d outputs",
			ErrInvalidConfig, model, size, channels, out)
	}
	return nil
}

// Classifier is the common surface of all variants.
type Classifier[B tensor.Backend] interface {
	nn.Module[B]
	Summary(input tensor.Shape) (Trace, error)
	String() string
}

// Stage is one entry of a shape trace.
type Stage struct {
	Name  string
	Shape tensor.Shape
}

// Trace lists the output shape of every stage of a forward pass, in order.
type Trace []Stage

// String renders the trace as an aligned two-column table.
func (t Trace) String() string {
	width := 0
	for _, s := range t {
		width = max(width, len(s.Name))
	}

	var sb strings.Builder
	for _, s := range t {
		fmt.Fprintf(&sb, "%-*s  %v\n", width, s.Name, s.Shape)
	}
	return sb.String()
}

// Output returns the last recorded shape, or nil for an empty trace.
func (t Trace) Output() tensor.Shape {
	if len(t) == 0 {
		return nil
	}
	return t[len(t)-1].Shape
}

// layer pairs a module with its stage name.
type layer[B tensor.Backend] struct {
	name   string
	module nn.Module[B]
}

// pass runs modules one after another and records the first failure.
// Once err is set every further call is a no-op.
type pass[B tensor.Backend] struct {
	x    *tensor.Tensor[float32, B]
	mode nn.Mode
	err  error
}

func (p *pass[B]) apply(l layer[B]) {
	if p.err != nil {
		return
	}
	y, err := l.module.Forward(p.x, p.mode)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", l.name, err)
		return
	}
	p.x = y
}

func (p *pass[B]) applyAll(layers []layer[B]) {
	for _, l := range layers {
		p.apply(l)
	}
}

func (p *pass[B]) addResidual(name string, residual *tensor.Tensor[float32, B]) {
	if p.err != nil {
		return
	}
	y, err := nn.AddResidual(p.x, residual)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", name, err)
		return
	}
	p.x = y
}

// tracer is the shape-only counterpart of pass.
type tracer struct {
	shape tensor.Shape
	trace Trace
	err   error
}

func newTracer(input tensor.Shape) *tracer {
	return &tracer{
		shape: input.Clone(),
		trace: Trace{{Name: "input", Shape: input.Clone()}},
	}
}

func (t *tracer) apply(name string, module any) {
	if t.err != nil {
		return
	}
	inferer, ok := module.(nn.ShapeInferer)
	if !ok {
		t.record(name, t.shape.Clone())
		return
	}
	out, err := inferer.OutputShape(t.shape)
	if err != nil {
		t.err = fmt.Errorf("%s: %w", name, err)
		return
	}
	t.record(name, out)
}

func (t *tracer) addResidual(name string, residual tensor.Shape) {
	if t.err != nil {
		return
	}
	out, err := nn.ResidualShape(t.shape, residual)
	if err != nil {
		t.err = fmt.Errorf("%s: %w", name, err)
		return
	}
	t.record(name, out)
}

func (t *tracer) record(name string, shape tensor.Shape) {
	t.shape = shape
	t.trace = append(t.trace, Stage{Name: name, Shape: shape})
}

func traceLayers[B tensor.Backend](t *tracer, layers []layer[B]) {
	for _, l := range layers {
		t.apply(l.name, l.module)
	}
}

func collectParameters[B tensor.Backend](layers []layer[B]) []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, l := range layers {
		params = append(params, l.module.Parameters()...)
	}
	return params
}

// describe prints a model header followed by one named layer per line,
// in the style of nn.Sequential.String.
func describe[B tensor.Backend](title string, layers []layer[B]) string {
	var sb strings.Builder
	sb.WriteString(title + "(\n")
	for _, l := range layers {
		fmt.Fprintf(&sb, "  (%s): %v\n", l.name, l.module)
	}
	sb.WriteString(")")
	return sb.String()
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed)) //nolint:gosec // G404: weight init and dropout are not security sensitive
}
