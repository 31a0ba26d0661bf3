package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnets/internal/models"
)

// smallConfig shrinks every variant so it accepts 16x16 images.
const smallConfig = `
sequential: true
variant1:
  flatten_size: 2
variant2:
  flatten_size: 4
variant3:
  flatten_size: 4
  residual_projection: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "convnets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	err := run(args, &stdout, logger)
	return stdout.String(), logs.String(), err
}

func TestRun_Version(t *testing.T) {
	out, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "convnets "+version+"\n", out)
}

func TestRun_Usage(t *testing.T) {
	_, _, err := runCLI(t)
	assert.ErrorIs(t, err, errUsage)

	_, _, err = runCLI(t, "train")
	assert.ErrorIs(t, err, errUsage)
	assert.ErrorContains(t, err, `"train"`)

	out, _, err := runCLI(t, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "Commands:")
}

func TestReport(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		message   string
		showUsage bool
	}{
		{"missing command", nil, "missing command", true},
		{"unknown variant", []string{"summary", "-variant", "7"}, "unknown variant 7", true},
		{"unknown mode", []string{"forward", "-variant", "1", "-size", "16", "-mode", "bogus"}, `unknown mode \"bogus\"`, true},
		{"bad batch", []string{"summary", "-batch", "0"}, "size and batch must be positive", true},
		{"bad config", []string{"summary", "-config", "missing.yaml"}, "missing.yaml", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args...)
			require.Error(t, err)

			var stderr, logs bytes.Buffer
			report(err, &stderr, slog.New(slog.NewTextHandler(&logs, nil)))

			assert.Contains(t, logs.String(), "convnets failed")
			assert.Contains(t, logs.String(), tt.message)
			if tt.showUsage {
				assert.Contains(t, stderr.String(), "Commands:")
			} else {
				assert.Empty(t, stderr.String())
			}
		})
	}
}

func TestRun_UnknownVariantIsReportedFirst(t *testing.T) {
	for _, cmd := range []string{"summary", "forward"} {
		_, _, err := runCLI(t, cmd, "-variant", "7")
		require.ErrorIs(t, err, errUsage)
		assert.ErrorContains(t, err, "unknown variant 7")
	}
}

func TestRun_Summary(t *testing.T) {
	cfg := writeConfig(t, smallConfig)

	out, logs, err := runCLI(t, "summary", "-variant", "3", "-size", "16", "-batch", "2", "-config", cfg)
	require.NoError(t, err)

	assert.Contains(t, out, "Variant3(")
	assert.Contains(t, out, "residual2")
	assert.Contains(t, out, "[2 5]")
	assert.Contains(t, out, "parameters:")
	assert.Contains(t, logs, "model built")
}

func TestRun_SummaryReportsMismatch(t *testing.T) {
	cfg := writeConfig(t, smallConfig)

	out, _, err := runCLI(t, "summary", "-variant", "1", "-size", "24", "-config", cfg)
	require.ErrorIs(t, err, models.ErrShapeMismatch)
	assert.Contains(t, out, "flatten")
}

func TestRun_Forward(t *testing.T) {
	cfg := writeConfig(t, smallConfig)

	tests := []struct {
		name string
		args []string
		rows int
	}{
		{"variant1", []string{"-variant", "1"}, 1},
		{"variant2", []string{"-variant", "2", "-classes", "3", "-batch", "2"}, 2},
		{"variant3 train", []string{"-variant", "3", "-mode", "train", "-batch", "3"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"forward", "-size", "16", "-config", cfg}, tt.args...)
			out, logs, err := runCLI(t, args...)
			require.NoError(t, err)

			assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), tt.rows)
			assert.Contains(t, logs, "forward pass complete")
		})
	}
}

func TestRun_ForwardErrors(t *testing.T) {
	cfg := writeConfig(t, smallConfig)

	_, _, err := runCLI(t, "forward", "-variant", "2", "-size", "16", "-config", cfg)
	assert.ErrorIs(t, err, models.ErrInvalidConfig, "variant 2 needs -classes")

	_, _, err = runCLI(t, "forward", "-variant", "4", "-config", cfg)
	assert.ErrorIs(t, err, errUsage)
	assert.ErrorContains(t, err, "unknown variant 4")

	_, _, err = runCLI(t, "forward", "-variant", "1", "-size", "16", "-mode", "infer", "-config", cfg)
	assert.ErrorIs(t, err, errUsage)

	_, _, err = runCLI(t, "forward", "-variant", "3", "-size", "16", "-config", writeConfig(t, "variant3:\n  flatten_size: 4\n"))
	assert.ErrorIs(t, err, models.ErrShapeMismatch)
}
