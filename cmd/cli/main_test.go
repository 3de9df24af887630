package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/layerflow/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	weights := "# input\n2\n# layer 0\n3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "weights.txt"), []byte(weights), 0o600))
	cfg := `
		network {
			neuron_count      = 1
			layer_count       = 1
			neurons_per_layer = 1
		}
		weights {
			path = "weights.txt"
		}
	`
	cfgPath := filepath.Join(dir, "main.hcl")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, logs, []string{"-report-all", cfgPath})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "Fx(X1) = 43\nFx(X2) = 15\n", out.String())
	assert.Contains(t, logs.String(), "Starting forward pass")
}

func TestRun_LoadError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A syntax error fails the loading phase inside app.NewApp().
	invalidHCL := `
		network {
			neuron_count = 1
	`
	filePath := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0o600))
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, &bytes.Buffer{}, []string{filePath})

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
	assert.Empty(t, out.String())
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	logs := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), &bytes.Buffer{}, logs, []string{"-h"})

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, logs.String(), "Usage:", "Expected help text to be printed")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Act ---
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	// --- Assert ---
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
