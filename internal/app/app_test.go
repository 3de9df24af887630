package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/layerflow/internal/config"
	"github.com/specialistvlad/layerflow/internal/hcl_adapter"
	"github.com/specialistvlad/layerflow/internal/testutil"
	"github.com/specialistvlad/layerflow/internal/weights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupApp creates a new app instance with debug logging captured in a buffer.
func setupApp(t *testing.T, cfg *Config) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()
	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"

	a, err := NewApp(out, logs, cfg, hcl_adapter.NewLoader(hcl_adapter.WithNetworkOverride(cfg.Network)))
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("LAYERFLOW_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return a, out, logs
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestApp_Run_InlineWeights(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	dir := t.TempDir()
	path := writeFile(t, dir, "main.hcl", `
		network {
			neuron_count      = 1
			layer_count       = 1
			neurons_per_layer = 1
		}
		neuron {
			layer   = 0
			index   = 0
			input   = 2
			weights = [3]
		}
	`)
	a, out, logs := setupApp(t, &Config{ConfigPath: path})

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "Fx(X1) = 43\n", out.String())
	assert.Equal(t, PhaseDone, a.Phase())
	assert.Contains(t, logs.String(), "Forward pass finished")
	assert.NotContains(t, out.String(), "level=", "logs never reach the result writer")
}

func TestApp_Run_WeightFileAndFlags(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	dir := t.TempDir()
	weightsPath := writeFile(t, dir, "weights.txt", "# input\n2\n# layer 0\n3\n")
	a, out, _ := setupApp(t, &Config{
		WeightsPath: weightsPath,
		Network:     config.Network{NeuronCount: 1, LayerCount: 1, NeuronsPerLayer: 1},
		ReportAll:   true,
		NoHandshake: true,
	})

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "Fx(X1) = 43\nFx(X2) = 15\n", out.String())
}

func TestApp_Run_InlineRowsOverrideWeightFile(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	dir := t.TempDir()
	writeFile(t, dir, "weights.txt", "2\n100\n")
	path := writeFile(t, dir, "main.hcl", `
		network {
			neuron_count      = 1
			layer_count       = 1
			neurons_per_layer = 1
		}
		weights {
			path = "weights.txt"
		}
		neuron {
			layer   = 0
			index   = 0
			weights = [3]
		}
	`)
	a, out, _ := setupApp(t, &Config{ConfigPath: path})

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	// The input comes from the file, the weight row from the neuron block.
	require.NoError(t, err)
	assert.Equal(t, "Fx(X1) = 43\n", out.String())
}

func TestApp_Run_MissingWeightsReportsNothing(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	dir := t.TempDir()
	path := writeFile(t, dir, "main.hcl", `
		network {
			neuron_count      = 1
			layer_count       = 3
			neurons_per_layer = 2
		}
		report {
			all = true
		}
		neuron {
			layer   = 0
			index   = 0
			input   = 1
			weights = [1, 1]
		}
		neuron {
			layer   = 1
			index   = 0
			weights = [1, 1]
		}
		neuron {
			layer   = 1
			index   = 1
			weights = [1, 1]
		}
		neuron {
			layer   = 2
			index   = 0
			weights = [1, 1]
		}
	`)
	a, out, _ := setupApp(t, &Config{ConfigPath: path})

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.ErrorIs(t, err, weights.ErrConfigMissing)
	assert.Empty(t, out.String())
	assert.Equal(t, PhaseFailed, a.Phase())
}

func TestApp_Run_ConfigurationErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		hcl     string
		network config.Network
		wantErr string
	}{
		{
			name: "no network",
			hcl: `neuron {
				layer = 0
				index = 0
				weights = [1]
			}`,
			wantErr: "network is not fully configured",
		},
		{
			name: "no weights",
			hcl: `network {
				neuron_count = 1
				layer_count = 1
				neurons_per_layer = 1
			}`,
			wantErr: "no weights configured",
		},
		{
			name: "duplicate neuron",
			hcl: `
				neuron {
					layer = 0
					index = 0
					weights = [1]
				}
				neuron {
					layer = 0
					index = 0
					weights = [2]
				}`,
			network: config.Network{NeuronCount: 1, LayerCount: 1, NeuronsPerLayer: 1},
			wantErr: "duplicate weights for layer[0].neuron[0]",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, t.TempDir(), "main.hcl", tc.hcl)
			a, out, _ := setupApp(t, &Config{ConfigPath: path, Network: tc.network})

			err := a.Run(context.Background())

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
			assert.Empty(t, out.String())
			assert.Equal(t, PhaseFailed, a.Phase())
		})
	}
}

func TestNewApp_LoadError(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "main.hcl", `network {`)

	_, err := NewApp(io.Discard, io.Discard, &Config{ConfigPath: path}, hcl_adapter.NewLoader())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	_, err := NewConfig(Config{})
	require.Error(t, err)

	_, err = NewConfig(Config{ConfigPath: "main.hcl", HealthcheckPort: -1})
	require.Error(t, err)

	cfg, err := NewConfig(Config{WeightsPath: "weights.txt"})
	require.NoError(t, err)
	assert.Equal(t, "weights.txt", cfg.WeightsPath)
}

func TestHealthHandler_ReportsPhase(t *testing.T) {
	t.Parallel()
	a, _, _ := setupApp(t, &Config{WeightsPath: "unused.txt"})

	rec := httptest.NewRecorder()
	a.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\nphase: loading\n", rec.Body.String())

	a.setPhase(PhaseRunning)
	rec = httptest.NewRecorder()
	a.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, rec.Body.String(), "phase: running")
}

func TestHealthCheckServer_Lifecycle(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	a, _, _ := setupApp(t, &Config{WeightsPath: "unused.txt", HealthcheckPort: port})

	// --- Act ---
	require.NoError(t, a.startHealthCheckServer())

	// --- Assert ---
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	assert.Contains(t, string(body), "OK")

	require.NoError(t, a.closeHealthCheckServer())
	_, err = client.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
	assert.Error(t, err, "server is gone after shutdown")
}

func TestPhase_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "loading", PhaseLoading.String())
	assert.Equal(t, "done", PhaseDone.String())
	assert.Equal(t, "Phase(9)", Phase(9).String())
}
