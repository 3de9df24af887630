package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/specialistvlad/layerflow/internal/config"
	"github.com/specialistvlad/layerflow/internal/ctxlog"
)

// Phase is the lifecycle stage of an App, as reported by the health check.
type Phase int32

const (
	PhaseLoading Phase = iota
	PhaseRunning
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseRunning:
		return "running"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	ctx    context.Context
	config *Config
	model  *config.Model

	phase      atomic.Int32
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Results are written to
// outW and logs to logW. The configuration is loaded eagerly, so a broken
// config file fails here rather than in Run.
func NewApp(outW, logW io.Writer, appConfig *Config, loader config.Loader) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:   outW,
		logger: logger,
		ctx:    ctx,
		config: appConfig,
		model:  &config.Model{},
	}
	a.setPhase(PhaseLoading)

	if appConfig.ConfigPath != "" {
		model, err := loader.Load(ctx, appConfig.ConfigPath)
		if err != nil {
			a.setPhase(PhaseFailed)
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		a.model = model
		logger.Debug("Configuration loaded and translated into unified model.", "neurons", len(model.Neurons))
	}
	return a, nil
}

// Model returns the loaded configuration model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

// Phase returns the current lifecycle phase.
func (a *App) Phase() Phase {
	return Phase(a.phase.Load())
}

func (a *App) setPhase(p Phase) {
	a.phase.Store(int32(p))
}
