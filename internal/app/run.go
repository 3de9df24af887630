package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/layerflow/internal/config"
	"github.com/specialistvlad/layerflow/internal/ctxlog"
	"github.com/specialistvlad/layerflow/internal/pipeline"
	"github.com/specialistvlad/layerflow/internal/report"
	"github.com/specialistvlad/layerflow/internal/weights"
)

// Run executes one forward pass and reports its result. Nothing is reported
// if the pass fails.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	defer func() {
		if err != nil {
			a.setPhase(PhaseFailed)
			return
		}
		a.setPhase(PhaseDone)
	}()
	if err := a.startHealthCheckServer(); err != nil {
		return err
	}
	defer func() {
		if closeErr := a.closeHealthCheckServer(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	network, err := a.network()
	if err != nil {
		return err
	}
	provider, err := a.provider(network)
	if err != nil {
		return err
	}
	reporter, err := report.FromConfig(a.outW, a.reportConfig())
	if err != nil {
		return fmt.Errorf("failed to configure reporting: %w", err)
	}

	var opts []pipeline.Option
	if a.config.NoHandshake {
		opts = append(opts, pipeline.WithoutHandshake())
	}
	driver, err := pipeline.New(network, provider, opts...)
	if err != nil {
		return err
	}

	a.setPhase(PhaseRunning)
	res, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	if err := reporter.Report(ctx, res); err != nil {
		return fmt.Errorf("failed to report result: %w", err)
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// network merges the command line dimensions over the HCL network block.
func (a *App) network() (config.Network, error) {
	var declared config.Network
	if a.model.Network != nil {
		declared = *a.model.Network
	}
	network := declared.Merge(a.config.Network)
	if err := network.Validate(); err != nil {
		return config.Network{}, fmt.Errorf("network is not fully configured: %w", err)
	}
	return network, nil
}

// provider assembles the weight sources: inline neuron rows first, then the
// weight file, if any.
func (a *App) provider(network config.Network) (weights.Provider, error) {
	var chain weights.Fallback

	if len(a.model.Neurons) > 0 {
		table, err := weights.TableFromModel(a.model.Neurons)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("Using inline weights.", "neurons", table.Len())
		chain = append(chain, table)
	}

	path := a.config.WeightsPath
	if path == "" && a.model.Weights != nil {
		path = a.model.Weights.Path
	}
	if path != "" {
		a.logger.Debug("Using weight file.", "path", path)
		chain = append(chain, weights.OpenFile(path, network))
	}

	switch len(chain) {
	case 0:
		return nil, errors.New("no weights configured: declare neuron blocks or a weights file")
	case 1:
		return chain[0], nil
	default:
		return chain, nil
	}
}

func (a *App) reportConfig() *config.Report {
	cfg := config.Report{}
	if a.model.Report != nil {
		cfg = *a.model.Report
	}
	cfg.All = cfg.All || a.config.ReportAll
	return &cfg
}
