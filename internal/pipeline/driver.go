package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/layerflow/internal/config"
	"github.com/specialistvlad/layerflow/internal/ctxlog"
	"github.com/specialistvlad/layerflow/internal/edge"
	"github.com/specialistvlad/layerflow/internal/weights"
)

// EdgeObserver is called with every edge set a layer creates, before any
// value is written to it.
type EdgeObserver func(layer int, set *edge.Set)

// Option configures a Driver.
type Option func(*Driver)

// WithoutHandshake disables the upstream completion tokens.
func WithoutHandshake() Option {
	return func(d *Driver) { d.handshake = false }
}

// WithEdgeObserver registers fn to see each layer's outbound edge set.
func WithEdgeObserver(fn EdgeObserver) Option {
	return func(d *Driver) { d.observe = fn }
}

// Driver starts a forward pass, waits for it and hands back its result.
type Driver struct {
	network   config.Network
	provider  weights.Provider
	handshake bool
	observe   EdgeObserver
}

// New validates the network and prepares a driver. The provider is wrapped so
// that concurrent workers never call it at the same time.
func New(network config.Network, provider weights.Provider, opts ...Option) (*Driver, error) {
	if err := network.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("pipeline: nil weights provider")
	}
	d := &Driver{
		network:   network,
		provider:  weights.Lock(provider),
		handshake: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Network returns the shape the driver runs.
func (d *Driver) Network() config.Network {
	return d.network
}

// Run executes one forward pass. It returns a result only if every stage
// succeeded. Run may be called repeatedly; each call is independent.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("🚀 Starting forward pass",
		"neurons", d.network.NeuronCount,
		"layers", d.network.LayerCount,
		"neurons_per_layer", d.network.NeuronsPerLayer,
	)
	start := time.Now()

	r := &run{
		network:   d.network,
		provider:  d.provider,
		handshake: d.handshake,
		observe:   d.observe,
		results:   make(chan Result, 1),
	}

	var acks chan token
	if d.handshake {
		acks = make(chan token, handshakeTokens)
	}
	err := spawn(ctx, "layer 0", func(ctx context.Context) error {
		return r.runLayer(ctx, 0, nil, acks)
	}).Wait()
	r.collect(ctx, acks, err)

	if err != nil {
		logger.Error("Forward pass failed.", "error", err, "duration", time.Since(start))
		return Result{}, fmt.Errorf("forward pass: %w", err)
	}

	select {
	case res := <-r.results:
		logger.Info("🏁 Forward pass finished", "x", res.X, "duration", time.Since(start))
		return res, nil
	default:
		return Result{}, fmt.Errorf("forward pass: %w: no result produced", edge.ErrChannelBroken)
	}
}
