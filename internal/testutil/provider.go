package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/layerflow/internal/weights"
)

// Uniform returns a Table in which every input neuron receives input and
// every neuron of the network carries the same weight row.
func Uniform(neurons, layers, perLayer int, input float64, row []float64) *weights.Table {
	entries := make(map[weights.Key]weights.Entry)
	for i := 0; i < neurons; i++ {
		in := input
		entries[weights.Key{Layer: 0, Neuron: i}] = weights.Entry{Input: &in, Weights: row}
	}
	for l := 1; l < layers; l++ {
		for i := 0; i < perLayer; i++ {
			entries[weights.Key{Layer: l, Neuron: i}] = weights.Entry{Weights: row}
		}
	}
	return weights.NewTable(entries)
}

// Provider wraps another Provider, counts lookups and lets a test make
// individual keys fail or block.
type Provider struct {
	Next weights.Provider

	mu      sync.Mutex
	fail    map[weights.Key]error
	block   map[weights.Key]chan struct{}
	calls   atomic.Int64
	current atomic.Int64
	peak    atomic.Int64
}

// NewProvider wraps next.
func NewProvider(next weights.Provider) *Provider {
	return &Provider{
		Next:  next,
		fail:  make(map[weights.Key]error),
		block: make(map[weights.Key]chan struct{}),
	}
}

// FailOn makes the weight lookup for the given neuron return err.
func (p *Provider) FailOn(layer, neuron int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail[weights.Key{Layer: layer, Neuron: neuron}] = err
}

// BlockOn makes the weight lookup for the given neuron wait until the
// returned channel is closed or the lookup's context is done.
func (p *Provider) BlockOn(layer, neuron int) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan struct{})
	p.block[weights.Key{Layer: layer, Neuron: neuron}] = ch
	return ch
}

// Calls returns the number of weight lookups made so far.
func (p *Provider) Calls() int64 {
	return p.calls.Load()
}

// Peak returns the highest number of lookups observed in flight at once.
func (p *Provider) Peak() int64 {
	return p.peak.Load()
}

// Weights implements weights.Provider.
func (p *Provider) Weights(ctx context.Context, layer, neuron int) ([]float64, error) {
	p.calls.Add(1)
	n := p.current.Add(1)
	defer p.current.Add(-1)
	for {
		old := p.peak.Load()
		if n <= old || p.peak.CompareAndSwap(old, n) {
			break
		}
	}

	k := weights.Key{Layer: layer, Neuron: neuron}
	p.mu.Lock()
	err, failing := p.fail[k]
	ch, blocking := p.block[k]
	p.mu.Unlock()

	if blocking {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failing {
		return nil, err
	}
	return p.Next.Weights(ctx, layer, neuron)
}

// Input implements weights.Provider.
func (p *Provider) Input(ctx context.Context, layer, neuron int) (float64, error) {
	return p.Next.Input(ctx, layer, neuron)
}
