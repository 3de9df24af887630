package weights

import (
	"context"
	"sync"
)

// Locked serializes lookups on an underlying Provider. The lock is held for
// one lookup only, never across a caller's computation.
type Locked struct {
	mu sync.Mutex
	p  Provider
}

// Lock wraps p. Wrapping an already Locked provider returns it unchanged.
func Lock(p Provider) *Locked {
	if l, ok := p.(*Locked); ok {
		return l
	}
	return &Locked{p: p}
}

// Weights implements Provider.
func (l *Locked) Weights(ctx context.Context, layer, neuron int) ([]float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.Weights(ctx, layer, neuron)
}

// Input implements Provider.
func (l *Locked) Input(ctx context.Context, layer, neuron int) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.Input(ctx, layer, neuron)
}
