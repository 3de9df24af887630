// Package weights supplies the per-neuron weight rows and input values a
// forward pass consumes.
//
// Three implementations are provided:
//   - Table: direct keyed lookup, built from inline configuration.
//   - Stream: the line-oriented weight file, consumed sequentially on every
//     lookup.
//   - Locked: wraps any Provider so that at most one lookup is in flight,
//     which a Stream backed by a single file requires.
package weights

import (
	"context"
	"errors"
	"fmt"
)

// ErrConfigMissing is returned when a provider has no entry for a neuron.
var ErrConfigMissing = errors.New("config missing")

// Provider supplies weights and inputs keyed by neuron identity.
type Provider interface {
	// Weights returns the neuron's outgoing weight row. Callers own the
	// returned slice and may modify it.
	Weights(ctx context.Context, layer, neuron int) ([]float64, error)
	// Input returns the external input value of an input-layer neuron.
	Input(ctx context.Context, layer, neuron int) (float64, error)
}

// Key identifies one neuron in the network.
type Key struct {
	Layer  int
	Neuron int
}

func (k Key) String() string {
	return fmt.Sprintf("layer[%d].neuron[%d]", k.Layer, k.Neuron)
}

func missing(k Key, what string) error {
	return fmt.Errorf("%w: no %s for %s", ErrConfigMissing, what, k)
}
