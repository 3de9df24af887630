package weights

import (
	"context"
	"errors"
)

// Fallback consults its providers in order and returns the first entry found.
// Only ErrConfigMissing moves on to the next provider; any other error stops
// the lookup.
type Fallback []Provider

// Weights implements Provider.
func (f Fallback) Weights(ctx context.Context, layer, neuron int) ([]float64, error) {
	err := missing(Key{Layer: layer, Neuron: neuron}, "weights")
	for _, p := range f {
		var row []float64
		row, err = p.Weights(ctx, layer, neuron)
		if !errors.Is(err, ErrConfigMissing) {
			return row, err
		}
	}
	return nil, err
}

// Input implements Provider.
func (f Fallback) Input(ctx context.Context, layer, neuron int) (float64, error) {
	err := missing(Key{Layer: layer, Neuron: neuron}, "input")
	for _, p := range f {
		var v float64
		v, err = p.Input(ctx, layer, neuron)
		if !errors.Is(err, ErrConfigMissing) {
			return v, err
		}
	}
	return 0, err
}
