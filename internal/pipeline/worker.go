package pipeline

import (
	"context"
	"fmt"

	"github.com/specialistvlad/layerflow/internal/barrier"
	"github.com/specialistvlad/layerflow/internal/ctxlog"
	"github.com/specialistvlad/layerflow/internal/edge"
	"github.com/specialistvlad/layerflow/internal/weights"
	"gonum.org/v1/gonum/floats"
)

// worker computes one neuron of one layer.
type worker struct {
	slot     *Slot
	provider weights.Provider
	// inbound is nil for the input layer.
	inbound []*edge.Edge
	barrier *barrier.Barrier
	fanout  int
}

// run fetches the neuron's weights and input, scales the weights by the
// input, stores the result in the slot and signals the barrier once. Any
// failure poisons the barrier instead.
func (w *worker) run(ctx context.Context) (err error) {
	ctx = ctxlog.With(ctx, "neuron", w.slot.Index)
	logger := ctxlog.FromContext(ctx)
	w.slot.setState(Running)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("layer %d neuron %d panicked: %v", w.slot.Layer, w.slot.Index, r)
		}
		if err != nil {
			logger.Debug("Neuron failed.", "error", err)
			w.slot.setState(Failed)
			w.barrier.Poison(err)
		}
	}()

	row, err := w.provider.Weights(ctx, w.slot.Layer, w.slot.Index)
	if err != nil {
		return fmt.Errorf("layer %d neuron %d: %w", w.slot.Layer, w.slot.Index, err)
	}
	if len(row) != w.fanout {
		return fmt.Errorf("layer %d neuron %d: %w: got %d weights, want %d",
			w.slot.Layer, w.slot.Index, weights.ErrConfigMissing, len(row), w.fanout)
	}

	input, err := w.input(ctx)
	if err != nil {
		return fmt.Errorf("layer %d neuron %d: %w", w.slot.Layer, w.slot.Index, err)
	}

	floats.Scale(input, row)
	w.slot.store(row)
	logger.Debug("Neuron computed.", "input", input, "outputs", len(row))

	if err := w.barrier.Signal(); err != nil {
		return fmt.Errorf("layer %d neuron %d: %w", w.slot.Layer, w.slot.Index, err)
	}
	return nil
}

// input returns the external input for the input layer, or the sum of every
// inbound edge, read in producer order, for later layers.
func (w *worker) input(ctx context.Context) (float64, error) {
	if w.inbound == nil {
		return w.provider.Input(ctx, w.slot.Layer, w.slot.Index)
	}

	received := make([]float64, len(w.inbound))
	for i, e := range w.inbound {
		v, err := e.Recv(ctx)
		if err != nil {
			return 0, err
		}
		received[i] = v
	}
	return floats.Sum(received), nil
}
