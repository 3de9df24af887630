package pipeline

import (
	"context"
	"fmt"

	"github.com/specialistvlad/layerflow/internal/barrier"
	"github.com/specialistvlad/layerflow/internal/config"
	"github.com/specialistvlad/layerflow/internal/ctxlog"
	"github.com/specialistvlad/layerflow/internal/edge"
	"github.com/specialistvlad/layerflow/internal/weights"
	"golang.org/x/sync/errgroup"
)

// handshakeTokens is the number of completion tokens a stage sends upstream.
const handshakeTokens = 2

// token is an upstream completion signal. It carries no value.
type token struct{}

// run holds what every stage of one forward pass may read. Nothing in it is
// mutated once the pass starts, except the single-slot result sink.
type run struct {
	network   config.Network
	provider  weights.Provider
	handshake bool
	observe   EdgeObserver
	results   chan Result
}

// runLayer executes one layer to completion, forwards its outputs and then
// spawns and joins the next stage.
func (r *run) runLayer(ctx context.Context, layer int, inbound *edge.Set, upstream chan<- token) error {
	stageCtx := ctxlog.With(ctx, "layer", layer)
	logger := ctxlog.FromContext(stageCtx)
	width := r.network.Width(layer)
	logger.Info("▶️ Layer started", "neurons", width)

	slots, err := r.computeLayer(stageCtx, layer, inbound)
	if err != nil {
		logger.Error("Layer failed.", "error", err)
		return err
	}

	next := edge.NewSet(width, r.network.NeuronsPerLayer)
	// Unconsumed edges are discarded once the child stage is joined.
	defer next.Abandon()
	if r.observe != nil {
		r.observe(layer, next)
	}

	if err := forward(slots, next); err != nil {
		return fmt.Errorf("layer %d: %w", layer, err)
	}
	logger.Info("✅ Layer finished", "edges", next.Len())
	r.acknowledge(stageCtx, upstream)

	if r.network.IsLast(layer) {
		logger.Debug("Last layer reached, spawning output stage.")
		return spawn(ctx, "output", func(ctx context.Context) error {
			return r.runOutput(ctx, next)
		}).Wait()
	}

	var acks chan token
	if r.handshake {
		acks = make(chan token, handshakeTokens)
	}
	child := spawn(ctx, fmt.Sprintf("layer %d", layer+1), func(ctx context.Context) error {
		return r.runLayer(ctx, layer+1, next, acks)
	})
	err = child.Wait()
	r.collect(stageCtx, acks, err)
	return err
}

// computeLayer runs one supervised worker per neuron and blocks on the
// layer's barrier until every worker has signalled or one has failed.
func (r *run) computeLayer(ctx context.Context, layer int, inbound *edge.Set) ([]*Slot, error) {
	width := r.network.Width(layer)
	bar := barrier.New(width)
	slots := make([]*Slot, width)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < width; i++ {
		slots[i] = newSlot(layer, i)
		w := &worker{
			slot:     slots[i],
			provider: r.provider,
			barrier:  bar,
			fanout:   r.network.NeuronsPerLayer,
		}
		if inbound != nil {
			w.inbound = inbound.Inbound(i)
		}
		g.Go(func() error { return w.run(gctx) })
	}

	waitErr := bar.Wait(ctx)
	// The group error is the root cause; a poisoned barrier only echoes it.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if waitErr != nil {
		return nil, fmt.Errorf("layer %d: %w", layer, waitErr)
	}
	return slots, nil
}

// forward writes every neuron's per-consumer value onto its outbound edge.
func forward(slots []*Slot, next *edge.Set) error {
	for _, slot := range slots {
		values := slot.Values()
		if values == nil {
			return fmt.Errorf("neuron %d is %s, not done", slot.Index, slot.State())
		}
		for j, e := range next.Outbound(slot.Index) {
			if err := e.Send(values[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

// acknowledge sends the completion tokens to the spawner.
func (r *run) acknowledge(ctx context.Context, upstream chan<- token) {
	if upstream == nil {
		return
	}
	for i := 0; i < handshakeTokens; i++ {
		select {
		case upstream <- token{}:
		default:
			ctxlog.FromContext(ctx).Warn("Upstream handshake channel full, dropping token.", "token", i)
		}
	}
}

// collect drains the tokens a joined child sent upstream.
func (r *run) collect(ctx context.Context, acks chan token, childErr error) {
	if acks == nil {
		return
	}
	received := 0
drain:
	for {
		select {
		case <-acks:
			received++
		default:
			break drain
		}
	}
	logger := ctxlog.FromContext(ctx)
	if childErr == nil && received != handshakeTokens {
		logger.Warn("Incomplete handshake from child stage.", "tokens", received, "want", handshakeTokens)
		return
	}
	logger.Debug("Handshake received.", "tokens", received)
}
