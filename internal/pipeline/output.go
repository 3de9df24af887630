package pipeline

import (
	"context"
	"fmt"

	"github.com/specialistvlad/layerflow/internal/ctxlog"
	"github.com/specialistvlad/layerflow/internal/edge"
	"gonum.org/v1/gonum/floats"
)

// runOutput reduces the last layer's edge set to a Result. Output neuron j
// contributes the value on edge (0, j); the rest of the set is left unread.
func (r *run) runOutput(ctx context.Context, in *edge.Set) error {
	ctx = ctxlog.With(ctx, "stage", "output")
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Output stage started.", "neurons", in.To())

	if in.From() == 0 || in.To() == 0 {
		return fmt.Errorf("output stage: empty edge set %dx%d", in.From(), in.To())
	}

	vals := make([]float64, in.To())
	for j := range vals {
		v, err := in.At(0, j).Recv(ctx)
		if err != nil {
			return fmt.Errorf("output stage: %w", err)
		}
		vals[j] = v
	}

	res := Evaluate(floats.Sum(vals))
	select {
	case r.results <- res:
	default:
		return fmt.Errorf("output stage: %w: result already delivered", edge.ErrChannelBroken)
	}
	logger.Debug("Output stage finished.", "x", res.X)
	return nil
}
