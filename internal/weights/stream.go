package weights

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/specialistvlad/layerflow/internal/config"
	"github.com/specialistvlad/layerflow/internal/ctxlog"
)

// Opener returns a fresh reader positioned at the start of the weight stream.
type Opener func() (io.ReadCloser, error)

// Stream reads the line-oriented weight format:
//
//	# comments and blank lines are ignored
//	<input_0> [<input_1> ...]      one value per input neuron, or one for all
//	<w_0> ... <w_npl-1>            layer 0, neuron 0
//	...                            row-major: every neuron of every layer
//
// Every lookup reopens the stream and consumes it from the top, so a Stream
// over a single file must be wrapped in Locked when shared.
type Stream struct {
	open    Opener
	network config.Network
}

// NewStream creates a Stream over the given opener for the given topology.
func NewStream(open Opener, network config.Network) *Stream {
	return &Stream{open: open, network: network}
}

// OpenFile creates a Stream over a weight file on disk.
func OpenFile(path string, network config.Network) *Stream {
	return NewStream(func() (io.ReadCloser, error) { return os.Open(path) }, network)
}

// row returns the zero-based weight row of a neuron, after the input line.
func (s *Stream) row(layer, neuron int) int {
	if layer == 0 {
		return neuron
	}
	return s.network.NeuronCount + (layer-1)*s.network.NeuronsPerLayer + neuron
}

// Weights implements Provider.
func (s *Stream) Weights(ctx context.Context, layer, neuron int) ([]float64, error) {
	k := Key{Layer: layer, Neuron: neuron}
	if layer < 0 || layer >= s.network.LayerCount || neuron < 0 || neuron >= s.network.Width(layer) {
		return nil, missing(k, "weights")
	}
	target := s.row(layer, neuron)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Scanning weight stream.", "key", k.String(), "row", target)

	var out []float64
	err := s.scan(func(idx int, fields []string) (bool, error) {
		if idx != target+1 {
			return false, nil
		}
		if len(fields) < s.network.NeuronsPerLayer {
			return true, fmt.Errorf("%w: %s has %d weights, want %d", ErrConfigMissing, k, len(fields), s.network.NeuronsPerLayer)
		}
		row, err := parseFloats(fields[:s.network.NeuronsPerLayer])
		if err != nil {
			return true, fmt.Errorf("weights for %s: %w", k, err)
		}
		out = row
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, missing(k, "weights")
	}
	return out, nil
}

// Input implements Provider. A single value on the input line applies to
// every input neuron.
func (s *Stream) Input(ctx context.Context, layer, neuron int) (float64, error) {
	k := Key{Layer: layer, Neuron: neuron}
	if layer != 0 || neuron < 0 || neuron >= s.network.NeuronCount {
		return 0, missing(k, "input")
	}

	var (
		v     float64
		found bool
	)
	err := s.scan(func(idx int, fields []string) (bool, error) {
		if idx != 0 {
			return false, nil
		}
		var raw string
		switch {
		case len(fields) == 1:
			raw = fields[0]
		case neuron < len(fields):
			raw = fields[neuron]
		default:
			return true, nil
		}
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return true, fmt.Errorf("input for %s: %w", k, err)
		}
		v, found = parsed, true
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, missing(k, "input")
	}
	ctxlog.FromContext(ctx).Debug("Read input from weight stream.", "key", k.String(), "value", v)
	return v, nil
}

// scan feeds every meaningful line to fn, with its index among meaningful
// lines, until fn reports it is done.
func (s *Stream) scan(fn func(idx int, fields []string) (bool, error)) error {
	rc, err := s.open()
	if err != nil {
		return fmt.Errorf("failed to open weight stream: %w", err)
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	idx := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		done, err := fn(idx, strings.Fields(line))
		if err != nil || done {
			return err
		}
		idx++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read weight stream: %w", err)
	}
	return nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
