package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidNetwork is returned when a network dimension is not positive.
var ErrInvalidNetwork = errors.New("invalid network")

// Network describes the fixed, fully regular topology of a run. It is passed
// by value and never mutated once a run starts.
type Network struct {
	// NeuronCount is the width of the input layer.
	NeuronCount int
	// LayerCount is the depth of the network, at least 1.
	LayerCount int
	// NeuronsPerLayer is the width of every layer after the input layer,
	// and therefore the fan-out of every neuron.
	NeuronsPerLayer int
}

// Validate checks that every dimension is a positive integer.
func (n Network) Validate() error {
	switch {
	case n.NeuronCount <= 0:
		return fmt.Errorf("%w: neuron_count must be positive, got %d", ErrInvalidNetwork, n.NeuronCount)
	case n.LayerCount <= 0:
		return fmt.Errorf("%w: layer_count must be positive, got %d", ErrInvalidNetwork, n.LayerCount)
	case n.NeuronsPerLayer <= 0:
		return fmt.Errorf("%w: neurons_per_layer must be positive, got %d", ErrInvalidNetwork, n.NeuronsPerLayer)
	}
	return nil
}

// Width returns the number of neurons in the given layer.
func (n Network) Width(layer int) int {
	if layer == 0 {
		return n.NeuronCount
	}
	return n.NeuronsPerLayer
}

// IsLast reports whether the given layer hands off to the output stage.
func (n Network) IsLast(layer int) bool {
	return layer == n.LayerCount-1
}

// Merge returns n with every positive dimension of o applied over it.
func (n Network) Merge(o Network) Network {
	if o.NeuronCount > 0 {
		n.NeuronCount = o.NeuronCount
	}
	if o.LayerCount > 0 {
		n.LayerCount = o.LayerCount
	}
	if o.NeuronsPerLayer > 0 {
		n.NeuronsPerLayer = o.NeuronsPerLayer
	}
	return n
}

// Model is the unified, format-agnostic representation of the whole
// configuration of a run.
type Model struct {
	// Network is nil when no source declared one; the CLI may still supply it.
	Network *Network
	// Weights points at a line-oriented weight file, if one was configured.
	Weights *WeightsSource
	// Neurons holds keyed weight rows declared inline.
	Neurons []*Neuron
	Report  *Report
}

// WeightsSource is the location of a line-oriented weight file.
type WeightsSource struct {
	Path string
}

// Neuron is one keyed weight row.
type Neuron struct {
	Layer   int
	Index   int
	Input   *float64
	Weights []float64
}

// Report configures how the final results are delivered.
type Report struct {
	// All also reports the second result value.
	All      bool
	SocketIO *SocketIO
}

// SocketIO configures delivery of results to a socket.io endpoint.
type SocketIO struct {
	URL                string
	Namespace          string
	Event              string
	AckEvent           string
	Timeout            time.Duration
	InsecureSkipVerify bool
}
