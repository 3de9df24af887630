package pipeline

import (
	"fmt"
	"sync/atomic"
)

// State represents the execution state of a neuron slot.
type State int32

const (
	// Pending indicates the worker has not started yet.
	Pending State = iota
	// Running indicates the worker owns the slot and is computing.
	Running
	// Done indicates the slot's values are final and read-only.
	Done
	// Failed indicates the worker gave up without producing values.
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Slot is the per-neuron cell a worker fills. The worker owns it exclusively
// until it is Done; after that the stage only reads it.
type Slot struct {
	Layer int
	Index int

	values []float64
	state  atomic.Int32
}

func newSlot(layer, index int) *Slot {
	return &Slot{Layer: layer, Index: index}
}

// State atomically retrieves the slot's state.
func (s *Slot) State() State {
	return State(s.state.Load())
}

func (s *Slot) setState(st State) {
	s.state.Store(int32(st))
}

// store publishes the worker's output vector and freezes the slot.
func (s *Slot) store(values []float64) {
	s.values = values
	s.setState(Done)
}

// Values returns the neuron's output for every consumer in the next layer,
// or nil if the slot is not Done.
func (s *Slot) Values() []float64 {
	if s.State() != Done {
		return nil
	}
	return s.values
}
