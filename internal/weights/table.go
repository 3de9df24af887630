package weights

import (
	"context"
	"fmt"
	"slices"

	"github.com/specialistvlad/layerflow/internal/config"
)

// Entry is one row of a Table.
type Entry struct {
	Input   *float64
	Weights []float64
}

// Table is an in-memory Provider with direct keyed lookup. It is read-only
// after construction and safe for concurrent use.
type Table struct {
	entries map[Key]Entry
}

// NewTable creates a Table from the given entries. The entries are copied.
func NewTable(entries map[Key]Entry) *Table {
	t := &Table{entries: make(map[Key]Entry, len(entries))}
	for k, e := range entries {
		t.entries[k] = Entry{Input: clonePtr(e.Input), Weights: slices.Clone(e.Weights)}
	}
	return t
}

// TableFromModel builds a Table from the inline neuron rows of a config model.
// Duplicate keys are rejected.
func TableFromModel(neurons []*config.Neuron) (*Table, error) {
	entries := make(map[Key]Entry, len(neurons))
	for _, n := range neurons {
		k := Key{Layer: n.Layer, Neuron: n.Index}
		if _, dup := entries[k]; dup {
			return nil, fmt.Errorf("duplicate weights for %s", k)
		}
		entries[k] = Entry{Input: n.Input, Weights: n.Weights}
	}
	return NewTable(entries), nil
}

// Len returns the number of neurons with an entry.
func (t *Table) Len() int {
	return len(t.entries)
}

// Weights implements Provider.
func (t *Table) Weights(_ context.Context, layer, neuron int) ([]float64, error) {
	k := Key{Layer: layer, Neuron: neuron}
	e, ok := t.entries[k]
	if !ok || e.Weights == nil {
		return nil, missing(k, "weights")
	}
	return slices.Clone(e.Weights), nil
}

// Input implements Provider.
func (t *Table) Input(_ context.Context, layer, neuron int) (float64, error) {
	k := Key{Layer: layer, Neuron: neuron}
	e, ok := t.entries[k]
	if !ok || e.Input == nil {
		return 0, missing(k, "input")
	}
	return *e.Input, nil
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
