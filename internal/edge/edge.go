// Package edge implements the single-use, single-value channels that connect
// one producer neuron to one consumer neuron across a layer boundary.
package edge

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrChannelBroken is returned when an edge is read without ever being
// written, written or read twice, or abandoned by its producer.
var ErrChannelBroken = errors.New("channel broken")

// Edge carries exactly one float64 from producer From to consumer To.
type Edge struct {
	From int
	To   int

	ch chan float64

	mu     sync.Mutex
	sent   bool
	closed bool
	read   bool
}

// New creates an unwritten edge between producer from and consumer to.
func New(from, to int) *Edge {
	return &Edge{From: from, To: to, ch: make(chan float64, 1)}
}

func (e *Edge) String() string {
	return fmt.Sprintf("edge[%d->%d]", e.From, e.To)
}

// Send writes the edge's only value. It never blocks.
func (e *Edge) Send(v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.sent:
		return fmt.Errorf("%w: %s written twice", ErrChannelBroken, e)
	case e.closed:
		return fmt.Errorf("%w: %s written after abandon", ErrChannelBroken, e)
	}
	e.sent = true
	e.ch <- v
	return nil
}

// Abandon marks the producer as gone. A consumer blocked on an unwritten edge
// is released with ErrChannelBroken; an already written value stays readable.
func (e *Edge) Abandon() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	close(e.ch)
}

// Recv reads the edge's only value, blocking until the producer writes it,
// abandons it, or ctx is done.
func (e *Edge) Recv(ctx context.Context) (float64, error) {
	e.mu.Lock()
	if e.read {
		e.mu.Unlock()
		return 0, fmt.Errorf("%w: %s read twice", ErrChannelBroken, e)
	}
	e.read = true
	e.mu.Unlock()

	select {
	case v, ok := <-e.ch:
		if !ok {
			return 0, fmt.Errorf("%w: %s abandoned before write", ErrChannelBroken, e)
		}
		return v, nil
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", e, ctx.Err())
	}
}

// Written reports whether the producer has sent the value.
func (e *Edge) Written() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sent
}

// Consumed reports whether a consumer has taken the value (or tried to).
func (e *Edge) Consumed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.read
}
