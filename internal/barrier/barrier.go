// Package barrier provides a reusable counting barrier: a fixed number of
// participants signal completion and a single coordinator waits until all of
// them have done so.
//
// # Failure
//
// A barrier can be poisoned. Poisoning wakes the coordinator, which then
// returns the poison error instead of blocking forever on participants that
// will never signal. The first poison wins; later ones are ignored.
//
// # Misuse
//
// Signalling past the limit, or a second coordinator waiting concurrently,
// are programming errors reported as ErrMisuse. The counter never exceeds the
// limit.
package barrier

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrMisuse reports a violated barrier invariant.
var ErrMisuse = errors.New("barrier misuse")

// Barrier is a counting barrier armed for a fixed number of signals.
type Barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	count   int
	limit   int
	waiting bool
	poison  error
}

// New creates a barrier that releases its coordinator after limit signals.
func New(limit int) *Barrier {
	if limit < 0 {
		panic(fmt.Sprintf("barrier: negative limit %d", limit))
	}
	b := &Barrier{limit: limit}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Signal records one completion. It is safe to call from any number of
// goroutines.
func (b *Barrier) Signal() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count >= b.limit {
		return fmt.Errorf("%w: signal %d exceeds limit %d", ErrMisuse, b.count+1, b.limit)
	}
	b.count++
	b.cond.Broadcast()
	return nil
}

// Wait blocks until the barrier has received limit signals, the barrier is
// poisoned, or ctx is done. Only one coordinator may wait at a time.
func (b *Barrier) Wait(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.waiting {
		return fmt.Errorf("%w: concurrent coordinator", ErrMisuse)
	}
	b.waiting = true
	defer func() { b.waiting = false }()

	// Cond has no notion of a context, so a cancelled ctx is delivered as a
	// wakeup and checked on the predicate loop below.
	stop := context.AfterFunc(ctx, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.cond.Broadcast()
	})
	defer stop()

	for b.count != b.limit {
		if b.poison != nil {
			return b.poison
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		b.cond.Wait()
	}
	return nil
}

// Poison releases the coordinator with err. Only the first poison is kept.
func (b *Barrier) Poison(err error) {
	if err == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.poison == nil {
		b.poison = err
	}
	b.cond.Broadcast()
}

// Reset rearms the barrier with its original limit and clears any poison.
func (b *Barrier) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.waiting {
		return fmt.Errorf("%w: reset while a coordinator is waiting", ErrMisuse)
	}
	b.count = 0
	b.poison = nil
	return nil
}

// Count returns the number of signals received so far.
func (b *Barrier) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Limit returns the number of signals the barrier was armed for.
func (b *Barrier) Limit() int {
	return b.limit
}
