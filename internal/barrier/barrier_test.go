package barrier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blockedFor = 50 * time.Millisecond

// waitAsync runs Wait in a goroutine and returns the channel its result lands on.
func waitAsync(ctx context.Context, b *Barrier) <-chan error {
	done := make(chan error, 1)
	go func() { done <- b.Wait(ctx) }()
	return done
}

func isWaiting(b *Barrier) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.waiting
}

// TestBarrier_ReleasesOnlyAtLimit checks, for a range of limits, that the
// coordinator stays blocked with one signal missing and is released by the
// last one.
func TestBarrier_ReleasesOnlyAtLimit(t *testing.T) {
	t.Parallel()

	for limit := 0; limit <= 8; limit++ {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			t.Parallel()
			b := New(limit)

			var wg sync.WaitGroup
			for i := 0; i < limit-1; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, b.Signal())
				}()
			}
			wg.Wait()

			done := waitAsync(context.Background(), b)
			if limit > 0 {
				select {
				case err := <-done:
					t.Fatalf("Wait returned early with %d of %d signals: %v", b.Count(), limit, err)
				case <-time.After(blockedFor):
				}
				require.NoError(t, b.Signal())
			}

			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("timed out waiting for barrier release")
			}
			assert.Equal(t, limit, b.Count())
		})
	}
}

func TestBarrier_SignalPastLimitIsMisuse(t *testing.T) {
	t.Parallel()
	b := New(2)

	require.NoError(t, b.Signal())
	require.NoError(t, b.Signal())

	err := b.Signal()
	require.ErrorIs(t, err, ErrMisuse)
	assert.Equal(t, 2, b.Count(), "count must never exceed the limit")
}

func TestBarrier_ZeroLimitRejectsSignal(t *testing.T) {
	t.Parallel()
	b := New(0)

	require.NoError(t, b.Wait(context.Background()))
	require.ErrorIs(t, b.Signal(), ErrMisuse)
}

func TestBarrier_NegativeLimitPanics(t *testing.T) {
	t.Parallel()
	require.Panics(t, func() { New(-1) })
}

func TestBarrier_SecondCoordinatorIsMisuse(t *testing.T) {
	t.Parallel()
	b := New(1)

	first := waitAsync(context.Background(), b)
	require.Eventually(t, func() bool { return isWaiting(b) }, time.Second, time.Millisecond)

	err := b.Wait(context.Background())
	require.ErrorIs(t, err, ErrMisuse)

	require.NoError(t, b.Signal())
	select {
	case err := <-first:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the first coordinator")
	}
}

func TestBarrier_PoisonReleasesPartiallySignalled(t *testing.T) {
	t.Parallel()
	b := New(3)
	cause := errors.New("worker 2 failed")

	require.NoError(t, b.Signal())
	done := waitAsync(context.Background(), b)

	b.Poison(cause)
	b.Poison(errors.New("later failure"))

	select {
	case err := <-done:
		require.ErrorIs(t, err, cause, "first poison must win")
	case <-time.After(5 * time.Second):
		t.Fatal("poisoned barrier did not release its coordinator")
	}
}

func TestBarrier_PoisonAfterReleaseIsIgnored(t *testing.T) {
	t.Parallel()
	b := New(1)

	require.NoError(t, b.Signal())
	b.Poison(errors.New("too late"))

	require.NoError(t, b.Wait(context.Background()), "a fully signalled barrier stays released")
}

func TestBarrier_WaitHonoursContext(t *testing.T) {
	t.Parallel()
	b := New(2)
	ctx, cancel := context.WithCancel(context.Background())

	done := waitAsync(ctx, b)
	require.Eventually(t, func() bool { return isWaiting(b) }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Wait ignored context cancellation")
	}
	assert.False(t, isWaiting(b))
}

func TestBarrier_Reset(t *testing.T) {
	t.Parallel()
	b := New(1)

	require.NoError(t, b.Signal())
	require.NoError(t, b.Wait(context.Background()))
	b.Poison(errors.New("stale"))

	require.NoError(t, b.Reset())
	assert.Equal(t, 0, b.Count())

	done := waitAsync(context.Background(), b)
	select {
	case err := <-done:
		t.Fatalf("rearmed barrier released without a signal: %v", err)
	case <-time.After(blockedFor):
	}

	require.Eventually(t, func() bool { return isWaiting(b) }, time.Second, time.Millisecond)
	require.ErrorIs(t, b.Reset(), ErrMisuse, "reset must be refused while waiting")

	require.NoError(t, b.Signal())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rearmed barrier")
	}
}
