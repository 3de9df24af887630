package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// task is a spawned stage. The spawner must Wait for it before returning.
type task struct {
	name string
	g    errgroup.Group
}

// spawn starts fn as an isolated stage. A panic inside the stage is returned
// from Wait as an error rather than crashing its parent.
func spawn(ctx context.Context, name string, fn func(context.Context) error) *task {
	t := &task{name: name}
	t.g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("stage %s panicked: %v", name, r)
			}
		}()
		return fn(ctx)
	})
	return t
}

// Wait joins the stage and returns its error.
func (t *task) Wait() error {
	return t.g.Wait()
}
