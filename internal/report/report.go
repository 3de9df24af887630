// Package report delivers the result of a forward pass.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/specialistvlad/layerflow/internal/config"
	"github.com/specialistvlad/layerflow/internal/ctxlog"
	"github.com/specialistvlad/layerflow/internal/pipeline"
)

// Reporter delivers a finished forward pass result somewhere.
type Reporter interface {
	Report(ctx context.Context, res pipeline.Result) error
}

// Text prints results as `Fx(X1) = <A>` lines.
type Text struct {
	w io.Writer
	// All also prints `Fx(X2) = <B>`.
	All bool
}

// NewText creates a Text reporter writing to w.
func NewText(w io.Writer, all bool) *Text {
	return &Text{w: w, All: all}
}

// Report implements Reporter.
func (t *Text) Report(_ context.Context, res pipeline.Result) error {
	if _, err := fmt.Fprintf(t.w, "Fx(X1) = %g\n", res.A); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	if !t.All {
		return nil
	}
	if _, err := fmt.Fprintf(t.w, "Fx(X2) = %g\n", res.B); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// Multi fans a result out to several reporters. Every reporter is called
// even if an earlier one failed; the errors are joined.
type Multi []Reporter

// Report implements Reporter.
func (m Multi) Report(ctx context.Context, res pipeline.Result) error {
	var errs []error
	for _, r := range m {
		if err := r.Report(ctx, res); err != nil {
			ctxlog.FromContext(ctx).Error("Reporter failed.", "reporter", fmt.Sprintf("%T", r), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromConfig builds the reporters a run's configuration asks for. Text output
// to w is always included; cfg may be nil.
func FromConfig(w io.Writer, cfg *config.Report) (Reporter, error) {
	all := cfg != nil && cfg.All
	reporters := Multi{NewText(w, all)}
	if cfg == nil || cfg.SocketIO == nil {
		return reporters, nil
	}
	sio, err := NewSocketIO(*cfg.SocketIO)
	if err != nil {
		return nil, err
	}
	return append(reporters, sio), nil
}
