package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/layerflow/internal/config"
	"github.com/specialistvlad/layerflow/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder populates omitted optional fields with zero-width
// expression objects, so a nil check alone is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	isDefined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", r.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

// evalContext exposes the network dimensions and a handful of list functions
// to neuron expressions.
func evalContext(n config.Network) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"network": cty.ObjectVal(map[string]cty.Value{
				"neuron_count":      cty.NumberIntVal(int64(n.NeuronCount)),
				"layer_count":       cty.NumberIntVal(int64(n.LayerCount)),
				"neurons_per_layer": cty.NumberIntVal(int64(n.NeuronsPerLayer)),
			}),
		},
		Functions: map[string]function.Function{
			"range":  stdlib.RangeFunc,
			"concat": stdlib.ConcatFunc,
			"length": stdlib.LengthFunc,
			"min":    stdlib.MinFunc,
			"max":    stdlib.MaxFunc,
		},
	}
}

// evalInt evaluates expr to a whole number.
func evalInt(expr hcl.Expression, evalCtx *hcl.EvalContext, attr string) (int, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return 0, diags
	}
	num, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("attribute %q: %w", attr, err)
	}
	var out int
	if err := gocty.FromCtyValue(num, &out); err != nil {
		return 0, fmt.Errorf("attribute %q: %w", attr, err)
	}
	return out, nil
}

// evalFloat evaluates expr to a number.
func evalFloat(expr hcl.Expression, evalCtx *hcl.EvalContext, attr string) (float64, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return 0, diags
	}
	num, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("attribute %q: %w", attr, err)
	}
	var out float64
	if err := gocty.FromCtyValue(num, &out); err != nil {
		return 0, fmt.Errorf("attribute %q: %w", attr, err)
	}
	return out, nil
}

// evalFloats evaluates expr to a list of numbers. Tuples produced by for
// expressions and concat are accepted.
func evalFloats(expr hcl.Expression, evalCtx *hcl.EvalContext, attr string) ([]float64, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	list, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil {
		return nil, fmt.Errorf("attribute %q must be a list of numbers: %w", attr, err)
	}
	if list.IsNull() {
		return nil, fmt.Errorf("attribute %q must not be null", attr)
	}
	out := []float64{}
	if err := gocty.FromCtyValue(list, &out); err != nil {
		return nil, fmt.Errorf("attribute %q: %w", attr, err)
	}
	return out, nil
}
