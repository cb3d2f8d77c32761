package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/specialistvlad/gridflow/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// translateVariable converts a variable block, parsing its type constraint
// and converting the default to it.
func translateVariable(ctx context.Context, v *Variable) (*config.Variable, error) {
	out := &config.Variable{
		Name:        v.Name,
		Description: v.Description,
		Type:        cty.DynamicPseudoType,
	}
	if isExprDefined(ctx, v.Type, "type") {
		ty, diags := typeexpr.TypeConstraint(v.Type)
		if diags.HasErrors() {
			return nil, fmt.Errorf("variable %q: invalid type: %w", v.Name, diags)
		}
		out.Type = ty
	}
	if isExprDefined(ctx, v.Default, "default") {
		val, diags := v.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("variable %q: invalid default: %w", v.Name, diags)
		}
		if !val.IsNull() {
			converted, err := convert.Convert(val, out.Type)
			if err != nil {
				return nil, fmt.Errorf("variable %q: default does not match type %s: %w", v.Name, out.Type.FriendlyName(), err)
			}
			out.Default = &converted
		}
	}
	return out, nil
}

// translateTask converts a task block. Inputs must be static references of
// the form task.<name>.<output>.
func translateTask(ctx context.Context, t *Task, file string) (*config.Task, error) {
	args, diags := bodyAttributes(t.Arguments)
	if diags.HasErrors() {
		return nil, fmt.Errorf("task %q: arguments: %w", t.Name, diags)
	}
	inputExprs, diags := bodyAttributes(t.Inputs)
	if diags.HasErrors() {
		return nil, fmt.Errorf("task %q: inputs: %w", t.Name, diags)
	}

	inputs := make(map[string]config.InputRef, len(inputExprs))
	for name, expr := range inputExprs {
		ref, err := parseInputRef(expr)
		if err != nil {
			return nil, fmt.Errorf("task %q: input %q: %w", t.Name, name, err)
		}
		inputs[name] = ref
	}

	out := &config.Task{
		Kind:        t.Kind,
		Name:        t.Name,
		Description: t.Description,
		Arguments:   args,
		Inputs:      inputs,
		Source:      file,
	}
	if isExprDefined(ctx, t.Retries, "retries") {
		out.Retries = t.Retries
	}
	if isExprDefined(ctx, t.Timeout, "timeout") {
		out.Timeout = t.Timeout
	}
	return out, nil
}

func parseInputRef(expr hcl.Expression) (config.InputRef, error) {
	trav, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() {
		return config.InputRef{}, fmt.Errorf("%s: expected a reference like task.<name>.<output>", expr.Range())
	}
	if len(trav) != 3 || trav.RootName() != "task" {
		return config.InputRef{}, fmt.Errorf("%s: expected a reference like task.<name>.<output>", expr.Range())
	}
	name, ok1 := trav[1].(hcl.TraverseAttr)
	output, ok2 := trav[2].(hcl.TraverseAttr)
	if !ok1 || !ok2 {
		return config.InputRef{}, fmt.Errorf("%s: expected a reference like task.<name>.<output>", expr.Range())
	}
	return config.InputRef{Task: name.Name, Output: output.Name, Range: expr.Range()}, nil
}
