package workflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/gridflow/internal/config"
	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ResolveVariables computes the final value of every declared variable.
// A binding overrides the default; a variable with neither is an error.
// Bindings for undeclared variables are logged and ignored.
func ResolveVariables(ctx context.Context, vars []*config.Variable, bindings map[string]string) (map[string]cty.Value, error) {
	logger := ctxlog.FromContext(ctx)
	out := make(map[string]cty.Value, len(vars))
	declared := make(map[string]struct{}, len(vars))

	for _, v := range vars {
		declared[v.Name] = struct{}{}
		raw, bound := bindings[v.Name]
		switch {
		case bound:
			val, err := parseBinding(raw, v.Type)
			if err != nil {
				return nil, fmt.Errorf("variable %q: %w", v.Name, err)
			}
			out[v.Name] = val
		case v.Default != nil:
			out[v.Name] = *v.Default
		default:
			return nil, fmt.Errorf("variable %q has no default and was not set", v.Name)
		}
	}

	var unknown []string
	for name := range bindings {
		if _, ok := declared[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		logger.Warn("Ignoring values for undeclared variables.", "variables", unknown)
	}
	return out, nil
}

// parseBinding converts a command line or environment value to ty. Primitive
// types take the raw string; collection types are parsed as an HCL
// expression, e.g. ["a", "b"].
func parseBinding(raw string, ty cty.Type) (cty.Value, error) {
	if ty == cty.DynamicPseudoType || ty.IsPrimitiveType() {
		val, err := convert.Convert(cty.StringVal(raw), ty)
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid value %q for type %s: %w", raw, ty.FriendlyName(), err)
		}
		return val, nil
	}

	expr, diags := hclsyntax.ParseExpression([]byte(raw), "<value>", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("invalid value %q: %w", raw, diags)
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("invalid value %q: %w", raw, diags)
	}
	val, err := convert.Convert(val, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("invalid value %q for type %s: %w", raw, ty.FriendlyName(), err)
	}
	return val, nil
}
