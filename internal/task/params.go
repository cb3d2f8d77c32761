package task

import (
	"fmt"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Params holds the parameter values of a task instance. Treat it as immutable
// once the task has been constructed.
type Params map[string]cty.Value

// NewParams copies vals into a new Params.
func NewParams(vals map[string]cty.Value) Params {
	p := make(Params, len(vals))
	for k, v := range vals {
		p[k] = v
	}
	return p
}

// StringParams builds Params from plain strings.
func StringParams(vals map[string]string) Params {
	p := make(Params, len(vals))
	for k, v := range vals {
		p[k] = cty.StringVal(v)
	}
	return p
}

// Clone returns a shallow copy.
func (p Params) Clone() Params {
	return NewParams(p)
}

// Canonical returns the stable JSON encoding of p. Keys are sorted and the
// cty type is part of the encoding, so "1" and 1 differ.
func (p Params) Canonical() (string, error) {
	if len(p) == 0 {
		return "{}", nil
	}
	obj := cty.ObjectVal(p)
	b, err := ctyjson.Marshal(obj, cty.DynamicPseudoType)
	if err != nil {
		return "", fmt.Errorf("encoding params: %w", err)
	}
	return string(b), nil
}

// String returns the named parameter as a string, or def when it is absent
// or null.
func (p Params) String(name, def string) (string, error) {
	v, ok := p[name]
	if !ok || v.IsNull() {
		return def, nil
	}
	sv, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("param %q: %w", name, err)
	}
	var s string
	if err := gocty.FromCtyValue(sv, &s); err != nil {
		return "", fmt.Errorf("param %q: %w", name, err)
	}
	return s, nil
}

// RequiredString is String without a default: an absent value is an error.
func (p Params) RequiredString(name string) (string, error) {
	v, ok := p[name]
	if !ok || v.IsNull() {
		return "", fmt.Errorf("param %q is required", name)
	}
	return p.String(name, "")
}

// Duration accepts either a Go duration string ("10s") or a number of seconds.
func (p Params) Duration(name string, def time.Duration) (time.Duration, error) {
	v, ok := p[name]
	if !ok || v.IsNull() {
		return def, nil
	}
	if v.Type() == cty.Number {
		var secs float64
		if err := gocty.FromCtyValue(v, &secs); err != nil {
			return 0, fmt.Errorf("param %q: %w", name, err)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	s, err := p.String(name, "")
	if err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("param %q: %w", name, err)
	}
	return d, nil
}
