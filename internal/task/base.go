package task

import (
	"time"
)

// Base carries the identity-relevant fields of a task together with its
// execution policy. Concrete kinds embed it and add DeclaredOutputs and Run.
type Base struct {
	kind    string
	params  Params
	deps    map[string]OutputSpec
	name    string
	retries uint64
	timeout time.Duration
}

// Option configures execution policy on a Base. Options never affect ID.
type Option func(*Base)

// WithName sets the instance name used in logs and reports.
func WithName(name string) Option {
	return func(b *Base) { b.name = name }
}

// WithRetries sets how many times a failing Run is retried.
func WithRetries(n uint64) Option {
	return func(b *Base) { b.retries = n }
}

// WithTimeout bounds each Run attempt.
func WithTimeout(d time.Duration) Option {
	return func(b *Base) { b.timeout = d }
}

func NewBase(kind string, params Params, deps map[string]OutputSpec, opts ...Option) Base {
	if params == nil {
		params = Params{}
	}
	d := make(map[string]OutputSpec, len(deps))
	for k, v := range deps {
		d[k] = v
	}
	b := Base{kind: kind, params: params.Clone(), deps: d}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b Base) Kind() string                        { return b.kind }
func (b Base) Params() Params                      { return b.params }
func (b Base) Dependencies() map[string]OutputSpec { return b.deps }
func (b Base) Name() string                        { return b.name }
func (b Base) MaxRetries() uint64                  { return b.retries }
func (b Base) Timeout() time.Duration              { return b.timeout }
