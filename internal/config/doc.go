// Package config defines the format-agnostic model of a workflow definition
// and the Loader interface that format-specific packages (see internal/hcl)
// implement.
//
// Expressions stay unevaluated in the model: arguments, retries and timeouts
// may reference workflow variables, whose values are only known once the
// command line and environment bindings have been applied.
package config
