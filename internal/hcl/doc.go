// Package hcl provides the concrete HCL implementation of config.Loader.
// It is responsible for file discovery, parsing with hclparse, decoding the
// top-level `variable` and `task` blocks with gohcl, and translating them
// into the format-agnostic config.Workflow.
package hcl
