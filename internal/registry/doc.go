// Package registry provides the central "glue" for the module system.
//
// The Registry maps the kind names used in workflow files (e.g. "split_file")
// to the Go factories that construct tasks of that kind, together with a
// description of the inputs and parameters each kind accepts.
//
// During application startup, modules register their kinds and the loaded
// workflow is validated against the registry, so a misspelled kind or input
// is reported before any task is constructed.
package registry
