// Package task defines the unit of work of a workflow.
//
// A Task is a value: its Kind, Params and Dependencies fully determine its
// identity (see ID) and the targets it declares as outputs. Dependencies are
// expressed as OutputSpecs, references to a named output of another task
// instance, so the whole workflow graph can be discovered by walking them
// from a single root without running anything.
//
// Concrete kinds usually embed Base and implement DeclaredOutputs and Run.
package task
