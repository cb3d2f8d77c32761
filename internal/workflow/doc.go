// Package workflow turns a loaded config.Workflow into a tree of task
// instances.
//
// Variables are resolved first (defaults overridden by caller bindings),
// then the task block selected as root and everything it transitively
// references through its inputs are constructed via the registry. Blocks
// that reference each other in a cycle are rejected before any task is
// constructed.
package workflow
