// Package graph builds the workflow DAG reachable from a root task.
//
// # Construction
//
// Build walks Dependencies() depth-first from the root. Every task instance is
// identified by task.ID, so two OutputSpecs that point at equal instances (a
// diamond) land on the same node and the shared upstream runs once. While
// walking, the builder:
//   - keeps the current recursion path and reports ErrCyclicDependency with
//     the offending path when a task reappears on it
//   - resolves each OutputSpec against the upstream node's declared outputs
//     and reports ErrUnresolvedOutput for names the upstream does not declare
//   - calls DeclaredOutputs exactly once per node and stores the result
//   - rejects two nodes that declare the same locator (ErrDuplicateOutput)
//
// All build errors are *BuildError values and match their sentinel with
// errors.Is. Nothing is executed while building, so a broken graph is reported
// before any task runs.
//
// # Structure
//
// The resulting Graph is a read-only facade over a topologystore.Store. Run
// state is kept elsewhere (see nodestore) so the same Graph can be executed
// more than once.
package graph
