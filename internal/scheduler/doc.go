// Package scheduler executes a workflow graph.
//
// # How It Works
//
// Every node gets an atomic counter of unmet dependencies. Nodes whose counter
// is zero are marked Ready and pushed onto a buffered channel consumed by a
// bounded pool of workers. For each node a worker:
//  1. checks task.IsComplete on the declared outputs and marks the node
//     Complete without calling Run when every output already exists
//  2. fails external tasks whose outputs are missing (they cannot be produced)
//  3. verifies that every input exists, a violation being ErrMissingInput,
//     which is fatal to the whole run
//  4. calls Run with retries and a per-attempt timeout from task.RetryPolicy
//  5. marks the node Complete and decrements the counters of its dependents,
//     queueing those that reach zero
//
// When a task fails its node is marked Failed and every transitive dependent
// is marked Skipped. Independent branches keep running. Status changes go
// through a nodestore.Store with validated transitions, so a node is finished
// exactly once even when skip propagation races a worker.
//
// Task failures do not make Run return an error: they are reported per node in
// the Report. Run returns an error only for internal failures and for
// cancellation of the caller's context.
package scheduler
