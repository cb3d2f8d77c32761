package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/graph"
	"github.com/specialistvlad/gridflow/internal/inmemorystore"
	"github.com/specialistvlad/gridflow/internal/node"
	"github.com/specialistvlad/gridflow/internal/nodestore"
	"github.com/specialistvlad/gridflow/internal/task"
	"golang.org/x/sync/errgroup"
)

const DefaultWorkers = 4

// Scheduler runs workflow graphs. A Scheduler holds no per-run state and may
// be reused, unless a fixed store was supplied with WithStore.
type Scheduler struct {
	workers       int
	store         nodestore.Store
	strictOutputs bool
	pruneComplete bool
	newBackOff    func() backoff.BackOff
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithWorkers bounds how many tasks run at once. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n < 1 {
			n = 1
		}
		s.workers = n
	}
}

// WithStore makes the next run record its state in store. The store must be
// empty; use a fresh one per run.
func WithStore(store nodestore.Store) Option {
	return func(s *Scheduler) { s.store = store }
}

// WithStrictOutputs fails tasks whose Run returns without producing every
// declared output. By default this is only logged as a warning.
func WithStrictOutputs(strict bool) Option {
	return func(s *Scheduler) { s.strictOutputs = strict }
}

// WithPruneComplete controls whether the dependencies of nodes whose outputs
// already exist are scheduled. Pruning is on by default; without it every
// node of the graph is visited and checked.
func WithPruneComplete(prune bool) Option {
	return func(s *Scheduler) { s.pruneComplete = prune }
}

// WithRetryBackOff replaces the exponential back-off used between attempts.
func WithRetryBackOff(f func() backoff.BackOff) Option {
	return func(s *Scheduler) { s.newBackOff = f }
}

// New creates a scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		workers:       DefaultWorkers,
		pruneComplete: true,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run holds the state of one execution of a graph.
type run struct {
	s     *Scheduler
	g     *graph.Graph
	store nodestore.Store
	// required is the set of nodes this run schedules; expanded is the subset
	// whose dependencies are scheduled too.
	required map[string]bool
	expanded map[string]bool
	depCount map[string]*atomic.Int32
	// settled guards the wait group: each node leaves it exactly once.
	settled map[string]*atomic.Bool
	results map[string]*Result
	ready    chan *node.Node
	wg       sync.WaitGroup
	cancel   context.CancelCauseFunc
}

// Run executes the nodes of g needed to complete its root and returns the
// per-node outcome.
func (s *Scheduler) Run(ctx context.Context, g *graph.Graph) (*Report, error) {
	logger := ctxlog.FromContext(ctx)

	store := s.store
	if store == nil {
		store = inmemorystore.New()
	}
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	r := &run{
		s:     s,
		g:     g,
		store: store,
	}
	nodes, err := r.plan(ctx)
	if err != nil {
		return nil, err
	}
	r.depCount = make(map[string]*atomic.Int32, len(nodes))
	r.settled = make(map[string]*atomic.Bool, len(nodes))
	r.results = make(map[string]*Result, len(nodes))
	r.ready = make(chan *node.Node, len(nodes))
	r.cancel = cancel
	for _, n := range nodes {
		c := &atomic.Int32{}
		if r.expanded[n.ID] {
			deps, err := g.Dependencies(n.ID)
			if err != nil {
				return nil, fmt.Errorf("reading dependencies of %s: %w", n.ID, err)
			}
			c.Store(int32(len(deps)))
		}
		r.depCount[n.ID] = c
		r.settled[n.ID] = &atomic.Bool{}
		r.results[n.ID] = &Result{ID: n.ID, Name: n.Name, Kind: n.Kind(), Status: node.StatusPending}
	}

	r.wg.Add(len(nodes))
	logger.Debug("Initializing scheduler, finding root nodes...")
	roots := 0
	for _, n := range nodes {
		if r.depCount[n.ID].Load() == 0 {
			if err := r.enqueue(runCtx, n); err != nil {
				return nil, err
			}
			roots++
		}
	}
	logger.Debug("Found all root nodes.", "count", roots)

	start := time.Now()
	var eg errgroup.Group
	logger.Debug("Starting worker pool.", "workers", s.workers)
	for i := 0; i < s.workers; i++ {
		workerID := i
		eg.Go(func() error {
			return r.worker(runCtx, workerID)
		})
	}
	go func() {
		r.wg.Wait()
		close(r.ready)
	}()

	logger.Info("Waiting for all tasks to complete...", "tasks", len(nodes), "pruned", g.Len()-len(nodes))
	fatal := eg.Wait()
	report := r.report(ctx, time.Since(start))
	logger.Info("All tasks finished.", "complete", report.Count(node.StatusComplete), "failed", report.Count(node.StatusFailed), "skipped", report.Count(node.StatusSkipped))

	if fatal != nil {
		return report, fatal
	}
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("run cancelled: %w", context.Cause(ctx))
	}
	return report, nil
}

// plan walks the graph from the root and selects the nodes to schedule. The
// dependencies of a node whose outputs already exist are not needed for it,
// so with pruning enabled the walk stops there.
func (r *run) plan(ctx context.Context) ([]*node.Node, error) {
	logger := ctxlog.FromContext(ctx)
	r.required = make(map[string]bool)
	r.expanded = make(map[string]bool)

	queue := []*node.Node{r.g.Root()}
	r.required[r.g.Root().ID] = true
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if r.s.pruneComplete {
			if complete, err := task.IsComplete(n.Outputs); err == nil && complete {
				continue
			}
		}
		r.expanded[n.ID] = true
		deps, err := r.g.Dependencies(n.ID)
		if err != nil {
			return nil, fmt.Errorf("reading dependencies of %s: %w", n.ID, err)
		}
		for _, d := range deps {
			if !r.required[d.ID] {
				r.required[d.ID] = true
				queue = append(queue, d)
			}
		}
	}

	var nodes []*node.Node
	for _, n := range r.g.Nodes() {
		if r.required[n.ID] {
			nodes = append(nodes, n)
		}
	}
	if pruned := r.g.Len() - len(nodes); pruned > 0 {
		logger.Debug("Pruned tasks not needed to complete the root.", "pruned", pruned)
	}
	return nodes, nil
}

// dependentsOf returns the scheduled dependents of n that wait on it.
func (r *run) dependentsOf(n *node.Node) ([]*node.Node, error) {
	all, err := r.g.Dependents(n.ID)
	if err != nil {
		return nil, err
	}
	var out []*node.Node
	for _, d := range all {
		if r.expanded[d.ID] {
			out = append(out, d)
		}
	}
	return out, nil
}

// enqueue marks n Ready and hands it to the workers.
func (r *run) enqueue(ctx context.Context, n *node.Node) error {
	ok, err := r.store.Transition(ctx, n.ID, node.StatusPending, node.StatusReady)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	r.results[n.ID].Status = node.StatusReady
	r.ready <- n
	return nil
}

// unlock decrements the counters of n's dependents and queues the ones that
// have no unmet dependency left. A dependent that cannot be queued is aborted
// with its downstream cone, and the first such error is returned.
func (r *run) unlock(ctx context.Context, n *node.Node) error {
	logger := ctxlog.FromContext(ctx)
	dependents, err := r.dependentsOf(n)
	if err != nil {
		return err
	}
	var firstErr error
	for _, d := range dependents {
		if r.depCount[d.ID].Add(-1) != 0 {
			continue
		}
		logger.Debug("Unlocking dependent task.", "dependentID", d.ID)
		if err := r.enqueue(ctx, d); err != nil {
			logger.Error("Failed to queue dependent task.", "dependentID", d.ID, "error", err)
			r.abort(ctx, d, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// finish records the terminal state of n and releases it from the wait group.
func (r *run) finish(ctx context.Context, n *node.Node, status node.Status, nodeErr error, elapsed time.Duration) error {
	if err := r.store.SetStatus(ctx, n.ID, status); err != nil {
		r.abort(ctx, n, err)
		return err
	}
	if nodeErr != nil {
		_ = r.store.SetError(ctx, n.ID, nodeErr)
	}
	res := r.results[n.ID]
	res.Status = status
	res.Err = nodeErr
	res.Duration = elapsed
	r.release(n)
	return nil
}

// abort records an internal error on n and releases its downstream cone so
// the run can still drain.
func (r *run) abort(ctx context.Context, n *node.Node, err error) {
	res := r.results[n.ID]
	res.Status = node.StatusFailed
	res.Err = err
	r.release(n)
	r.skipDependents(ctx, n, err)
}

// claim reports whether the caller is the first to settle n.
func (r *run) claim(n *node.Node) bool {
	return r.settled[n.ID].CompareAndSwap(false, true)
}

// release takes n out of the wait group unless it already left it.
func (r *run) release(n *node.Node) {
	if r.claim(n) {
		r.wg.Done()
	}
}

// skipDependents marks every transitive dependent of n Skipped.
func (r *run) skipDependents(ctx context.Context, n *node.Node, cause error) {
	logger := ctxlog.FromContext(ctx)
	dependents, err := r.dependentsOf(n)
	if err != nil {
		logger.Error("Failed to get dependents.", "nodeID", n.ID, "error", err)
		return
	}
	for _, d := range dependents {
		ok, err := r.store.Transition(ctx, d.ID, node.StatusPending, node.StatusSkipped)
		if err == nil && !ok {
			continue
		}
		// d waits on n, so no worker holds it; only a racing skip can.
		if !r.claim(d) {
			continue
		}
		res := r.results[d.ID]
		if err != nil {
			logger.Error("Failed to mark dependent skipped, failing it.", "nodeID", d.ID, "error", err)
			res.Status = node.StatusFailed
			res.Err = err
			r.wg.Done()
			r.skipDependents(ctx, d, err)
			continue
		}
		logger.Warn("Skipping dependent task due to upstream failure.", "nodeID", d.ID, "dependency", n.ID)
		skipErr := cause
		if !errors.Is(cause, context.Canceled) && !errors.Is(cause, context.DeadlineExceeded) {
			skipErr = fmt.Errorf("%w: %s", ErrUpstreamFailed, n.Name)
		}
		_ = r.store.SetError(ctx, d.ID, skipErr)
		res.Status = node.StatusSkipped
		res.Err = skipErr
		r.wg.Done()
		r.skipDependents(ctx, d, skipErr)
	}
}

func (r *run) report(ctx context.Context, elapsed time.Duration) *Report {
	rep := &Report{RootID: r.g.Root().ID, Elapsed: elapsed, Pruned: r.g.Len() - len(r.results)}
	for _, id := range r.g.TopologicalOrder() {
		if !r.required[id] {
			continue
		}
		res := *r.results[id]
		res.Ran, _ = r.store.Ran(ctx, id)
		rep.Results = append(rep.Results, res)
	}
	return rep
}
