package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/node"
	"github.com/specialistvlad/gridflow/internal/target"
	"github.com/specialistvlad/gridflow/internal/task"
)

// worker is the core processing loop for a single concurrent worker. It keeps
// draining the channel after a fatal error so every node reaches a terminal
// state, and returns the first fatal error it hit.
func (r *run) worker(ctx context.Context, workerID int) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	var fatal error
	for n := range r.ready {
		nodeCtx, workerLogger := ctxlog.With(ctx, "workerID", workerID, "nodeID", n.ID, "task", n.Name)

		if ctx.Err() != nil {
			cause := context.Cause(ctx)
			workerLogger.Warn("Context canceled, skipping task execution.")
			if err := r.finish(nodeCtx, n, node.StatusSkipped, cause, 0); err != nil && fatal == nil {
				fatal = err
			}
			r.skipDependents(nodeCtx, n, cause)
			continue
		}

		workerLogger.Debug("Worker picked up task for execution.")
		if err := r.execute(nodeCtx, n); err != nil {
			workerLogger.Error("Aborting run.", "error", err)
			if fatal == nil {
				fatal = err
			}
			r.cancel(err)
		}
	}
	logger.Debug("Worker finished.", "workerID", workerID)
	return fatal
}

// execute drives one Ready node to a terminal status. The returned error is
// fatal to the run; task failures are recorded on the node instead.
func (r *run) execute(ctx context.Context, n *node.Node) error {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	complete, err := task.IsComplete(n.Outputs)
	if err != nil {
		return r.fail(ctx, n, &TaskError{ID: n.ID, Name: n.Name, Kind: n.Kind(), Err: fmt.Errorf("checking outputs: %w", err)}, start)
	}
	if complete {
		logger.Info("✅ Outputs already exist, skipping task.")
		if err := r.finish(ctx, n, node.StatusComplete, nil, time.Since(start)); err != nil {
			return err
		}
		return r.unlock(ctx, n)
	}

	if task.IsExternal(n.Task) {
		missing, _ := target.MissingOf(n.Outputs)
		return r.fail(ctx, n, &TaskError{
			ID: n.ID, Name: n.Name, Kind: n.Kind(),
			Err: fmt.Errorf("external task outputs do not exist: %s", locators(missing)),
		}, start)
	}

	missing, err := target.MissingOf(n.Inputs)
	if err != nil {
		return r.fail(ctx, n, &TaskError{ID: n.ID, Name: n.Name, Kind: n.Kind(), Err: fmt.Errorf("checking inputs: %w", err)}, start)
	}
	if len(missing) > 0 {
		err := fmt.Errorf("%w: task %s needs %s", ErrMissingInput, n.Name, locators(missing))
		if ferr := r.fail(ctx, n, err, start); ferr != nil {
			return ferr
		}
		return err
	}

	if err := r.store.SetStatus(ctx, n.ID, node.StatusRunning); err != nil {
		r.abort(ctx, n, err)
		return err
	}
	logger.Info("▶️ Running task", "kind", n.Kind())

	attempts, runErr := r.runWithRetry(ctx, n)
	_ = r.store.MarkRan(ctx, n.ID)
	r.results[n.ID].Attempts = attempts
	if runErr != nil {
		return r.fail(ctx, n, &TaskError{ID: n.ID, Name: n.Name, Kind: n.Kind(), Attempts: attempts, Err: runErr}, start)
	}

	missing, err = target.MissingOf(n.Outputs)
	if err == nil && len(missing) > 0 {
		if r.s.strictOutputs {
			return r.fail(ctx, n, &TaskError{
				ID: n.ID, Name: n.Name, Kind: n.Kind(), Attempts: attempts,
				Err: fmt.Errorf("%w: %s", ErrOutputsMissing, locators(missing)),
			}, start)
		}
		logger.Warn("Task finished without producing every declared output.", "missing", locators(missing))
	}

	logger.Info("✅ Task complete", "duration", time.Since(start).Round(time.Millisecond))
	if err := r.finish(ctx, n, node.StatusComplete, nil, time.Since(start)); err != nil {
		return err
	}
	return r.unlock(ctx, n)
}

// fail marks n Failed and skips its downstream cone. The returned error is
// only set when the store rejects the transition.
func (r *run) fail(ctx context.Context, n *node.Node, nodeErr error, start time.Time) error {
	ctxlog.FromContext(ctx).Error("❌ Task failed.", "error", nodeErr)
	if err := r.finish(ctx, n, node.StatusFailed, nodeErr, time.Since(start)); err != nil {
		return err
	}
	r.skipDependents(ctx, n, nodeErr)
	return nil
}

// runWithRetry invokes Run, retrying with back-off up to the task's
// MaxRetries. Each attempt gets its own timeout when the task declares one.
func (r *run) runWithRetry(ctx context.Context, n *node.Node) (int, error) {
	logger := ctxlog.FromContext(ctx)
	var retries uint64
	var timeout time.Duration
	if p, ok := n.Task.(task.RetryPolicy); ok {
		retries = p.MaxRetries()
		timeout = p.Timeout()
	}

	attempts := 0
	operation := func() error {
		attempts++
		attemptCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		err := n.Task.Run(attemptCtx, n.Inputs, n.Outputs)
		if err != nil && ctx.Err() != nil {
			// The run itself was cancelled; retrying cannot help.
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("Task attempt failed, retrying.", "attempt", attempts, "maxRetries", retries, "wait", wait, "error", err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(r.s.newBackOff(), retries), ctx)
	err := backoff.RetryNotify(operation, b, notify)
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	return attempts, err
}

func locators(ts []target.Target) string {
	locs := make([]string, 0, len(ts))
	for _, t := range ts {
		locs = append(locs, t.Locator())
	}
	return strings.Join(locs, ", ")
}
