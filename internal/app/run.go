package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/graph"
	"github.com/specialistvlad/gridflow/internal/scheduler"
	"github.com/specialistvlad/gridflow/internal/workflow"
)

// Run builds the configured root task and everything it needs that is not
// already complete, then prints a summary. A root that does not end
// Complete is reported as a *RunError alongside the report.
func (a *App) Run(ctx context.Context) (*scheduler.Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.RootTask == "" {
		return nil, errors.New("no root task given")
	}

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	vars, err := workflow.ResolveVariables(ctx, a.workflow.Variables, a.config.Vars)
	if err != nil {
		return nil, err
	}
	root, err := workflow.Instantiate(ctx, a.workflow, a.registry, vars, a.config.RootTask)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Building dependency graph...")
	g, err := graph.Build(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}
	a.logger.Debug("Dependency graph built.", "nodeCount", g.Len())

	a.logger.Info("🚀 Starting concurrent execution...", "root", a.config.RootTask, "workers", a.config.Workers)
	s := scheduler.New(
		scheduler.WithWorkers(a.config.Workers),
		scheduler.WithStrictOutputs(a.config.StrictOutputs),
		scheduler.WithPruneComplete(!a.config.NoPrune),
	)
	report, runErr := s.Run(ctx, g)
	if report != nil {
		a.logger.Info("🏁 Execution finished.", "elapsed", report.Elapsed, "executed", report.Executed())
		if err := report.Summary(a.outW); err != nil {
			a.logger.Error("Failed to write run summary.", "error", err)
			if runErr == nil {
				return report, err
			}
		}
	}
	if runErr != nil {
		return report, fmt.Errorf("execution failed: %w", runErr)
	}
	if !report.OK() {
		return report, &RunError{Root: a.config.RootTask, Status: report.Root().Status, Report: report}
	}

	a.logger.Debug("App.Run method finished.")
	return report, nil
}
