package app

import (
	"fmt"

	"github.com/specialistvlad/gridflow/internal/config"
	"github.com/specialistvlad/gridflow/internal/ctxlog"
)

// loadWorkflow reads the workflow files and checks every task block against
// the registered kinds.
func (a *App) loadWorkflow(loader config.Loader) error {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Loading workflow...", "paths", a.config.WorkflowPaths)

	wf, err := loader.Load(a.ctx, a.config.WorkflowPaths...)
	if err != nil {
		return fmt.Errorf("failed to load workflow: %w", err)
	}
	if err := a.registry.ValidateWorkflow(wf); err != nil {
		return err
	}

	a.workflow = wf
	logger.Info("Workflow loaded successfully.", "tasks", len(wf.Tasks), "variables", len(wf.Variables))
	return nil
}
