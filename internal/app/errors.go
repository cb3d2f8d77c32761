package app

import (
	"fmt"

	"github.com/specialistvlad/gridflow/internal/node"
	"github.com/specialistvlad/gridflow/internal/scheduler"
)

// RunError is returned by Run when the root task did not end Complete. The
// report is still available through it.
type RunError struct {
	Root   string
	Status node.Status
	Report *scheduler.Report
}

func (e *RunError) Error() string {
	failed := e.Report.Failed()
	if len(failed) == 0 {
		return fmt.Sprintf("task %q ended %s", e.Root, e.Status)
	}
	return fmt.Sprintf("task %q ended %s: %d task(s) failed, first: %v", e.Root, e.Status, len(failed), failed[0].Err)
}

func (e *RunError) Unwrap() error {
	return e.Report.Err()
}
