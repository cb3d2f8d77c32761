package scheduler

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/specialistvlad/gridflow/internal/node"
)

// Result is the outcome of one node.
type Result struct {
	ID   string
	Name string
	Kind string
	// Status is Complete, Failed or Skipped once the run has finished.
	Status node.Status
	// Ran is true when Run was invoked, false for nodes that were already
	// complete or never started.
	Ran      bool
	Attempts int
	Err      error
	Duration time.Duration
}

// Report is the outcome of a run, in topological order.
type Report struct {
	RootID  string
	Results []Result
	// Pruned counts graph nodes that were not needed because a dependent
	// was already complete.
	Pruned  int
	Elapsed time.Duration
}

// Result returns the result for the node with the given ID.
func (r *Report) Result(id string) (Result, bool) {
	for _, res := range r.Results {
		if res.ID == id {
			return res, true
		}
	}
	return Result{}, false
}

// ByName returns the first result whose node has the given name.
func (r *Report) ByName(name string) (Result, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return Result{}, false
}

// Root returns the result of the root node.
func (r *Report) Root() Result {
	res, _ := r.Result(r.RootID)
	return res
}

// OK reports whether the root node is Complete.
func (r *Report) OK() bool {
	return r.Root().Status == node.StatusComplete
}

// Count returns how many nodes ended in status.
func (r *Report) Count(status node.Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Failed returns the results of Failed nodes.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status == node.StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// Executed returns how many nodes had their Run invoked.
func (r *Report) Executed() int {
	n := 0
	for _, res := range r.Results {
		if res.Ran {
			n++
		}
	}
	return n
}

// Err returns the error of the first failed node, or nil.
func (r *Report) Err() error {
	for _, res := range r.Results {
		if res.Status == node.StatusFailed {
			return res.Err
		}
	}
	return nil
}

// Summary writes a table with one line per node.
func (r *Report) Summary(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tKIND\tSTATUS\tRAN\tDURATION\tERROR")
	for _, res := range r.Results {
		errText := ""
		if res.Err != nil {
			errText = strings.ReplaceAll(res.Err.Error(), "\n", " ")
		}
		ran := "no"
		if res.Ran {
			ran = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", res.Name, res.Kind, res.Status, ran, res.Duration.Round(time.Millisecond), errText)
	}
	fmt.Fprintf(tw, "\n%d complete, %d failed, %d skipped, %d executed, %d pruned\n",
		r.Count(node.StatusComplete), r.Count(node.StatusFailed), r.Count(node.StatusSkipped), r.Executed(), r.Pruned)
	return tw.Flush()
}
