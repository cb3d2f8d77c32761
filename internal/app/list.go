package app

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// List writes the task instances of the loaded workflow with their kind and
// input references, in name order.
func (a *App) List(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tKIND\tINPUTS\tDESCRIPTION")
	for _, name := range a.workflow.TaskNames() {
		t, _ := a.workflow.Task(name)
		var inputs []string
		for in, ref := range t.Inputs {
			inputs = append(inputs, fmt.Sprintf("%s=%s.%s", in, ref.Task, ref.Output))
		}
		sort.Strings(inputs)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name, t.Kind, strings.Join(inputs, ","), t.Description)
	}
	return tw.Flush()
}
