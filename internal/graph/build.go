package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/inmemorytopology"
	"github.com/specialistvlad/gridflow/internal/node"
	"github.com/specialistvlad/gridflow/internal/task"
	"github.com/specialistvlad/gridflow/internal/topologystore"
)

// Build constructs the graph of every task reachable from root.
func Build(ctx context.Context, root task.Task) (*Graph, error) {
	return BuildWith(ctx, inmemorytopology.New(), root)
}

// BuildWith is Build with a caller supplied topology store.
func BuildWith(ctx context.Context, topology topologystore.Store, root task.Task) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building workflow graph.", "root", task.NameOf(root))

	b := &builder{
		ctx:      ctx,
		topology: topology,
		done:     make(map[task.Task]*node.Node),
		byID:     make(map[string]*node.Node),
		owners:   make(map[string]string),
	}
	rootNode, err := b.visit(root)
	if err != nil {
		return nil, err
	}

	g := &Graph{topology: topology, root: rootNode}
	logger.Debug("Workflow graph built.", "nodes", g.Len(), "root", rootNode.ID)
	return g, nil
}

type builder struct {
	ctx      context.Context
	topology topologystore.Store

	// done memoizes finished instances; byID collapses equal instances.
	done map[task.Task]*node.Node
	byID map[string]*node.Node
	// owners maps an output locator to the ID of the node declaring it.
	owners map[string]string

	stack []task.Task
}

func (b *builder) visit(t task.Task) (*node.Node, error) {
	if err := task.CheckComparable(t); err != nil {
		return nil, &BuildError{Kind: ErrInvalidTask, Task: task.NameOf(t), Err: err}
	}
	if n, ok := b.done[t]; ok {
		return n, nil
	}
	for i, onPath := range b.stack {
		if onPath == t {
			return nil, &BuildError{Kind: ErrCyclicDependency, Task: task.NameOf(t), Path: b.pathFrom(i, t)}
		}
	}

	b.stack = append(b.stack, t)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()

	deps := t.Dependencies()
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	inputs := make(task.Targets, len(deps))
	upstreamIDs := make(map[string]string, len(deps))
	upstream := make([]*node.Node, 0, len(deps))
	for _, name := range names {
		spec := deps[name]
		if spec.Task == nil {
			return nil, &BuildError{Kind: ErrInvalidTask, Task: task.NameOf(t), Err: fmt.Errorf("input %q has no upstream task", name)}
		}
		up, err := b.visit(spec.Task)
		if err != nil {
			return nil, err
		}
		tg, err := spec.Resolve(up.Outputs)
		if err != nil {
			return nil, &BuildError{Kind: ErrUnresolvedOutput, Task: task.NameOf(t), Err: fmt.Errorf("input %q: %w", name, err)}
		}
		inputs[name] = tg
		upstreamIDs[name] = up.ID
		upstream = append(upstream, up)
	}

	id, err := task.IdentityOf(t, upstreamIDs)
	if err != nil {
		return nil, &BuildError{Kind: ErrInvalidTask, Task: task.NameOf(t), Err: err}
	}
	if existing, ok := b.byID[id]; ok {
		b.done[t] = existing
		return existing, nil
	}

	outputs, err := t.DeclaredOutputs(inputs)
	if err != nil {
		return nil, &BuildError{Kind: ErrInvalidTask, Task: task.NameOf(t), Err: fmt.Errorf("declaring outputs: %w", err)}
	}
	for _, name := range outputs.Names() {
		loc := outputs[name].Locator()
		if owner, ok := b.owners[loc]; ok && owner != id {
			return nil, &BuildError{
				Kind: ErrDuplicateOutput,
				Task: task.NameOf(t),
				Err:  fmt.Errorf("output %q at %s is already declared by %s", name, loc, owner),
			}
		}
		b.owners[loc] = id
	}

	n := &node.Node{
		ID:      id,
		Name:    task.NameOf(t),
		Task:    t,
		Inputs:  inputs,
		Outputs: outputs,
	}
	if err := b.topology.AddNode(b.ctx, n); err != nil {
		return nil, err
	}
	for _, up := range upstream {
		if err := b.topology.AddDependency(b.ctx, up.ID, id); err != nil {
			return nil, err
		}
	}
	b.done[t] = n
	b.byID[id] = n
	ctxlog.FromContext(b.ctx).Debug("Added node to graph.", "nodeID", id, "kind", t.Kind(), "inputs", len(inputs), "outputs", len(outputs))
	return n, nil
}

func (b *builder) pathFrom(i int, closing task.Task) []string {
	path := make([]string, 0, len(b.stack)-i+1)
	for _, t := range b.stack[i:] {
		path = append(path, task.NameOf(t))
	}
	return append(path, task.NameOf(closing))
}
