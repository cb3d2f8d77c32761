package scheduler_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/gridflow/internal/graph"
	"github.com/specialistvlad/gridflow/internal/inmemorystore"
	"github.com/specialistvlad/gridflow/internal/node"
	"github.com/specialistvlad/gridflow/internal/nodestore"
	"github.com/specialistvlad/gridflow/internal/scheduler"
	"github.com/specialistvlad/gridflow/internal/task"
	"github.com/specialistvlad/gridflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noWait() scheduler.Option {
	return scheduler.WithRetryBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} })
}

func runGraph(t *testing.T, ctx context.Context, root task.Task, opts ...scheduler.Option) *scheduler.Report {
	t.Helper()
	g, err := graph.Build(ctx, root)
	require.NoError(t, err)
	rep, err := scheduler.New(append([]scheduler.Option{noWait()}, opts...)...).Run(ctx, g)
	require.NoError(t, err)
	return rep
}

func statuses(rep *scheduler.Report) map[string]node.Status {
	out := make(map[string]node.Status, len(rep.Results))
	for _, res := range rep.Results {
		out[res.Name] = res.Status
	}
	return out
}

func dep(name string, t task.Task) map[string]task.OutputSpec {
	return map[string]task.OutputSpec{name: task.Out(t, "out")}
}

func TestRun_LinearChainThenIdempotentRerun(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := t.TempDir()
	counter := testutil.NewCounter()

	a := testutil.NewFileTask("a", filepath.Join(dir, "a"), counter, nil)
	b := testutil.NewFileTask("b", filepath.Join(dir, "b"), counter, dep("in", a))
	c := testutil.NewFileTask("c", filepath.Join(dir, "c"), counter, dep("in", b))

	rep := runGraph(t, ctx, c)
	assert.True(t, rep.OK())
	assert.Equal(t, 3, rep.Executed())
	assert.Equal(t, []string{"a", "b", "c"}, counter.Order())

	data, err := os.ReadFile(c.Path)
	require.NoError(t, err)
	assert.Equal(t, "c\nb\na\n", string(data))

	// Second run: the root is complete, nothing executes.
	rep = runGraph(t, ctx, c)
	assert.True(t, rep.OK())
	assert.Equal(t, 0, rep.Executed())
	assert.Equal(t, 2, rep.Pruned)
	assert.Equal(t, 3, counter.Total())
}

func TestRun_SkipsTaskWhoseOutputsExist(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := t.TempDir()
	counter := testutil.NewCounter()

	a := testutil.NewFileTask("a", filepath.Join(dir, "a"), counter, nil)
	b := testutil.NewFileTask("b", filepath.Join(dir, "b"), counter, dep("in", a))
	require.NoError(t, os.WriteFile(b.Path, []byte("precomputed"), 0o644))

	t.Run("without pruning every node is visited", func(t *testing.T) {
		rep := runGraph(t, ctx, b, scheduler.WithPruneComplete(false))
		assert.True(t, rep.OK())
		assert.Equal(t, 1, counter.Count("a"))
		assert.Equal(t, 0, counter.Count("b"))

		res, ok := rep.ByName("b")
		require.True(t, ok)
		assert.Equal(t, node.StatusComplete, res.Status)
		assert.False(t, res.Ran)
	})

	data, err := os.ReadFile(b.Path)
	require.NoError(t, err)
	assert.Equal(t, "precomputed", string(data))
}

func TestRun_PrunesUpstreamOfCompleteNode(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := t.TempDir()
	counter := testutil.NewCounter()

	a := testutil.NewFileTask("a", filepath.Join(dir, "a"), counter, nil)
	b := testutil.NewFileTask("b", filepath.Join(dir, "b"), counter, dep("in", a))
	c := testutil.NewFileTask("c", filepath.Join(dir, "c"), counter, dep("in", b))
	require.NoError(t, os.WriteFile(b.Path, []byte("b\n"), 0o644))

	rep := runGraph(t, ctx, c)
	assert.True(t, rep.OK())
	assert.Equal(t, []string{"c"}, counter.Names())
	assert.Equal(t, 1, rep.Pruned)
	_, ok := rep.ByName("a")
	assert.False(t, ok)
}

func TestRun_FailurePropagatesSkipped(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := t.TempDir()
	counter := testutil.NewCounter()

	a := testutil.NewFileTask("a", filepath.Join(dir, "a"), counter, nil)
	a.AlwaysFail = true
	b := testutil.NewFileTask("b", filepath.Join(dir, "b"), counter, dep("in", a))
	c := testutil.NewFileTask("c", filepath.Join(dir, "c"), counter, dep("in", b))
	d := testutil.NewFileTask("d", filepath.Join(dir, "d"), counter, nil)
	e := testutil.NewFileTask("e", filepath.Join(dir, "e"), counter, map[string]task.OutputSpec{
		"c": task.Out(c, "out"),
		"d": task.Out(d, "out"),
	})

	rep := runGraph(t, ctx, e, scheduler.WithWorkers(2))
	assert.False(t, rep.OK())

	want := map[string]node.Status{
		"a": node.StatusFailed,
		"b": node.StatusSkipped,
		"c": node.StatusSkipped,
		"d": node.StatusComplete,
		"e": node.StatusSkipped,
	}
	if diff := cmp.Diff(want, statuses(rep)); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"a", "d"}, counter.Names(), "skipped tasks must never run")

	resA, _ := rep.ByName("a")
	assert.ErrorIs(t, resA.Err, scheduler.ErrTaskExecution)
	assert.ErrorIs(t, resA.Err, testutil.ErrInjected)
	var te *scheduler.TaskError
	require.ErrorAs(t, resA.Err, &te)
	assert.Equal(t, "a", te.Name)

	resC, _ := rep.ByName("c")
	assert.ErrorIs(t, resC.Err, scheduler.ErrUpstreamFailed)
	assert.ErrorIs(t, rep.Err(), testutil.ErrInjected)
	assert.Len(t, rep.Failed(), 1)
}

func TestRun_DiamondRunsSharedUpstreamOnce(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := t.TempDir()
	counter := testutil.NewCounter()

	split := func() *testutil.FileTask {
		return testutil.NewFileTask("split", filepath.Join(dir, "split"), counter, nil)
	}
	left := testutil.NewFileTask("left", filepath.Join(dir, "left"), counter, dep("in", split()))
	right := testutil.NewFileTask("right", filepath.Join(dir, "right"), counter, dep("in", split()))
	merge := testutil.NewFileTask("merge", filepath.Join(dir, "merge"), counter, map[string]task.OutputSpec{
		"left":  task.Out(left, "out"),
		"right": task.Out(right, "out"),
	})

	rep := runGraph(t, ctx, merge, scheduler.WithWorkers(4))
	assert.True(t, rep.OK())
	assert.Equal(t, 1, counter.Count("split"))
	assert.Len(t, rep.Results, 4)
}

func TestRun_Retries(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := t.TempDir()

	flaky := testutil.NewFileTask("flaky", filepath.Join(dir, "flaky"), nil, nil, task.WithRetries(2))
	flaky.FailTimes = 2
	rep := runGraph(t, ctx, flaky)
	assert.True(t, rep.OK())
	assert.Equal(t, 3, rep.Root().Attempts)

	broken := testutil.NewFileTask("broken", filepath.Join(dir, "broken"), nil, nil, task.WithRetries(2))
	broken.FailTimes = 5
	rep = runGraph(t, ctx, broken)
	assert.False(t, rep.OK())
	assert.Equal(t, 3, broken.Attempts())
	assert.Contains(t, rep.Root().Err.Error(), "after 3 attempts")
}

func TestRun_PerAttemptTimeout(t *testing.T) {
	ctx, _ := testutil.Context(t)
	slow := testutil.NewFileTask("slow", filepath.Join(t.TempDir(), "slow"), nil, nil, task.WithTimeout(20*time.Millisecond))
	slow.Delay = 5 * time.Second

	start := time.Now()
	rep := runGraph(t, ctx, slow)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, node.StatusFailed, rep.Root().Status)
	assert.ErrorIs(t, rep.Root().Err, context.DeadlineExceeded)
}

func TestRun_ExternalTask(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := t.TempDir()

	t.Run("missing output fails without running", func(t *testing.T) {
		ext := testutil.NewExternalFile("raw", filepath.Join(dir, "missing.txt"))
		consumer := testutil.NewFileTask("consumer", filepath.Join(dir, "consumer"), nil, dep("in", ext))

		rep := runGraph(t, ctx, consumer)
		assert.Equal(t, map[string]node.Status{"raw": node.StatusFailed, "consumer": node.StatusSkipped}, statuses(rep))
		assert.False(t, ext.Ran())
		res, _ := rep.ByName("raw")
		assert.ErrorIs(t, res.Err, scheduler.ErrTaskExecution)
	})

	t.Run("existing output is complete", func(t *testing.T) {
		path := filepath.Join(dir, "present.txt")
		require.NoError(t, os.WriteFile(path, []byte("ACGT\n"), 0o644))
		ext := testutil.NewExternalFile("raw", path)
		consumer := testutil.NewFileTask("consumer", filepath.Join(dir, "consumer2"), nil, dep("in", ext))

		rep := runGraph(t, ctx, consumer)
		assert.True(t, rep.OK())
		assert.False(t, ext.Ran())
	})
}

func TestRun_MissingInputIsFatal(t *testing.T) {
	ctx, logs := testutil.Context(t)
	dir := t.TempDir()

	liar := testutil.NewFileTask("liar", filepath.Join(dir, "liar"), nil, nil)
	liar.SkipWrite = true
	consumer := testutil.NewFileTask("consumer", filepath.Join(dir, "consumer"), nil, dep("in", liar))

	g, err := graph.Build(ctx, consumer)
	require.NoError(t, err)
	rep, err := scheduler.New(noWait()).Run(ctx, g)
	require.Error(t, err)
	assert.ErrorIs(t, err, scheduler.ErrMissingInput)
	require.NotNil(t, rep)
	assert.Equal(t, node.StatusFailed, rep.Root().Status)
	assert.Contains(t, logs.String(), "without producing every declared output")
}

var errStoreDown = errors.New("store unavailable")

// brokenStore rejects every Transition for the listed nodes.
type brokenStore struct {
	nodestore.Store
	broken map[string]bool
}

func (b *brokenStore) Transition(ctx context.Context, id string, from, to node.Status) (bool, error) {
	if b.broken[id] {
		return false, errStoreDown
	}
	return b.Store.Transition(ctx, id, from, to)
}

func TestRun_StoreTransitionErrorDoesNotHang(t *testing.T) {
	testCases := []struct {
		name       string
		broken     []string
		wantStatus map[string]node.Status
	}{
		{
			name:   "queueing a dependent fails",
			broken: []string{"b"},
			wantStatus: map[string]node.Status{
				"a": node.StatusComplete,
				"b": node.StatusFailed,
				"c": node.StatusSkipped,
			},
		},
		{
			name:   "skipping the downstream cone fails too",
			broken: []string{"b", "c"},
			wantStatus: map[string]node.Status{
				"a": node.StatusComplete,
				"b": node.StatusFailed,
				"c": node.StatusFailed,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := testutil.Context(t)
			dir := t.TempDir()

			a := testutil.NewFileTask("a", filepath.Join(dir, "a"), nil, nil)
			b := testutil.NewFileTask("b", filepath.Join(dir, "b"), nil, dep("in", a))
			c := testutil.NewFileTask("c", filepath.Join(dir, "c"), nil, dep("in", b))

			g, err := graph.Build(ctx, c)
			require.NoError(t, err)
			store := &brokenStore{Store: inmemorystore.New(), broken: map[string]bool{}}
			for _, n := range g.Nodes() {
				for _, name := range tc.broken {
					if n.Name == name {
						store.broken[n.ID] = true
					}
				}
			}

			type outcome struct {
				rep *scheduler.Report
				err error
			}
			done := make(chan outcome, 1)
			go func() {
				rep, err := scheduler.New(noWait(), scheduler.WithStore(store)).Run(ctx, g)
				done <- outcome{rep, err}
			}()

			select {
			case out := <-done:
				require.ErrorIs(t, out.err, errStoreDown)
				require.NotNil(t, out.rep)
				assert.Equal(t, tc.wantStatus, statuses(out.rep))
			case <-time.After(5 * time.Second):
				t.Fatal("run did not return after a store error")
			}
		})
	}
}

func TestRun_StrictOutputs(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := t.TempDir()

	liar := testutil.NewFileTask("liar", filepath.Join(dir, "liar"), nil, nil)
	liar.SkipWrite = true
	consumer := testutil.NewFileTask("consumer", filepath.Join(dir, "consumer"), nil, dep("in", liar))

	rep := runGraph(t, ctx, consumer, scheduler.WithStrictOutputs(true))
	res, _ := rep.ByName("liar")
	assert.Equal(t, node.StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, scheduler.ErrOutputsMissing)
	assert.Equal(t, node.StatusSkipped, rep.Root().Status)
}

func TestRun_BoundedWorkers(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := t.TempDir()
	counter := testutil.NewCounter()

	deps := map[string]task.OutputSpec{}
	for _, n := range []string{"p1", "p2", "p3", "p4", "p5", "p6"} {
		leaf := testutil.NewFileTask(n, filepath.Join(dir, n), counter, nil)
		leaf.Delay = 30 * time.Millisecond
		deps[n] = task.Out(leaf, "out")
	}
	root := testutil.NewFileTask("root", filepath.Join(dir, "root"), counter, deps)

	rep := runGraph(t, ctx, root, scheduler.WithWorkers(2))
	assert.True(t, rep.OK())
	assert.Equal(t, 7, counter.Total())
	assert.LessOrEqual(t, counter.MaxConcurrent(), 2)
	assert.Equal(t, "root", counter.Order()[6])
}

func TestRun_CancelledContextSkipsEverything(t *testing.T) {
	base, _ := testutil.Context(t)
	ctx, cancel := context.WithCancel(base)
	dir := t.TempDir()
	counter := testutil.NewCounter()

	a := testutil.NewFileTask("a", filepath.Join(dir, "a"), counter, nil)
	b := testutil.NewFileTask("b", filepath.Join(dir, "b"), counter, dep("in", a))
	g, err := graph.Build(ctx, b)
	require.NoError(t, err)

	cancel()
	rep, err := scheduler.New().Run(ctx, g)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, map[string]node.Status{"a": node.StatusSkipped, "b": node.StatusSkipped}, statuses(rep))
	assert.Zero(t, counter.Total())
}

func TestRun_CancelWhileRunning(t *testing.T) {
	base, _ := testutil.Context(t)
	ctx, cancel := context.WithCancel(base)
	defer cancel()
	dir := t.TempDir()
	counter := testutil.NewCounter()

	a := testutil.NewFileTask("a", filepath.Join(dir, "a"), counter, nil)
	a.Delay = 10 * time.Second
	a.BeforeRun = func(context.Context) error {
		cancel()
		return nil
	}
	b := testutil.NewFileTask("b", filepath.Join(dir, "b"), counter, dep("in", a))
	g, err := graph.Build(ctx, b)
	require.NoError(t, err)

	rep, err := scheduler.New().Run(ctx, g)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, node.StatusFailed, statuses(rep)["a"])
	assert.Equal(t, node.StatusSkipped, statuses(rep)["b"])
	assert.Equal(t, 0, counter.Count("b"))
}

func TestRun_NoOutputTaskAlwaysRuns(t *testing.T) {
	ctx, _ := testutil.Context(t)
	counter := testutil.NewCounter()
	root := testutil.NewNoOutputTask("notify", counter, nil)

	runGraph(t, ctx, root)
	runGraph(t, ctx, root)
	assert.Equal(t, 2, counter.Count("notify"))
}

func TestReport_Summary(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := t.TempDir()
	a := testutil.NewFileTask("alpha", filepath.Join(dir, "a"), nil, nil)
	a.AlwaysFail = true
	b := testutil.NewFileTask("beta", filepath.Join(dir, "b"), nil, dep("in", a))

	rep := runGraph(t, ctx, b)
	var buf bytes.Buffer
	require.NoError(t, rep.Summary(&buf))
	out := buf.String()
	assert.Contains(t, out, "TASK")
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "0 complete, 1 failed, 1 skipped, 1 executed, 0 pruned")
}
