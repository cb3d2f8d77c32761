package merge_files

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/gridflow/internal/target"
	"github.com/specialistvlad/gridflow/internal/task"
	"github.com/specialistvlad/gridflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Concatenates(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.part1")
	p2 := filepath.Join(dir, "a.part2")
	require.NoError(t, os.WriteFile(p1, []byte("acg\n"), 0o644))
	require.NoError(t, os.WriteFile(p2, []byte("tt\n"), 0o644))

	tk := New(
		task.Out(testutil.NewExternalFile("one", p1), "out"),
		task.Out(testutil.NewExternalFile("two", p2), "out"),
	)
	inputs := task.Targets{
		"part1": target.NewFile("part1", p1),
		"part2": target.NewFile("part2", p2),
	}
	outs, err := tk.DeclaredOutputs(inputs)
	require.NoError(t, err)
	require.NoError(t, tk.Run(context.Background(), inputs, outs))

	data, err := os.ReadFile(p1 + ".merged")
	require.NoError(t, err)
	assert.Equal(t, "acg\ntt\n", string(data))
}

func TestRun_MissingPartLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.part1")
	require.NoError(t, os.WriteFile(p1, []byte("acg\n"), 0o644))

	tk := New(
		task.Out(testutil.NewExternalFile("one", p1), "out"),
		task.Out(testutil.NewExternalFile("two", filepath.Join(dir, "gone")), "out"),
	)
	inputs := task.Targets{
		"part1": target.NewFile("part1", p1),
		"part2": target.NewFile("part2", filepath.Join(dir, "gone")),
	}
	outs, err := tk.DeclaredOutputs(inputs)
	require.NoError(t, err)
	require.Error(t, tk.Run(context.Background(), inputs, outs))

	_, err = os.Stat(p1 + ".merged")
	assert.True(t, os.IsNotExist(err))
}
