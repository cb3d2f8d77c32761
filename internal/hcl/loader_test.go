package hcl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/gridflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

const dahlbergLike = `
variable "file_name" {
  description = "input file under data/"
  default     = "acgt.txt"
}

variable "attempts" {
  type    = number
  default = "2"
}

task "existing_data" "rawdata" {
  arguments {
    path = "data/${var.file_name}"
  }
}

task "split_file" "split" {
  inputs {
    indata = task.rawdata.acgt
  }
}

task "web_request" "webreq" {
  arguments { url = "http://example.test" }
  inputs    { upstream = task.split.part1 }
  retries   = var.attempts
  timeout   = "30s"
}
`

func TestLoad_ParsesVariablesAndTasks(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := writeFiles(t, map[string]string{"workflow.hcl": dahlbergLike})

	wf, err := NewLoader().Load(ctx, dir)
	require.NoError(t, err)

	require.Len(t, wf.Variables, 2)
	fileName := wf.Variables[0]
	assert.Equal(t, "file_name", fileName.Name)
	assert.Equal(t, "input file under data/", fileName.Description)
	require.NotNil(t, fileName.Default)
	assert.Equal(t, cty.StringVal("acgt.txt"), *fileName.Default)
	assert.Equal(t, cty.DynamicPseudoType, fileName.Type)

	attempts := wf.Variables[1]
	assert.Equal(t, cty.Number, attempts.Type)
	require.NotNil(t, attempts.Default)
	assert.True(t, attempts.Default.RawEquals(cty.NumberIntVal(2)), "default converted to declared type")

	assert.Equal(t, []string{"rawdata", "split", "webreq"}, wf.TaskNames())

	raw, ok := wf.Task("rawdata")
	require.True(t, ok)
	assert.Equal(t, "existing_data", raw.Kind)
	assert.Contains(t, raw.Arguments, "path")
	assert.Empty(t, raw.Inputs)
	assert.Nil(t, raw.Retries)
	assert.Nil(t, raw.Timeout)

	split, _ := wf.Task("split")
	assert.Equal(t, "rawdata", split.Inputs["indata"].Task)
	assert.Equal(t, "acgt", split.Inputs["indata"].Output)

	webreq, _ := wf.Task("webreq")
	assert.NotNil(t, webreq.Retries)
	assert.NotNil(t, webreq.Timeout)
	assert.Equal(t, "part1", webreq.Inputs["upstream"].Output)
}

func TestLoad_MergesFilesInDirectory(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := writeFiles(t, map[string]string{
		"a.hcl":        `task "sleep" "one" {}`,
		"nested/b.hcl": `task "sleep" "two" {}`,
		"README.md":    `not hcl`,
	})

	wf, err := NewLoader().Load(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, wf.TaskNames())
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name: "duplicate task name across files",
			files: map[string]string{
				"a.hcl": `task "sleep" "same" {}`,
				"b.hcl": `task "lowercase" "same" {}`,
			},
			wantErr: `task "same" already declared`,
		},
		{
			name:    "input is not a task reference",
			files: map[string]string{"a.hcl": `
task "lowercase" "x" {
  inputs { indata = "data/x.txt" }
}`},
			wantErr: "expected a reference like task.<name>.<output>",
		},
		{
			name:    "input reference too short",
			files: map[string]string{"a.hcl": `
task "lowercase" "x" {
  inputs { indata = task.split }
}`},
			wantErr: "expected a reference like task.<name>.<output>",
		},
		{
			name:    "unknown top-level block",
			files:   map[string]string{"a.hcl": `step "print" "x" {}`},
			wantErr: "failed to decode HCL file",
		},
		{
			name:    "syntax error",
			files:   map[string]string{"a.hcl": `task "sleep" {`},
			wantErr: "failed to parse HCL file",
		},
		{
			name:    "default does not match type",
			files: map[string]string{"a.hcl": `
variable "n" {
  type    = number
  default = "abc"
}`},
			wantErr: "default does not match type",
		},
		{
			name:    "no files",
			files:   map[string]string{"readme.txt": "hi"},
			wantErr: "no .hcl workflow files found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := testutil.Context(t)
			dir := writeFiles(t, tc.files)
			_, err := NewLoader().Load(ctx, dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_SingleFileMustBeHCL(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := writeFiles(t, map[string]string{"workflow.txt": `task "sleep" "x" {}`})
	_, err := NewLoader().Load(ctx, filepath.Join(dir, "workflow.txt"))
	assert.ErrorContains(t, err, ".hcl extension")

	_, err = NewLoader().Load(ctx, filepath.Join(dir, "missing.hcl"))
	assert.Error(t, err)
}
