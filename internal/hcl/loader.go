package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/gridflow/internal/config"
	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL workflow loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under paths and merges their blocks. Task and
// variable names must be unique across all files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Workflow, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "pathCount", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl workflow files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	wf := &config.Workflow{}
	parser := hclparse.NewParser()
	seenTasks := make(map[string]string)
	seenVars := make(map[string]string)

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, v := range root.Variables {
			if prev, dup := seenVars[v.Name]; dup {
				return nil, fmt.Errorf("%s: variable %q already declared in %s", file, v.Name, prev)
			}
			seenVars[v.Name] = file
			cv, err := translateVariable(ctx, v)
			if err != nil {
				return nil, err
			}
			wf.Variables = append(wf.Variables, cv)
		}
		for _, t := range root.Tasks {
			if prev, dup := seenTasks[t.Name]; dup {
				return nil, fmt.Errorf("%s: task %q already declared in %s", file, t.Name, prev)
			}
			seenTasks[t.Name] = file
			ct, err := translateTask(ctx, t, file)
			if err != nil {
				return nil, err
			}
			wf.Tasks = append(wf.Tasks, ct)
		}
	}

	logger.Debug("HCL loading complete.", "tasks", len(wf.Tasks), "variables", len(wf.Variables))
	return wf, nil
}

// findAllHCLFiles expands directories and returns a sorted, de-duplicated
// list of .hcl files.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var allFiles []string
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			allFiles = append(allFiles, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			if filepath.Ext(path) != ".hcl" {
				return nil, fmt.Errorf("workflow file %s must have the .hcl extension", path)
			}
			add(path)
			continue
		}
		files, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	sort.Strings(allFiles)
	return allFiles, nil
}
