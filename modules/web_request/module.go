// Package web_request provides a task kind that checks a URL answers 200 OK
// and records that it did with a flag file.
package web_request

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/target"
	"github.com/specialistvlad/gridflow/internal/task"
	"github.com/specialistvlad/gridflow/modules/http_client"
	"resty.dev/v3"
)

const (
	Kind          = "web_request"
	DefaultSuffix = ".webrequest_done"
)

// Module implements the registry.Module interface for this package. Client
// overrides the shared HTTP client.
type Module struct {
	Client *resty.Client
}

type Task struct {
	task.Base
	url    string
	suffix string
	client *resty.Client
}

// New returns a task that GETs url once upstream is available.
func New(upstream task.OutputSpec, url, suffix string, client *resty.Client, opts ...task.Option) *Task {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	params := task.StringParams(map[string]string{"url": url, "suffix": suffix})
	deps := map[string]task.OutputSpec{"upstream": upstream}
	return &Task{
		Base:   task.NewBase(Kind, params, deps, opts...),
		url:    url,
		suffix: suffix,
		client: http_client.Or(client),
	}
}

func (t *Task) DeclaredOutputs(inputs task.Targets) (task.Targets, error) {
	up, err := inputs.Get("upstream")
	if err != nil {
		return nil, err
	}
	return task.Targets{"doneflag": target.NewFlag("doneflag", up.Locator()+t.suffix)}, nil
}

func (t *Task) Run(ctx context.Context, _ task.Targets, outputs task.Targets) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request", "method", "GET", "url", t.url)

	resp, err := t.client.R().SetContext(ctx).Get(t.url)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	logger.Info("Received HTTP response", "status", resp.Status())

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("web request to %s failed with status: %s", t.url, resp.Status())
	}

	flag, err := outputs.Get("doneflag")
	if err != nil {
		return err
	}
	return target.WriteFile(flag, func(w io.Writer) error {
		_, err := io.WriteString(w, "Web Request Task Done!\n")
		return err
	})
}

// Register registers the task kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(Kind, &registry.RegisteredKind{
		Description: "GETs url and writes <upstream><suffix> when it answers 200 OK.",
		Inputs: []registry.Field{
			{Name: "upstream", Required: true},
		},
		Params: []registry.Field{
			{Name: "url", Required: true},
			{Name: "suffix", Description: "Flag suffix, default " + DefaultSuffix + "."},
		},
		Outputs: []string{"doneflag"},
		New: func(spec registry.Spec) (task.Task, error) {
			url, err := spec.Params.RequiredString("url")
			if err != nil {
				return nil, err
			}
			suffix, err := spec.Params.String("suffix", DefaultSuffix)
			if err != nil {
				return nil, err
			}
			return New(spec.Inputs["upstream"], url, suffix, m.Client, spec.Options()...), nil
		},
	})
}
