// Package s3_upload provides a task kind that uploads a file to a pre-signed
// S3 URL.
package s3_upload

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/target"
	"github.com/specialistvlad/gridflow/internal/task"
	"github.com/specialistvlad/gridflow/modules/http_client"
	"resty.dev/v3"
)

const (
	Kind          = "s3_upload"
	DefaultSuffix = ".uploaded"
)

// Module implements the registry.Module interface for this package. Client
// overrides the shared HTTP client.
type Module struct {
	Client *resty.Client
}

// Task PUTs source to uploadURL and marks success with <source><suffix>.
type Task struct {
	task.Base
	uploadURL string
	suffix    string
	client    *resty.Client
}

func New(source task.OutputSpec, uploadURL, suffix string, client *resty.Client, opts ...task.Option) *Task {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	params := task.StringParams(map[string]string{"upload_url": uploadURL, "suffix": suffix})
	deps := map[string]task.OutputSpec{"source": source}
	return &Task{
		Base:      task.NewBase(Kind, params, deps, opts...),
		uploadURL: uploadURL,
		suffix:    suffix,
		client:    http_client.Or(client),
	}
}

func (t *Task) DeclaredOutputs(inputs task.Targets) (task.Targets, error) {
	src, err := inputs.Get("source")
	if err != nil {
		return nil, err
	}
	return task.Targets{"uploaded": target.NewFlag("uploaded", src.Locator()+t.suffix)}, nil
}

func (t *Task) Run(ctx context.Context, inputs, outputs task.Targets) error {
	logger := ctxlog.FromContext(ctx).With("action", "upload")

	src, err := inputs.Get("source")
	if err != nil {
		return err
	}
	rc, err := src.OpenForRead()
	if err != nil {
		return fmt.Errorf("failed to open source file '%s': %w", src.Locator(), err)
	}
	body, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("failed to read source file '%s': %w", src.Locator(), err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(src.Locator()))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	logger.Info("Uploading file to S3", "source", src.Locator(), "size", len(body), "contentType", contentType)

	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(body).
		Put(t.uploadURL)
	if err != nil {
		return fmt.Errorf("failed to execute S3 upload request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("S3 upload failed with status: %s", resp.Status())
	}
	logger.Info("Successfully uploaded file", "status", resp.Status())

	flag, err := outputs.Get("uploaded")
	if err != nil {
		return err
	}
	return target.WriteFile(flag, func(w io.Writer) error {
		_, err := io.WriteString(w, resp.Status()+"\n")
		return err
	})
}

// Register registers the task kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(Kind, &registry.RegisteredKind{
		Description: "Uploads source to a pre-signed URL with PUT.",
		Inputs: []registry.Field{
			{Name: "source", Required: true},
		},
		Params: []registry.Field{
			{Name: "upload_url", Required: true},
			{Name: "suffix", Description: "Flag suffix, default " + DefaultSuffix + "."},
		},
		Outputs: []string{"uploaded"},
		New: func(spec registry.Spec) (task.Task, error) {
			url, err := spec.Params.RequiredString("upload_url")
			if err != nil {
				return nil, err
			}
			suffix, err := spec.Params.String("suffix", DefaultSuffix)
			if err != nil {
				return nil, err
			}
			return New(spec.Inputs["source"], url, suffix, m.Client, spec.Options()...), nil
		},
	})
}
