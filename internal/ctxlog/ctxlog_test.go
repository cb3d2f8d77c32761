package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestWith_ChildLoggerCarriesAttributes(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithLogger(context.Background(), base)

	ctx, logger := With(ctx, "task_id", "split_abc")
	logger.Info("hello")
	FromContext(ctx).Info("again")

	out := buf.String()
	assert.Contains(t, out, "msg=hello task_id=split_abc")
	assert.Contains(t, out, "msg=again task_id=split_abc")
}
