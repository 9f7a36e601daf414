package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/sortlab/sortlab-api/internal/ciutil"
)

// CIHandler wraps a JSON handler and stamps CI provider metadata onto every
// log record, so lines emitted during CI runs carry the job that produced
// them.
type CIHandler struct {
	handler  slog.Handler
	metadata map[string]string
}

// NewCIHandler creates a CIHandler writing JSON records to out.
func NewCIHandler(out io.Writer, opts *slog.HandlerOptions) *CIHandler {
	return &CIHandler{
		handler:  slog.NewJSONHandler(out, opts),
		metadata: ciMetadata(),
	}
}

// ciMetadata collects identifying attributes for the current CI job. Outside
// CI the map is empty.
func ciMetadata() map[string]string {
	metadata := make(map[string]string)

	if !ciutil.IsCI() {
		return metadata
	}
	metadata["ci"] = "true"

	switch {
	case ciutil.IsGitHubActions():
		metadata["ci_provider"] = "github-actions"
		metadata["ci_run_id"] = os.Getenv("GITHUB_RUN_ID")
		metadata["ci_workflow"] = os.Getenv("GITHUB_WORKFLOW")
	case ciutil.IsGitLabCI():
		metadata["ci_provider"] = "gitlab-ci"
		metadata["ci_job_id"] = os.Getenv("CI_JOB_ID")
		metadata["ci_pipeline_id"] = os.Getenv("CI_PIPELINE_ID")
	}

	return metadata
}

func (h *CIHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *CIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CIHandler{handler: h.handler.WithAttrs(attrs), metadata: h.metadata}
}

func (h *CIHandler) WithGroup(name string) slog.Handler {
	return &CIHandler{handler: h.handler.WithGroup(name), metadata: h.metadata}
}

func (h *CIHandler) Handle(ctx context.Context, record slog.Record) error {
	enhanced := record.Clone()
	for key, value := range h.metadata {
		enhanced.AddAttrs(slog.String(key, value))
	}
	return h.handler.Handle(ctx, enhanced)
}
