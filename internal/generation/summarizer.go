package generation

import (
	"context"

	"github.com/sortlab/sortlab-api/internal/domain"
	"github.com/sortlab/sortlab-api/internal/domain/analysis"
)

// Summarizer produces a prose summary of a study's analysis report. It is
// the hexagonal boundary between the application core and LLM providers.
type Summarizer interface {
	// Summarize turns an analysis report into a narrative summary suitable
	// for showing to the study's researcher. Implementations must respect
	// context cancellation; LLM calls can be slow.
	Summarize(ctx context.Context, study *domain.Study, report *analysis.Report) (string, error)
}
