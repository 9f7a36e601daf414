package task

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// InsightGenerationTaskFactory creates InsightGenerationTask instances with
// their service dependencies pre-wired.
type InsightGenerationTaskFactory struct {
	insightService InsightService
	studyService   StudyService
	summarizer     Summarizer
	logger         *slog.Logger
}

// NewInsightGenerationTaskFactory creates a new factory.
func NewInsightGenerationTaskFactory(
	insightService InsightService,
	studyService StudyService,
	summarizer Summarizer,
	logger *slog.Logger,
) *InsightGenerationTaskFactory {
	return &InsightGenerationTaskFactory{
		insightService: insightService,
		studyService:   studyService,
		summarizer:     summarizer,
		logger:         logger.With("component", "insight_generation_task_factory"),
	}
}

// CreateTask creates a new InsightGenerationTask for the given insight.
func (f *InsightGenerationTaskFactory) CreateTask(insightID uuid.UUID) (Task, error) {
	return NewInsightGenerationTask(
		insightID,
		f.insightService,
		f.studyService,
		f.summarizer,
		f.logger,
	)
}

// ReconstructTask rebuilds an insight generation task from a persisted row,
// keeping the row's task id so status updates hit the original record. It is
// registered with the task runner as the reconstructor for
// TaskTypeInsightGeneration.
func (f *InsightGenerationTaskFactory) ReconstructTask(taskID uuid.UUID, payload []byte) (Task, error) {
	var p insightGenerationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal insight generation payload: %w", err)
	}

	t, err := NewInsightGenerationTask(
		p.InsightID,
		f.insightService,
		f.studyService,
		f.summarizer,
		f.logger,
	)
	if err != nil {
		return nil, err
	}
	t.id = taskID

	return t, nil
}
