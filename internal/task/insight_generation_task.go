package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/domain"
	"github.com/sortlab/sortlab-api/internal/domain/analysis"
)

// Status constants mirroring the TaskStatus values in task.go. The task
// tracks its own status as a plain string.
const (
	statusPending    = "pending"
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

// Common errors
var (
	ErrNilInsightService = errors.New("insight service cannot be nil")
	ErrNilStudyService   = errors.New("study service cannot be nil")
	ErrNilSummarizer     = errors.New("summarizer cannot be nil")
	ErrNilLogger         = errors.New("logger cannot be nil")
	ErrEmptyInsightID    = errors.New("insight ID cannot be empty")
)

// InsightService defines the insight operations the task needs.
type InsightService interface {
	// GetInsight retrieves an insight by its ID.
	GetInsight(ctx context.Context, insightID uuid.UUID) (*domain.Insight, error)

	// UpdateInsight persists changes to an insight.
	UpdateInsight(ctx context.Context, insight *domain.Insight) error
}

// StudyService defines the study operations the task needs.
type StudyService interface {
	// GetStudy retrieves a study by its ID.
	GetStudy(ctx context.Context, studyID uuid.UUID) (*domain.Study, error)

	// GetResults retrieves all results submitted for a study, in
	// submission order.
	GetResults(ctx context.Context, studyID uuid.UUID) ([]domain.CardSortResult, error)
}

// Summarizer defines the interface for narrative summary generation.
type Summarizer interface {
	// Summarize produces a prose summary of an analysis report.
	Summarize(ctx context.Context, study *domain.Study, report *analysis.Report) (string, error)
}

// insightGenerationPayload is the serialized data stored with the task.
type insightGenerationPayload struct {
	InsightID uuid.UUID `json:"insight_id"`
}

// InsightGenerationTask implements the Task interface. It loads a study's
// results, runs the analytics engine over them, asks the summarizer for a
// narrative, and saves the completed insight.
type InsightGenerationTask struct {
	id             uuid.UUID
	insightID      uuid.UUID
	insightService InsightService
	studyService   StudyService
	summarizer     Summarizer
	logger         *slog.Logger
	status         string
}

// NewInsightGenerationTask creates a new insight generation task.
func NewInsightGenerationTask(
	insightID uuid.UUID,
	insightService InsightService,
	studyService StudyService,
	summarizer Summarizer,
	logger *slog.Logger,
) (*InsightGenerationTask, error) {
	if insightService == nil {
		return nil, ErrNilInsightService
	}
	if studyService == nil {
		return nil, ErrNilStudyService
	}
	if summarizer == nil {
		return nil, ErrNilSummarizer
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if insightID == uuid.Nil {
		return nil, ErrEmptyInsightID
	}

	return &InsightGenerationTask{
		id:             uuid.New(),
		insightID:      insightID,
		insightService: insightService,
		studyService:   studyService,
		summarizer:     summarizer,
		logger:         logger.With("task_type", TaskTypeInsightGeneration, "insight_id", insightID),
		status:         statusPending,
	}, nil
}

// ID returns the task's unique identifier.
func (t *InsightGenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier.
func (t *InsightGenerationTask) Type() string {
	return TaskTypeInsightGeneration
}

// Payload returns the task data as a byte slice.
func (t *InsightGenerationTask) Payload() []byte {
	data, err := json.Marshal(insightGenerationPayload{InsightID: t.insightID})
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Status returns the current task status.
func (t *InsightGenerationTask) Status() TaskStatus {
	return TaskStatus(t.status)
}

// Execute runs the insight generation pipeline. On any failure after the
// insight is loaded, the insight is marked failed before the error is
// returned so researchers are not left waiting on a pending row.
func (t *InsightGenerationTask) Execute(ctx context.Context) error {
	t.status = statusProcessing
	t.logger.Info("starting insight generation task")

	if err := ctx.Err(); err != nil {
		t.status = statusFailed
		t.logger.Error("task cancelled by context", "error", err)
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	insight, err := t.insightService.GetInsight(ctx, t.insightID)
	if err != nil {
		t.status = statusFailed
		t.logger.Error("failed to retrieve insight", "error", err)
		return fmt.Errorf("failed to retrieve insight: %w", err)
	}

	study, err := t.studyService.GetStudy(ctx, insight.StudyID)
	if err != nil {
		return t.fail(ctx, insight, "failed to retrieve study", err)
	}

	results, err := t.studyService.GetResults(ctx, insight.StudyID)
	if err != nil {
		return t.fail(ctx, insight, "failed to retrieve study results", err)
	}

	t.logger.Info("running analysis",
		"study_id", insight.StudyID,
		"result_count", len(results))

	report := analysis.Analyze(results)

	summary, err := t.summarizer.Summarize(ctx, study, report)
	if err != nil {
		return t.fail(ctx, insight, "failed to generate summary", err)
	}

	insight.Complete(summary)
	if err := t.insightService.UpdateInsight(ctx, insight); err != nil {
		t.status = statusFailed
		t.logger.Error("failed to save completed insight", "error", err)
		return fmt.Errorf("failed to save completed insight: %w", err)
	}

	t.status = statusCompleted
	t.logger.Info("insight generation task completed successfully",
		"study_id", insight.StudyID,
		"summary_length", len(summary))
	return nil
}

// fail marks both the task and the insight as failed. The insight update is
// best effort; the original error is what the caller needs to see.
func (t *InsightGenerationTask) fail(ctx context.Context, insight *domain.Insight, msg string, err error) error {
	insight.Fail()
	if updateErr := t.insightService.UpdateInsight(ctx, insight); updateErr != nil {
		t.logger.Error("failed to mark insight as failed", "error", updateErr)
	}

	t.status = statusFailed
	t.logger.Error(msg, "error", err)
	return fmt.Errorf("%s: %w", msg, err)
}
