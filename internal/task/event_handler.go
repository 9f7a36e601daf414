package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/events"
)

// TaskFactory creates tasks for the entity named in an event payload.
type TaskFactory interface {
	CreateTask(insightID uuid.UUID) (Task, error)
}

// taskSubmitter is satisfied by *TaskRunner.
type taskSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler bridges the event bus and the task runner: it
// turns insight generation request events into persisted, queued tasks.
type TaskFactoryEventHandler struct {
	factory TaskFactory
	runner  taskSubmitter
	logger  *slog.Logger
}

var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)

// NewTaskFactoryEventHandler creates an event handler that uses the given
// factory to create tasks and submits them to the runner.
func NewTaskFactoryEventHandler(
	factory TaskFactory,
	runner taskSubmitter,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With(slog.String("component", "task_factory_event_handler")),
	}
}

// HandleEvent creates and submits a task for insight generation request
// events. Events of other types are ignored.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if event.Type != TaskTypeInsightGeneration {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload struct {
		InsightID string `json:"insight_id"`
	}
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	insightID, err := uuid.Parse(payload.InsightID)
	if err != nil {
		h.logger.Error("invalid insight ID",
			"error", err,
			"insight_id", payload.InsightID,
			"event_id", event.ID)
		return fmt.Errorf("invalid insight ID: %w", err)
	}

	task, err := h.factory.CreateTask(insightID)
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"insight_id", insightID,
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.runner.Submit(ctx, task); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"insight_id", insightID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Info("task created and submitted",
		"task_id", task.ID(),
		"insight_id", insightID,
		"event_id", event.ID)
	return nil
}
