package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskRequestEvent represents a request to perform a background task, such
// as generating an insight summary for a study. The payload is opaque JSON
// interpreted by the handler registered for the event type.
type TaskRequestEvent struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewTaskRequestEvent creates a task request event of the given type. The
// payload value is marshalled to JSON.
func NewTaskRequestEvent(eventType string, payload any) (*TaskRequestEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return &TaskRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// UnmarshalPayload decodes the event payload into the provided value.
func (e *TaskRequestEvent) UnmarshalPayload(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal event payload: %w", err)
	}
	return nil
}

// EventHandler processes task request events.
type EventHandler interface {
	// HandleEvent processes an event. Implementations should return an error
	// only when the event could not be acted on at all.
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventEmitter publishes events to registered handlers.
type EventEmitter interface {
	// EmitEvent delivers the event to all registered handlers.
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error

	// RegisterHandler adds a handler that will receive all emitted events.
	RegisterHandler(handler EventHandler)
}
