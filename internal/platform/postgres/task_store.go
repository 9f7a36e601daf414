package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/platform/logger"
	"github.com/sortlab/sortlab-api/internal/store"
	"github.com/sortlab/sortlab-api/internal/task"
)

// PostgresTaskStore implements the task.TaskStore interface using PostgreSQL.
// Persisted tasks let the runner recover queued work after a restart.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgresTaskStore. If log is nil, the
// default logger is used.
func NewPostgresTaskStore(db store.DBTX, log *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: log.With(slog.String("component", "task_store")),
	}
}

var _ task.TaskStore = (*PostgresTaskStore)(nil)

// SaveTask persists a task.
func (s *PostgresTaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO tasks (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		t.ID(), t.Type(), t.Payload(), t.Status(), now, now)
	if err != nil {
		log.Error("failed to save task",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to save task to database: %w", err)
	}

	return nil
}

// UpdateTaskStatus updates a task's status and error message. A missing task
// is a no-op: the runner may update tasks whose rows were pruned.
func (s *PostgresTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status task.TaskStatus,
	errorMsg string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, status, errorMsg, time.Now().UTC(), taskID)
	if err != nil {
		log.Error("failed to update task status",
			slog.String("task_id", taskID.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update task status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		log.Warn("no task found to update status",
			slog.String("task_id", taskID.String()))
	}

	return nil
}

// GetPendingTasks retrieves all tasks with "pending" status.
func (s *PostgresTaskStore) GetPendingTasks(ctx context.Context) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusPending, 0)
}

// GetProcessingTasks retrieves tasks with "processing" status, optionally
// only those older than the given duration.
func (s *PostgresTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusProcessing, olderThan)
}

func (s *PostgresTaskStore) getTasksByStatus(
	ctx context.Context,
	status task.TaskStatus,
	olderThan time.Duration,
) ([]task.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, type, payload, status
		FROM tasks
		WHERE status = $1
		ORDER BY created_at ASC
	`
	args := []any{status}
	if olderThan > 0 {
		query = `
			SELECT id, type, payload, status
			FROM tasks
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = append(args, time.Now().UTC().Add(-olderThan))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by status",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query tasks by status: %w", err)
	}
	defer closeRows(rows, log)

	var tasks []task.Task
	for rows.Next() {
		var (
			id         uuid.UUID
			taskType   string
			payload    []byte
			taskStatus task.TaskStatus
		)
		if err := rows.Scan(&id, &taskType, &payload, &taskStatus); err != nil {
			log.Error("failed to scan task row",
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}

		tasks = append(tasks, &databaseTask{
			id:       id,
			taskType: taskType,
			payload:  payload,
			status:   taskStatus,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// WithTx returns a TaskStore bound to the provided transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) task.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// databaseTask is a task row loaded from the database. It carries identity,
// type, and payload only; the runner rebuilds an executable task from it
// through the reconstructor registered for its type before queueing.
type databaseTask struct {
	id       uuid.UUID
	taskType string
	payload  []byte
	status   task.TaskStatus
}

func (t *databaseTask) ID() uuid.UUID           { return t.id }
func (t *databaseTask) Type() string            { return t.taskType }
func (t *databaseTask) Payload() []byte         { return t.payload }
func (t *databaseTask) Status() task.TaskStatus { return t.status }

func (t *databaseTask) Execute(ctx context.Context) error {
	return errors.New("recovered task row is not executable, reconstruct it first")
}
