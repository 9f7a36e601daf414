package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskReconstructor rebuilds an executable task from a persisted row's id and
// payload. Rows loaded during recovery carry identity, type, and payload only;
// the runner dispatches them through the reconstructor registered for their
// type before queueing.
type TaskReconstructor func(taskID uuid.UUID, payload []byte) (Task, error)

// TaskRunnerConfig holds configuration for the task runner.
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks.
	WorkerCount int

	// QueueSize is the buffer size of the in-memory task queue.
	QueueSize int

	// StuckTaskAge is how long a task may sit in the processing state before
	// it is considered stuck and reset to pending.
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval is how often to scan for stuck tasks. Zero
	// defaults to 5 minutes.
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults.
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskRunner manages background task processing. Tasks are persisted before
// being enqueued, so unfinished work survives restarts and is requeued by
// Recover on startup.
type TaskRunner struct {
	store      TaskStore
	taskChan   chan Task
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)

	reconMu        sync.RWMutex
	reconstructors map[string]TaskReconstructor
}

// NewTaskRunner creates a new TaskRunner.
func NewTaskRunner(store TaskStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	log := logger.With(slog.String("component", "task_runner"))

	return &TaskRunner{
		store:      store,
		taskChan:   make(chan Task, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     log,
		errHandler: func(task Task, err error) {
			log.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
		reconstructors: make(map[string]TaskReconstructor),
	}
}

// RegisterReconstructor registers the rebuild function for one task type.
// Register all reconstructors before Start so recovery can use them.
func (r *TaskRunner) RegisterReconstructor(taskType string, fn TaskReconstructor) {
	r.reconMu.Lock()
	defer r.reconMu.Unlock()
	r.reconstructors[taskType] = fn
}

// SetErrorHandler replaces the default error handler, which only logs.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit persists a task and adds it to the in-memory queue.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	// Persist first so the task survives a crash before a worker picks it up.
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	select {
	case r.taskChan <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full, try again later")
	}
}

// Start recovers unfinished tasks and launches the worker pool.
func (r *TaskRunner) Start() error {
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop gracefully shuts down the task runner, waiting for in-flight tasks.
func (r *TaskRunner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	close(r.taskChan)
}

// Recover loads unfinished tasks from the database and requeues them. Tasks
// left in the processing state by a crash are reset to pending first.
func (r *TaskRunner) Recover() error {
	ctx := context.Background()

	pendingTasks, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	// Age zero means all processing tasks regardless of how long they ran.
	processingTasks, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pendingTasks),
		"processing_count", len(processingTasks))

	for _, task := range pendingTasks {
		r.requeue(ctx, task)
	}

	for _, task := range processingTasks {
		if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusPending, "Reset after recovery"); err != nil {
			r.logger.Error("failed to reset processing task status",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
			continue
		}
		r.requeue(ctx, task)
	}

	return nil
}

// requeue rebuilds a store-loaded task into its executable form and places it
// back on the queue without persisting it again. A row whose type has no
// registered reconstructor stays pending for a later restart; a row whose
// payload cannot be rebuilt is marked failed. A full queue is logged, not
// fatal; the stuck-task monitor will pick the task up later.
func (r *TaskRunner) requeue(ctx context.Context, task Task) {
	r.reconMu.RLock()
	rebuild, ok := r.reconstructors[task.Type()]
	r.reconMu.RUnlock()

	if !ok {
		r.logger.Warn("no reconstructor registered for task type, leaving task pending",
			"task_id", task.ID(),
			"task_type", task.Type())
		return
	}

	rebuilt, err := rebuild(task.ID(), task.Payload())
	if err != nil {
		r.logger.Error("failed to reconstruct recovered task",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"error", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed,
			fmt.Sprintf("failed to reconstruct recovered task: %v", err)); updateErr != nil {
			r.logger.Error("failed to mark unreconstructable task as failed",
				"task_id", task.ID(),
				"error", updateErr)
		}
		return
	}

	select {
	case r.taskChan <- rebuilt:
	default:
		r.logger.Error("failed to requeue task, queue is full",
			"task_id", rebuilt.ID(),
			"task_type", rebuilt.Type())
	}
}

// worker consumes tasks from the queue until the runner is stopped.
func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-r.taskChan:
			if !ok {
				r.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}
			r.processTask(task, id)
		}
	}
}

// processTask executes a single task and records its terminal status.
func (r *TaskRunner) processTask(task Task, workerID int) {
	ctx := context.Background()
	log := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusProcessing, ""); err != nil {
		log.Error("failed to update task status to processing", "error", err)
		return
	}

	log.Info("processing task")

	if err := task.Execute(ctx); err != nil {
		log.Error("task execution failed", "error", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			log.Error("failed to update task status to failed", "error", updateErr)
		}
		r.errHandler(task, err)
		return
	}

	log.Info("task completed successfully")
	if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusCompleted, ""); updateErr != nil {
		log.Error("failed to update task status to completed", "error", updateErr)
	}
}

// stuckTaskMonitor periodically resets tasks that have been processing for
// longer than the configured age and requeues them.
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			stuckTasks, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
			if err != nil {
				r.logger.Error("failed to check for stuck tasks", "error", err)
				continue
			}
			if len(stuckTasks) == 0 {
				continue
			}

			r.logger.Info("found stuck tasks", "count", len(stuckTasks))

			for _, task := range stuckTasks {
				if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusPending,
					"Reset after being stuck in processing state"); err != nil {
					r.logger.Error("failed to reset stuck task status",
						"task_id", task.ID(),
						"task_type", task.Type(),
						"error", err)
					continue
				}
				r.requeue(ctx, task)
			}
		}
	}
}
