package task

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTask is a controllable Task for runner tests.
type testTask struct {
	id        uuid.UUID
	executeFn func(ctx context.Context) error
}

func newTestTask(executeFn func(ctx context.Context) error) *testTask {
	if executeFn == nil {
		executeFn = func(context.Context) error { return nil }
	}
	return &testTask{id: uuid.New(), executeFn: executeFn}
}

func (t *testTask) ID() uuid.UUID      { return t.id }
func (t *testTask) Type() string       { return "test_task" }
func (t *testTask) Payload() []byte    { return []byte(`{}`) }
func (t *testTask) Status() TaskStatus { return TaskStatusPending }
func (t *testTask) Execute(ctx context.Context) error {
	return t.executeFn(ctx)
}

// storedRow mimics a task row loaded from the store: identity, type, and
// payload only, not executable.
type storedRow struct {
	id      uuid.UUID
	payload []byte
}

func newStoredRow(payload []byte) *storedRow {
	return &storedRow{id: uuid.New(), payload: payload}
}

func (t *storedRow) ID() uuid.UUID      { return t.id }
func (t *storedRow) Type() string       { return "test_task" }
func (t *storedRow) Payload() []byte    { return t.payload }
func (t *storedRow) Status() TaskStatus { return TaskStatusPending }
func (t *storedRow) Execute(context.Context) error {
	return errors.New("stored row is not executable")
}

// rebuildAsTestTask is a reconstructor that turns a stored row back into an
// executable testTask with the same id.
func rebuildAsTestTask(executeFn func(ctx context.Context) error) TaskReconstructor {
	return func(taskID uuid.UUID, _ []byte) (Task, error) {
		rebuilt := newTestTask(executeFn)
		rebuilt.id = taskID
		return rebuilt, nil
	}
}

// memoryTaskStore is an in-memory TaskStore that records status transitions.
type memoryTaskStore struct {
	mu         sync.Mutex
	saved      []Task
	statuses   map[uuid.UUID]TaskStatus
	messages   map[uuid.UUID]string
	pending    []Task
	processing []Task
	saveErr    error
}

func newMemoryTaskStore() *memoryTaskStore {
	return &memoryTaskStore{
		statuses: make(map[uuid.UUID]TaskStatus),
		messages: make(map[uuid.UUID]string),
	}
}

func (s *memoryTaskStore) SaveTask(_ context.Context, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, task)
	s.statuses[task.ID()] = TaskStatusPending
	return nil
}

func (s *memoryTaskStore) UpdateTaskStatus(_ context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[taskID] = status
	s.messages[taskID] = errorMsg
	return nil
}

func (s *memoryTaskStore) GetPendingTasks(_ context.Context) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Task(nil), s.pending...), nil
}

func (s *memoryTaskStore) GetProcessingTasks(_ context.Context, _ time.Duration) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Task(nil), s.processing...), nil
}

func (s *memoryTaskStore) WithTx(_ *sql.Tx) TaskStore { return s }

func (s *memoryTaskStore) statusOf(taskID uuid.UUID) TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[taskID]
}

func TestTaskRunnerProcessesSubmittedTask(t *testing.T) {
	t.Parallel()

	store := newMemoryTaskStore()
	runner := NewTaskRunner(store, TaskRunnerConfig{
		WorkerCount:  1,
		QueueSize:    10,
		StuckTaskAge: time.Hour,
	}, slog.Default())

	require.NoError(t, runner.Start())
	defer runner.Stop()

	done := make(chan struct{})
	task := newTestTask(func(context.Context) error {
		close(done)
		return nil
	})

	require.NoError(t, runner.Submit(context.Background(), task))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not executed")
	}

	require.Eventually(t, func() bool {
		return store.statusOf(task.ID()) == TaskStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTaskRunnerRecordsFailure(t *testing.T) {
	t.Parallel()

	store := newMemoryTaskStore()
	runner := NewTaskRunner(store, TaskRunnerConfig{
		WorkerCount:  1,
		QueueSize:    10,
		StuckTaskAge: time.Hour,
	}, slog.Default())

	var handlerCalled sync.WaitGroup
	handlerCalled.Add(1)
	runner.SetErrorHandler(func(Task, error) {
		handlerCalled.Done()
	})

	require.NoError(t, runner.Start())
	defer runner.Stop()

	task := newTestTask(func(context.Context) error {
		return errors.New("boom")
	})
	require.NoError(t, runner.Submit(context.Background(), task))

	handlerCalled.Wait()
	require.Eventually(t, func() bool {
		return store.statusOf(task.ID()) == TaskStatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, "boom", store.messages[task.ID()])
}

func TestTaskRunnerSubmitSaveFailure(t *testing.T) {
	t.Parallel()

	store := newMemoryTaskStore()
	store.saveErr = errors.New("db down")
	runner := NewTaskRunner(store, DefaultTaskRunnerConfig(), slog.Default())

	err := runner.Submit(context.Background(), newTestTask(nil))
	assert.Error(t, err)
}

func TestTaskRunnerSubmitQueueFull(t *testing.T) {
	t.Parallel()

	store := newMemoryTaskStore()
	// No workers started, so the single queue slot fills up.
	runner := NewTaskRunner(store, TaskRunnerConfig{
		WorkerCount: 1,
		QueueSize:   1,
	}, slog.Default())

	require.NoError(t, runner.Submit(context.Background(), newTestTask(nil)))
	err := runner.Submit(context.Background(), newTestTask(nil))
	assert.Error(t, err)
}

func TestTaskRunnerRecoverResetsProcessingTasks(t *testing.T) {
	t.Parallel()

	pending := newStoredRow([]byte(`{}`))
	interrupted := newStoredRow([]byte(`{}`))

	store := newMemoryTaskStore()
	store.pending = []Task{pending}
	store.processing = []Task{interrupted}

	runner := NewTaskRunner(store, TaskRunnerConfig{
		WorkerCount: 1,
		QueueSize:   10,
	}, slog.Default())
	runner.RegisterReconstructor("test_task", rebuildAsTestTask(nil))

	require.NoError(t, runner.Recover())

	// Interrupted processing task reset to pending, both rebuilt and requeued.
	assert.Equal(t, TaskStatusPending, store.statusOf(interrupted.ID()))
	assert.Len(t, runner.taskChan, 2)
}

func TestTaskRunnerRecoveredTaskExecutes(t *testing.T) {
	t.Parallel()

	row := newStoredRow([]byte(`{}`))
	store := newMemoryTaskStore()
	store.pending = []Task{row}
	store.statuses[row.ID()] = TaskStatusPending

	runner := NewTaskRunner(store, TaskRunnerConfig{
		WorkerCount:  1,
		QueueSize:    10,
		StuckTaskAge: time.Hour,
	}, slog.Default())

	done := make(chan struct{})
	runner.RegisterReconstructor("test_task", rebuildAsTestTask(func(context.Context) error {
		close(done)
		return nil
	}))

	require.NoError(t, runner.Start())
	defer runner.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("recovered task was not executed")
	}

	// The rebuilt task keeps the row's id, so the original record completes.
	require.Eventually(t, func() bool {
		return store.statusOf(row.ID()) == TaskStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTaskRunnerRecoverLeavesUnknownTypePending(t *testing.T) {
	t.Parallel()

	row := newStoredRow([]byte(`{}`))
	store := newMemoryTaskStore()
	store.pending = []Task{row}
	store.statuses[row.ID()] = TaskStatusPending

	runner := NewTaskRunner(store, TaskRunnerConfig{
		WorkerCount: 1,
		QueueSize:   10,
	}, slog.Default())

	// No reconstructor registered for "test_task".
	require.NoError(t, runner.Recover())

	assert.Empty(t, runner.taskChan)
	assert.Equal(t, TaskStatusPending, store.statusOf(row.ID()))
}

func TestTaskRunnerRecoverMarksUnreconstructableFailed(t *testing.T) {
	t.Parallel()

	row := newStoredRow([]byte(`not json`))
	store := newMemoryTaskStore()
	store.pending = []Task{row}

	runner := NewTaskRunner(store, TaskRunnerConfig{
		WorkerCount: 1,
		QueueSize:   10,
	}, slog.Default())
	runner.RegisterReconstructor("test_task", func(uuid.UUID, []byte) (Task, error) {
		return nil, errors.New("bad payload")
	})

	require.NoError(t, runner.Recover())

	assert.Empty(t, runner.taskChan)
	assert.Equal(t, TaskStatusFailed, store.statusOf(row.ID()))
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Contains(t, store.messages[row.ID()], "bad payload")
}
