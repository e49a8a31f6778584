// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/telemetry"
)

// InMemoryTaskStore is the in-memory implementation of [TaskStore].
//
// There is no store-wide lock: each task carries its own mutex, and the
// context index is guarded per context, so unrelated tasks never contend.
// Task data is lost when the process stops unless a [Mirror] is attached.
type InMemoryTaskStore struct {
	tasks    sync.Map // map[string]*taskRecord
	contexts sync.Map // map[string]*contextRecord

	mirror  Mirror
	policy  BusyPolicy
	newID   func() string
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

var _ TaskStore = (*InMemoryTaskStore)(nil)

type taskRecord struct {
	mu   sync.Mutex
	task *a2a.Task
	// slot holds a token while an invocation of the task is in flight.
	slot chan struct{}
}

type contextRecord struct {
	mu      sync.Mutex
	taskIDs []string
}

// InMemoryTaskStoreOption configures an [InMemoryTaskStore].
type InMemoryTaskStoreOption func(*InMemoryTaskStore)

// WithMirror attaches m, which receives every committed task state.
func WithMirror(m Mirror) InMemoryTaskStoreOption {
	return func(s *InMemoryTaskStore) {
		s.mirror = m
	}
}

// WithBusyPolicy sets how [InMemoryTaskStore.Acquire] handles a taken slot.
func WithBusyPolicy(p BusyPolicy) InMemoryTaskStoreOption {
	return func(s *InMemoryTaskStore) {
		s.policy = p
	}
}

// WithIDGenerator overrides the task id generator.
func WithIDGenerator(fn func() string) InMemoryTaskStoreOption {
	return func(s *InMemoryTaskStore) {
		s.newID = fn
	}
}

// WithStoreLogger sets the logger of the store.
func WithStoreLogger(logger *slog.Logger) InMemoryTaskStoreOption {
	return func(s *InMemoryTaskStore) {
		s.logger = logger
	}
}

// WithStoreMetrics sets the instruments the store records to.
func WithStoreMetrics(m *telemetry.Metrics) InMemoryTaskStoreOption {
	return func(s *InMemoryTaskStore) {
		s.metrics = m
	}
}

// NewInMemoryTaskStore creates a new InMemoryTaskStore.
func NewInMemoryTaskStore(opts ...InMemoryTaskStoreOption) *InMemoryTaskStore {
	s := &InMemoryTaskStore{
		policy:  BusyReject,
		newID:   uuid.NewString,
		logger:  slog.Default(),
		metrics: telemetry.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryTaskStore) record(taskID string) (*taskRecord, error) {
	v, ok := s.tasks.Load(taskID)
	if !ok {
		return nil, a2a.TaskNotFoundError{TaskID: taskID}
	}
	return v.(*taskRecord), nil
}

// GetOrCreate implements [TaskStore].
//
// Minting is atomic: the id is reserved and registered under its context in
// one step, so two concurrent callers never share a task and a listing of the
// context never misses a task that is already reachable by id.
func (s *InMemoryTaskStore) GetOrCreate(ctx context.Context, contextID, taskID string) (*a2a.Task, bool, error) {
	if taskID != "" {
		t, err := s.Get(ctx, taskID)
		return t, false, err
	}
	if contextID == "" {
		return nil, false, a2a.InvalidParamsError{Reason: "context id is required to create a task"}
	}

	v, _ := s.contexts.LoadOrStore(contextID, &contextRecord{})
	cr := v.(*contextRecord)

	cr.mu.Lock()
	defer cr.mu.Unlock()

	var rec *taskRecord
	for {
		rec = &taskRecord{
			task: a2a.NewTask(s.newID(), contextID),
			slot: make(chan struct{}, 1),
		}
		if _, loaded := s.tasks.LoadOrStore(rec.task.ID, rec); !loaded {
			break
		}
		s.logger.WarnContext(ctx, "task id collision, minting again", slog.String("task_id", rec.task.ID))
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if s.mirror != nil {
		if err := s.mirror.Save(ctx, rec.task); err != nil {
			s.tasks.Delete(rec.task.ID)
			return nil, false, NewTaskStoreError("create", rec.task.ID, err)
		}
	}
	cr.taskIDs = append(cr.taskIDs, rec.task.ID)
	s.metrics.TasksCreated.Add(ctx, 1)

	return rec.task.Clone(), true, nil
}

// Get implements [TaskStore].
func (s *InMemoryTaskStore) Get(ctx context.Context, taskID string) (*a2a.Task, error) {
	if taskID == "" {
		return nil, a2a.InvalidParamsError{Reason: "task id is required"}
	}
	rec, err := s.record(taskID)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	return rec.task.Clone(), nil
}

// Append implements [TaskStore].
//
// A closed task is immutable: every update on it fails with
// [a2a.TaskClosedError] before the precondition is evaluated.
func (s *InMemoryTaskStore) Append(ctx context.Context, taskID string, u Update) (*a2a.Task, error) {
	rec, err := s.record(taskID)
	if err != nil {
		return nil, err
	}
	if u.Artifact != nil {
		if err := u.Artifact.Validate(); err != nil {
			return nil, a2a.InvalidParamsError{Reason: err.Error()}
		}
	}
	if u.Status != nil && !u.Status.State.IsValid() {
		return nil, a2a.InvalidParamsError{Reason: fmt.Sprintf("unknown task state %q", u.Status.State)}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	cur := rec.task
	if cur.IsTerminal() {
		return nil, a2a.TaskClosedError{TaskID: taskID, State: cur.Status.State}
	}
	if u.Precondition != nil {
		if err := u.Precondition(cur.Status.State); err != nil {
			return nil, err
		}
	}
	if u.IsZero() {
		return cur.Clone(), nil
	}

	next := cur.Clone()
	if u.Message != nil {
		next.History = append(next.History, u.Message.Clone())
	}
	if u.Artifact != nil {
		next.Artifacts = append(next.Artifacts, u.Artifact.Clone())
	}
	if u.Status != nil {
		next.StatusHistory = append(next.StatusHistory, next.Status)
		next.Status = u.Status.Clone()
		if next.Status.Message != nil {
			next.History = append(next.History, next.Status.Message.Clone())
		}
	}

	if s.mirror != nil {
		if err := s.mirror.Save(ctx, next); err != nil {
			return nil, NewTaskStoreError("append", taskID, err)
		}
	}
	rec.task = next

	if u.OnApplied != nil {
		u.OnApplied(next.Clone())
	}

	return next.Clone(), nil
}

// List implements [TaskStore]. An unknown context has no tasks.
func (s *InMemoryTaskStore) List(ctx context.Context, contextID string) ([]*a2a.Task, error) {
	v, ok := s.contexts.Load(contextID)
	if !ok {
		return []*a2a.Task{}, nil
	}
	cr := v.(*contextRecord)

	cr.mu.Lock()
	ids := append([]string(nil), cr.taskIDs...)
	cr.mu.Unlock()

	tasks := make([]*a2a.Task, 0, len(ids))
	for _, id := range ids {
		t, err := s.Get(ctx, id)
		if err != nil {
			return nil, NewTaskStoreError("list", id, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Acquire implements [TaskStore].
func (s *InMemoryTaskStore) Acquire(ctx context.Context, taskID string) (func(), error) {
	rec, err := s.record(taskID)
	if err != nil {
		return nil, err
	}

	switch s.policy {
	case BusyWait:
		select {
		case rec.slot <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	default:
		select {
		case rec.slot <- struct{}{}:
		default:
			return nil, a2a.TaskBusyError{TaskID: taskID}
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-rec.slot })
	}, nil
}

// Len returns the number of tasks in the store.
func (s *InMemoryTaskStore) Len() int {
	n := 0
	s.tasks.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// stateAttr returns the metric option tagging a measurement with state.
func stateAttr(state a2a.TaskState) metric.MeasurementOption {
	return metric.WithAttributes(telemetry.KeyState.String(state.String()))
}
