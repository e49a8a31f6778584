// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package handler dispatches protocol requests onto the task engine and
// adapts them to the JSON-RPC over HTTP binding.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/telemetry"
	"github.com/go-a2a/a2a-engine/server/agent_execution"
	"github.com/go-a2a/a2a-engine/server/event"
	"github.com/go-a2a/a2a-engine/server/task"
)

// RequestHandler handles the protocol operations independently of the
// transport they arrive on.
type RequestHandler interface {
	// AgentCard returns the discovery document of the agent.
	AgentCard() *a2a.AgentCard

	// OnMessageSend submits a message and waits for the invocation it
	// triggers to end, returning the resulting task.
	OnMessageSend(ctx context.Context, params *a2a.MessageSendParams) (*a2a.Task, error)

	// OnMessageSendStream submits a message and streams the events of the
	// invocation. The channel is closed after the final event.
	OnMessageSendStream(ctx context.Context, params *a2a.MessageSendParams) (<-chan event.Event, error)

	// OnGetTask returns a snapshot of a task.
	OnGetTask(ctx context.Context, params *a2a.TaskIDParams) (*a2a.Task, error)

	// OnCancelTask cancels a task. Canceling a terminal task is a no-op.
	OnCancelTask(ctx context.Context, params *a2a.TaskIDParams) (*a2a.CancelTaskResult, error)

	// OnResubscribe replays the events of the latest invocation of a task
	// and follows it until its final event.
	OnResubscribe(ctx context.Context, params *a2a.TaskIDParams) (<-chan event.Event, error)

	// OnListTasks returns the tasks of a context in creation order.
	OnListTasks(ctx context.Context, params *a2a.ListTasksParams) (*a2a.ListTasksResult, error)
}

// DefaultRequestHandler is the engine's [RequestHandler].
//
// It owns the task store and the event channels, and runs the agent logic
// once per incoming message.
type DefaultRequestHandler struct {
	agent   agent_execution.Agent
	card    *a2a.AgentCard
	store   task.TaskStore
	queues  *event.QueueManager
	builder agent_execution.RequestContextBuilder

	timeout      time.Duration
	artifactName string

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *telemetry.Metrics

	// inflight maps a task id to the cancel func of its running invocation.
	inflight sync.Map
	wg       sync.WaitGroup
}

var _ RequestHandler = (*DefaultRequestHandler)(nil)

// NewDefaultRequestHandler creates a handler running agent and advertising card.
func NewDefaultRequestHandler(agent agent_execution.Agent, card *a2a.AgentCard, opts ...Option) *DefaultRequestHandler {
	if agent == nil {
		panic("agent cannot be nil")
	}

	h := &DefaultRequestHandler{
		agent:        agent,
		card:         card,
		artifactName: "result",
		logger:       slog.Default(),
		tracer:       telemetry.Tracer(),
		metrics:      telemetry.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.store == nil {
		h.store = task.NewInMemoryTaskStore(
			task.WithStoreLogger(h.logger),
			task.WithStoreMetrics(h.metrics),
		)
	}
	if h.queues == nil {
		h.queues = event.NewQueueManager()
	}
	if h.builder == nil {
		h.builder = agent_execution.NewSimpleRequestContextBuilder(nil)
	}

	return h
}

// AgentCard implements [RequestHandler].
func (h *DefaultRequestHandler) AgentCard() *a2a.AgentCard {
	return h.card
}

// Store returns the task store of the handler.
func (h *DefaultRequestHandler) Store() task.TaskStore {
	return h.store
}

// OnMessageSend implements [RequestHandler].
//
// The invocation is detached from ctx: if ctx is done first, the error is
// returned but the task keeps going and can be queried later.
func (h *DefaultRequestHandler) OnMessageSend(ctx context.Context, params *a2a.MessageSendParams) (*a2a.Task, error) {
	ctx, span := h.tracer.Start(ctx, "a2a.handler.OnMessageSend")
	defer span.End()

	inv, err := h.begin(ctx, params)
	if err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(telemetry.KeyTaskID.String(inv.updater.TaskID()))

	done := h.start(ctx, inv)
	select {
	case <-done:
	case <-ctx.Done():
		return nil, spanError(span, ctx.Err())
	}

	t, err := h.store.Get(ctx, inv.updater.TaskID())
	if err != nil {
		return nil, spanError(span, err)
	}
	return t, nil
}

// OnMessageSendStream implements [RequestHandler].
func (h *DefaultRequestHandler) OnMessageSendStream(ctx context.Context, params *a2a.MessageSendParams) (<-chan event.Event, error) {
	ctx, span := h.tracer.Start(ctx, "a2a.handler.OnMessageSendStream")
	defer span.End()

	if !h.capabilities().Streaming {
		return nil, spanError(span, a2a.UnsupportedOperationError{Operation: a2a.MethodMessageStream})
	}

	inv, err := h.begin(ctx, params)
	if err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(telemetry.KeyTaskID.String(inv.updater.TaskID()))

	// Subscribe before starting so the reader cannot miss an event.
	consumer := inv.queue.Subscribe()
	h.start(ctx, inv)

	return consumer.ConsumeAll(ctx), nil
}

// OnGetTask implements [RequestHandler].
func (h *DefaultRequestHandler) OnGetTask(ctx context.Context, params *a2a.TaskIDParams) (*a2a.Task, error) {
	ctx, span := h.tracer.Start(ctx, "a2a.handler.OnGetTask")
	defer span.End()

	if err := params.Validate(); err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(telemetry.KeyTaskID.String(params.ID))

	t, err := h.store.Get(ctx, params.ID)
	if err != nil {
		return nil, spanError(span, err)
	}
	return t, nil
}

// OnCancelTask implements [RequestHandler].
//
// Cancel never waits for the invocation in flight: it closes the task, then
// signals the invocation through its context. Whatever the logic returns
// afterwards is discarded.
func (h *DefaultRequestHandler) OnCancelTask(ctx context.Context, params *a2a.TaskIDParams) (*a2a.CancelTaskResult, error) {
	ctx, span := h.tracer.Start(ctx, "a2a.handler.OnCancelTask")
	defer span.End()

	if !h.capabilities().Cancellation {
		return nil, spanError(span, a2a.UnsupportedOperationError{Operation: a2a.MethodTasksCancel})
	}
	if err := params.Validate(); err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(telemetry.KeyTaskID.String(params.ID))

	t, err := h.store.Get(ctx, params.ID)
	if err != nil {
		return nil, spanError(span, err)
	}
	if t.IsTerminal() {
		return &a2a.CancelTaskResult{Task: t, NoOp: true}, nil
	}

	u := h.updater(t.ID, t.ContextID)
	canceled, err := u.Cancel(ctx, nil)
	if err != nil {
		var closed a2a.TaskClosedError
		if errors.As(err, &closed) {
			// Lost the race against the invocation closing the task.
			t, err := h.store.Get(ctx, params.ID)
			if err != nil {
				return nil, spanError(span, err)
			}
			return &a2a.CancelTaskResult{Task: t, NoOp: true}, nil
		}
		return nil, spanError(span, err)
	}

	if v, ok := h.inflight.Load(t.ID); ok {
		v.(context.CancelCauseFunc)(errTaskCanceled)
	}
	h.logger.InfoContext(ctx, "task canceled", slog.String("task_id", t.ID))

	return &a2a.CancelTaskResult{Task: canceled}, nil
}

// OnResubscribe implements [RequestHandler].
func (h *DefaultRequestHandler) OnResubscribe(ctx context.Context, params *a2a.TaskIDParams) (<-chan event.Event, error) {
	ctx, span := h.tracer.Start(ctx, "a2a.handler.OnResubscribe")
	defer span.End()

	if !h.capabilities().Streaming {
		return nil, spanError(span, a2a.UnsupportedOperationError{Operation: a2a.MethodTasksResubscribe})
	}
	if err := params.Validate(); err != nil {
		return nil, spanError(span, err)
	}
	if _, err := h.store.Get(ctx, params.ID); err != nil {
		return nil, spanError(span, err)
	}

	consumer, err := h.queues.Tap(params.ID)
	if err != nil {
		return nil, spanError(span, err)
	}
	return consumer.ConsumeAll(ctx), nil
}

// OnListTasks implements [RequestHandler].
func (h *DefaultRequestHandler) OnListTasks(ctx context.Context, params *a2a.ListTasksParams) (*a2a.ListTasksResult, error) {
	ctx, span := h.tracer.Start(ctx, "a2a.handler.OnListTasks")
	defer span.End()

	if err := params.Validate(); err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(telemetry.KeyContextID.String(params.ContextID))

	tasks, err := h.store.List(ctx, params.ContextID)
	if err != nil {
		return nil, spanError(span, err)
	}
	return &a2a.ListTasksResult{Tasks: tasks}, nil
}

// Wait blocks until every invocation started by the handler has returned,
// or ctx is done.
func (h *DefaultRequestHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *DefaultRequestHandler) capabilities() a2a.AgentCapabilities {
	if h.card == nil {
		return a2a.AgentCapabilities{}
	}
	return h.card.Capabilities
}

func (h *DefaultRequestHandler) updater(taskID, contextID string) *task.TaskUpdater {
	return task.NewTaskUpdater(h.store, h.queues, taskID, contextID,
		task.WithUpdaterLogger(h.logger),
		task.WithUpdaterMetrics(h.metrics),
	)
}

// newContextID mints the id of a conversation the caller did not name.
func newContextID() string {
	return uuid.NewString()
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
