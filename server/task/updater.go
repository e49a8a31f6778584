// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/telemetry"
	"github.com/go-a2a/a2a-engine/server/event"
)

// TaskUpdater drives one task through its lifecycle.
//
// Every operation is checked against the transition table and committed to
// the [TaskStore] atomically with its precondition, and the matching event is
// published while the task is still locked. The order of events on the
// task's channel therefore always matches its status history.
type TaskUpdater struct {
	taskID    string
	contextID string
	store     TaskStore
	queues    *event.QueueManager
	logger    *slog.Logger
	metrics   *telemetry.Metrics
}

// TaskUpdaterOption configures a [TaskUpdater].
type TaskUpdaterOption func(*TaskUpdater)

// WithUpdaterLogger sets the logger of the updater.
func WithUpdaterLogger(logger *slog.Logger) TaskUpdaterOption {
	return func(u *TaskUpdater) {
		u.logger = logger
	}
}

// WithUpdaterMetrics sets the instruments the updater records to.
func WithUpdaterMetrics(m *telemetry.Metrics) TaskUpdaterOption {
	return func(u *TaskUpdater) {
		u.metrics = m
	}
}

// NewTaskUpdater returns the updater of the task taskID in contextID.
func NewTaskUpdater(store TaskStore, queues *event.QueueManager, taskID, contextID string, opts ...TaskUpdaterOption) *TaskUpdater {
	u := &TaskUpdater{
		taskID:    taskID,
		contextID: contextID,
		store:     store,
		queues:    queues,
		logger:    slog.Default(),
		metrics:   telemetry.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// TaskID returns the task the updater drives.
func (u *TaskUpdater) TaskID() string { return u.taskID }

// ContextID returns the context of the task.
func (u *TaskUpdater) ContextID() string { return u.contextID }

// Begin records the incoming user message and opens the next turn of the
// task's event channel. When created is set the task was minted for this
// message and its submitted status is announced first.
//
// A message for a closed task fails with [a2a.TaskClosedError]; a message
// for a task that cannot start work fails with [a2a.InvalidTransitionError].
func (u *TaskUpdater) Begin(ctx context.Context, msg *a2a.Message, created bool) (*event.EventQueue, error) {
	msg = msg.Clone()
	msg.TaskID = u.taskID
	msg.ContextID = u.contextID

	var q *event.EventQueue
	_, err := u.store.Append(ctx, u.taskID, Update{
		Precondition: func(cur a2a.TaskState) error {
			if CanTransition(cur, OpStartWork) {
				return nil
			}
			return a2a.InvalidTransitionError{TaskID: u.taskID, From: cur, Operation: "message"}
		},
		Message: msg,
		OnApplied: func(t *a2a.Task) {
			q = u.queues.Open(u.taskID)
			if created {
				ev := event.NewTaskStatusUpdateEvent(u.taskID, u.contextID, t.Status, false)
				if err := q.EnqueueEvent(ev); err != nil {
					u.logger.ErrorContext(ctx, "failed to publish submitted status",
						slog.String("task_id", u.taskID), slog.Any("error", err))
				}
			}
		},
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// StartWork moves the task to working.
func (u *TaskUpdater) StartWork(ctx context.Context, msg *a2a.Message) (*a2a.Task, error) {
	return u.Apply(ctx, OpStartWork, msg)
}

// RequiresInput ends the invocation waiting for another message. msg is the
// agent's question.
func (u *TaskUpdater) RequiresInput(ctx context.Context, msg *a2a.Message) (*a2a.Task, error) {
	return u.Apply(ctx, OpRequiresInput, msg)
}

// Complete closes the task successfully.
func (u *TaskUpdater) Complete(ctx context.Context, msg *a2a.Message) (*a2a.Task, error) {
	return u.Apply(ctx, OpComplete, msg)
}

// Fail closes the task as failed.
func (u *TaskUpdater) Fail(ctx context.Context, msg *a2a.Message) (*a2a.Task, error) {
	return u.Apply(ctx, OpFail, msg)
}

// Cancel closes the task as canceled.
func (u *TaskUpdater) Cancel(ctx context.Context, msg *a2a.Message) (*a2a.Task, error) {
	return u.Apply(ctx, OpCancel, msg)
}

// AgentMessage builds an agent text message bound to the task.
func (u *TaskUpdater) AgentMessage(text string) *a2a.Message {
	return a2a.NewAgentTextMessage(text, u.contextID, u.taskID)
}

// Apply performs a state changing operation. Illegal operations fail with
// [a2a.InvalidTransitionError] and leave the task untouched.
func (u *TaskUpdater) Apply(ctx context.Context, op Operation, msg *a2a.Message) (*a2a.Task, error) {
	to, ok := Target(op)
	if !ok {
		return nil, fmt.Errorf("operation %s does not change the task state", op)
	}
	if msg != nil {
		msg = msg.Clone()
		msg.TaskID = u.taskID
		msg.ContextID = u.contextID
	}
	status := a2a.NewTaskStatus(to, msg)
	final := IsFinal(op)

	t, err := u.store.Append(ctx, u.taskID, Update{
		Precondition: guard(u.taskID, op),
		Status:       &status,
		OnApplied: func(t *a2a.Task) {
			u.publish(ctx, event.NewTaskStatusUpdateEvent(u.taskID, u.contextID, t.Status, final))
		},
	})
	u.record(ctx, op, to, err)
	if err != nil {
		return nil, err
	}

	u.logger.DebugContext(ctx, "task transitioned",
		slog.String("task_id", u.taskID),
		slog.String("operation", string(op)),
		slog.String("state", to.String()),
	)
	return t, nil
}

// AddArtifact attaches artifact to the working task. It fails with
// [event.ErrQueueFull], leaving the task untouched, when the current turn has
// no room left for the artifact event.
func (u *TaskUpdater) AddArtifact(ctx context.Context, artifact *a2a.Artifact) (*a2a.Task, error) {
	allowed := guard(u.taskID, OpAddArtifact)
	t, err := u.store.Append(ctx, u.taskID, Update{
		Precondition: func(cur a2a.TaskState) error {
			if err := allowed(cur); err != nil {
				return err
			}
			if err := u.queues.Reserve(u.taskID, false); err != nil {
				return fmt.Errorf("add artifact: %w", err)
			}
			return nil
		},
		Artifact: artifact,
		OnApplied: func(*a2a.Task) {
			u.publish(ctx, event.NewTaskArtifactUpdateEvent(u.taskID, u.contextID, artifact.Clone()))
		},
	})
	u.record(ctx, OpAddArtifact, a2a.TaskStateWorking, err)
	return t, err
}

func (u *TaskUpdater) publish(ctx context.Context, ev event.Event) {
	if err := u.queues.Publish(ev); err != nil {
		u.logger.ErrorContext(ctx, "failed to publish task event",
			slog.String("task_id", u.taskID),
			slog.String("event", ev.EventType()),
			slog.Any("error", err),
		)
	}
}

func (u *TaskUpdater) record(ctx context.Context, op Operation, to a2a.TaskState, err error) {
	attrs := metric.WithAttributes(telemetry.KeyOperation.String(string(op)))
	if err != nil {
		u.metrics.RejectedTransitions.Add(ctx, 1, attrs)
		return
	}
	u.metrics.Transitions.Add(ctx, 1, attrs, stateAttr(to))
}
