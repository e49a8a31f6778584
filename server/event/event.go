// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package event implements the per-task event channel: lifecycle events are
// pushed onto a short-lived queue per invocation ("turn") and drained by the
// transport layer in push order.
package event

import (
	"errors"
	"fmt"

	a2a "github.com/go-a2a/a2a-engine"
)

// Event kinds as serialized on the wire.
const (
	KindStatusUpdate   = "status-update"
	KindArtifactUpdate = "artifact-update"
)

// Event is the unit carried by an [EventQueue].
type Event interface {
	// EventType returns the kind of the event.
	EventType() string

	// GetTaskID returns the task the event belongs to.
	GetTaskID() string

	// IsFinal reports whether this is the last event of the current invocation.
	IsFinal() bool

	// Validate ensures the event is in a valid state.
	Validate() error
}

// TaskStatusUpdateEvent reports a status change of a task.
type TaskStatusUpdateEvent struct {
	TaskID    string         `json:"taskId"`
	ContextID string         `json:"contextId"`
	Kind      string         `json:"kind"`
	Status    a2a.TaskStatus `json:"status"`
	Final     bool           `json:"final"`
}

var _ Event = (*TaskStatusUpdateEvent)(nil)

// NewTaskStatusUpdateEvent creates a new TaskStatusUpdateEvent.
func NewTaskStatusUpdateEvent(taskID, contextID string, status a2a.TaskStatus, final bool) *TaskStatusUpdateEvent {
	return &TaskStatusUpdateEvent{
		TaskID:    taskID,
		ContextID: contextID,
		Kind:      KindStatusUpdate,
		Status:    status,
		Final:     final,
	}
}

// EventType implements [Event].
func (e *TaskStatusUpdateEvent) EventType() string { return KindStatusUpdate }

// GetTaskID implements [Event].
func (e *TaskStatusUpdateEvent) GetTaskID() string { return e.TaskID }

// IsFinal implements [Event].
func (e *TaskStatusUpdateEvent) IsFinal() bool { return e.Final }

// Validate implements [Event].
func (e *TaskStatusUpdateEvent) Validate() error {
	if e.TaskID == "" {
		return errors.New("task status update event task ID cannot be empty")
	}
	if !e.Status.State.IsValid() {
		return fmt.Errorf("task status update event has invalid state %q", e.Status.State)
	}
	return nil
}

// String returns a string representation of the event.
func (e *TaskStatusUpdateEvent) String() string {
	return fmt.Sprintf("TaskStatusUpdateEvent{TaskID: %s, State: %s, Final: %t}", e.TaskID, e.Status.State, e.Final)
}

// TaskArtifactUpdateEvent reports an artifact attached to a task. It is never
// final.
type TaskArtifactUpdateEvent struct {
	TaskID    string        `json:"taskId"`
	ContextID string        `json:"contextId"`
	Kind      string        `json:"kind"`
	Artifact  *a2a.Artifact `json:"artifact"`
	Final     bool          `json:"final"`
}

var _ Event = (*TaskArtifactUpdateEvent)(nil)

// NewTaskArtifactUpdateEvent creates a new TaskArtifactUpdateEvent.
func NewTaskArtifactUpdateEvent(taskID, contextID string, artifact *a2a.Artifact) *TaskArtifactUpdateEvent {
	return &TaskArtifactUpdateEvent{
		TaskID:    taskID,
		ContextID: contextID,
		Kind:      KindArtifactUpdate,
		Artifact:  artifact,
	}
}

// EventType implements [Event].
func (e *TaskArtifactUpdateEvent) EventType() string { return KindArtifactUpdate }

// GetTaskID implements [Event].
func (e *TaskArtifactUpdateEvent) GetTaskID() string { return e.TaskID }

// IsFinal implements [Event].
func (e *TaskArtifactUpdateEvent) IsFinal() bool { return false }

// Validate implements [Event].
func (e *TaskArtifactUpdateEvent) Validate() error {
	if e.TaskID == "" {
		return errors.New("task artifact update event task ID cannot be empty")
	}
	if e.Final {
		return errors.New("task artifact update event cannot be final")
	}
	return e.Artifact.Validate()
}

// String returns a string representation of the event.
func (e *TaskArtifactUpdateEvent) String() string {
	id := "nil"
	if e.Artifact != nil {
		id = e.Artifact.ArtifactID
	}
	return fmt.Sprintf("TaskArtifactUpdateEvent{TaskID: %s, Artifact: %s}", e.TaskID, id)
}
