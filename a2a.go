// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package a2a defines the data model of the multi-turn task protocol engine:
// tasks, their lifecycle states, messages, artifacts and the discovery document.
package a2a

import (
	"slices"
	"time"
)

// Version is the current version of the A2A protocol implemented by the engine.
const Version = "0.2.5"

// TaskState represents the state of a Task.
type TaskState string

const (
	// TaskStateSubmitted indicates the task has been created and not yet started.
	TaskStateSubmitted TaskState = "submitted"

	// TaskStateWorking indicates the task is being worked on.
	TaskStateWorking TaskState = "working"

	// TaskStateInputRequired indicates the agent is waiting for another message.
	TaskStateInputRequired TaskState = "input-required"

	// TaskStateCompleted indicates the task has been completed.
	TaskStateCompleted TaskState = "completed"

	// TaskStateCanceled indicates the task has been canceled.
	TaskStateCanceled TaskState = "canceled"

	// TaskStateFailed indicates the task has failed.
	TaskStateFailed TaskState = "failed"
)

// TaskStates lists every state in lifecycle order.
var TaskStates = []TaskState{
	TaskStateSubmitted,
	TaskStateWorking,
	TaskStateInputRequired,
	TaskStateCompleted,
	TaskStateCanceled,
	TaskStateFailed,
}

// IsTerminal reports whether no further transitions are possible from s.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateCanceled, TaskStateFailed:
		return true
	default:
		return false
	}
}

// IsValid reports whether s is one of the known states.
func (s TaskState) IsValid() bool {
	return slices.Contains(TaskStates, s)
}

// String implements [fmt.Stringer].
func (s TaskState) String() string {
	return string(s)
}

// TaskStatus is the current state of a task together with an optional
// accompanying agent message.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitzero"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// NewTaskStatus returns a TaskStatus stamped with the current UTC time.
func NewTaskStatus(state TaskState, message *Message) TaskStatus {
	return TaskStatus{
		State:     state,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// Clone returns a deep copy of the status.
func (ts TaskStatus) Clone() TaskStatus {
	ts.Message = ts.Message.Clone()
	return ts
}

// Task is the unit of trackable work.
type Task struct {
	ID            string       `json:"id"`
	ContextID     string       `json:"contextId"`
	Status        TaskStatus   `json:"status"`
	StatusHistory []TaskStatus `json:"statusHistory,omitempty"`
	History       []*Message   `json:"history,omitempty"`
	Artifacts     []*Artifact  `json:"artifacts,omitempty"`
	Kind          string       `json:"kind"`
}

// KindTask is the discriminator value of a serialized Task.
const KindTask = "task"

// NewTask returns a freshly submitted task.
func NewTask(id, contextID string) *Task {
	return &Task{
		ID:        id,
		ContextID: contextID,
		Status:    NewTaskStatus(TaskStateSubmitted, nil),
		Kind:      KindTask,
	}
}

// IsTerminal reports whether the task reached a terminal state.
func (t *Task) IsTerminal() bool {
	return t.Status.State.IsTerminal()
}

// Clone returns a deep copy of the task, safe to hand to callers while the
// original keeps being mutated.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}

	c := &Task{
		ID:        t.ID,
		ContextID: t.ContextID,
		Status:    t.Status.Clone(),
		Kind:      t.Kind,
	}
	if t.StatusHistory != nil {
		c.StatusHistory = make([]TaskStatus, len(t.StatusHistory))
		for i, st := range t.StatusHistory {
			c.StatusHistory[i] = st.Clone()
		}
	}
	if t.History != nil {
		c.History = make([]*Message, len(t.History))
		for i, m := range t.History {
			c.History[i] = m.Clone()
		}
	}
	if t.Artifacts != nil {
		c.Artifacts = make([]*Artifact, len(t.Artifacts))
		for i, a := range t.Artifacts {
			c.Artifacts[i] = a.Clone()
		}
	}

	return c
}

// StateTrail returns the sequence of states the task went through, oldest
// first, ending with the current state.
func (t *Task) StateTrail() []TaskState {
	trail := make([]TaskState, 0, len(t.StatusHistory)+1)
	for _, st := range t.StatusHistory {
		trail = append(trail, st.State)
	}
	return append(trail, t.Status.State)
}
