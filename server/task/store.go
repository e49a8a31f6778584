// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"

	a2a "github.com/go-a2a/a2a-engine"
)

// TaskStore is the authoritative registry of tasks.
//
// Tasks are never saved wholesale: every mutation goes through Append, which
// applies one change atomically with respect to any other mutation of the
// same task. Snapshots returned by a TaskStore are deep copies.
type TaskStore interface {
	// GetOrCreate returns the task addressed by taskID, or mints a new task
	// in contextID when taskID is empty. The boolean reports whether the task
	// was created by this call.
	GetOrCreate(ctx context.Context, contextID, taskID string) (*a2a.Task, bool, error)

	// Get returns a snapshot of the task, or [a2a.TaskNotFoundError].
	Get(ctx context.Context, taskID string) (*a2a.Task, error)

	// Append applies u to the task and returns the resulting snapshot.
	Append(ctx context.Context, taskID string, u Update) (*a2a.Task, error)

	// List returns the tasks of contextID in creation order.
	List(ctx context.Context, contextID string) ([]*a2a.Task, error)

	// Acquire reserves the invocation slot of the task. The returned release
	// func must be called exactly once.
	Acquire(ctx context.Context, taskID string) (release func(), err error)
}

// Update is one atomic mutation of a task.
type Update struct {
	// Precondition, when set, is evaluated against the current state under
	// the task lock. A non-nil error aborts the update with the task unchanged.
	Precondition func(current a2a.TaskState) error

	// Message is appended to the task history.
	Message *a2a.Message

	// Artifact is appended to the task artifacts.
	Artifact *a2a.Artifact

	// Status replaces the current status; the previous one moves to the
	// status history. A status message is also recorded in the history.
	Status *a2a.TaskStatus

	// OnApplied runs under the task lock once the update is committed, with
	// a snapshot of the task. It must not call back into the store for the
	// same task.
	OnApplied func(snapshot *a2a.Task)
}

// IsZero reports whether u changes nothing.
func (u Update) IsZero() bool {
	return u.Message == nil && u.Artifact == nil && u.Status == nil
}

// Mirror receives a copy of every committed task state, for durability or
// inspection. The in-memory store stays authoritative.
type Mirror interface {
	Save(ctx context.Context, task *a2a.Task) error
}

// BusyPolicy decides what happens when a message addresses a task whose
// invocation slot is taken.
type BusyPolicy string

const (
	// BusyReject fails the second message with [a2a.TaskBusyError].
	BusyReject BusyPolicy = "reject"

	// BusyWait queues the second message until the slot frees up or its
	// context is done.
	BusyWait BusyPolicy = "wait"
)

// ParseBusyPolicy parses s into a BusyPolicy. The empty string selects [BusyReject].
func ParseBusyPolicy(s string) (BusyPolicy, error) {
	switch p := BusyPolicy(s); p {
	case "":
		return BusyReject, nil
	case BusyReject, BusyWait:
		return p, nil
	default:
		return "", fmt.Errorf("unknown busy policy %q", s)
	}
}
