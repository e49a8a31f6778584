// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"errors"
	"testing"

	a2a "github.com/go-a2a/a2a-engine"
)

func TestQueueManagerTurns(t *testing.T) {
	m := NewQueueManager(WithMaxQueueSize(8))

	if q := m.Current("task-1"); q != nil {
		t.Fatalf("Current before Open = %v, want nil", q)
	}

	first := m.Open("task-1")
	if first.Turn() != 1 {
		t.Errorf("first turn = %d, want 1", first.Turn())
	}
	if err := m.Publish(statusEvent("task-1", a2a.TaskStateWorking, false)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := m.Publish(statusEvent("task-1", a2a.TaskStateInputRequired, true)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if !first.IsClosed() {
		t.Error("turn 1 queue still open after final event")
	}

	second := m.Open("task-1")
	if second == first {
		t.Fatal("Open returned the closed queue")
	}
	if second.Turn() != 2 || m.Turn("task-1") != 2 {
		t.Errorf("second turn = %d (manager %d), want 2", second.Turn(), m.Turn("task-1"))
	}
	if second.TaskID() != "task-1" {
		t.Errorf("TaskID() = %q, want task-1", second.TaskID())
	}
	if m.Current("task-1") != second {
		t.Error("Current does not return the latest queue")
	}
	if got := first.Len(); got != 2 {
		t.Errorf("turn 1 len = %d, want 2", got)
	}
}

func TestQueueManagerOpenClosesPrevious(t *testing.T) {
	m := NewQueueManager()
	first := m.Open("task-1")
	m.Open("task-1")
	if !first.IsClosed() {
		t.Error("previous open queue not closed by Open")
	}
}

func TestQueueManagerPublishOpensTurnWhenIdle(t *testing.T) {
	m := NewQueueManager()
	m.Open("task-1")
	if err := m.Publish(statusEvent("task-1", a2a.TaskStateInputRequired, true)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if err := m.Publish(statusEvent("task-1", a2a.TaskStateCanceled, true)); err != nil {
		t.Fatalf("Publish on idle task failed: %v", err)
	}
	if got := m.Turn("task-1"); got != 2 {
		t.Errorf("Turn() = %d, want 2", got)
	}

	c, err := m.Tap("task-1")
	if err != nil {
		t.Fatalf("Tap failed: %v", err)
	}
	ev, err := c.Next(t.Context())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if !ev.IsFinal() || ev.(*TaskStatusUpdateEvent).Status.State != a2a.TaskStateCanceled {
		t.Errorf("tapped event = %v, want final canceled", ev)
	}
}

func TestQueueManagerIsolatesTasks(t *testing.T) {
	m := NewQueueManager()
	m.Open("task-1")
	m.Open("task-2")

	if err := m.Publish(statusEvent("task-1", a2a.TaskStateCanceled, true)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if m.Current("task-2").IsClosed() {
		t.Error("closing task-1's turn closed task-2's queue")
	}
	if m.Count() != 2 {
		t.Errorf("Count() = %d, want 2", m.Count())
	}
	_, err := m.Tap("task-3")
	var ip a2a.InvalidParamsError
	if !errors.As(err, &ip) {
		t.Errorf("Tap on unknown task = %v, want InvalidParamsError", err)
	}
	if got := a2a.ErrorCode(err); got != a2a.ErrorCodeInvalidParams {
		t.Errorf("ErrorCode(Tap error) = %d, want %d", got, a2a.ErrorCodeInvalidParams)
	}
}

func TestQueueManagerReserve(t *testing.T) {
	m := NewQueueManager(WithMaxQueueSize(2))
	if err := m.Reserve("idle", false); err != nil {
		t.Errorf("Reserve on a task without a queue = %v, want nil", err)
	}

	m.Open("task-1")
	if err := m.Publish(statusEvent("task-1", a2a.TaskStateWorking, false)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := m.Reserve("task-1", false); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Reserve(false) = %v, want %v", err, ErrQueueFull)
	}
	if err := m.Reserve("task-1", true); err != nil {
		t.Errorf("Reserve(true) = %v, want nil", err)
	}

	if err := m.Publish(statusEvent("task-1", a2a.TaskStateCompleted, true)); err != nil {
		t.Fatalf("Publish final failed: %v", err)
	}
	if err := m.Reserve("task-1", false); err != nil {
		t.Errorf("Reserve after the turn closed = %v, want nil", err)
	}
}
