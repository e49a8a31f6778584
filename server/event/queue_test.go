// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	a2a "github.com/go-a2a/a2a-engine"
)

func statusEvent(taskID string, state a2a.TaskState, final bool) *TaskStatusUpdateEvent {
	return NewTaskStatusUpdateEvent(taskID, "ctx-1", a2a.TaskStatus{State: state}, final)
}

func kinds(events []Event) []string {
	var out []string
	for _, ev := range events {
		switch e := ev.(type) {
		case *TaskStatusUpdateEvent:
			out = append(out, string(e.Status.State))
		case *TaskArtifactUpdateEvent:
			out = append(out, "artifact:"+e.Artifact.Name)
		}
	}
	return out
}

func TestEventQueueClosesAfterFinal(t *testing.T) {
	q := NewEventQueue("task-1", 1, 0)

	if err := q.EnqueueEvent(statusEvent("task-1", a2a.TaskStateWorking, false)); err != nil {
		t.Fatalf("EnqueueEvent(working) failed: %v", err)
	}
	if q.IsClosed() {
		t.Fatal("queue closed before final event")
	}
	if err := q.EnqueueEvent(statusEvent("task-1", a2a.TaskStateCompleted, true)); err != nil {
		t.Fatalf("EnqueueEvent(completed) failed: %v", err)
	}
	if !q.IsClosed() {
		t.Fatal("queue still open after final event")
	}

	err := q.EnqueueEvent(statusEvent("task-1", a2a.TaskStateWorking, false))
	if !errors.Is(err, ErrQueueClosed) {
		t.Errorf("EnqueueEvent after final = %v, want %v", err, ErrQueueClosed)
	}
}

func TestEventQueueRejects(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
	}{
		{name: "nil event", ev: nil},
		{name: "other task", ev: statusEvent("task-2", a2a.TaskStateWorking, false)},
		{name: "invalid state", ev: statusEvent("task-1", a2a.TaskState("bogus"), false)},
		{name: "final artifact", ev: &TaskArtifactUpdateEvent{TaskID: "task-1", Artifact: a2a.NewTextArtifact("a", "x"), Final: true}},
		{name: "artifact without parts", ev: NewTaskArtifactUpdateEvent("task-1", "ctx-1", &a2a.Artifact{ArtifactID: "a"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewEventQueue("task-1", 1, 0)
			if err := q.EnqueueEvent(tt.ev); err == nil {
				t.Error("EnqueueEvent succeeded, want error")
			}
			if q.Len() != 0 {
				t.Errorf("Len() = %d, want 0", q.Len())
			}
		})
	}
}

func TestEventQueueBound(t *testing.T) {
	q := NewEventQueue("task-1", 1, 3)
	for range 2 {
		if err := q.EnqueueEvent(statusEvent("task-1", a2a.TaskStateWorking, false)); err != nil {
			t.Fatalf("EnqueueEvent failed: %v", err)
		}
	}
	if err := q.EnqueueEvent(statusEvent("task-1", a2a.TaskStateWorking, false)); !errors.Is(err, ErrQueueFull) {
		t.Errorf("EnqueueEvent into the final slot = %v, want %v", err, ErrQueueFull)
	}
	if err := q.Reserve(false); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Reserve(false) = %v, want %v", err, ErrQueueFull)
	}
	if err := q.Reserve(true); err != nil {
		t.Errorf("Reserve(true) = %v, want room for the final event", err)
	}
	if err := q.EnqueueEvent(statusEvent("task-1", a2a.TaskStateCompleted, true)); err != nil {
		t.Fatalf("final EnqueueEvent failed: %v", err)
	}
	if !q.IsClosed() {
		t.Error("queue still open after the final event")
	}
	if err := q.Reserve(true); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Reserve on a closed queue = %v, want %v", err, ErrQueueClosed)
	}
}

func TestEventQueueMinimumBound(t *testing.T) {
	q := NewEventQueue("task-1", 1, 1)
	if err := q.EnqueueEvent(statusEvent("task-1", a2a.TaskStateWorking, false)); err != nil {
		t.Fatalf("EnqueueEvent failed: %v", err)
	}
	if err := q.EnqueueEvent(statusEvent("task-1", a2a.TaskStateFailed, true)); err != nil {
		t.Fatalf("final EnqueueEvent failed: %v", err)
	}
}

func TestEventConsumerLateReaderReplays(t *testing.T) {
	q := NewEventQueue("task-1", 1, 0)
	pushed := []Event{
		statusEvent("task-1", a2a.TaskStateSubmitted, false),
		statusEvent("task-1", a2a.TaskStateWorking, false),
		NewTaskArtifactUpdateEvent("task-1", "ctx-1", a2a.NewTextArtifact("booking", "ok")),
		statusEvent("task-1", a2a.TaskStateCompleted, true),
	}
	for _, ev := range pushed {
		if err := q.EnqueueEvent(ev); err != nil {
			t.Fatalf("EnqueueEvent failed: %v", err)
		}
	}

	c := q.Subscribe()
	var got []Event
	for {
		ev, err := c.Next(t.Context())
		if errors.Is(err, ErrQueueClosed) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		got = append(got, ev)
	}

	if diff := cmp.Diff(kinds(pushed), kinds(got)); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestEventConsumerConcurrentReaders(t *testing.T) {
	q := NewEventQueue("task-1", 1, 0)
	want := []string{"submitted", "working", "working", "working", "input-required"}

	const readers = 4
	results := make([][]string, readers)
	var wg sync.WaitGroup
	for i := range readers {
		c := q.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			var evs []Event
			for ev := range c.ConsumeAll(context.Background()) {
				evs = append(evs, ev)
			}
			results[i] = kinds(evs)
		}()
	}

	for i, state := range want {
		final := i == len(want)-1
		if err := q.EnqueueEvent(statusEvent("task-1", a2a.TaskState(state), final)); err != nil {
			t.Fatalf("EnqueueEvent failed: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
	wg.Wait()

	for i, got := range results {
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("reader %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestEventConsumerContextCanceled(t *testing.T) {
	q := NewEventQueue("task-1", 1, 0)
	c := q.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := c.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Next on idle queue = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestEventQueueExplicitClose(t *testing.T) {
	q := NewEventQueue("task-1", 1, 0)
	c := q.Subscribe()

	done := make(chan error, 1)
	go func() {
		_, err := c.Next(context.Background())
		done <- err
	}()

	q.Close()
	q.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrQueueClosed) {
			t.Errorf("Next after Close = %v, want %v", err, ErrQueueClosed)
		}
	case <-time.After(time.Second):
		t.Fatal("reader not woken by Close")
	}
}
