// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"fmt"
	"sync"

	a2a "github.com/go-a2a/a2a-engine"
)

// QueueManager hands out the event queues of every task.
//
// Each task owns a sequence of short-lived queues, one per invocation. Only
// the latest queue of a task is retained, so memory stays bounded by one
// invocation's worth of events per task while the task id stays the same
// across turns.
type QueueManager struct {
	maxQueueSize int
	streams      sync.Map // map[string]*stream
}

type stream struct {
	mu      sync.Mutex
	turn    int
	current *EventQueue
}

// QueueManagerOption configures a [QueueManager].
type QueueManagerOption func(*QueueManager)

// WithMaxQueueSize sets the per-invocation event bound.
func WithMaxQueueSize(size int) QueueManagerOption {
	return func(m *QueueManager) {
		m.maxQueueSize = size
	}
}

// NewQueueManager creates a new QueueManager.
func NewQueueManager(opts ...QueueManagerOption) *QueueManager {
	m := &QueueManager{maxQueueSize: DefaultMaxQueueSize}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *QueueManager) stream(taskID string) *stream {
	s, _ := m.streams.LoadOrStore(taskID, &stream{})
	return s.(*stream)
}

// Open starts the next turn of taskID and returns its fresh queue. A previous
// queue left open is closed first.
func (m *QueueManager) Open(taskID string) *EventQueue {
	s := m.stream(taskID)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.openLocked(taskID, m.maxQueueSize)
}

func (s *stream) openLocked(taskID string, maxSize int) *EventQueue {
	if s.current != nil {
		s.current.Close()
	}
	s.turn++
	s.current = NewEventQueue(taskID, s.turn, maxSize)
	return s.current
}

// Current returns the latest queue of taskID, or nil if none was opened.
func (m *QueueManager) Current(taskID string) *EventQueue {
	v, ok := m.streams.Load(taskID)
	if !ok {
		return nil
	}
	s := v.(*stream)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Publish pushes ev onto the open queue of its task. When the task has no
// open queue, for instance an out-of-band cancel of an idle task, a new turn
// is opened for it.
func (m *QueueManager) Publish(ev Event) error {
	if ev == nil {
		return fmt.Errorf("event cannot be nil")
	}
	taskID := ev.GetTaskID()
	s := m.stream(taskID)

	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.current
	if q == nil || q.IsClosed() {
		q = s.openLocked(taskID, m.maxQueueSize)
	}
	return q.EnqueueEvent(ev)
}

// Reserve reports whether an event with the given finality can be published
// for taskID. A task without an open queue always has room, since
// [QueueManager.Publish] starts a new turn for it.
func (m *QueueManager) Reserve(taskID string, final bool) error {
	q := m.Current(taskID)
	if q == nil || q.IsClosed() {
		return nil
	}
	return q.Reserve(final)
}

// Tap subscribes to the latest queue of taskID from its first event.
func (m *QueueManager) Tap(taskID string) (*EventConsumer, error) {
	q := m.Current(taskID)
	if q == nil {
		return nil, a2a.InvalidParamsError{Reason: fmt.Sprintf("task %s has no event stream", taskID)}
	}
	return q.Subscribe(), nil
}

// Turn returns the number of invocations opened for taskID.
func (m *QueueManager) Turn(taskID string) int {
	v, ok := m.streams.Load(taskID)
	if !ok {
		return 0
	}
	s := v.(*stream)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// Close closes the latest queue of taskID, if any.
func (m *QueueManager) Close(taskID string) {
	if q := m.Current(taskID); q != nil {
		q.Close()
	}
}

// Count returns the number of tasks with a queue.
func (m *QueueManager) Count() int {
	n := 0
	m.streams.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
