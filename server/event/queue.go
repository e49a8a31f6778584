// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultMaxQueueSize bounds the number of events one invocation may push,
// the final event included.
const DefaultMaxQueueSize = 64

var (
	// ErrQueueClosed is returned when pushing to, or reading past the end of,
	// a closed queue.
	ErrQueueClosed = errors.New("event queue is closed")

	// ErrQueueFull is returned when an invocation exceeds the queue bound.
	ErrQueueFull = errors.New("event queue is full")
)

// EventQueue buffers the events of one invocation of a task.
//
// Pushing never blocks: every event of the invocation is retained until the
// queue is dropped, so a reader attaching late still observes the whole
// invocation from its first event, in push order. The queue closes itself
// right after a final event is pushed.
type EventQueue struct {
	taskID  string
	turn    int
	maxSize int

	mu     sync.Mutex
	events []Event
	closed bool
	// changed is closed and replaced whenever an event is pushed or the
	// queue is closed.
	changed chan struct{}
}

// NewEventQueue creates the queue for the given turn of a task.
func NewEventQueue(taskID string, turn, maxSize int) *EventQueue {
	if maxSize <= 0 {
		maxSize = DefaultMaxQueueSize
	}
	// One slot for the opening status and one for the final event.
	maxSize = max(maxSize, 2)
	return &EventQueue{
		taskID:  taskID,
		turn:    turn,
		maxSize: maxSize,
		changed: make(chan struct{}),
	}
}

// EnqueueEvent appends ev to the queue.
func (q *EventQueue) EnqueueEvent(ev Event) error {
	if ev == nil {
		return errors.New("event cannot be nil")
	}
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}
	if ev.GetTaskID() != q.taskID {
		return fmt.Errorf("event for task %s pushed to queue of task %s", ev.GetTaskID(), q.taskID)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if err := q.roomLocked(ev.IsFinal()); err != nil {
		return err
	}

	q.events = append(q.events, ev)
	if ev.IsFinal() {
		q.closed = true
	}
	q.broadcast()

	return nil
}

// roomLocked reports whether one more event fits. The last slot is kept for
// the final event so every invocation can always be closed.
func (q *EventQueue) roomLocked(final bool) error {
	limit := q.maxSize
	if !final {
		limit--
	}
	if len(q.events) >= limit {
		return ErrQueueFull
	}
	return nil
}

// Reserve reports whether an event with the given finality can still be
// pushed. It returns [ErrQueueClosed] or [ErrQueueFull] otherwise.
func (q *EventQueue) Reserve(final bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	return q.roomLocked(final)
}

// Close closes the queue for future pushes. Closing twice is a no-op.
func (q *EventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.broadcast()
}

func (q *EventQueue) broadcast() {
	close(q.changed)
	q.changed = make(chan struct{})
}

// TaskID returns the task the queue belongs to.
func (q *EventQueue) TaskID() string { return q.taskID }

// Turn returns the invocation number of the queue, starting at 1.
func (q *EventQueue) Turn() int { return q.turn }

// IsClosed reports whether the queue is closed.
func (q *EventQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of events pushed so far.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Events returns a snapshot of the events pushed so far.
func (q *EventQueue) Events() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Event(nil), q.events...)
}

// Subscribe returns a consumer positioned at the first event of the queue.
func (q *EventQueue) Subscribe() *EventConsumer {
	return &EventConsumer{queue: q}
}

// at returns the event at idx if present. Otherwise it returns whether the
// queue is closed and a channel signalled on the next change.
func (q *EventQueue) at(idx int) (Event, bool, <-chan struct{}) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if idx < len(q.events) {
		return q.events[idx], false, nil
	}
	return nil, q.closed, q.changed
}

// String returns a string representation of the queue.
func (q *EventQueue) String() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return fmt.Sprintf("EventQueue{task: %s, turn: %d, len: %d, closed: %t}", q.taskID, q.turn, len(q.events), q.closed)
}

// EventConsumer reads the events of an [EventQueue] in push order.
// A consumer is not safe for concurrent use; each reader subscribes its own.
type EventConsumer struct {
	queue *EventQueue
	next  int
}

// Next blocks until the next event is available. It returns [ErrQueueClosed]
// once the queue is closed and every event has been read.
func (c *EventConsumer) Next(ctx context.Context) (Event, error) {
	for {
		ev, closed, changed := c.queue.at(c.next)
		if ev != nil {
			c.next++
			return ev, nil
		}
		if closed {
			return nil, ErrQueueClosed
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// ConsumeAll streams every event of the queue on the returned channel, which
// is closed after the final event or when ctx is done.
func (c *EventConsumer) ConsumeAll(ctx context.Context) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			ev, err := c.Next(ctx)
			if err != nil {
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
