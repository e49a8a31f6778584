// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"context"
	"fmt"

	a2a "github.com/go-a2a/a2a-engine"
)

// RequestContextBuilder builds the [RequestContext] supplied to the logic.
type RequestContextBuilder interface {
	Build(ctx context.Context, msg *a2a.Message, task *a2a.Task) (*RequestContext, error)
}

// TaskLister lists the tasks of a context in creation order.
type TaskLister interface {
	List(ctx context.Context, contextID string) ([]*a2a.Task, error)
}

// SimpleRequestContextBuilder is the default [RequestContextBuilder]. It can
// be configured to populate the other tasks of the same context.
type SimpleRequestContextBuilder struct {
	lister TaskLister
}

var _ RequestContextBuilder = (*SimpleRequestContextBuilder)(nil)

// NewSimpleRequestContextBuilder creates a builder. A nil lister leaves
// related tasks empty.
func NewSimpleRequestContextBuilder(lister TaskLister) *SimpleRequestContextBuilder {
	return &SimpleRequestContextBuilder{lister: lister}
}

// Build implements [RequestContextBuilder].
func (b *SimpleRequestContextBuilder) Build(ctx context.Context, msg *a2a.Message, task *a2a.Task) (*RequestContext, error) {
	if task == nil {
		return nil, fmt.Errorf("task cannot be nil")
	}
	rc := NewRequestContext(msg, task)
	if err := rc.Validate(); err != nil {
		return nil, err
	}

	if b.lister != nil {
		tasks, err := b.lister.List(ctx, task.ContextID)
		if err != nil {
			return nil, fmt.Errorf("failed to populate related tasks: %w", err)
		}
		for _, t := range tasks {
			if t.ID != task.ID {
				rc.RelatedTasks = append(rc.RelatedTasks, t)
			}
		}
	}

	return rc, nil
}
