// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"context"
	"fmt"

	a2a "github.com/go-a2a/a2a-engine"
)

// RequestContext describes the invocation the logic is serving.
type RequestContext struct {
	TaskID    string
	ContextID string

	// Message is the incoming user message.
	Message *a2a.Message

	// Task is a snapshot of the task taken when the invocation began.
	Task *a2a.Task

	// RelatedTasks are the other tasks of the same context, in creation
	// order. Only populated when the builder is configured to.
	RelatedTasks []*a2a.Task
}

// NewRequestContext creates a new RequestContext.
func NewRequestContext(msg *a2a.Message, task *a2a.Task) *RequestContext {
	return &RequestContext{
		TaskID:    task.ID,
		ContextID: task.ContextID,
		Message:   msg,
		Task:      task,
	}
}

// IsContinuation reports whether the message resumes a task that was
// waiting for input.
func (rc *RequestContext) IsContinuation() bool {
	return rc.Task != nil && rc.Task.Status.State == a2a.TaskStateInputRequired
}

// UserInput returns the text of the incoming message.
func (rc *RequestContext) UserInput() string {
	return rc.Message.Text()
}

// Validate ensures the RequestContext is complete.
func (rc *RequestContext) Validate() error {
	if rc.TaskID == "" {
		return fmt.Errorf("request context task ID cannot be empty")
	}
	if rc.ContextID == "" {
		return fmt.Errorf("request context context ID cannot be empty")
	}
	if rc.Message == nil {
		return fmt.Errorf("request context message cannot be nil")
	}
	return nil
}

type requestContextKey struct{}

// ContextWithRequestContext returns a copy of ctx carrying rc.
func ContextWithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// RequestContextFrom returns the RequestContext carried by ctx, if any.
func RequestContextFrom(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc, ok
}
