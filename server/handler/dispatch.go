// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/metric"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/telemetry"
	"github.com/go-a2a/a2a-engine/server/agent_execution"
	"github.com/go-a2a/a2a-engine/server/event"
	"github.com/go-a2a/a2a-engine/server/task"
)

var (
	errTaskCanceled      = errors.New("task canceled")
	errInvocationTimeout = errors.New("invocation timed out")
)

// invocation is one run of the agent logic for one incoming message.
type invocation struct {
	msg     *a2a.Message
	updater *task.TaskUpdater
	queue   *event.EventQueue
	release func()
}

// begin resolves the task addressed by params, takes its invocation slot and
// records the message. On success the caller owns inv.release.
func (h *DefaultRequestHandler) begin(ctx context.Context, params *a2a.MessageSendParams) (*invocation, error) {
	if params == nil {
		return nil, a2a.InvalidParamsError{Reason: "params are required"}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	msg := params.Message.Clone()
	if msg.TaskID == "" && msg.ContextID == "" {
		msg.ContextID = newContextID()
	}

	t, created, err := h.store.GetOrCreate(ctx, msg.ContextID, msg.TaskID)
	if err != nil {
		return nil, err
	}
	if msg.ContextID != "" && msg.ContextID != t.ContextID {
		return nil, a2a.InvalidParamsError{
			Reason: fmt.Sprintf("task %s belongs to context %s, not %s", t.ID, t.ContextID, msg.ContextID),
		}
	}
	msg.TaskID = t.ID
	msg.ContextID = t.ContextID

	release, err := h.store.Acquire(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	u := h.updater(t.ID, t.ContextID)
	q, err := u.Begin(ctx, msg, created)
	if err != nil {
		release()
		return nil, err
	}

	h.logger.DebugContext(ctx, "message accepted",
		slog.String("task_id", t.ID),
		slog.String("context_id", t.ContextID),
		slog.Bool("created", created),
		slog.Int("turn", q.Turn()),
	)

	return &invocation{
		msg:     msg,
		updater: u,
		queue:   q,
		release: release,
	}, nil
}

// start runs inv in the background. The returned channel is closed once the
// invocation has left the task in a state waiting for the next message.
func (h *DefaultRequestHandler) start(ctx context.Context, inv *invocation) <-chan struct{} {
	done := make(chan struct{})
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer close(done)
		defer inv.release()
		h.execute(context.WithoutCancel(ctx), inv)
	}()
	return done
}

type logicResult struct {
	outcome *agent_execution.Outcome
	err     error
}

// execute drives the task through one invocation of the logic. Store and
// event operations use ctx; the logic gets its own context canceled by
// tasks/cancel or the invocation timeout.
func (h *DefaultRequestHandler) execute(ctx context.Context, inv *invocation) {
	u := inv.updater
	taskID := u.TaskID()

	ctx, span := h.tracer.Start(ctx, "a2a.handler.invoke")
	span.SetAttributes(telemetry.KeyTaskID.String(taskID), telemetry.KeyContextID.String(u.ContextID()))
	defer span.End()

	lctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if h.timeout > 0 {
		var stop context.CancelFunc
		lctx, stop = context.WithTimeoutCause(lctx, h.timeout, errInvocationTimeout)
		defer stop()
	}
	h.inflight.Store(taskID, cancel)
	defer h.inflight.Delete(taskID)

	t, err := u.StartWork(ctx, nil)
	if err != nil {
		h.discard(ctx, taskID, "start work", err)
		return
	}

	rc, err := h.builder.Build(ctx, inv.msg, t)
	if err != nil {
		h.failTask(ctx, u, fmt.Errorf("build request context: %w", err))
		return
	}
	lctx = agent_execution.ContextWithRequestContext(lctx, rc)

	started := time.Now()
	results := make(chan logicResult, 1)
	go func() {
		out, err := h.invoke(lctx, inv.msg.Text(), u.ContextID())
		results <- logicResult{out, err}
	}()

	var res logicResult
	select {
	case res = <-results:
	case <-lctx.Done():
		res.err = context.Cause(lctx)
	}
	if res.err != nil && lctx.Err() != nil {
		// The logic gave up because its context ended; report why.
		res.err = context.Cause(lctx)
	}
	h.recordInvocation(ctx, started, res.err)

	switch {
	case errors.Is(res.err, errTaskCanceled):
		h.logger.InfoContext(ctx, "invocation abandoned after cancel", slog.String("task_id", taskID))
		return
	case errors.Is(res.err, errInvocationTimeout):
		h.failTask(ctx, u, fmt.Errorf("%w after %s", errInvocationTimeout, h.timeout))
		return
	case res.err != nil:
		h.failTask(ctx, u, res.err)
		return
	}

	if err := res.outcome.Validate(); err != nil {
		h.failTask(ctx, u, err)
		return
	}
	h.applyOutcome(ctx, u, res.outcome)
}

// invoke calls the logic, turning a panic into an error.
func (h *DefaultRequestHandler) invoke(ctx context.Context, input, contextID string) (out *agent_execution.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.ErrorContext(ctx, "agent logic panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("agent logic panicked: %v", r)
		}
	}()
	return h.agent.Process(ctx, input, contextID)
}

func (h *DefaultRequestHandler) applyOutcome(ctx context.Context, u *task.TaskUpdater, out *agent_execution.Outcome) {
	msg := u.AgentMessage(out.Response)
	if out.Response == "" {
		msg = nil
	}

	if out.NeedsInput {
		if _, err := u.RequiresInput(ctx, msg); err != nil {
			h.discard(ctx, u.TaskID(), "requires input", err)
		}
		return
	}

	for _, a := range out.ResultArtifacts(h.artifactName) {
		if _, err := u.AddArtifact(ctx, a); err != nil {
			if errors.Is(err, event.ErrQueueFull) {
				h.failTask(ctx, u, err)
				return
			}
			h.discard(ctx, u.TaskID(), "add artifact", err)
			return
		}
	}
	if _, err := u.Complete(ctx, msg); err != nil {
		h.discard(ctx, u.TaskID(), "complete", err)
	}
}

// failTask closes the task as failed, reporting err to the caller in the
// status message.
func (h *DefaultRequestHandler) failTask(ctx context.Context, u *task.TaskUpdater, err error) {
	logicErr := a2a.BusinessLogicError{TaskID: u.TaskID(), Err: err}
	h.logger.ErrorContext(ctx, "invocation failed",
		slog.String("task_id", u.TaskID()),
		slog.Any("error", logicErr),
	)
	if _, ferr := u.Fail(ctx, u.AgentMessage("Task failed: "+err.Error())); ferr != nil {
		h.discard(ctx, u.TaskID(), "fail", ferr)
	}
}

// discard logs a transition the task could no longer take, which happens
// when a cancel overtook the invocation.
func (h *DefaultRequestHandler) discard(ctx context.Context, taskID, step string, err error) {
	level := slog.LevelWarn
	if !a2a.IsProtocolError(err) {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "discarding invocation result",
		slog.String("task_id", taskID),
		slog.String("step", step),
		slog.Any("error", err),
	)
}

func (h *DefaultRequestHandler) recordInvocation(ctx context.Context, started time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, errTaskCanceled):
		outcome = "canceled"
	case errors.Is(err, errInvocationTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	attrs := metric.WithAttributes(telemetry.KeyOutcome.String(outcome))
	h.metrics.Invocations.Add(ctx, 1, attrs)
	h.metrics.InvocationLatency.Record(ctx, time.Since(started).Seconds(), attrs)
}
