// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent_execution defines the seam between the protocol engine and the
// pluggable business logic of an agent.
package agent_execution

import (
	"context"
	"errors"

	a2a "github.com/go-a2a/a2a-engine"
)

// Agent is the business logic plugged into the engine.
//
// Process is invoked once per incoming message with the message text and the
// conversation context id. It must not touch task state: the engine turns the
// returned [Outcome] into lifecycle transitions. ctx is canceled when the task
// is canceled or the invocation times out, and carries the [RequestContext].
type Agent interface {
	Process(ctx context.Context, input, contextID string) (*Outcome, error)
}

// AgentFunc adapts a function to the [Agent] interface.
type AgentFunc func(ctx context.Context, input, contextID string) (*Outcome, error)

var _ Agent = AgentFunc(nil)

// Process implements [Agent].
func (f AgentFunc) Process(ctx context.Context, input, contextID string) (*Outcome, error) {
	return f(ctx, input, contextID)
}

// Outcome is what one invocation of the logic produced.
type Outcome struct {
	// Response is the agent's reply text.
	Response string

	// NeedsInput asks for another message from the user. Response then
	// carries the question and the invocation ends in input-required.
	NeedsInput bool

	// Result is structured output, attached as a data artifact when the
	// task completes and no explicit Artifacts are given.
	Result map[string]any

	// Artifacts are attached in order before the task completes.
	Artifacts []*a2a.Artifact
}

// Validate ensures the outcome can be applied to a task.
func (o *Outcome) Validate() error {
	if o == nil {
		return errors.New("agent returned a nil outcome")
	}
	if o.NeedsInput && o.Response == "" {
		return errors.New("an outcome asking for input needs a response")
	}
	for _, a := range o.Artifacts {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ResultArtifacts returns the artifacts to attach on completion.
func (o *Outcome) ResultArtifacts(name string) []*a2a.Artifact {
	if len(o.Artifacts) > 0 {
		return o.Artifacts
	}
	if o.Result != nil {
		return []*a2a.Artifact{a2a.NewDataArtifact(name, o.Result)}
	}
	return nil
}
