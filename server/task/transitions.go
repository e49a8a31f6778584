// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"slices"

	a2a "github.com/go-a2a/a2a-engine"
)

// Operation is a lifecycle operation of the task state machine.
type Operation string

const (
	OpStartWork     Operation = "startWork"
	OpRequiresInput Operation = "requiresInput"
	OpComplete      Operation = "complete"
	OpCancel        Operation = "cancel"
	OpFail          Operation = "fail"
	OpAddArtifact   Operation = "addArtifact"
)

// Operations lists every lifecycle operation.
var Operations = []Operation{
	OpStartWork,
	OpRequiresInput,
	OpComplete,
	OpCancel,
	OpFail,
	OpAddArtifact,
}

type transition struct {
	from []a2a.TaskState
	// to is empty for operations that leave the state alone.
	to a2a.TaskState
	// final marks the event closing the current invocation.
	final bool
}

// transitions is the whole lifecycle. Any (state, operation) pair missing
// here is illegal.
var transitions = map[Operation]transition{
	OpStartWork: {
		from: []a2a.TaskState{a2a.TaskStateSubmitted, a2a.TaskStateInputRequired},
		to:   a2a.TaskStateWorking,
	},
	OpRequiresInput: {
		from:  []a2a.TaskState{a2a.TaskStateWorking},
		to:    a2a.TaskStateInputRequired,
		final: true,
	},
	OpComplete: {
		from:  []a2a.TaskState{a2a.TaskStateWorking},
		to:    a2a.TaskStateCompleted,
		final: true,
	},
	OpFail: {
		from:  []a2a.TaskState{a2a.TaskStateWorking},
		to:    a2a.TaskStateFailed,
		final: true,
	},
	OpCancel: {
		from:  []a2a.TaskState{a2a.TaskStateSubmitted, a2a.TaskStateWorking, a2a.TaskStateInputRequired},
		to:    a2a.TaskStateCanceled,
		final: true,
	},
	OpAddArtifact: {
		from: []a2a.TaskState{a2a.TaskStateWorking},
	},
}

// CanTransition reports whether op is legal from state.
func CanTransition(from a2a.TaskState, op Operation) bool {
	t, ok := transitions[op]
	return ok && slices.Contains(t.from, from)
}

// Target returns the state op leads to, and false for operations that do not
// change the state.
func Target(op Operation) (a2a.TaskState, bool) {
	t, ok := transitions[op]
	if !ok || t.to == "" {
		return "", false
	}
	return t.to, true
}

// IsFinal reports whether the status event emitted by op ends the invocation.
func IsFinal(op Operation) bool {
	return transitions[op].final
}

func guard(taskID string, op Operation) func(a2a.TaskState) error {
	return func(cur a2a.TaskState) error {
		if !CanTransition(cur, op) {
			return a2a.InvalidTransitionError{TaskID: taskID, From: cur, Operation: string(op)}
		}
		return nil
	}
}
