// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"
)

// Error codes reported on the JSON-RPC binding.
const (
	ErrorCodeJSONParse            = -32700
	ErrorCodeInvalidRequest       = -32600
	ErrorCodeMethodNotFound       = -32601
	ErrorCodeInvalidParams        = -32602
	ErrorCodeInternalError        = -32603
	ErrorCodeTaskNotFound         = -32001
	ErrorCodeTaskNotCancelable    = -32002
	ErrorCodeUnsupportedOperation = -32004
	ErrorCodeInvalidTransition    = -32010
	ErrorCodeTaskClosed           = -32011
	ErrorCodeTaskBusy             = -32012
)

// TaskNotFoundError reports an unknown task id.
type TaskNotFoundError struct {
	TaskID string
}

// Error implements error.
func (e TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// InvalidTransitionError reports a state machine operation that is not legal
// from the task's current state. The task is left unchanged.
type InvalidTransitionError struct {
	TaskID    string
	From      TaskState
	Operation string
}

// Error implements error.
func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("task %s: %s is not allowed from state %s", e.TaskID, e.Operation, e.From)
}

// TaskClosedError reports a mutation attempted on a task in a terminal state.
type TaskClosedError struct {
	TaskID string
	State  TaskState
}

// Error implements error.
func (e TaskClosedError) Error() string {
	return fmt.Sprintf("task %s is closed in state %s", e.TaskID, e.State)
}

// TaskBusyError reports a message addressing a task that already has an
// invocation in flight.
type TaskBusyError struct {
	TaskID string
}

// Error implements error.
func (e TaskBusyError) Error() string {
	return fmt.Sprintf("task %s is busy with another invocation", e.TaskID)
}

// BusinessLogicError wraps an error raised by the pluggable agent logic.
type BusinessLogicError struct {
	TaskID string
	Err    error
}

// Error implements error.
func (e BusinessLogicError) Error() string {
	return fmt.Sprintf("agent logic failed for task %s: %v", e.TaskID, e.Err)
}

// Unwrap returns the underlying error.
func (e BusinessLogicError) Unwrap() error {
	return e.Err
}

// UnsupportedOperationError reports an entry point disabled by the agent card.
type UnsupportedOperationError struct {
	Operation string
}

// Error implements error.
func (e UnsupportedOperationError) Error() string {
	return fmt.Sprintf("operation not supported: %s", e.Operation)
}

// InvalidParamsError reports a malformed request payload.
type InvalidParamsError struct {
	Reason string
}

// Error implements error.
func (e InvalidParamsError) Error() string {
	return "invalid params: " + e.Reason
}

// IsProtocolError reports whether err belongs to the protocol-misuse class:
// errors surfaced to the caller without any task side effect.
func IsProtocolError(err error) bool {
	var (
		nf TaskNotFoundError
		it InvalidTransitionError
		tc TaskClosedError
		tb TaskBusyError
		uo UnsupportedOperationError
		ip InvalidParamsError
	)
	return errors.As(err, &nf) || errors.As(err, &it) || errors.As(err, &tc) ||
		errors.As(err, &tb) || errors.As(err, &uo) || errors.As(err, &ip)
}

// ErrorCode maps err to its JSON-RPC error code.
func ErrorCode(err error) int {
	var (
		nf TaskNotFoundError
		it InvalidTransitionError
		tc TaskClosedError
		tb TaskBusyError
		uo UnsupportedOperationError
		ip InvalidParamsError
	)
	switch {
	case errors.As(err, &nf):
		return ErrorCodeTaskNotFound
	case errors.As(err, &it):
		if it.Operation == "cancel" {
			return ErrorCodeTaskNotCancelable
		}
		return ErrorCodeInvalidTransition
	case errors.As(err, &tc):
		return ErrorCodeTaskClosed
	case errors.As(err, &tb):
		return ErrorCodeTaskBusy
	case errors.As(err, &uo):
		return ErrorCodeUnsupportedOperation
	case errors.As(err, &ip):
		return ErrorCodeInvalidParams
	default:
		return ErrorCodeInternalError
	}
}
