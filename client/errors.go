// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"errors"
	"fmt"

	a2a "github.com/go-a2a/a2a-engine"
)

// RPCError is a JSON-RPC error returned by the agent.
type RPCError struct {
	// Code is the error code
	Code int `json:"code"`
	// Message is the error message
	Message string `json:"message"`
	// Data is optional additional information about the error
	Data any `json:"data,omitzero"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("rpc error: code = %d, message = %s, data = %v", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error: code = %d, message = %s", e.Code, e.Message)
}

// NewRPCError creates a new RPCError.
func NewRPCError(code int, message string, data any) *RPCError {
	return &RPCError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// HTTPError reports a response outside the JSON-RPC envelope.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status = %d, body = %s", e.StatusCode, e.Body)
}

// IsRPCError checks if an error is an RPCError with the specified code.
func IsRPCError(err error, code int) bool {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == code
	}
	return false
}

// IsTaskNotFoundError checks if an error is due to a task not being found.
func IsTaskNotFoundError(err error) bool {
	return IsRPCError(err, a2a.ErrorCodeTaskNotFound)
}

// IsTaskNotCancelableError checks if an error is due to a task not being cancelable.
func IsTaskNotCancelableError(err error) bool {
	return IsRPCError(err, a2a.ErrorCodeTaskNotCancelable)
}

// IsTaskClosedError checks if an error is due to a message sent to a closed task.
func IsTaskClosedError(err error) bool {
	return IsRPCError(err, a2a.ErrorCodeTaskClosed)
}

// IsTaskBusyError checks if an error is due to a task already running an invocation.
func IsTaskBusyError(err error) bool {
	return IsRPCError(err, a2a.ErrorCodeTaskBusy)
}

// IsInvalidTransitionError checks if an error is due to an illegal state transition.
func IsInvalidTransitionError(err error) bool {
	return IsRPCError(err, a2a.ErrorCodeInvalidTransition)
}

// IsUnsupportedOperationError checks if an error is due to an unsupported operation.
func IsUnsupportedOperationError(err error) bool {
	return IsRPCError(err, a2a.ErrorCodeUnsupportedOperation)
}
