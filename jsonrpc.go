// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"

	"github.com/go-json-experiment/json/jsontext"
)

// JSON-RPC method names.
const (
	// MethodMessageSend submits a message and waits for one dispatch cycle.
	MethodMessageSend = "message/send"
	// MethodMessageStream submits a message and streams the turn's events.
	MethodMessageStream = "message/stream"
	// MethodTasksGet queries a task.
	MethodTasksGet = "tasks/get"
	// MethodTasksCancel cancels a task.
	MethodTasksCancel = "tasks/cancel"
	// MethodTasksResubscribe reattaches to the event channel of a task.
	MethodTasksResubscribe = "tasks/resubscribe"
	// MethodTasksList lists the tasks of a context.
	MethodTasksList = "tasks/list"
)

// JSONRPCVersion is the protocol version carried by every envelope.
const JSONRPCVersion = "2.0"

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      jsontext.Value `json:"id,omitzero"`
	Method  string         `json:"method"`
	Params  jsontext.Value `json:"params,omitzero"`
}

// Validate ensures the request envelope is well formed.
func (r *JSONRPCRequest) Validate() error {
	if r.JSONRPC != JSONRPCVersion {
		return errors.New(`jsonrpc must be "2.0"`)
	}
	if r.Method == "" {
		return errors.New("method cannot be empty")
	}
	return nil
}

// JSONRPCError represents a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements error.
func (e *JSONRPCError) Error() string {
	return e.Message
}

// NewJSONRPCError maps err onto a JSON-RPC error object.
func NewJSONRPCError(err error) *JSONRPCError {
	var rpcErr *JSONRPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return &JSONRPCError{Code: ErrorCode(err), Message: err.Error()}
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      jsontext.Value `json:"id,omitzero"`
	Result  any            `json:"result,omitzero"`
	Error   *JSONRPCError  `json:"error,omitzero"`
}

// NewJSONRPCResult builds a success response echoing id.
func NewJSONRPCResult(id jsontext.Value, result any) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: JSONRPCVersion, ID: id, Result: result}
}

// NewJSONRPCErrorResponse builds an error response echoing id.
func NewJSONRPCErrorResponse(id jsontext.Value, err error) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: JSONRPCVersion, ID: id, Error: NewJSONRPCError(err)}
}

// MessageSendParams are the params of message/send and message/stream.
type MessageSendParams struct {
	Message *Message `json:"message"`
}

// Validate ensures the params are valid.
func (p *MessageSendParams) Validate() error {
	if p.Message == nil {
		return InvalidParamsError{Reason: "message is required"}
	}
	if err := p.Message.Validate(); err != nil {
		return InvalidParamsError{Reason: err.Error()}
	}
	if p.Message.Role != RoleUser {
		return InvalidParamsError{Reason: "only user messages can be submitted"}
	}
	return nil
}

// TaskIDParams are the params of tasks/get and tasks/cancel.
type TaskIDParams struct {
	ID string `json:"id"`
}

// Validate ensures the params are valid.
func (p *TaskIDParams) Validate() error {
	if p.ID == "" {
		return InvalidParamsError{Reason: "task id is required"}
	}
	return nil
}

// CancelTaskResult acknowledges a tasks/cancel request. NoOp is set when the
// task was already terminal and nothing changed.
type CancelTaskResult struct {
	Task *Task `json:"task"`
	NoOp bool  `json:"noop"`
}

// ListTasksParams are the params of tasks/list.
type ListTasksParams struct {
	ContextID string `json:"contextId"`
}

// Validate ensures the params are valid.
func (p *ListTasksParams) Validate() error {
	if p.ContextID == "" {
		return InvalidParamsError{Reason: "context id is required"}
	}
	return nil
}

// ListTasksResult is the result of tasks/list, in creation order.
type ListTasksResult struct {
	Tasks []*Task `json:"tasks"`
}
