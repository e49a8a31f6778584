// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package client implements a JSON-RPC client for agents served by the engine.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/telemetry"
)

// Client talks to one agent endpoint. It is safe for concurrent use.
type Client struct {
	url          string
	hc           *http.Client
	interceptors []Interceptor
	userAgent    string
	logger       *slog.Logger
	tracer       trace.Tracer

	nextID atomic.Int64
}

// NewClient creates a client posting JSON-RPC requests to url.
func NewClient(url string, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, errors.New("client URL cannot be empty")
	}

	c := &Client{
		url:       url,
		hc:        http.DefaultClient,
		userAgent: DefaultUserAgent,
		logger:    slog.Default(),
		tracer:    telemetry.Tracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewClientFromCard creates a client for the endpoint advertised by card.
func NewClientFromCard(card *a2a.AgentCard, opts ...Option) (*Client, error) {
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return NewClient(card.URL, opts...)
}

// URL returns the endpoint of the client.
func (c *Client) URL() string { return c.url }

// SendMessage submits msg and returns the task once the invocation it
// triggered has ended.
func (c *Client) SendMessage(ctx context.Context, msg *a2a.Message) (*a2a.Task, error) {
	return call[a2a.Task](ctx, c, a2a.MethodMessageSend, &a2a.MessageSendParams{Message: msg})
}

// SendMessageStream submits msg and streams the events of its invocation.
func (c *Client) SendMessageStream(ctx context.Context, msg *a2a.Message) (*Stream, error) {
	return c.stream(ctx, a2a.MethodMessageStream, &a2a.MessageSendParams{Message: msg})
}

// GetTask fetches a snapshot of a task.
func (c *Client) GetTask(ctx context.Context, taskID string) (*a2a.Task, error) {
	return call[a2a.Task](ctx, c, a2a.MethodTasksGet, &a2a.TaskIDParams{ID: taskID})
}

// CancelTask cancels a task. Canceling a terminal task reports NoOp.
func (c *Client) CancelTask(ctx context.Context, taskID string) (*a2a.CancelTaskResult, error) {
	return call[a2a.CancelTaskResult](ctx, c, a2a.MethodTasksCancel, &a2a.TaskIDParams{ID: taskID})
}

// ListTasks returns the tasks of a context in creation order.
func (c *Client) ListTasks(ctx context.Context, contextID string) ([]*a2a.Task, error) {
	res, err := call[a2a.ListTasksResult](ctx, c, a2a.MethodTasksList, &a2a.ListTasksParams{ContextID: contextID})
	if err != nil {
		return nil, err
	}
	return res.Tasks, nil
}

// Resubscribe replays the latest invocation of a task and follows it.
func (c *Client) Resubscribe(ctx context.Context, taskID string) (*Stream, error) {
	return c.stream(ctx, a2a.MethodTasksResubscribe, &a2a.TaskIDParams{ID: taskID})
}

// rpcResponse is the client view of a JSON-RPC response: the result is kept
// raw until the caller knows its type.
type rpcResponse struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      jsontext.Value `json:"id,omitzero"`
	Result  jsontext.Value `json:"result,omitzero"`
	Error   *RPCError      `json:"error,omitzero"`
}

func (r *rpcResponse) decode(v any) error {
	if r.Error != nil {
		return r.Error
	}
	if len(r.Result) == 0 {
		return errors.New("response carries neither result nor error")
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

func call[R any](ctx context.Context, c *Client, method string, params any) (_ *R, err error) {
	ctx, span := c.tracer.Start(ctx, "a2a.client."+method)
	span.SetAttributes(telemetry.KeyMethod.String(method))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	resp, err := c.post(ctx, method, params, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out rpcResponse
	if err := json.UnmarshalRead(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	result := new(R)
	if err := out.decode(result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) stream(ctx context.Context, method string, params any) (*Stream, error) {
	resp, err := c.post(ctx, method, params, "text/event-stream")
	if err != nil {
		return nil, err
	}

	// A call failing before its first event is answered with plain JSON.
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt != "text/event-stream" {
		defer resp.Body.Close()
		var out rpcResponse
		if err := json.UnmarshalRead(resp.Body, &out); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", method, err)
		}
		if out.Error != nil {
			return nil, out.Error
		}
		return nil, fmt.Errorf("%s answered with %q instead of an event stream", method, mt)
	}

	return newStream(resp.Body), nil
}

// post sends one JSON-RPC request through the interceptor chain and checks
// the HTTP status.
func (c *Client) post(ctx context.Context, method string, params any, accept string) (*http.Response, error) {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode %s params: %w", method, err)
	}
	body, err := json.Marshal(&a2a.JSONRPCRequest{
		JSONRPC: a2a.JSONRPCVersion,
		ID:      jsontext.Value(strconv.FormatInt(c.nextID.Add(1), 10)),
		Method:  method,
		Params:  rawParams,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	ctx = withMethod(ctx, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	invoker := func(_ context.Context, req *http.Request) (*http.Response, error) {
		return c.hc.Do(req)
	}
	resp, err := chainInterceptors(c.interceptors, invoker)(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	c.logger.DebugContext(ctx, "request sent", slog.String("method", method))
	return resp, nil
}
