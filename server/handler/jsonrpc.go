// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"go.opentelemetry.io/otel/metric"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/pool"
	"github.com/go-a2a/a2a-engine/internal/telemetry"
	"github.com/go-a2a/a2a-engine/server/event"
)

type unaryMethod func(ctx context.Context, params jsontext.Value) (any, error)

type streamMethod func(ctx context.Context, params jsontext.Value) (<-chan event.Event, error)

// JSONRPCHandler serves a [RequestHandler] as JSON-RPC 2.0 over HTTP.
//
// Unary methods answer with a single JSON response. Streaming methods answer
// with Server-Sent Events, one JSON-RPC response per event, and fall back to
// a plain JSON error when the call fails before the first event. The agent
// card is served on [a2a.AgentCardPath].
type JSONRPCHandler struct {
	handler  RequestHandler
	endpoint string
	logger   *slog.Logger
	metrics  *telemetry.Metrics

	unary  map[string]unaryMethod
	stream map[string]streamMethod
	mux    *http.ServeMux
}

var _ http.Handler = (*JSONRPCHandler)(nil)

// JSONRPCHandlerOption configures a [JSONRPCHandler].
type JSONRPCHandlerOption func(*JSONRPCHandler)

// WithEndpoint sets the path JSON-RPC requests are posted to. Defaults to [a2a.DefaultRPCPath].
func WithEndpoint(path string) JSONRPCHandlerOption {
	return func(h *JSONRPCHandler) {
		h.endpoint = path
	}
}

// WithJSONRPCLogger sets the logger of the transport.
func WithJSONRPCLogger(logger *slog.Logger) JSONRPCHandlerOption {
	return func(h *JSONRPCHandler) {
		h.logger = logger
	}
}

// WithJSONRPCMetrics sets the instruments the transport records to.
func WithJSONRPCMetrics(m *telemetry.Metrics) JSONRPCHandlerOption {
	return func(h *JSONRPCHandler) {
		h.metrics = m
	}
}

// NewJSONRPCHandler creates a new JSONRPCHandler with the provided request handler.
func NewJSONRPCHandler(handler RequestHandler, opts ...JSONRPCHandlerOption) *JSONRPCHandler {
	if handler == nil {
		panic("request handler cannot be nil")
	}

	h := &JSONRPCHandler{
		handler:  handler,
		endpoint: a2a.DefaultRPCPath,
		logger:   slog.Default(),
		metrics:  telemetry.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.registerMethods()

	h.mux = http.NewServeMux()
	h.mux.HandleFunc("GET "+a2a.AgentCardPath, h.serveAgentCard)
	h.mux.HandleFunc("POST "+h.endpoint, h.serveRPC)

	return h
}

// registerMethods registers all JSON-RPC method handlers.
func (h *JSONRPCHandler) registerMethods() {
	h.unary = map[string]unaryMethod{
		a2a.MethodMessageSend: func(ctx context.Context, raw jsontext.Value) (any, error) {
			p, err := decodeParams[a2a.MessageSendParams](raw)
			if err != nil {
				return nil, err
			}
			return h.handler.OnMessageSend(ctx, p)
		},
		a2a.MethodTasksGet: func(ctx context.Context, raw jsontext.Value) (any, error) {
			p, err := decodeParams[a2a.TaskIDParams](raw)
			if err != nil {
				return nil, err
			}
			return h.handler.OnGetTask(ctx, p)
		},
		a2a.MethodTasksCancel: func(ctx context.Context, raw jsontext.Value) (any, error) {
			p, err := decodeParams[a2a.TaskIDParams](raw)
			if err != nil {
				return nil, err
			}
			return h.handler.OnCancelTask(ctx, p)
		},
		a2a.MethodTasksList: func(ctx context.Context, raw jsontext.Value) (any, error) {
			p, err := decodeParams[a2a.ListTasksParams](raw)
			if err != nil {
				return nil, err
			}
			return h.handler.OnListTasks(ctx, p)
		},
	}

	h.stream = map[string]streamMethod{
		a2a.MethodMessageStream: func(ctx context.Context, raw jsontext.Value) (<-chan event.Event, error) {
			p, err := decodeParams[a2a.MessageSendParams](raw)
			if err != nil {
				return nil, err
			}
			return h.handler.OnMessageSendStream(ctx, p)
		},
		a2a.MethodTasksResubscribe: func(ctx context.Context, raw jsontext.Value) (<-chan event.Event, error) {
			p, err := decodeParams[a2a.TaskIDParams](raw)
			if err != nil {
				return nil, err
			}
			return h.handler.OnResubscribe(ctx, p)
		},
	}
}

// ServeHTTP implements [http.Handler].
func (h *JSONRPCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *JSONRPCHandler) serveAgentCard(w http.ResponseWriter, r *http.Request) {
	card := h.handler.AgentCard()
	if card == nil {
		http.NotFound(w, r)
		return
	}
	h.writeJSON(w, card)
}

func (h *JSONRPCHandler) serveRPC(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req a2a.JSONRPCRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		h.writeJSON(w, a2a.NewJSONRPCErrorResponse(nil, &a2a.JSONRPCError{
			Code:    a2a.ErrorCodeJSONParse,
			Message: fmt.Sprintf("parse error: %v", err),
		}))
		return
	}
	if err := req.Validate(); err != nil {
		h.writeJSON(w, a2a.NewJSONRPCErrorResponse(req.ID, &a2a.JSONRPCError{
			Code:    a2a.ErrorCodeInvalidRequest,
			Message: err.Error(),
		}))
		return
	}
	h.metrics.Requests.Add(ctx, 1, metric.WithAttributes(telemetry.KeyMethod.String(req.Method)))

	if m, ok := h.stream[req.Method]; ok {
		events, err := m(ctx, req.Params)
		if err != nil {
			h.writeError(ctx, w, req, err)
			return
		}
		h.writeStream(w, req.ID, events)
		return
	}

	m, ok := h.unary[req.Method]
	if !ok {
		h.writeJSON(w, a2a.NewJSONRPCErrorResponse(req.ID, &a2a.JSONRPCError{
			Code:    a2a.ErrorCodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		}))
		return
	}

	result, err := m(ctx, req.Params)
	if err != nil {
		h.writeError(ctx, w, req, err)
		return
	}
	h.writeJSON(w, a2a.NewJSONRPCResult(req.ID, result))
}

func (h *JSONRPCHandler) writeError(ctx context.Context, w http.ResponseWriter, req a2a.JSONRPCRequest, err error) {
	level := slog.LevelDebug
	if !a2a.IsProtocolError(err) {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "request failed",
		slog.String("method", req.Method),
		slog.Any("error", err),
	)
	h.writeJSON(w, a2a.NewJSONRPCErrorResponse(req.ID, err))
}

func (h *JSONRPCHandler) writeJSON(w http.ResponseWriter, v any) {
	buf := pool.Bytes.Get()
	defer pool.Bytes.Put(buf)

	if err := json.MarshalWrite(buf, v); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}

// decodeParams unmarshals and validates the params of a request.
func decodeParams[P any, PT interface {
	*P
	Validate() error
}](raw jsontext.Value) (PT, error) {
	if len(raw) == 0 {
		return nil, a2a.InvalidParamsError{Reason: "params are required"}
	}
	p := PT(new(P))
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, a2a.InvalidParamsError{Reason: err.Error()}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
