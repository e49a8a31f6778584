// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a-engine/internal/telemetry"
	"github.com/go-a2a/a2a-engine/server/agent_execution"
	"github.com/go-a2a/a2a-engine/server/event"
	"github.com/go-a2a/a2a-engine/server/task"
)

// Option configures a [DefaultRequestHandler].
type Option func(*DefaultRequestHandler)

// WithLogger sets the logger of the handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *DefaultRequestHandler) {
		h.logger = logger
	}
}

// WithTracer sets the tracer of the handler.
func WithTracer(tracer trace.Tracer) Option {
	return func(h *DefaultRequestHandler) {
		h.tracer = tracer
	}
}

// WithMetrics sets the instruments the handler records to.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(h *DefaultRequestHandler) {
		h.metrics = m
	}
}

// WithTaskStore replaces the default in-memory task store.
func WithTaskStore(store task.TaskStore) Option {
	return func(h *DefaultRequestHandler) {
		h.store = store
	}
}

// WithQueueManager replaces the default event queue manager.
func WithQueueManager(m *event.QueueManager) Option {
	return func(h *DefaultRequestHandler) {
		h.queues = m
	}
}

// WithRequestContextBuilder sets the builder of the context handed to the logic.
func WithRequestContextBuilder(b agent_execution.RequestContextBuilder) Option {
	return func(h *DefaultRequestHandler) {
		h.builder = b
	}
}

// WithInvocationTimeout bounds each run of the logic. A run exceeding it
// fails the task. Zero disables the bound.
func WithInvocationTimeout(d time.Duration) Option {
	return func(h *DefaultRequestHandler) {
		h.timeout = d
	}
}

// WithArtifactName names the data artifact built from an outcome's Result.
func WithArtifactName(name string) Option {
	return func(h *DefaultRequestHandler) {
		h.artifactName = name
	}
}
