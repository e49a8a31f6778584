// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a-engine/internal/telemetry"
	"github.com/go-a2a/a2a-engine/server/task"
)

// Option represents an option for configuring the [Server].
type Option func(*Server)

// WithAddress sets the listen address used by [Server.Run].
func WithAddress(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithEndpoint sets the custom endpoint for the [Server].
func WithEndpoint(endpoint string) Option {
	return func(s *Server) {
		s.endpoint = endpoint
	}
}

// WithLogger sets the [*slog.Logger] for the [Server].
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTracer sets the [trace.Tracer] for the [Server].
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

// WithMetrics sets the instruments the [Server] records to.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithBusyPolicy sets how a message addressing a busy task is handled.
func WithBusyPolicy(p task.BusyPolicy) Option {
	return func(s *Server) {
		s.busyPolicy = p
	}
}

// WithInvocationTimeout bounds each run of the agent logic.
func WithInvocationTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.invocationTimeout = d
	}
}

// WithMaxQueueSize bounds the events of one invocation.
func WithMaxQueueSize(n int) Option {
	return func(s *Server) {
		s.maxQueueSize = n
	}
}

// WithMirror writes every task snapshot through to m.
func WithMirror(m task.Mirror) Option {
	return func(s *Server) {
		s.mirror = m
	}
}

// WithArtifactName names the artifact built from a result payload.
func WithArtifactName(name string) Option {
	return func(s *Server) {
		s.artifactName = name
	}
}

// WithShutdownTimeout bounds the graceful shutdown of [Server.Run].
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}
