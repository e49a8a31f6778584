// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry holds the OpenTelemetry instruments shared by the engine.
package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the tracer and meter of the engine.
const InstrumentationName = "github.com/go-a2a/a2a-engine"

// Attribute keys attached to spans and measurements.
const (
	KeyTaskID    = attribute.Key("a2a.task_id")
	KeyContextID = attribute.Key("a2a.context_id")
	KeyState     = attribute.Key("a2a.task_state")
	KeyOperation = attribute.Key("a2a.operation")
	KeyMethod    = attribute.Key("a2a.method")
	KeyOutcome   = attribute.Key("a2a.outcome")
)

// Metrics groups the counters and histograms recorded by the engine.
type Metrics struct {
	TasksCreated        metric.Int64Counter
	Transitions         metric.Int64Counter
	RejectedTransitions metric.Int64Counter
	Invocations         metric.Int64Counter
	InvocationLatency   metric.Float64Histogram
	Requests            metric.Int64Counter
}

var (
	defaultMetrics *Metrics
	metricOnce     sync.Once
)

// Default returns the instruments built from the global meter provider.
func Default() *Metrics {
	metricOnce.Do(func() {
		defaultMetrics = New(otel.Meter(InstrumentationName))
	})
	return defaultMetrics
}

// Tracer returns the engine tracer from the global tracer provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// New builds the instruments on m. An instrument the meter refuses to create
// is reported to the global error handler and replaced by a no-op.
func New(m metric.Meter) *Metrics {
	var (
		met Metrics
		err error
	)

	met.TasksCreated, err = m.Int64Counter("a2a.tasks.created",
		metric.WithDescription("Count of tasks minted"),
	)
	if err != nil {
		otel.Handle(err)
		met.TasksCreated = noop.Int64Counter{}
	}

	met.Transitions, err = m.Int64Counter("a2a.task.transitions",
		metric.WithDescription("Count of applied lifecycle transitions"),
	)
	if err != nil {
		otel.Handle(err)
		met.Transitions = noop.Int64Counter{}
	}

	met.RejectedTransitions, err = m.Int64Counter("a2a.task.transitions.rejected",
		metric.WithDescription("Count of lifecycle operations refused by the state machine"),
	)
	if err != nil {
		otel.Handle(err)
		met.RejectedTransitions = noop.Int64Counter{}
	}

	met.Invocations, err = m.Int64Counter("a2a.invocations",
		metric.WithDescription("Count of agent logic invocations"),
	)
	if err != nil {
		otel.Handle(err)
		met.Invocations = noop.Int64Counter{}
	}

	met.InvocationLatency, err = m.Float64Histogram("a2a.invocation.duration",
		metric.WithDescription("Duration of agent logic invocations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
		met.InvocationLatency = noop.Float64Histogram{}
	}

	met.Requests, err = m.Int64Counter("a2a.requests",
		metric.WithDescription("Count of JSON-RPC requests served"),
	)
	if err != nil {
		otel.Handle(err)
		met.Requests = noop.Int64Counter{}
	}

	return &met
}

// Noop returns instruments that record nothing.
func Noop() *Metrics {
	return New(noop.NewMeterProvider().Meter(InstrumentationName))
}
