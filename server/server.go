// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package server assembles the task engine and serves it over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/telemetry"
	"github.com/go-a2a/a2a-engine/server/agent_execution"
	"github.com/go-a2a/a2a-engine/server/event"
	"github.com/go-a2a/a2a-engine/server/handler"
	"github.com/go-a2a/a2a-engine/server/task"
)

// Server runs one agent behind the JSON-RPC binding.
type Server struct {
	addr              string
	endpoint          string
	busyPolicy        task.BusyPolicy
	invocationTimeout time.Duration
	maxQueueSize      int
	mirror            task.Mirror
	artifactName      string
	shutdownTimeout   time.Duration

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *telemetry.Metrics

	store   *task.InMemoryTaskStore
	handler *handler.DefaultRequestHandler
	http    http.Handler
}

// New creates a Server running agent and advertising card.
func New(agent agent_execution.Agent, card *a2a.AgentCard, opts ...Option) (*Server, error) {
	if agent == nil {
		return nil, errors.New("agent is required")
	}
	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("agent card: %w", err)
	}

	s := &Server{
		addr:            "localhost:9999",
		endpoint:        a2a.DefaultRPCPath,
		busyPolicy:      task.BusyReject,
		maxQueueSize:    event.DefaultMaxQueueSize,
		artifactName:    "result",
		shutdownTimeout: 10 * time.Second,
		logger:          slog.Default(),
		tracer:          telemetry.Tracer(),
		metrics:         telemetry.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	storeOpts := []task.InMemoryTaskStoreOption{
		task.WithBusyPolicy(s.busyPolicy),
		task.WithStoreLogger(s.logger),
		task.WithStoreMetrics(s.metrics),
	}
	if s.mirror != nil {
		storeOpts = append(storeOpts, task.WithMirror(s.mirror))
	}
	s.store = task.NewInMemoryTaskStore(storeOpts...)

	s.handler = handler.NewDefaultRequestHandler(agent, card,
		handler.WithLogger(s.logger),
		handler.WithTracer(s.tracer),
		handler.WithMetrics(s.metrics),
		handler.WithTaskStore(s.store),
		handler.WithQueueManager(event.NewQueueManager(event.WithMaxQueueSize(s.maxQueueSize))),
		handler.WithRequestContextBuilder(agent_execution.NewSimpleRequestContextBuilder(s.store)),
		handler.WithInvocationTimeout(s.invocationTimeout),
		handler.WithArtifactName(s.artifactName),
	)

	rpc := handler.NewJSONRPCHandler(s.handler,
		handler.WithEndpoint(s.endpoint),
		handler.WithJSONRPCLogger(s.logger),
		handler.WithJSONRPCMetrics(s.metrics),
	)
	s.http = h2c.NewHandler(rpc, &http2.Server{})

	return s, nil
}

// ServeHTTP implements the http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.http.ServeHTTP(w, r)
}

// RequestHandler returns the transport-independent request handler.
func (s *Server) RequestHandler() *handler.DefaultRequestHandler {
	return s.handler
}

// Store returns the task store of the server.
func (s *Server) Store() *task.InMemoryTaskStore {
	return s.store
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully: the
// listener closes, open requests drain, and running invocations get until
// the shutdown timeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.InfoContext(ctx, "serving agent", slog.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.InfoContext(ctx, "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if werr := s.handler.Wait(shutdownCtx); werr != nil {
			s.logger.WarnContext(ctx, "invocations still running at shutdown", slog.Any("error", werr))
		}
		return err
	})
	return g.Wait()
}
