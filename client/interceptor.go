// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"time"

	a2a "github.com/go-a2a/a2a-engine"
)

type methodKey struct{}

// withMethod records the JSON-RPC method of an outgoing request.
func withMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, methodKey{}, method)
}

// MethodFromContext returns the JSON-RPC method carried by a request context
// passed to an [Interceptor].
func MethodFromContext(ctx context.Context) string {
	m, _ := ctx.Value(methodKey{}).(string)
	return m
}

// Interceptor defines a middleware function that can intercept and modify requests/responses.
type Interceptor func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error)

// Invoker represents the next handler in the interceptor chain.
type Invoker func(ctx context.Context, req *http.Request) (*http.Response, error)

// chainInterceptors chains multiple interceptors together.
func chainInterceptors(interceptors []Interceptor, invoker Invoker) Invoker {
	if len(interceptors) == 0 {
		return invoker
	}

	// Build the chain from right to left
	for i := len(interceptors) - 1; i >= 0; i-- {
		interceptor := interceptors[i]
		next := invoker
		invoker = func(ctx context.Context, req *http.Request) (*http.Response, error) {
			return interceptor(ctx, req, next)
		}
	}

	return invoker
}

// LoggingInterceptor logs requests and responses.
func LoggingInterceptor(logger *slog.Logger) Interceptor {
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		started := time.Now()
		resp, err := invoker(ctx, req)
		if err != nil {
			logger.ErrorContext(ctx, "request failed",
				slog.String("url", req.URL.String()),
				slog.Any("error", err),
			)
			return resp, err
		}
		logger.DebugContext(ctx, "request done",
			slog.String("url", req.URL.String()),
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(started)),
		)
		return resp, nil
	}
}

// RetryPolicy configures [RetryInterceptor].
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy returns the retry policy used when none is given.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2,
	}
}

// RetryInterceptor retries requests failing with a retryable status.
//
// Only requests whose body can be replayed are retried. Messages are retried
// only on 429 and 503, which are answered before the agent sees the request:
// after a 502, 504 or a broken connection the message may already have
// started a task, and sending it again would start another.
func RetryInterceptor(policy *RetryPolicy) Interceptor {
	if policy == nil {
		policy = DefaultRetryPolicy()
	}
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		if req.GetBody == nil {
			return invoker(ctx, req)
		}

		method := MethodFromContext(ctx)

		var (
			resp    *http.Response
			lastErr error
		)
		attempts := max(policy.MaxAttempts, 1)
		for attempt := range attempts {
			if attempt > 0 {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				req.Body = body
			}

			resp, lastErr = invoker(ctx, req)
			if !shouldRetry(method, resp, lastErr) {
				return resp, lastErr
			}
			if attempt == attempts-1 {
				break
			}
			if lastErr == nil {
				resp.Body.Close()
			}

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(calculateDelay(policy, attempt)):
			}
		}
		return resp, lastErr
	}
}

// UserAgentInterceptor adds a user agent header to requests.
func UserAgentInterceptor(userAgent string) Interceptor {
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		req.Header.Set("User-Agent", userAgent)
		return invoker(ctx, req)
	}
}

// HeaderInterceptor adds custom headers to requests.
func HeaderInterceptor(headers map[string]string) Interceptor {
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		for key, value := range headers {
			req.Header.Set(key, value)
		}
		return invoker(ctx, req)
	}
}

// shouldRetry determines if a request should be sent again after resp or err.
func shouldRetry(method string, resp *http.Response, err error) bool {
	idempotent := method != a2a.MethodMessageSend && method != a2a.MethodMessageStream
	if err != nil {
		return idempotent
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return idempotent
	}
	return false
}

// calculateDelay calculates the delay for the next retry attempt.
func calculateDelay(policy *RetryPolicy, attempt int) time.Duration {
	return min(time.Duration(float64(policy.InitialDelay)*math.Pow(policy.Multiplier, float64(attempt))), policy.MaxDelay)
}
