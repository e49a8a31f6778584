// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	a2a "github.com/go-a2a/a2a-engine"
)

// CardResolver represents an Agent Card resolver.
type CardResolver interface {
	// GetAgentCard fetches an agent card from a specified path relative to the baseURL.
	//
	// If relativeCardPath is empty, it defaults to the well-known card path.
	GetAgentCard(ctx context.Context, relativeCardPath string) (*a2a.AgentCard, error)
}

// HTTPCardResolver fetches agent cards over HTTP.
type HTTPCardResolver struct {
	hc            *http.Client
	baseURL       string
	agentCardPath string
}

var _ CardResolver = (*HTTPCardResolver)(nil)

// NewCardResolver returns a resolver for the agent served at baseURL. A nil
// hc uses [http.DefaultClient].
func NewCardResolver(baseURL string, hc *http.Client) *HTTPCardResolver {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPCardResolver{
		hc:            hc,
		baseURL:       strings.TrimRight(baseURL, "/"),
		agentCardPath: strings.TrimLeft(a2a.AgentCardPath, "/"),
	}
}

// GetAgentCard implements [CardResolver].
func (r *HTTPCardResolver) GetAgentCard(ctx context.Context, relativeCardPath string) (*a2a.AgentCard, error) {
	if relativeCardPath == "" {
		relativeCardPath = r.agentCardPath
	} else {
		relativeCardPath = strings.TrimLeft(relativeCardPath, "/")
	}

	targetURL := fmt.Sprintf("%s/%s", r.baseURL, relativeCardPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch agent card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("fetch agent card from %s: %w", targetURL, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)})
	}

	var agentCard a2a.AgentCard
	dec := jsontext.NewDecoder(resp.Body)
	if err := json.UnmarshalDecode(dec, &agentCard, json.DefaultOptionsV2()); err != nil {
		return nil, fmt.Errorf("decode agent card: %w", err)
	}
	if err := agentCard.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent card: %w", err)
	}

	return &agentCard, nil
}
