// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

// Well-known paths of the HTTP binding.
const (
	// AgentCardPath is the standard path for retrieving an agent's public AgentCard.
	//
	// Example usage: https://agent.example.com/.well-known/agent-card.json
	AgentCardPath = "/.well-known/agent-card.json"

	// DefaultRPCPath is the default path JSON-RPC requests are posted to.
	DefaultRPCPath = "/"
)
