// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"
)

// AgentCapabilities declares which optional entry points the agent exposes.
type AgentCapabilities struct {
	Streaming         bool `json:"streaming" yaml:"streaming"`
	PushNotifications bool `json:"pushNotifications" yaml:"push_notifications"`
	Cancellation      bool `json:"cancellation" yaml:"cancellation"`
}

// AgentSkill describes a unit of capability an agent can perform.
type AgentSkill struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Tags        []string `json:"tags,omitempty" yaml:"tags"`
	Examples    []string `json:"examples,omitempty" yaml:"examples"`
}

// Validate ensures the AgentSkill is valid.
func (s AgentSkill) Validate() error {
	if s.ID == "" {
		return errors.New("agent skill ID cannot be empty")
	}
	if s.Name == "" {
		return errors.New("agent skill name cannot be empty")
	}
	return nil
}

// AgentCard is the static capability descriptor produced once at startup.
type AgentCard struct {
	Name               string            `json:"name" yaml:"name"`
	Description        string            `json:"description,omitempty" yaml:"description"`
	URL                string            `json:"url" yaml:"url"`
	Version            string            `json:"version" yaml:"version"`
	ProtocolVersion    string            `json:"protocolVersion,omitempty" yaml:"protocol_version"`
	Skills             []AgentSkill      `json:"skills" yaml:"skills"`
	DefaultInputModes  []string          `json:"defaultInputModes" yaml:"default_input_modes"`
	DefaultOutputModes []string          `json:"defaultOutputModes" yaml:"default_output_modes"`
	Capabilities       AgentCapabilities `json:"capabilities" yaml:"capabilities"`
}

// Validate ensures the AgentCard is valid.
func (c *AgentCard) Validate() error {
	if c == nil {
		return errors.New("agent card cannot be nil")
	}
	if c.Name == "" || c.URL == "" || c.Version == "" {
		return errors.New("agent card must have name, URL, and version")
	}
	for i, s := range c.Skills {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("skill %d: %w", i, err)
		}
	}
	return nil
}
