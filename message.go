// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/google/uuid"
)

// Role identifies the sender of a message.
type Role string

const (
	// RoleUser is the role of messages sent by the client.
	RoleUser Role = "user"

	// RoleAgent is the role of messages produced by the agent.
	RoleAgent Role = "agent"
)

// PartKind discriminates the content carried by a Part.
type PartKind string

const (
	// PartKindText marks a plain text part.
	PartKindText PartKind = "text"

	// PartKindData marks a structured JSON object part.
	PartKindData PartKind = "data"
)

// Part is one piece of typed content of a Message or Artifact.
type Part struct {
	Kind     PartKind       `json:"kind"`
	Text     string         `json:"text,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewTextPart returns a text part.
func NewTextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

// NewDataPart returns a structured data part.
func NewDataPart(data map[string]any) Part {
	return Part{Kind: PartKindData, Data: data}
}

// Validate ensures the Part is valid.
func (p Part) Validate() error {
	switch p.Kind {
	case PartKindText:
		return nil
	case PartKindData:
		if p.Data == nil {
			return errors.New("data part must carry a data object")
		}
		return nil
	default:
		return fmt.Errorf("unknown part kind %q", p.Kind)
	}
}

func (p Part) clone() Part {
	p.Data = maps.Clone(p.Data)
	p.Metadata = maps.Clone(p.Metadata)
	return p
}

// Message is one exchange unit between a client and the agent.
//
// A message without a TaskID asks the engine to start a new task in ContextID.
type Message struct {
	Role      Role   `json:"role"`
	Parts     []Part `json:"parts"`
	MessageID string `json:"messageId"`
	ContextID string `json:"contextId,omitempty"`
	TaskID    string `json:"taskId,omitempty"`
	Kind      string `json:"kind"`
}

// KindMessage is the discriminator value of a serialized Message.
const KindMessage = "message"

func newTextMessage(role Role, text, contextID, taskID string) *Message {
	return &Message{
		Role:      role,
		Parts:     []Part{NewTextPart(text)},
		MessageID: uuid.NewString(),
		ContextID: contextID,
		TaskID:    taskID,
		Kind:      KindMessage,
	}
}

// NewUserTextMessage returns a single-part user message.
// An empty taskID starts a new task when the message is submitted.
func NewUserTextMessage(text, contextID, taskID string) *Message {
	return newTextMessage(RoleUser, text, contextID, taskID)
}

// NewAgentTextMessage returns a single-part agent message bound to a task.
func NewAgentTextMessage(text, contextID, taskID string) *Message {
	return newTextMessage(RoleAgent, text, contextID, taskID)
}

// Validate ensures the Message is valid.
func (m *Message) Validate() error {
	if m == nil {
		return errors.New("message cannot be nil")
	}
	if m.Role != RoleUser && m.Role != RoleAgent {
		return fmt.Errorf("invalid message role %q", m.Role)
	}
	if len(m.Parts) == 0 {
		return errors.New("message must have at least one part")
	}
	for i, p := range m.Parts {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
	}
	return nil
}

// Text joins the text parts of the message with newlines.
func (m *Message) Text() string {
	if m == nil {
		return ""
	}
	return partsText(m.Parts)
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	c.Parts = cloneParts(m.Parts)
	return &c
}

func partsText(parts []Part) string {
	var texts []string
	for _, p := range parts {
		if p.Kind == PartKindText {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

func cloneParts(parts []Part) []Part {
	if parts == nil {
		return nil
	}
	c := make([]Part, len(parts))
	for i, p := range parts {
		c[i] = p.clone()
	}
	return c
}
