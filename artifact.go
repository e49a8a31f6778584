// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Artifact is a structured result attached to a task.
type Artifact struct {
	ArtifactID  string `json:"artifactId"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Parts       []Part `json:"parts"`
}

// NewArtifact returns an artifact with a freshly minted id.
func NewArtifact(name string, parts ...Part) *Artifact {
	return &Artifact{
		ArtifactID: uuid.NewString(),
		Name:       name,
		Parts:      parts,
	}
}

// NewTextArtifact returns a single text part artifact.
func NewTextArtifact(name, text string) *Artifact {
	return NewArtifact(name, NewTextPart(text))
}

// NewDataArtifact returns a single data part artifact.
func NewDataArtifact(name string, data map[string]any) *Artifact {
	return NewArtifact(name, NewDataPart(data))
}

// Validate ensures the Artifact is valid.
func (a *Artifact) Validate() error {
	if a == nil {
		return errors.New("artifact cannot be nil")
	}
	if a.ArtifactID == "" {
		return errors.New("artifact ID cannot be empty")
	}
	if len(a.Parts) == 0 {
		return errors.New("artifact must have at least one part")
	}
	for i, p := range a.Parts {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("artifact %s part %d: %w", a.ArtifactID, i, err)
		}
	}
	return nil
}

// Text joins the text parts of the artifact with newlines.
func (a *Artifact) Text() string {
	if a == nil {
		return ""
	}
	return partsText(a.Parts)
}

// Clone returns a deep copy of the artifact.
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}
	c := *a
	c.Parts = cloneParts(a.Parts)
	return &c
}
