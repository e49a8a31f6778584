// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a_test

import (
	"testing"

	a2a "github.com/go-a2a/a2a-engine"
)

func TestAgentCardValidate(t *testing.T) {
	t.Parallel()

	valid := func() *a2a.AgentCard {
		return &a2a.AgentCard{
			Name:    "Travel Booking Agent",
			URL:     "http://localhost:9999/",
			Version: "1.0.0",
			Skills:  []a2a.AgentSkill{{ID: "travel_booking", Name: "Travel Booking"}},
		}
	}

	tests := map[string]struct {
		card    func() *a2a.AgentCard
		wantErr bool
	}{
		"valid": {card: valid},
		"nil": {
			card:    func() *a2a.AgentCard { return nil },
			wantErr: true,
		},
		"no url": {
			card: func() *a2a.AgentCard {
				c := valid()
				c.URL = ""
				return c
			},
			wantErr: true,
		},
		"skill without id": {
			card: func() *a2a.AgentCard {
				c := valid()
				c.Skills[0].ID = ""
				return c
			},
			wantErr: true,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if err := tt.card().Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}
