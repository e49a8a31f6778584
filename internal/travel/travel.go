// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package travel implements a toy flight and hotel booking agent that needs
// a second turn to collect travel dates for flights.
package travel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/pool"
	"github.com/go-a2a/a2a-engine/server/agent_execution"
)

// Replies of the agent.
const (
	AskDatesReply     = "I'd be happy to help you book a flight! Could you please provide your preferred travel dates? (e.g. 'June 15 - June 22, 2026')"
	HotelBookedReply  = "Your hotel has been booked! Here are the details:"
	FlightBookedReply = "Your flight has been booked! Here are the details:"
)

// ArtifactName names the confirmation artifact of a booking.
const ArtifactName = "booking_confirmation"

// dateHints mark an input as carrying travel dates.
var dateHints = []string{
	"jan", "feb", "mar", "apr", "may", "jun",
	"jul", "aug", "sep", "oct", "nov", "dec",
	"2025", "2026", "2027",
}

// field is one line of a booking confirmation.
type field struct {
	Label string
	Key   string
	Value string
}

// Booking is a confirmed reservation.
type Booking struct {
	Kind   string
	fields []field
}

// Map returns the booking as structured data.
func (b *Booking) Map() map[string]any {
	m := map[string]any{"type": b.Kind}
	for _, f := range b.fields {
		m[f.Key] = f.Value
	}
	return m
}

// Confirmation renders the booking as an aligned text block.
func (b *Booking) Confirmation() string {
	sb := pool.String.Get()
	defer pool.String.Put(sb)

	sb.WriteString("Booking Confirmation\n")
	sb.WriteString("====================\n")
	fmt.Fprintf(sb, "%-12s: %s", "Type", b.Kind)
	for _, f := range b.fields {
		fmt.Fprintf(sb, "\n%-12s: %s", f.Label, f.Value)
	}
	return sb.String()
}

// Artifact returns the confirmation artifact: the rendered text followed by
// the structured booking.
func (b *Booking) Artifact() *a2a.Artifact {
	return a2a.NewArtifact(ArtifactName,
		a2a.NewTextPart(b.Confirmation()),
		a2a.NewDataPart(b.Map()),
	)
}

func hotelBooking() *Booking {
	return &Booking{
		Kind: "Hotel",
		fields: []field{
			{"Hotel", "hotel", "Le Ciel Paris Airport"},
			{"Location", "location", "Near Charles de Gaulle Airport, Paris"},
			{"Check-in", "check_in", "June 15, 2026"},
			{"Check-out", "check_out", "June 22, 2026"},
			{"Room", "room", "Deluxe King"},
			{"Status", "status", "CONFIRMED"},
		},
	}
}

func flightBooking(dates string) *Booking {
	return &Booking{
		Kind: "Flight",
		fields: []field{
			{"Destination", "destination", "Paris"},
			{"Dates", "departure", dates},
			{"Airline", "airline", "SkyHigh Airlines"},
			{"Flight", "flight", "SH-1042"},
			{"Status", "status", "CONFIRMED"},
		},
	}
}

// Agent is the travel booking logic.
type Agent struct {
	logger *slog.Logger
}

var _ agent_execution.Agent = (*Agent)(nil)

// Option configures an [Agent].
type Option func(*Agent)

// WithLogger sets the logger of the agent.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// New returns a travel agent.
func New(opts ...Option) *Agent {
	a := &Agent{logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Process implements [agent_execution.Agent].
//
// A hotel request is booked at once. A flight request is booked once the
// input mentions a month or a year; until then the agent asks for dates.
func (a *Agent) Process(ctx context.Context, input, contextID string) (*agent_execution.Outcome, error) {
	text := strings.ToLower(input)

	var (
		booking *Booking
		reply   string
	)
	switch {
	case strings.Contains(text, "hotel"):
		booking, reply = hotelBooking(), HotelBookedReply
	case hasDate(text):
		booking, reply = flightBooking(strings.TrimSpace(input)), FlightBookedReply
	default:
		a.logger.DebugContext(ctx, "asking for travel dates", slog.String("context_id", contextID))
		return &agent_execution.Outcome{Response: AskDatesReply, NeedsInput: true}, nil
	}

	a.logger.InfoContext(ctx, "booking confirmed",
		slog.String("context_id", contextID),
		slog.String("type", booking.Kind),
	)
	return &agent_execution.Outcome{
		Response:  reply,
		Result:    booking.Map(),
		Artifacts: []*a2a.Artifact{booking.Artifact()},
	}, nil
}

func hasDate(text string) bool {
	for _, hint := range dateHints {
		if strings.Contains(text, hint) {
			return true
		}
	}
	return false
}

// Card returns the discovery document of the travel agent served at url.
func Card(url string) *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:            "Travel Booking Agent",
		Description:     "An AI-powered travel agent that helps you book flights and hotels.",
		URL:             url,
		Version:         "1.0.0",
		ProtocolVersion: a2a.Version,
		Skills: []a2a.AgentSkill{{
			ID:          "travel_booking",
			Name:        "Travel Booking",
			Description: "Books flights and hotels for destinations worldwide. Supports multi-turn conversations to collect travel details.",
			Tags:        []string{"travel", "flights", "hotels", "booking"},
			Examples: []string{
				"Book a flight to Paris",
				"I need a flight to Tokyo next month",
				"Book a hotel near the airport",
			},
		}},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Capabilities: a2a.AgentCapabilities{
			Streaming:    true,
			Cancellation: true,
		},
	}
}
