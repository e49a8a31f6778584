// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package travel

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestAgent() *Agent {
	return New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestProcess(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantReply  string
		needsInput bool
		wantType   string
	}{
		{"flight without dates", "Book a flight to Paris", AskDatesReply, true, ""},
		{"flight dates", "June 15 - June 22, 2026", FlightBookedReply, false, "Flight"},
		{"year only", "sometime in 2027", FlightBookedReply, false, "Flight"},
		{"hotel", "Book a hotel near the airport in Paris", HotelBookedReply, false, "Hotel"},
		{"hotel wins over dates", "Hotel for June 15", HotelBookedReply, false, "Hotel"},
		{"case insensitive", "BOOK A FLIGHT IN DECEMBER", FlightBookedReply, false, "Flight"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newTestAgent().Process(context.Background(), tt.input, "ctx")
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if diff := cmp.Diff(tt.wantReply, out.Response); diff != "" {
				t.Errorf("response mismatch (-want +got):\n%s", diff)
			}
			if out.NeedsInput != tt.needsInput {
				t.Errorf("NeedsInput = %t, want %t", out.NeedsInput, tt.needsInput)
			}
			if tt.needsInput {
				if len(out.Artifacts) != 0 || out.Result != nil {
					t.Error("a question carries a booking")
				}
				return
			}
			if len(out.Artifacts) != 1 {
				t.Fatalf("got %d artifacts, want 1", len(out.Artifacts))
			}
			if got := out.Result["type"]; got != tt.wantType {
				t.Errorf("booking type = %v, want %s", got, tt.wantType)
			}
			if err := out.Validate(); err != nil {
				t.Errorf("outcome is invalid: %v", err)
			}
		})
	}
}

func TestFlightConfirmation(t *testing.T) {
	out, err := newTestAgent().Process(context.Background(), "  June 15 - June 22, 2026 ", "ctx")
	if err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"Booking Confirmation",
		"====================",
		"Type        : Flight",
		"Destination : Paris",
		"Dates       : June 15 - June 22, 2026",
		"Airline     : SkyHigh Airlines",
		"Flight      : SH-1042",
		"Status      : CONFIRMED",
	}, "\n")
	artifact := out.Artifacts[0]
	if diff := cmp.Diff(want, artifact.Parts[0].Text); diff != "" {
		t.Errorf("confirmation mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(ArtifactName, artifact.Name); diff != "" {
		t.Errorf("artifact name mismatch (-want +got):\n%s", diff)
	}

	wantData := map[string]any{
		"type":        "Flight",
		"destination": "Paris",
		"departure":   "June 15 - June 22, 2026",
		"airline":     "SkyHigh Airlines",
		"flight":      "SH-1042",
		"status":      "CONFIRMED",
	}
	if diff := cmp.Diff(wantData, artifact.Parts[1].Data); diff != "" {
		t.Errorf("booking data mismatch (-want +got):\n%s", diff)
	}
}

func TestHotelConfirmation(t *testing.T) {
	b := hotelBooking()
	want := strings.Join([]string{
		"Booking Confirmation",
		"====================",
		"Type        : Hotel",
		"Hotel       : Le Ciel Paris Airport",
		"Location    : Near Charles de Gaulle Airport, Paris",
		"Check-in    : June 15, 2026",
		"Check-out   : June 22, 2026",
		"Room        : Deluxe King",
		"Status      : CONFIRMED",
	}, "\n")
	if diff := cmp.Diff(want, b.Confirmation()); diff != "" {
		t.Errorf("confirmation mismatch (-want +got):\n%s", diff)
	}
}

func TestCard(t *testing.T) {
	card := Card("http://localhost:9999")
	if err := card.Validate(); err != nil {
		t.Fatalf("Card() is invalid: %v", err)
	}
	if !card.Capabilities.Streaming || !card.Capabilities.Cancellation {
		t.Errorf("capabilities = %+v, want streaming and cancellation", card.Capabilities)
	}
	if diff := cmp.Diff("travel_booking", card.Skills[0].ID); diff != "" {
		t.Errorf("skill id mismatch (-want +got):\n%s", diff)
	}
}
